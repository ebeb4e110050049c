// Package service implements the tool operations exposed over MCP.
//
// Operations never return errors to the caller: every failure is rendered
// as a human-readable message string, so a misbehaving upstream API degrades
// to explanatory text instead of a protocol fault.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yakeworld/mcp-semantic-scholar-server/internal/domain"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/observability"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/render"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/semanticscholar"
)

// SearchPapersRequest carries the arguments of the search_papers operation.
type SearchPapersRequest struct {
	Keyword         string `validate:"required"`
	Limit           int    `validate:"omitempty,min=1,max=100"`
	YearFrom        int    `validate:"omitempty,min=0"`
	YearTo          int    `validate:"omitempty,min=0"`
	SortBy          string `validate:"omitempty,oneof=relevance citationCount year"`
	AdvancedFilters string
}

// GetPaperDetailsRequest carries the arguments of the get_paper_details
// operation. IncludeReferences and IncludeCitations default to true and are
// only disabled when explicitly set false by the caller.
type GetPaperDetailsRequest struct {
	PaperID           string `validate:"required"`
	IncludeReferences *bool
	IncludeCitations  *bool
}

// SearchAuthorsRequest carries the arguments of the search_authors operation.
type SearchAuthorsRequest struct {
	Name  string `validate:"required"`
	Limit int    `validate:"omitempty,min=1,max=50"`
}

// PaperSource is the upstream API surface the service depends on.
type PaperSource interface {
	Search(ctx context.Context, query semanticscholar.SearchQuery) (*semanticscholar.SearchResponse, error)
	GetPaper(ctx context.Context, id string, opts semanticscholar.GetPaperOptions) (*semanticscholar.Paper, error)
	SearchAuthors(ctx context.Context, query string, limit int) (*semanticscholar.AuthorSearchResponse, error)
	EnrichPapers(ctx context.Context, papers []semanticscholar.Paper)
}

// Service wires the Semantic Scholar client to the markdown renderer.
type Service struct {
	source   PaperSource
	renderer *render.Renderer
	validate *validator.Validate
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// New creates a Service. metrics may be nil.
func New(source PaperSource, renderer *render.Renderer, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		source:   source,
		renderer: renderer,
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
	}
}

const (
	defaultSearchLimit = 10
	defaultAuthorLimit = 10
)

// Fixed responses for empty result sets.
const (
	msgNoPapers  = "No papers found matching your search criteria."
	msgNoPaper   = "No paper found with the provided ID or DOI."
	noAuthorsFmt = "No authors found matching '%s'."
)

// SearchPapers runs a keyword search, enriches the page of results with
// citation context, and renders the listing.
func (s *Service) SearchPapers(ctx context.Context, req SearchPapersRequest) string {
	requestID := uuid.NewString()
	logger := observability.WithSearchContext(s.logger, req.Keyword, req.Limit).
		With().Str("request_id", requestID).Logger()
	start := time.Now()

	if err := s.validate.Struct(req); err != nil {
		logger.Warn().Err(err).Msg("invalid search request")
		s.observe("search_papers", "invalid", start)
		return validationMessage(err)
	}
	if req.Limit == 0 {
		req.Limit = defaultSearchLimit
	}
	if req.SortBy == "" {
		req.SortBy = semanticscholar.SortRelevance
	}

	resp, err := s.source.Search(ctx, semanticscholar.SearchQuery{
		Keyword:         req.Keyword,
		Limit:           req.Limit,
		YearFrom:        req.YearFrom,
		YearTo:          req.YearTo,
		SortBy:          req.SortBy,
		AdvancedFilters: req.AdvancedFilters,
	})
	if err != nil {
		logger.Error().Err(err).Msg("paper search failed")
		s.observe("search_papers", "error", start)
		return errorMessage(err)
	}
	if len(resp.Data) == 0 {
		logger.Info().Msg("no papers matched")
		s.observe("search_papers", "empty", start)
		return msgNoPapers
	}

	s.source.EnrichPapers(ctx, resp.Data)

	if s.metrics != nil {
		s.metrics.PapersReturned.Observe(float64(len(resp.Data)))
	}
	logger.Info().Int("results", len(resp.Data)).Int("total", resp.Total).Msg("paper search completed")
	s.observe("search_papers", "ok", start)
	return s.renderer.SearchResults(req.Keyword, req.SortBy, resp)
}

// GetPaperDetails fetches one paper by Semantic Scholar id or DOI and renders
// its full detail document.
func (s *Service) GetPaperDetails(ctx context.Context, req GetPaperDetailsRequest) string {
	requestID := uuid.NewString()
	logger := observability.WithPaperContext(s.logger, req.PaperID).
		With().Str("request_id", requestID).Logger()
	start := time.Now()

	if err := s.validate.Struct(req); err != nil {
		logger.Warn().Err(err).Msg("invalid paper details request")
		s.observe("get_paper_details", "invalid", start)
		return validationMessage(err)
	}

	includeRefs := req.IncludeReferences == nil || *req.IncludeReferences
	includeCites := req.IncludeCitations == nil || *req.IncludeCitations

	paper, err := s.source.GetPaper(ctx, req.PaperID, semanticscholar.GetPaperOptions{
		IncludeReferences: includeRefs,
		IncludeCitations:  includeCites,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info().Msg("paper not found")
			s.observe("get_paper_details", "empty", start)
			return msgNoPaper
		}
		logger.Error().Err(err).Msg("paper details lookup failed")
		s.observe("get_paper_details", "error", start)
		return detailErrorMessage(err)
	}

	logger.Info().Str("title", paper.Title).Msg("paper details retrieved")
	s.observe("get_paper_details", "ok", start)
	return s.renderer.PaperDetails(paper, includeRefs, includeCites)
}

// SearchAuthors looks up author profiles by name and renders them.
func (s *Service) SearchAuthors(ctx context.Context, req SearchAuthorsRequest) string {
	requestID := uuid.NewString()
	logger := s.logger.With().
		Str("author_name", req.Name).
		Str("request_id", requestID).
		Logger()
	start := time.Now()

	if err := s.validate.Struct(req); err != nil {
		logger.Warn().Err(err).Msg("invalid author search request")
		s.observe("search_authors", "invalid", start)
		return validationMessage(err)
	}
	if req.Limit == 0 {
		req.Limit = defaultAuthorLimit
	}

	resp, err := s.source.SearchAuthors(ctx, req.Name, req.Limit)
	if err != nil {
		logger.Error().Err(err).Msg("author search failed")
		s.observe("search_authors", "error", start)
		return errorMessage(err)
	}
	if len(resp.Data) == 0 {
		logger.Info().Msg("no authors matched")
		s.observe("search_authors", "empty", start)
		return fmt.Sprintf(noAuthorsFmt, req.Name)
	}

	logger.Info().Int("results", len(resp.Data)).Msg("author search completed")
	s.observe("search_authors", "ok", start)
	return s.renderer.AuthorResults(req.Name, resp)
}

func (s *Service) observe(tool, outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ToolCalls.WithLabelValues(tool, outcome).Inc()
	s.metrics.ToolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}

// validationMessage renders request validation failures.
func validationMessage(err error) string {
	return fmt.Sprintf("Error: Invalid request. %v", err)
}

// errorMessage maps upstream failures to the user-facing error strings.
func errorMessage(err error) string {
	var apiErr *domain.ExternalAPIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Error: Failed to retrieve data from Semantic Scholar API. %v", err)
	}
	var reqErr *domain.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("Error: Failed to connect to Semantic Scholar API. %v", err)
	}
	return fmt.Sprintf("Error: An unexpected error occurred. %v", err)
}

// detailErrorMessage is the error mapping for the detail view, which folds
// every API failure into a single retrieval message.
func detailErrorMessage(err error) string {
	var apiErr *domain.ExternalAPIError
	var reqErr *domain.RequestError
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) {
		return fmt.Sprintf("Error: Failed to retrieve paper details. %v", err)
	}
	return fmt.Sprintf("Error: An unexpected error occurred. %v", err)
}
