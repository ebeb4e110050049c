package semanticscholar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yakeworld/mcp-semantic-scholar-server/internal/domain"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/observability"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the default rate limit in requests per second.
	// With an API key, this can be increased.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the maximum number of results per search request.
	DefaultMaxResults = 100

	// DefaultEnrichLimit is the number of nested citations/references fetched
	// per paper when enriching search results.
	DefaultEnrichLimit = 5

	// DefaultEnrichWorkers is the default size of the enrichment worker pool.
	DefaultEnrichWorkers = 4

	// DefaultDetailLimit is the number of nested citations/references fetched
	// on a direct paper detail lookup.
	DefaultDetailLimit = 20

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the list of paper fields requested from the API.
	paperFields = "paperId,title,year,authors,venue,citationCount,externalIds,abstract,url,journal,fieldsOfStudy,publicationTypes,publicationDate,referenceCount,influentialCitationCount,isOpenAccess,s2FieldsOfStudy,publicationVenue,tldr"

	// authorFields is the list of author fields requested from the API.
	authorFields = "authorId,name,aliases,affiliations,homepage,paperCount,citationCount,hIndex,url"

	// sourceName is the human-readable name for the remote API.
	sourceName = "Semantic Scholar"
)

// Endpoint labels used for metrics.
const (
	endpointSearch       = "paper_search"
	endpointPaperDetail  = "paper_detail"
	endpointAuthorSearch = "author_search"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	// Authenticated requests have higher rate limits.
	APIKey string

	// Timeout is the HTTP request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// EnrichLimit is the number of citations/references fetched per paper
	// during search-result enrichment. Defaults to DefaultEnrichLimit if zero.
	EnrichLimit int

	// EnrichWorkers is the size of the enrichment worker pool.
	// Defaults to DefaultEnrichWorkers if zero.
	EnrichWorkers int
}

// Client talks to the Semantic Scholar Graph API.
// It holds no mutable state beyond the shared HTTP client and is safe for
// concurrent use across independent operations.
type Client struct {
	httpClient *HTTPClient
	config     Config
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, a new one is created from the configuration settings.
// Metrics may be nil, in which case no metrics are recorded.
func NewClient(cfg Config, httpClient *HTTPClient, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	// Apply defaults
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.EnrichLimit == 0 {
		cfg.EnrichLimit = DefaultEnrichLimit
	}
	if cfg.EnrichWorkers == 0 {
		cfg.EnrichWorkers = DefaultEnrichWorkers
	}

	if httpClient == nil {
		httpClient = NewHTTPClient(HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
			APIKey:    cfg.APIKey,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger.With().Str("component", "semanticscholar").Logger(),
		metrics:    metrics,
	}
}

// Search queries the paper search endpoint.
// A malformed advanced filter set is logged and dropped, never an error.
func (c *Client) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	searchURL, err := c.buildSearchURL(query)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	var resp SearchResponse
	if err := c.getJSON(ctx, endpointSearch, searchURL, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPaperOptions controls a paper detail lookup.
type GetPaperOptions struct {
	// IncludeReferences requests the paper's reference list.
	IncludeReferences bool

	// IncludeCitations requests the paper's citation list.
	IncludeCitations bool

	// NestedLimit bounds the nested reference/citation lists.
	// Defaults to DefaultDetailLimit if zero.
	NestedLimit int
}

// GetPaper retrieves a single paper by Semantic Scholar ID or DOI.
// Bare DOIs (values starting with "10." or containing a slash) are routed
// through the DOI: namespace of the detail endpoint.
func (c *Client) GetPaper(ctx context.Context, id string, opts GetPaperOptions) (*Paper, error) {
	nested := opts.NestedLimit
	if nested == 0 {
		nested = DefaultDetailLimit
	}

	fields := paperFields
	if opts.IncludeReferences {
		fields += fmt.Sprintf(",references.limit(%d)", nested)
	}
	if opts.IncludeCitations {
		fields += fmt.Sprintf(",citations.limit(%d)", nested)
	}

	paperURL := fmt.Sprintf("%s/paper/%s?fields=%s",
		c.config.BaseURL, url.PathEscape(DetailID(id)), url.QueryEscape(fields))

	var paper Paper
	if err := c.getJSON(ctx, endpointPaperDetail, paperURL, &paper); err != nil {
		var apiErr *domain.ExternalAPIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, domain.NewNotFoundError("paper", id)
		}
		return nil, err
	}
	return &paper, nil
}

// SearchAuthors queries the author search endpoint.
func (c *Client) SearchAuthors(ctx context.Context, query string, limit int) (*AuthorSearchResponse, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("author", "search")
	q := searchURL.Query()
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", authorFields)
	searchURL.RawQuery = q.Encode()

	var resp AuthorSearchResponse
	if err := c.getJSON(ctx, endpointAuthorSearch, searchURL.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EnrichPapers fetches citations, references, and the TLDR summary for each
// paper through a bounded worker pool. A failed fetch for one paper is logged
// and skipped; it never fails the batch, and the paper's enrichment fields
// are simply left empty.
func (c *Client) EnrichPapers(ctx context.Context, papers []Paper) {
	if len(papers) == 0 {
		return
	}

	workers := c.config.EnrichWorkers
	if workers > len(papers) {
		workers = len(papers)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				c.enrichPaper(ctx, &papers[i])
			}
		}()
	}

	for i := range papers {
		if papers[i].PaperID == "" {
			continue
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

// enrichPaper fetches the detail record for one paper and copies the nested
// lists onto it.
func (c *Client) enrichPaper(ctx context.Context, paper *Paper) {
	if c.metrics != nil {
		c.metrics.EnrichmentsTotal.Inc()
	}

	detail, err := c.GetPaper(ctx, paper.PaperID, GetPaperOptions{
		IncludeReferences: true,
		IncludeCitations:  true,
		NestedLimit:       c.config.EnrichLimit,
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.EnrichmentsFailed.Inc()
		}
		c.logger.Warn().Err(err).Str("paper_id", paper.PaperID).
			Msg("failed to enrich paper, leaving detail fields empty")
		return
	}

	paper.Citations = detail.Citations
	paper.References = detail.References
	if paper.TLDR == nil {
		paper.TLDR = detail.TLDR
	}
}

// DetailID maps a caller-supplied paper identifier to the detail endpoint's
// path form. Bare DOIs get the DOI: namespace prefix; identifiers that
// already carry a namespace prefix and native Semantic Scholar IDs pass
// through unchanged.
func DetailID(id string) string {
	for _, prefix := range []string{"DOI:", "ARXIV:", "PMID:", "PMCID:", "CorpusId:", "DBLP:", "MAG:", "ACL:", "URL:"} {
		if strings.HasPrefix(id, prefix) {
			return id
		}
	}
	if strings.HasPrefix(id, "10.") || strings.Contains(id, "/") {
		return "DOI:" + id
	}
	return id
}

// buildSearchURL constructs the paper search URL with query parameters.
func (c *Client) buildSearchURL(query SearchQuery) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("paper", "search")

	q := searchURL.Query()
	q.Set("query", query.Keyword)
	q.Set("fields", paperFields)
	q.Set("limit", strconv.Itoa(clampLimit(query.Limit, DefaultMaxResults)))

	if year := query.yearFilter(); year != "" {
		q.Set("year", year)
	}
	if sort := query.sortParam(); sort != "" {
		q.Set("sort", sort)
	}

	filter, err := query.filterParam()
	if err != nil {
		c.logger.Warn().Err(err).Str("advanced_filters", query.AdvancedFilters).
			Msg("invalid advanced filters, searching without them")
	} else if filter != "" {
		q.Set("filter", filter)
	}

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// getJSON issues a GET request and decodes the JSON response into out.
// Transport failures, non-2xx statuses, and decode failures map to the
// domain error taxonomy.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, out any) error {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.APIRequestsTotal.WithLabelValues(endpoint).Inc()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.APIRequestsFailed.WithLabelValues(endpoint, "request").Inc()
		}
		return domain.NewRequestError(sourceName, err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}

	if err := c.handleErrorResponse(resp); err != nil {
		if c.metrics != nil {
			c.metrics.APIRequestsFailed.WithLabelValues(endpoint, "status").Inc()
			if resp.StatusCode == http.StatusTooManyRequests {
				c.metrics.APIRateLimited.Inc()
			}
		}
		return err
	}

	// Limit body to 10MB to prevent resource exhaustion.
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(out); err != nil {
		if c.metrics != nil {
			c.metrics.APIRequestsFailed.WithLabelValues(endpoint, "decode").Inc()
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// handleErrorResponse checks for API errors and returns appropriate error types.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// A 429 that survives the retry layer surfaces as ErrRateLimited.
	var cause error
	if resp.StatusCode == http.StatusTooManyRequests {
		cause = domain.ErrRateLimited
	}

	// Read the error body (limit to 1MB to prevent resource exhaustion)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read error response", err)
	}

	// Try to parse as JSON error
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		message := errResp.Error
		if message == "" {
			message = errResp.Message
		}
		if message == "" {
			message = string(body)
		}
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, message, cause)
	}

	// Return raw body as error message
	return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), cause)
}
