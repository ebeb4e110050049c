// Package mcp implements a stdio JSON-RPC server speaking the Model Context
// Protocol. It exposes the academic search operations as MCP tools; all
// state lives behind the service, handlers only translate arguments.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yakeworld/mcp-semantic-scholar-server/internal/observability"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/service"
)

const (
	serverName      = "mcp-semantic-scholar-server"
	serverVersion   = "1.0.0"
	protocolVersion = "2024-11-05"

	// DefaultCallTimeout bounds a single tools/call dispatch.
	DefaultCallTimeout = 60 * time.Second
)

type rpcReq struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcResp struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  map[string]any `json:"result,omitempty"`
	Error   *rpcError      `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeResp(w io.Writer, id any, result map[string]any, err error) {
	resp := rpcResp{JSONRPC: "2.0", ID: id}
	if err != nil {
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	} else {
		resp.Result = result
	}
	enc := json.NewEncoder(w)
	_ = enc.Encode(resp)
}

// ToolDesc describes a single MCP tool, including input schema.
type ToolDesc struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Server dispatches MCP requests to the academic search service.
type Server struct {
	svc    *service.Service
	logger zerolog.Logger

	// CallTimeout bounds each tools/call; zero means DefaultCallTimeout.
	CallTimeout time.Duration

	tools []ToolDesc
}

// NewServer wires the service into an MCP server.
func NewServer(svc *service.Service, logger zerolog.Logger) *Server {
	srv := &Server{
		svc:         svc,
		logger:      logger,
		CallTimeout: DefaultCallTimeout,
	}
	srv.initTools()
	return srv
}

// initTools defines schemas and descriptions surfaced to MCP clients.
func (srv *Server) initTools() {
	srv.tools = []ToolDesc{
		{
			Name: "search_papers",
			Description: "Search academic papers on Semantic Scholar by keyword, with optional " +
				"year range, sorting, and advanced filters. Returns a markdown listing with " +
				"citation context for each paper.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"keyword":   map[string]any{"type": "string", "description": "Search phrase"},
					"limit":     map[string]any{"type": "integer", "minimum": 1, "maximum": 100, "default": 10},
					"year_from": map[string]any{"type": "integer", "description": "Earliest publication year"},
					"year_to":   map[string]any{"type": "integer", "description": "Latest publication year"},
					"sort_by": map[string]any{
						"type": "string",
						"enum": []string{"relevance", "citationCount", "year"},
					},
					"advanced_filters": map[string]any{
						"type": "string",
						"description": "JSON object with optional keys: venue, fields_of_study, " +
							"publication_types, min_citation_count, is_open_access",
					},
				},
				"required": []string{"keyword"},
			},
		},
		{
			Name: "get_paper_details",
			Description: "Fetch full details for one paper by Semantic Scholar ID or DOI, " +
				"including abstract, metrics, identifiers, key citations and references, " +
				"and APA/MLA/BibTeX citation formats.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"paper_id":           map[string]any{"type": "string", "description": "Semantic Scholar ID or DOI"},
					"include_references": map[string]any{"type": "boolean", "default": true},
					"include_citations":  map[string]any{"type": "boolean", "default": true},
				},
				"required": []string{"paper_id"},
			},
		},
		{
			Name:        "search_authors",
			Description: "Search author profiles on Semantic Scholar by name. Returns affiliations, h-index, citation and publication counts.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":  map[string]any{"type": "string", "description": "Author name"},
					"limit": map[string]any{"type": "integer", "minimum": 1, "maximum": 50, "default": 10},
				},
				"required": []string{"name"},
			},
		},
	}
}

// callTool routes a tools/call to its handler and wraps the markdown result
// in MCP text content.
func (srv *Server) callTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	requestID := uuid.NewString()
	logger := observability.WithToolContext(srv.logger, name, requestID)

	var text string
	switch name {
	case "search_papers":
		keyword := str(args["keyword"])
		if keyword == "" {
			return nil, errors.New("keyword is required")
		}
		text = srv.svc.SearchPapers(ctx, service.SearchPapersRequest{
			Keyword:         keyword,
			Limit:           asInt(args["limit"]),
			YearFrom:        asInt(args["year_from"]),
			YearTo:          asInt(args["year_to"]),
			SortBy:          str(args["sort_by"]),
			AdvancedFilters: str(args["advanced_filters"]),
		})

	case "get_paper_details":
		paperID := str(args["paper_id"])
		if paperID == "" {
			return nil, errors.New("paper_id is required")
		}
		text = srv.svc.GetPaperDetails(ctx, service.GetPaperDetailsRequest{
			PaperID:           paperID,
			IncludeReferences: asBoolPtr(args["include_references"]),
			IncludeCitations:  asBoolPtr(args["include_citations"]),
		})

	case "search_authors":
		name := str(args["name"])
		if name == "" {
			return nil, errors.New("name is required")
		}
		text = srv.svc.SearchAuthors(ctx, service.SearchAuthorsRequest{
			Name:  name,
			Limit: asInt(args["limit"]),
		})

	default:
		logger.Warn().Msg("unknown tool requested")
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
	}, nil
}

// Serve runs the stdio JSON-RPC loop until the input stream closes.
// Messages are newline-delimited JSON; a malformed line is logged and
// skipped so one bad client message cannot wedge the stream.
func (srv *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 10<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req rpcReq
		if err := json.Unmarshal(line, &req); err != nil {
			srv.logger.Warn().Err(err).Msg("skipping malformed request")
			continue
		}

		switch req.Method {
		case "initialize":
			writeResp(out, req.ID, map[string]any{
				"protocolVersion": protocolVersion,
				"capabilities":    map[string]any{"tools": map[string]any{}},
				"serverInfo":      map[string]any{"name": serverName, "version": serverVersion},
			}, nil)

		case "notifications/initialized":
			// notification, no response

		case "ping":
			writeResp(out, req.ID, map[string]any{}, nil)

		case "tools/list":
			writeResp(out, req.ID, map[string]any{"tools": srv.tools}, nil)

		case "tools/call":
			name := str(req.Params["name"])
			args := map[string]any{}
			if m, ok := req.Params["arguments"].(map[string]any); ok {
				args = m
			}
			// Per-call timeout to avoid stuck handlers
			timeout := srv.CallTimeout
			if timeout <= 0 {
				timeout = DefaultCallTimeout
			}
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			res, err := srv.callTool(callCtx, name, args)
			cancel()
			writeResp(out, req.ID, res, err)

		default:
			writeResp(out, req.ID, nil, fmt.Errorf("unknown method: %s", req.Method))
		}
	}
	return scanner.Err()
}

func str(v any) string { s, _ := v.(string); return s }

func asInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case json.Number:
		i, _ := x.Int64()
		return int(i)
	default:
		return 0
	}
}

func asBoolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}
