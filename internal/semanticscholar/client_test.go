package semanticscholar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakeworld/mcp-semantic-scholar-server/internal/domain"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:   baseURL,
		RateLimit: 1000,
		BurstSize: 100,
	}, nil, zerolog.Nop(), nil)
}

func TestNewClient(t *testing.T) {
	t.Run("creates client with default values", func(t *testing.T) {
		client := NewClient(Config{}, nil, zerolog.Nop(), nil)

		require.NotNil(t, client)
		assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
		assert.Equal(t, DefaultTimeout, client.config.Timeout)
		assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
		assert.Equal(t, DefaultBurstSize, client.config.BurstSize)
		assert.Equal(t, DefaultEnrichLimit, client.config.EnrichLimit)
		assert.Equal(t, DefaultEnrichWorkers, client.config.EnrichWorkers)
	})

	t.Run("creates client with custom config", func(t *testing.T) {
		cfg := Config{
			BaseURL:       "https://custom.api.com/v1",
			APIKey:        "test-api-key",
			Timeout:       60 * time.Second,
			RateLimit:     50.0,
			BurstSize:     20,
			EnrichLimit:   3,
			EnrichWorkers: 2,
		}
		client := NewClient(cfg, nil, zerolog.Nop(), nil)

		require.NotNil(t, client)
		assert.Equal(t, cfg.BaseURL, client.config.BaseURL)
		assert.Equal(t, cfg.Timeout, client.config.Timeout)
		assert.Equal(t, cfg.EnrichLimit, client.config.EnrichLimit)
		assert.Equal(t, cfg.EnrichWorkers, client.config.EnrichWorkers)
	})

	t.Run("uses provided HTTP client", func(t *testing.T) {
		httpClient := NewHTTPClient(HTTPClientConfig{RateLimit: 100, BurstSize: 50})
		client := NewClient(Config{}, httpClient, zerolog.Nop(), nil)

		require.NotNil(t, client)
		assert.Equal(t, httpClient, client.httpClient)
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("successful search returns papers", func(t *testing.T) {
		response := SearchResponse{
			Total:  532,
			Offset: 0,
			Next:   10,
			Data: []Paper{
				{
					PaperID: "abc123",
					Title:   "Attention Is All You Need",
					Year:    2017,
					Authors: []Author{
						{AuthorID: "auth1", Name: "Ashish Vaswani"},
					},
					CitationCount: 90000,
					ExternalIDs:   &ExternalIDs{DOI: "10.5555/3295222"},
				},
				{
					PaperID: "def456",
					Title:   "Deep Residual Learning",
					Year:    2015,
				},
			},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Contains(t, r.URL.Path, "/paper/search")
			assert.Equal(t, "transformer models", r.URL.Query().Get("query"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			assert.Contains(t, r.URL.Query().Get("fields"), "paperId")
			assert.Contains(t, r.URL.Query().Get("fields"), "tldr")

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(response)
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		resp, err := client.Search(context.Background(), SearchQuery{
			Keyword: "transformer models",
			Limit:   10,
		})

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 532, resp.Total)
		require.Len(t, resp.Data, 2)
		assert.Equal(t, "Attention Is All You Need", resp.Data[0].Title)
		assert.Equal(t, "10.5555/3295222", resp.Data[0].ExternalIDs.DOI)
	})

	t.Run("year range, sort, and filters become query parameters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2020-2023", r.URL.Query().Get("year"))
			assert.Equal(t, "citationCount:desc", r.URL.Query().Get("sort"))

			var filters map[string]any
			require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("filter")), &filters))
			assert.Equal(t, "Nature", filters["venue"])

			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.Search(context.Background(), SearchQuery{
			Keyword:         "gene editing",
			YearFrom:        2020,
			YearTo:          2023,
			SortBy:          SortCitationCount,
			AdvancedFilters: `{"venue": "Nature"}`,
		})
		require.NoError(t, err)
	})

	t.Run("malformed advanced filters are dropped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasFilter := r.URL.Query()["filter"]
			assert.False(t, hasFilter, "filter parameter should be absent")
			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.Search(context.Background(), SearchQuery{
			Keyword:         "test",
			AdvancedFilters: `{"venue": `,
		})
		require.NoError(t, err)
	})

	t.Run("limit is clamped to the API maximum", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.Search(context.Background(), SearchQuery{Keyword: "test", Limit: 500})
		require.NoError(t, err)
	})

	t.Run("API status error maps to ExternalAPIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "bad query"})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.Search(context.Background(), SearchQuery{Keyword: "test"})

		require.Error(t, err)
		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "bad query", apiErr.Message)
	})

	t.Run("transport failure maps to RequestError", func(t *testing.T) {
		httpClient := NewHTTPClient(HTTPClientConfig{
			RateLimit:  1000,
			BurstSize:  100,
			MaxRetries: 1,
			RetryDelay: time.Millisecond,
		})
		client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, httpClient, zerolog.Nop(), nil)

		_, err := client.Search(context.Background(), SearchQuery{Keyword: "test"})

		require.Error(t, err)
		var reqErr *domain.RequestError
		assert.ErrorAs(t, err, &reqErr)
	})
}

func TestClient_GetPaper(t *testing.T) {
	t.Run("fetches paper by S2 id with nested lists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasSuffix(r.URL.Path, "/paper/abc123"))
			fields := r.URL.Query().Get("fields")
			assert.Contains(t, fields, "references.limit(20)")
			assert.Contains(t, fields, "citations.limit(20)")

			json.NewEncoder(w).Encode(Paper{
				PaperID:   "abc123",
				Title:     "A Survey of Deep Learning",
				Citations: []Paper{{PaperID: "c1", Title: "Citing Paper"}},
			})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		paper, err := client.GetPaper(context.Background(), "abc123", GetPaperOptions{
			IncludeReferences: true,
			IncludeCitations:  true,
		})

		require.NoError(t, err)
		assert.Equal(t, "A Survey of Deep Learning", paper.Title)
		require.Len(t, paper.Citations, 1)
	})

	t.Run("routes bare DOI through the DOI namespace", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "DOI:10.1000/xyz123")
			json.NewEncoder(w).Encode(Paper{PaperID: "abc123"})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.GetPaper(context.Background(), "10.1000/xyz123", GetPaperOptions{})
		require.NoError(t, err)
	})

	t.Run("omits nested lists when not requested", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields := r.URL.Query().Get("fields")
			assert.NotContains(t, fields, "references.limit")
			assert.NotContains(t, fields, "citations.limit")
			json.NewEncoder(w).Encode(Paper{PaperID: "abc123"})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.GetPaper(context.Background(), "abc123", GetPaperOptions{})
		require.NoError(t, err)
	})

	t.Run("404 maps to ErrNotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Paper not found"})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.GetPaper(context.Background(), "missing", GetPaperOptions{})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestClient_SearchAuthors(t *testing.T) {
	t.Run("successful author search", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/author/search")
			assert.Equal(t, "Yoshua Bengio", r.URL.Query().Get("query"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			assert.Contains(t, r.URL.Query().Get("fields"), "hIndex")

			json.NewEncoder(w).Encode(AuthorSearchResponse{
				Total: 3,
				Data: []AuthorProfile{
					{AuthorID: "161269817", Name: "Yoshua Bengio", HIndex: 220},
				},
			})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		resp, err := client.SearchAuthors(context.Background(), "Yoshua Bengio", 10)

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Total)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, 220, resp.Data[0].HIndex)
	})
}

func TestClient_EnrichPapers(t *testing.T) {
	t.Run("enriches each paper with nested lists and tldr", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields := r.URL.Query().Get("fields")
			assert.Contains(t, fields, "references.limit(5)")
			assert.Contains(t, fields, "citations.limit(5)")

			json.NewEncoder(w).Encode(Paper{
				Citations:  []Paper{{PaperID: "c1", Title: "Citing"}},
				References: []Paper{{PaperID: "r1", Title: "Cited"}},
				TLDR:       &TLDR{Text: "One sentence summary."},
			})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		papers := []Paper{
			{PaperID: "p1", Title: "First"},
			{PaperID: "p2", Title: "Second"},
		}
		client.EnrichPapers(context.Background(), papers)

		for _, p := range papers {
			require.Len(t, p.Citations, 1)
			require.Len(t, p.References, 1)
			require.NotNil(t, p.TLDR)
			assert.Equal(t, "One sentence summary.", p.TLDR.Text)
		}
	})

	t.Run("a failed enrichment is skipped, not fatal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "bad") {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(ErrorResponse{Error: "boom"})
				return
			}
			json.NewEncoder(w).Encode(Paper{
				Citations: []Paper{{PaperID: "c1"}},
			})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		papers := []Paper{
			{PaperID: "good", Title: "Enriched"},
			{PaperID: "bad", Title: "Left Alone"},
		}
		client.EnrichPapers(context.Background(), papers)

		assert.Len(t, papers[0].Citations, 1)
		assert.Empty(t, papers[1].Citations)
	})

	t.Run("papers without an id are skipped", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			json.NewEncoder(w).Encode(Paper{})
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		client.EnrichPapers(context.Background(), []Paper{{Title: "No ID"}})

		assert.Equal(t, 0, requests)
	})

	t.Run("cancelled context stops the batch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(Paper{})
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := testClient(t, server.URL)
		papers := []Paper{{PaperID: "p1"}, {PaperID: "p2"}, {PaperID: "p3"}}

		// Must return promptly without enriching.
		client.EnrichPapers(ctx, papers)
		for _, p := range papers {
			assert.Empty(t, p.Citations)
		}
	})
}
