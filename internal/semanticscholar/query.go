package semanticscholar

import (
	"encoding/json"
	"fmt"
)

// SearchQuery carries the caller-supplied parameters for a paper search.
// Keyword is the only required field.
type SearchQuery struct {
	// Keyword is the search query string.
	Keyword string

	// Limit is the maximum number of results to return (1..100).
	Limit int

	// YearFrom filters papers from this year onwards. Zero means unbounded.
	YearFrom int

	// YearTo filters papers up to this year. Zero means unbounded.
	YearTo int

	// SortBy selects the result order: relevance (default), citationCount, year.
	SortBy string

	// AdvancedFilters is an optional JSON object with additional filters
	// (venue, fields_of_study, publication_types, min_citation_count,
	// is_open_access).
	AdvancedFilters string
}

// Sort keys accepted by SearchQuery.SortBy.
const (
	SortRelevance     = "relevance"
	SortCitationCount = "citationCount"
	SortYear          = "year"
)

// advancedFilters is the caller-facing filter object shape.
type advancedFilters struct {
	Venue            string   `json:"venue"`
	FieldsOfStudy    []string `json:"fields_of_study"`
	PublicationTypes []string `json:"publication_types"`
	MinCitationCount int      `json:"min_citation_count"`
	IsOpenAccess     bool     `json:"is_open_access"`
}

// yearFilter collapses the year bounds into the API's range expression:
// "Y1-Y2" for both bounds, "Y1-" for from-only, "-Y2" for to-only.
// Returns "" when no bound is set.
func (q SearchQuery) yearFilter() string {
	switch {
	case q.YearFrom != 0 && q.YearTo != 0:
		return fmt.Sprintf("%d-%d", q.YearFrom, q.YearTo)
	case q.YearFrom != 0:
		return fmt.Sprintf("%d-", q.YearFrom)
	case q.YearTo != 0:
		return fmt.Sprintf("-%d", q.YearTo)
	default:
		return ""
	}
}

// sortParam maps the sort key to the API's sort parameter.
// Relevance is the API default and emits no parameter; unrecognized values
// fall back to relevance silently.
func (q SearchQuery) sortParam() string {
	switch q.SortBy {
	case SortCitationCount:
		return "citationCount:desc"
	case SortYear:
		return "year:desc"
	default:
		return ""
	}
}

// filterParam translates the caller's advanced filter JSON into the API's
// filter grammar: fields_of_study and publication_types become $in sets,
// min_citation_count becomes a $gte bound. Returns "" when no filters apply
// and an error when the JSON is malformed; the caller logs and drops the
// filters rather than failing the search.
func (q SearchQuery) filterParam() (string, error) {
	if q.AdvancedFilters == "" {
		return "", nil
	}

	var af advancedFilters
	if err := json.Unmarshal([]byte(q.AdvancedFilters), &af); err != nil {
		return "", fmt.Errorf("parsing advanced filters: %w", err)
	}

	filters := map[string]any{}
	if af.Venue != "" {
		filters["venue"] = af.Venue
	}
	if len(af.FieldsOfStudy) > 0 {
		filters["fieldsOfStudy"] = map[string]any{"$in": af.FieldsOfStudy}
	}
	if len(af.PublicationTypes) > 0 {
		filters["publicationTypes"] = map[string]any{"$in": af.PublicationTypes}
	}
	if af.MinCitationCount > 0 {
		filters["citationCount"] = map[string]any{"$gte": af.MinCitationCount}
	}
	if af.IsOpenAccess {
		filters["isOpenAccess"] = true
	}

	if len(filters) == 0 {
		return "", nil
	}

	encoded, err := json.Marshal(filters)
	if err != nil {
		return "", fmt.Errorf("encoding filters: %w", err)
	}
	return string(encoded), nil
}

// clampLimit bounds a requested result count to [1, max].
func clampLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
