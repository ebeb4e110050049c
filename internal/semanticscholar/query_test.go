package semanticscholar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchQuery_YearFilter(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     string
	}{
		{"both bounds", 2020, 2023, "2020-2023"},
		{"from only", 2020, 0, "2020-"},
		{"to only", 0, 2023, "-2023"},
		{"no bounds", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := SearchQuery{YearFrom: tt.from, YearTo: tt.to}
			assert.Equal(t, tt.want, q.yearFilter())
		})
	}
}

func TestSearchQuery_SortParam(t *testing.T) {
	assert.Equal(t, "citationCount:desc", SearchQuery{SortBy: SortCitationCount}.sortParam())
	assert.Equal(t, "year:desc", SearchQuery{SortBy: SortYear}.sortParam())
	assert.Equal(t, "", SearchQuery{SortBy: SortRelevance}.sortParam())
	assert.Equal(t, "", SearchQuery{}.sortParam())
	assert.Equal(t, "", SearchQuery{SortBy: "bogus"}.sortParam())
}

func TestSearchQuery_FilterParam(t *testing.T) {
	t.Run("empty filters produce no parameter", func(t *testing.T) {
		filter, err := SearchQuery{}.filterParam()
		require.NoError(t, err)
		assert.Empty(t, filter)
	})

	t.Run("empty JSON object produces no parameter", func(t *testing.T) {
		filter, err := SearchQuery{AdvancedFilters: "{}"}.filterParam()
		require.NoError(t, err)
		assert.Empty(t, filter)
	})

	t.Run("translates all filter keys", func(t *testing.T) {
		q := SearchQuery{AdvancedFilters: `{
			"venue": "Nature",
			"fields_of_study": ["Computer Science", "Biology"],
			"publication_types": ["JournalArticle"],
			"min_citation_count": 100,
			"is_open_access": true
		}`}

		filter, err := q.filterParam()
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(filter), &got))

		assert.Equal(t, "Nature", got["venue"])
		assert.Equal(t, map[string]any{"$in": []any{"Computer Science", "Biology"}}, got["fieldsOfStudy"])
		assert.Equal(t, map[string]any{"$in": []any{"JournalArticle"}}, got["publicationTypes"])
		assert.Equal(t, map[string]any{"$gte": float64(100)}, got["citationCount"])
		assert.Equal(t, true, got["isOpenAccess"])
	})

	t.Run("omits zero-valued filter keys", func(t *testing.T) {
		q := SearchQuery{AdvancedFilters: `{"venue": "Science", "min_citation_count": 0, "is_open_access": false}`}

		filter, err := q.filterParam()
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(filter), &got))

		assert.Equal(t, map[string]any{"venue": "Science"}, got)
	})

	t.Run("malformed JSON returns error", func(t *testing.T) {
		_, err := SearchQuery{AdvancedFilters: `{"venue": `}.filterParam()
		assert.Error(t, err)
	})
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 1, clampLimit(0, 100))
	assert.Equal(t, 1, clampLimit(-5, 100))
	assert.Equal(t, 10, clampLimit(10, 100))
	assert.Equal(t, 100, clampLimit(100, 100))
	assert.Equal(t, 100, clampLimit(500, 100))
}

func TestDetailID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"bare DOI with 10. prefix", "10.1038/s41586-021-03819-2", "DOI:10.1038/s41586-021-03819-2"},
		{"bare DOI with slash", "arxiv.org/abs/1706.03762", "DOI:arxiv.org/abs/1706.03762"},
		{"explicit DOI namespace", "DOI:10.1038/nature14539", "DOI:10.1038/nature14539"},
		{"arxiv namespace", "ARXIV:1706.03762", "ARXIV:1706.03762"},
		{"pubmed namespace", "PMID:19872477", "PMID:19872477"},
		{"corpus namespace", "CorpusId:215416146", "CorpusId:215416146"},
		{"native S2 id", "649def34f8be52c8b66281af98ae884c09aef38b", "649def34f8be52c8b66281af98ae884c09aef38b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetailID(tt.id))
		})
	}
}
