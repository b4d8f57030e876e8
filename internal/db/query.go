package db

import (
	"strings"

	"github.com/kailas-cloud/ilpcoach/internal/domain/search/filter"
)

// KNNQuery asks for the K nearest vectors, optionally pre-filtered.
type KNNQuery struct {
	IndexName    string
	VectorField  string // "__vector" when empty
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// ListQuery asks for one page of documents matching a plain query.
type ListQuery struct {
	Index  string
	Query  string
	Offset int
	Limit  int
	Fields []string
	// SortBy names a SORTABLE attribute; empty leaves the server's order.
	SortBy     string
	Descending bool
}

// SearchResult is a page of FT.SEARCH hits.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit. Score is the cosine similarity for KNN queries and zero otherwise.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// tagSpecials are the punctuation characters the query parser treats as syntax inside {...}.
const tagSpecials = ",.<>{}[]|\"':;!@#$%^&*()-+=~/ "

// EscapeTag escapes s for use as a TAG value, so "box-breathing" matches literally.
func EscapeTag(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(tagSpecials, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
