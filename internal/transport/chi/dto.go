package chi

import (
	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
	"github.com/kailas-cloud/ilpcoach/internal/usecase/retrieval"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeInvalidRequest   = "invalid_request"
	codeNotFound         = "not_found"
	codeConflict         = "conflict"
	codeUnauthorized     = "unauthorized"
	codeInternalError    = "internal_error"
	stubMessage          = "AI service unavailable, saved locally"
	embeddingTokensHead  = "X-Embedding-Tokens"
	generationTokensHead = "X-Generation-Tokens"
)

// ErrorResponse is the body of 4xx responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StubResponse is returned when the AI backends are unavailable.
type StubResponse struct {
	IsStub  bool   `json:"isStub"`
	Message string `json:"message"`
}

// RAGRequest is the body of the context and recommendation endpoints.
type RAGRequest struct {
	UserID  string         `json:"userId"`
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters,omitempty"`
	TopK    int            `json:"topK,omitempty"`
}

// SearchRequest is the body of POST /api/rag/search.
type SearchRequest struct {
	Query    string             `json:"query"`
	Criteria retrieval.Criteria `json:"criteria"`
	TopK     int                `json:"topK,omitempty"`
}

// SimilarRequest is the body of POST /api/rag/similar.
type SimilarRequest struct {
	PracticeID string `json:"practiceId"`
	TopK       int    `json:"topK,omitempty"`
}

// CategoryRequest is the body of POST /api/rag/category.
type CategoryRequest struct {
	Category string `json:"category"`
	Query    string `json:"query,omitempty"`
	TopK     int    `json:"topK,omitempty"`
}

// ResultListResponse wraps search hits.
type ResultListResponse struct {
	Results []result.Result `json:"results"`
}

// ExplanationResponse is the body of GET /api/recommendations/{id}/explanation.
type ExplanationResponse struct {
	ID                   string   `json:"id"`
	PracticeID           string   `json:"practiceId"`
	Explanation          string   `json:"explanation"`
	PersonalizationNotes []string `json:"personalizationNotes,omitempty"`
}

// SessionListResponse wraps a user's sessions.
type SessionListResponse struct {
	Sessions []domsess.Session `json:"sessions"`
}

// CatalogRequest is the body of the catalog ingestion endpoints.
type CatalogRequest struct {
	Items []domcat.Item `json:"items"`
}

// CatalogResponse lists the ingested IDs in input order.
type CatalogResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func nonNilResults(rr []result.Result) []result.Result {
	if rr == nil {
		return []result.Result{}
	}
	return rr
}
