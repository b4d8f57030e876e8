// Package rag defines the retrieval request and the context it produces.
package rag

import (
	"strings"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/history"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	"github.com/kailas-cloud/ilpcoach/internal/domain/session"
)

// Result counts.
const (
	DefaultTopK = 5
	MaxTopK     = 100
)

// Request is a validated retrieval request.
type Request struct {
	userID  string
	query   string
	filters map[string]any
	topK    int
}

// NewRequest validates and creates a Request. topK == 0 selects DefaultTopK;
// values above MaxTopK are capped.
func NewRequest(userID, query string, filters map[string]any, topK int) (Request, error) {
	if strings.TrimSpace(userID) == "" {
		return Request{}, domain.Invalidf("userId is required")
	}
	if strings.TrimSpace(query) == "" {
		return Request{}, domain.Invalidf("query is required")
	}
	topK, err := NormalizeTopK(topK)
	if err != nil {
		return Request{}, err
	}
	return Request{userID: userID, query: query, filters: filters, topK: topK}, nil
}

// NormalizeTopK applies the default and the upper bound and rejects negatives.
func NormalizeTopK(topK int) (int, error) {
	switch {
	case topK < 0:
		return 0, domain.Invalidf("topK must be a positive integer, got %d", topK)
	case topK == 0:
		return DefaultTopK, nil
	case topK > MaxTopK:
		return MaxTopK, nil
	}
	return topK, nil
}

// UserID returns the requesting user.
func (r Request) UserID() string { return r.userID }

// Query returns the natural-language need.
func (r Request) Query() string { return r.query }

// Filters returns the caller-supplied metadata filters.
func (r Request) Filters() map[string]any { return r.filters }

// TopK returns the per-category result bound.
func (r Request) TopK() int { return r.topK }

// Context is the unit of work handed from retrieval to synthesis.
type Context struct {
	UserID              string              `json:"userId"`
	UserHistory         history.UserHistory `json:"userHistory"`
	RetrievedPractices  []result.Result     `json:"retrievedPractices"`
	RetrievedFrameworks []result.Result     `json:"retrievedFrameworks"`
	UserSessions        []session.Session   `json:"userSessions"`
	RelevantInsights    []string            `json:"relevantInsights"`
}

// Practice returns the retrieved practice with the given ID.
func (c *Context) Practice(id string) (result.Result, bool) {
	for _, p := range c.RetrievedPractices {
		if p.ID() == id {
			return p, true
		}
	}
	return result.Result{}, false
}
