package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage tallies provider tokens spent while serving one request. The HTTP layer
// attaches it to the context; the embedder and text generator add to it. It is
// safe for concurrent use by retrieval fan-out goroutines.
type Usage struct {
	mu               sync.Mutex
	embeddingTokens  int
	generationTokens int
	embedded         bool
	generated        bool
}

// UsageReport is a point-in-time copy of a Usage.
type UsageReport struct {
	EmbeddingTokens  int
	GenerationTokens int
	// Embedded is true once any embedding was served, including cache hits with zero tokens.
	Embedded  bool
	Generated bool
}

// WithUsage returns ctx carrying a fresh Usage.
func WithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFrom returns the Usage attached to ctx, or nil. All methods accept a nil receiver.
func UsageFrom(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbedding records an embedding call.
func (u *Usage) AddEmbedding(tokens int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += tokens
	u.embedded = true
	u.mu.Unlock()
}

// AddGeneration records a text generation call.
func (u *Usage) AddGeneration(tokens int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generationTokens += tokens
	u.generated = true
	u.mu.Unlock()
}

// Report returns the current totals.
func (u *Usage) Report() UsageReport {
	if u == nil {
		return UsageReport{}
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return UsageReport{
		EmbeddingTokens:  u.embeddingTokens,
		GenerationTokens: u.generationTokens,
		Embedded:         u.embedded,
		Generated:        u.generated,
	}
}
