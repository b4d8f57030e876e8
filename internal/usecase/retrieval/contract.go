package retrieval

import (
	"context"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/filter"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	"github.com/kailas-cloud/ilpcoach/internal/domain/session"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
)

// VectorSearcher runs similarity queries against the vector index.
type VectorSearcher interface {
	QuerySimilar(ctx context.Context, vec []float32, topK int, filters filter.Expression) ([]result.Result, error)
	Fetch(ctx context.Context, id string) (vector.Vector, error)
}

// PracticeReader loads practice documents.
type PracticeReader interface {
	GetPractice(ctx context.Context, id string) (catalog.Item, error)
}

// SessionReader loads a user's session log, most recent first.
type SessionReader interface {
	ListByUser(ctx context.Context, userID string) ([]session.Session, error)
	ListByUserAndType(ctx context.Context, userID string, t session.Type) ([]session.Session, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
