package catalog

import (
	"context"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
)

// DocumentStore persists catalog documents.
type DocumentStore interface {
	AddItems(ctx context.Context, items []domcat.Item) ([]string, error)
	Count(ctx context.Context, kind domcat.Kind) (int, error)
}

// VectorIndex stores catalog vectors for similarity search.
type VectorIndex interface {
	Upsert(ctx context.Context, vectors []vector.Vector, batchSize int, onProgress vector.ProgressFunc) error
	IndexStats(ctx context.Context) (vector.Stats, error)
}

// SessionCounter counts recorded sessions.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
