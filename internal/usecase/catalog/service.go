// Package catalog ingests practice and framework definitions.
package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
)

// DefaultUpsertBatchSize is the number of vectors written per upsert batch.
const DefaultUpsertBatchSize = 100

// Service embeds catalog items, stores their documents and indexes their vectors.
type Service struct {
	docs      DocumentStore
	vectors   VectorIndex
	sessions  SessionCounter
	embed     Embedder
	batchSize int
	logger    *zap.Logger
}

// New creates a catalog service.
func New(docs DocumentStore, vectors VectorIndex, sessions SessionCounter, embed Embedder, logger *zap.Logger) *Service {
	return &Service{
		docs:      docs,
		vectors:   vectors,
		sessions:  sessions,
		embed:     embed,
		batchSize: DefaultUpsertBatchSize,
		logger:    logger,
	}
}

// WithBatchSize configures the vector upsert batch size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// AddPractices ingests practices and returns their IDs in input order.
func (s *Service) AddPractices(
	ctx context.Context, items []domcat.Item, onProgress vector.ProgressFunc,
) ([]string, error) {
	return s.add(ctx, domcat.KindPractice, items, onProgress)
}

// AddFrameworks ingests frameworks and returns their IDs in input order.
func (s *Service) AddFrameworks(
	ctx context.Context, items []domcat.Item, onProgress vector.ProgressFunc,
) ([]string, error) {
	return s.add(ctx, domcat.KindFramework, items, onProgress)
}

func (s *Service) add(
	ctx context.Context, kind domcat.Kind, items []domcat.Item, onProgress vector.ProgressFunc,
) ([]string, error) {
	if len(items) == 0 {
		return []string{}, nil
	}

	prepared := make([]domcat.Item, len(items))
	seen := make(map[string]struct{}, len(items))
	texts := make([]string, len(items))
	for i := range items {
		it := items[i]
		if it.Kind == "" {
			it.Kind = kind
		}
		if it.Kind != kind {
			return nil, domain.Invalidf("item %s: kind %q, expected %q", it.ID, it.Kind, kind)
		}
		if err := it.Validate(); err != nil {
			return nil, domain.Invalidf("%v", err)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, domain.Invalidf("duplicate id %s", it.ID)
		}
		seen[it.ID] = struct{}{}
		prepared[i] = it
		texts[i] = it.EmbeddingText()
	}

	emb, err := domain.BatchEmbed(ctx, s.embed, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %ss: %w", kind, err)
	}
	if len(emb.Embeddings) != len(prepared) {
		return nil, fmt.Errorf("embed %ss: expected %d embeddings, got %d: %w",
			kind, len(prepared), len(emb.Embeddings), domain.ErrEmbeddingProviderError)
	}

	vectors := make([]vector.Vector, len(prepared))
	for i := range prepared {
		prepared[i].Embedding = emb.Embeddings[i]
		vectors[i] = vector.Vector{
			ID:       prepared[i].ID,
			Values:   emb.Embeddings[i],
			Metadata: prepared[i].Metadata(),
		}
	}

	// Index first so a failed upsert stores no documents.
	if err := s.vectors.Upsert(ctx, vectors, s.batchSize, onProgress); err != nil {
		return nil, fmt.Errorf("index %ss: %w", kind, err)
	}

	ids, err := s.docs.AddItems(ctx, prepared)
	if err != nil {
		s.logger.Warn("catalog items indexed without documents",
			zap.String("kind", string(kind)),
			zap.Int("count", len(prepared)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("store %ss: %w", kind, err)
	}

	s.logger.Info("catalog items ingested",
		zap.String("kind", string(kind)),
		zap.Int("count", len(ids)),
		zap.Int("total_tokens", emb.TotalTokens),
	)
	return ids, nil
}

// Stats reports document counts and vector index statistics.
func (s *Service) Stats(ctx context.Context) (domcat.Stats, error) {
	practices, err := s.docs.Count(ctx, domcat.KindPractice)
	if err != nil {
		return domcat.Stats{}, fmt.Errorf("stats: %w", err)
	}
	frameworks, err := s.docs.Count(ctx, domcat.KindFramework)
	if err != nil {
		return domcat.Stats{}, fmt.Errorf("stats: %w", err)
	}
	sessions, err := s.sessions.Count(ctx)
	if err != nil {
		return domcat.Stats{}, fmt.Errorf("stats: %w", err)
	}
	vs, err := s.vectors.IndexStats(ctx)
	if err != nil {
		return domcat.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return domcat.Stats{
		Practices:        practices,
		Frameworks:       frameworks,
		Sessions:         sessions,
		VectorCount:      vs.VectorCount,
		TotalVectorCount: vs.TotalVectorCount,
	}, nil
}
