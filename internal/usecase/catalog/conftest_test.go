package catalog

import (
	"context"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
)

type mockDocs struct {
	added  []domcat.Item
	counts map[domcat.Kind]int
	err    error
}

func (m *mockDocs) AddItems(_ context.Context, items []domcat.Item) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.added = append(m.added, items...)
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids, nil
}

func (m *mockDocs) Count(_ context.Context, kind domcat.Kind) (int, error) {
	return m.counts[kind], m.err
}

type mockVectors struct {
	upserted  []vector.Vector
	batchSize int
	stats     vector.Stats
	err       error
}

func (m *mockVectors) Upsert(
	_ context.Context, vectors []vector.Vector, batchSize int, onProgress vector.ProgressFunc,
) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, vectors...)
	m.batchSize = batchSize
	for done := batchSize; ; done += batchSize {
		if done > len(vectors) {
			done = len(vectors)
		}
		if onProgress != nil {
			onProgress(vector.Progress{Done: done, Total: len(vectors)})
		}
		if done == len(vectors) {
			return nil
		}
	}
}

func (m *mockVectors) IndexStats(_ context.Context) (vector.Stats, error) {
	return m.stats, m.err
}

type mockSessions struct{ n int }

func (m *mockSessions) Count(_ context.Context) (int, error) { return m.n, nil }

// mockBatchEmbedder returns a 2-dim vector [i, len(text)] per text.
type mockBatchEmbedder struct {
	batchCalls int
	embedCalls int
	texts      []string
	err        error
	short      bool
}

func (m *mockBatchEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.embedCalls++
	return domain.EmbeddingResult{Embedding: []float32{0, float32(len(text))}}, m.err
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.texts = append(m.texts, texts...)
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	n := len(texts)
	if m.short {
		n--
	}
	out := make([][]float32, n)
	for i := range n {
		out[i] = []float32{float32(i), float32(len(texts[i]))}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: 7 * len(texts)}, nil
}
