package retrieval

import (
	"context"
	"sync"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/filter"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	"github.com/kailas-cloud/ilpcoach/internal/domain/session"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
)

type querySpy struct {
	topK    int
	filters filter.Expression
}

// mockVectors returns results by the "type" condition of the query.
type mockVectors struct {
	mu       sync.Mutex
	byType   map[string][]result.Result
	queries  []querySpy
	queryErr error
	fetched  map[string]vector.Vector
}

func (m *mockVectors) QuerySimilar(
	_ context.Context, _ []float32, topK int, filters filter.Expression,
) ([]result.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, querySpy{topK: topK, filters: filters})
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	res := m.byType[conditionValue(filters, result.KeyType)]
	if len(res) > topK {
		res = res[:topK]
	}
	return res, nil
}

func (m *mockVectors) Fetch(_ context.Context, id string) (vector.Vector, error) {
	v, ok := m.fetched[id]
	if !ok {
		return vector.Vector{}, domain.ErrNotFound
	}
	return v, nil
}

func (m *mockVectors) lastQuery() querySpy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries[len(m.queries)-1]
}

type mockPractices struct {
	items map[string]catalog.Item
	err   error
}

func (m *mockPractices) GetPractice(_ context.Context, id string) (catalog.Item, error) {
	if m.err != nil {
		return catalog.Item{}, m.err
	}
	it, ok := m.items[id]
	if !ok {
		return catalog.Item{}, domain.ErrNotFound
	}
	return it, nil
}

type mockSessions struct {
	sessions []session.Session
	err      error
	typed    []session.Type
}

func (m *mockSessions) ListByUser(_ context.Context, _ string) ([]session.Session, error) {
	return m.sessions, m.err
}

func (m *mockSessions) ListByUserAndType(_ context.Context, _ string, t session.Type) ([]session.Session, error) {
	m.typed = append(m.typed, t)
	if m.err != nil {
		return nil, m.err
	}
	var out []session.Session
	for _, s := range m.sessions {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 3}, nil
}

// conditionValue returns the first match value of the must condition on key.
func conditionValue(e filter.Expression, key string) string {
	for _, c := range e.Must() {
		if c.Key() == key && len(c.Values()) > 0 {
			return c.Values()[0]
		}
	}
	return ""
}

func countKey(e filter.Expression, key string) int {
	n := 0
	for _, c := range e.Must() {
		if c.Key() == key {
			n++
		}
	}
	return n
}

func practice(id string, score float64, md map[string]any) result.Result {
	m := map[string]any{result.KeyType: "practice", result.KeyTitle: id}
	for k, v := range md {
		m[k] = v
	}
	return result.New(id, score, m)
}

func framework(id string, score float64, md map[string]any) result.Result {
	m := map[string]any{result.KeyType: "framework", result.KeyTitle: id}
	for k, v := range md {
		m[k] = v
	}
	return result.New(id, score, m)
}
