package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	domrec "github.com/kailas-cloud/ilpcoach/internal/domain/recommendation"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
	"github.com/kailas-cloud/ilpcoach/internal/repository/explanation"
	healthuc "github.com/kailas-cloud/ilpcoach/internal/usecase/health"
	"github.com/kailas-cloud/ilpcoach/internal/usecase/retrieval"
)

type mockRetriever struct {
	rc       rag.Context
	results  []result.Result
	err      error
	tokens   int
	lastReq  rag.Request
	lastTopK int
	criteria retrieval.Criteria
	category string
	query    string
}

func (m *mockRetriever) RetrieveContext(ctx context.Context, req rag.Request) (rag.Context, error) {
	m.lastReq = req
	domain.UsageFrom(ctx).AddEmbedding(m.tokens)
	if m.err != nil {
		return rag.Context{}, m.err
	}
	rc := m.rc
	rc.UserID = req.UserID()
	return rc, nil
}

func (m *mockRetriever) AdvancedSearch(
	ctx context.Context, query string, criteria retrieval.Criteria, topK int,
) ([]result.Result, error) {
	m.query, m.criteria, m.lastTopK = query, criteria, topK
	domain.UsageFrom(ctx).AddEmbedding(m.tokens)
	return m.results, m.err
}

func (m *mockRetriever) RetrieveSimilarPractices(_ context.Context, _ string, topK int) ([]result.Result, error) {
	m.lastTopK = topK
	return m.results, m.err
}

func (m *mockRetriever) FindPracticesByCategory(
	_ context.Context, category, query string, topK int,
) ([]result.Result, error) {
	m.category, m.query, m.lastTopK = category, query, topK
	return m.results, m.err
}

type mockRecommender struct {
	resp         domrec.Response
	err          error
	explanations map[string]explanation.Entry
	genTokens    int
}

func (m *mockRecommender) Generate(ctx context.Context, req rag.Request) (domrec.Response, error) {
	if m.genTokens > 0 {
		domain.UsageFrom(ctx).AddGeneration(m.genTokens)
	}
	if m.err != nil {
		return domrec.Response{}, m.err
	}
	resp := m.resp
	resp.UserID = req.UserID()
	return resp, nil
}

func (m *mockRecommender) Explanation(id string) (explanation.Entry, error) {
	e, ok := m.explanations[id]
	if !ok {
		return explanation.Entry{}, domain.ErrNotFound
	}
	return e, nil
}

type mockSessions struct {
	stored []domsess.Session
	err    error
}

func (m *mockSessions) Record(_ context.Context, sess domsess.Session) (domsess.Session, error) {
	if m.err != nil {
		return domsess.Session{}, m.err
	}
	if err := sess.Validate(); err != nil {
		return domsess.Session{}, domain.Invalidf("%v", err)
	}
	if sess.ID == "" {
		sess.ID = "sess-1"
	}
	for _, prev := range m.stored {
		if prev.UserID == sess.UserID && prev.ID == sess.ID {
			return domsess.Session{}, domain.ErrAlreadyExists
		}
	}
	m.stored = append(m.stored, sess)
	return sess, nil
}

func (m *mockSessions) List(_ context.Context, userID string) ([]domsess.Session, error) {
	out := []domsess.Session{}
	for _, s := range m.stored {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, m.err
}

type mockCatalog struct {
	added map[domcat.Kind][]domcat.Item
	stats domcat.Stats
	err   error
}

func (m *mockCatalog) AddPractices(
	_ context.Context, items []domcat.Item, onProgress vector.ProgressFunc,
) ([]string, error) {
	return m.add(domcat.KindPractice, items, onProgress)
}

func (m *mockCatalog) AddFrameworks(
	_ context.Context, items []domcat.Item, onProgress vector.ProgressFunc,
) ([]string, error) {
	return m.add(domcat.KindFramework, items, onProgress)
}

func (m *mockCatalog) add(kind domcat.Kind, items []domcat.Item, onProgress vector.ProgressFunc) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.added == nil {
		m.added = map[domcat.Kind][]domcat.Item{}
	}
	m.added[kind] = append(m.added[kind], items...)
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	if onProgress != nil {
		onProgress(vector.Progress{Done: len(items), Total: len(items)})
	}
	return ids, nil
}

func (m *mockCatalog) Stats(context.Context) (domcat.Stats, error) {
	return m.stats, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type fixture struct {
	retriever   *mockRetriever
	recommender *mockRecommender
	sessions    *mockSessions
	catalog     *mockCatalog
	health      *mockHealth
	handler     http.Handler
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		retriever:   &mockRetriever{},
		recommender: &mockRecommender{explanations: map[string]explanation.Entry{}},
		sessions:    &mockSessions{},
		catalog:     &mockCatalog{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.CheckDatabase: healthuc.CheckOK},
		}},
	}
	srv := NewServer(Deps{
		Retriever:   f.retriever,
		Recommender: f.recommender,
		Sessions:    f.sessions,
		Catalog:     f.catalog,
		Health:      f.health,
	}, cfg, zap.NewNop())
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func practice(id, title string, score float64) result.Result {
	return result.New(id, score, map[string]any{result.KeyType: "practice", result.KeyTitle: title})
}
