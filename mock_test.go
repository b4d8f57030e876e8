package ilpcoach

import (
	"context"

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

// --- retrievalUseCase mock ---

type mockRetrieval struct {
	contextFn  func(ctx context.Context, req rag.Request) (rag.Context, error)
	searchFn   func(ctx context.Context, query string, c retrieval.Criteria, topK int) ([]result.Result, error)
	similarFn  func(ctx context.Context, practiceID string, topK int) ([]result.Result, error)
	categoryFn func(ctx context.Context, category, query string, topK int) ([]result.Result, error)
}

func (m *mockRetrieval) RetrieveContext(ctx context.Context, req rag.Request) (rag.Context, error) {
	return m.contextFn(ctx, req)
}

func (m *mockRetrieval) AdvancedSearch(
	ctx context.Context, query string, c retrieval.Criteria, topK int,
) ([]result.Result, error) {
	return m.searchFn(ctx, query, c, topK)
}

func (m *mockRetrieval) RetrieveSimilarPractices(
	ctx context.Context, practiceID string, topK int,
) ([]result.Result, error) {
	return m.similarFn(ctx, practiceID, topK)
}

func (m *mockRetrieval) FindPracticesByCategory(
	ctx context.Context, category, query string, topK int,
) ([]result.Result, error) {
	return m.categoryFn(ctx, category, query, topK)
}

// --- recommendationUseCase mock ---

type mockRecs struct {
	generateFn func(ctx context.Context, req rag.Request) (domrec.Response, error)
	entries    map[string]explanation.Entry
}

func (m *mockRecs) Generate(ctx context.Context, req rag.Request) (domrec.Response, error) {
	return m.generateFn(ctx, req)
}

func (m *mockRecs) Explanation(id string) (explanation.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return explanation.Entry{}, ErrNotFound
	}
	return e, nil
}

// --- catalogUseCase mock ---

type mockCatalog struct {
	addFn   func(ctx context.Context, kind domcat.Kind, items []domcat.Item, p vector.ProgressFunc) ([]string, error)
	statsFn func(ctx context.Context) (domcat.Stats, error)
}

func (m *mockCatalog) AddPractices(
	ctx context.Context, items []domcat.Item, p vector.ProgressFunc,
) ([]string, error) {
	return m.addFn(ctx, domcat.KindPractice, items, p)
}

func (m *mockCatalog) AddFrameworks(
	ctx context.Context, items []domcat.Item, p vector.ProgressFunc,
) ([]string, error) {
	return m.addFn(ctx, domcat.KindFramework, items, p)
}

func (m *mockCatalog) Stats(ctx context.Context) (domcat.Stats, error) {
	return m.statsFn(ctx)
}

// --- sessionUseCase mock ---

type mockSessions struct {
	recordFn func(ctx context.Context, s domsess.Session) (domsess.Session, error)
	listFn   func(ctx context.Context, userID string) ([]domsess.Session, error)
}

func (m *mockSessions) Record(ctx context.Context, s domsess.Session) (domsess.Session, error) {
	return m.recordFn(ctx, s)
}

func (m *mockSessions) List(ctx context.Context, userID string) ([]domsess.Session, error) {
	return m.listFn(ctx, userID)
}

// --- healthUseCase mock ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- public Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}
