package ilpcoach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/ilpcoach/internal/db"
	dbRedis "github.com/kailas-cloud/ilpcoach/internal/db/redis"
	"github.com/kailas-cloud/ilpcoach/internal/domain"
	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	domrec "github.com/kailas-cloud/ilpcoach/internal/domain/recommendation"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
	"github.com/kailas-cloud/ilpcoach/internal/metrics"
	catalogrepo "github.com/kailas-cloud/ilpcoach/internal/repository/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/repository/embcache"
	"github.com/kailas-cloud/ilpcoach/internal/repository/explanation"
	sessionrepo "github.com/kailas-cloud/ilpcoach/internal/repository/session"
	vectorrepo "github.com/kailas-cloud/ilpcoach/internal/repository/vector"
	openaiProvider "github.com/kailas-cloud/ilpcoach/internal/transport/openai"
	cataloguc "github.com/kailas-cloud/ilpcoach/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/ilpcoach/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/ilpcoach/internal/usecase/health"
	recommendationuc "github.com/kailas-cloud/ilpcoach/internal/usecase/recommendation"
	"github.com/kailas-cloud/ilpcoach/internal/usecase/retrieval"
	sessionuc "github.com/kailas-cloud/ilpcoach/internal/usecase/session"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultEmbeddingModel   = "text-embedding-3-small"
	defaultDimensions       = domain.EmbeddingDimensions
	embeddingProvider       = "openai"
)

type retrievalUseCase interface {
	RetrieveContext(ctx context.Context, req rag.Request) (rag.Context, error)
	AdvancedSearch(ctx context.Context, query string, criteria retrieval.Criteria, topK int) ([]result.Result, error)
	RetrieveSimilarPractices(ctx context.Context, practiceID string, topK int) ([]result.Result, error)
	FindPracticesByCategory(ctx context.Context, category, query string, topK int) ([]result.Result, error)
}

type recommendationUseCase interface {
	Generate(ctx context.Context, req rag.Request) (domrec.Response, error)
	Explanation(id string) (explanation.Entry, error)
}

type catalogUseCase interface {
	AddPractices(ctx context.Context, items []domcat.Item, onProgress vector.ProgressFunc) ([]string, error)
	AddFrameworks(ctx context.Context, items []domcat.Item, onProgress vector.ProgressFunc) ([]string, error)
	Stats(ctx context.Context) (domcat.Stats, error)
}

type sessionUseCase interface {
	Record(ctx context.Context, sess domsess.Session) (domsess.Session, error)
	List(ctx context.Context, userID string) ([]domsess.Session, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the ilpcoach SDK entry point.
type Client struct {
	store     db.Store
	retrieval retrievalUseCase
	recs      recommendationUseCase
	catalog   catalogUseCase
	sessions  sessionUseCase
	health    healthUseCase
	obs       *observer
}

// New creates a Client, connects to Redis and ensures the search indexes exist.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("ilpcoach: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, fmt.Errorf("ilpcoach: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ilpcoach: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	vectors := vectorrepo.New(store, cfg.vectorDimensions).WithHNSW(vectorrepo.HNSWConfig{
		M:           cfg.hnswM,
		EFConstruct: cfg.hnswEFConstruct,
	})
	catalog := catalogrepo.New(store)
	sessions := sessionrepo.New(store)

	if err := vectors.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ilpcoach: %w", err)
	}
	if err := catalog.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ilpcoach: %w", err)
	}
	if err := sessions.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ilpcoach: %w", err)
	}

	embedder, err := buildEmbedder(cfg, store)
	if err != nil {
		return nil, err
	}

	retrievalSvc := retrieval.New(vectors, catalog, sessions, embedder, retrieval.Config{
		ProviderTimeout: cfg.providerTimeout,
		ExcludeSeed:     cfg.excludeSeed,
	}, cfg.logger)

	recs, err := buildRecommender(cfg, retrievalSvc)
	if err != nil {
		return nil, err
	}

	catalogSvc := cataloguc.New(catalog, vectors, sessions, embedder, cfg.logger)
	if cfg.upsertBatchSize > 0 {
		catalogSvc = catalogSvc.WithBatchSize(cfg.upsertBatchSize)
	}

	return &Client{
		store:     store,
		retrieval: retrievalSvc,
		recs:      recs,
		catalog:   catalogSvc,
		sessions:  sessionuc.New(sessions),
		health:    healthuc.New(store, embedder, cfg.vectorDimensions, cfg.logger),
		obs:       obs,
	}, nil
}

// buildEmbedder assembles Provider -> Cached -> Instrumented. A custom embedder wins over OpenAI.
func buildEmbedder(cfg *clientConfig, store db.Store) (*embeddinguc.InstrumentedEmbedder, error) {
	var base domain.Embedder = noopEmbedder{}
	switch {
	case cfg.embedder != nil:
		base = &embedderAdapter{inner: cfg.embedder}
	case cfg.openAIKey != "":
		e, err := openaiProvider.NewEmbedder(&openaiProvider.Config{
			APIKey:     cfg.openAIKey,
			BaseURL:    cfg.openAIBaseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.vectorDimensions,
			Provider:   embeddingProvider,
			Logger:     cfg.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("ilpcoach: %w", err)
		}
		base = e
	}

	cached := embcache.New(base, store, embcache.Options{
		Model:      cfg.embeddingModel,
		CacheTotal: metrics.EmbeddingCacheTotal,
	}, cfg.logger)
	return embeddinguc.NewInstrumentedEmbedder(
		cached, embeddingProvider, cfg.embeddingModel, cfg.vectorDimensions, cfg.logger,
	), nil
}

func buildRecommender(cfg *clientConfig, retriever recommendationuc.Retriever) (*recommendationuc.Service, error) {
	recCfg := recommendationuc.Config{Strategy: recommendationuc.StrategyRules}

	var generator domain.TextGenerator
	if cfg.generationModel != "" {
		recCfg.Strategy = recommendationuc.StrategyLLM
		recCfg.Model = cfg.generationModel
		if cfg.openAIKey != "" {
			g, err := openaiProvider.NewGenerator(&openaiProvider.Config{
				APIKey:   cfg.openAIKey,
				BaseURL:  cfg.openAIBaseURL,
				Model:    cfg.generationModel,
				Provider: embeddingProvider,
				Logger:   cfg.logger,
			})
			if err != nil {
				return nil, fmt.Errorf("ilpcoach: %w", err)
			}
			generator = g
		}
	}

	explanations := explanation.New(cfg.explanationTTL, cfg.explanationCapacity)
	svc, err := recommendationuc.New(retriever, generator, explanations, recCfg, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("ilpcoach: %w", err)
	}
	return svc, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health checks the database and the embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// Context retrieves practices, frameworks and the user's history for query.
// topK 0 selects the default of 5.
func (c *Client) Context(
	ctx context.Context, userID, query string, filters map[string]any, topK int,
) (rc RAGContext, err error) {
	start := time.Now()
	defer func() { c.obs.observe("context", start, err) }()
	req, err := rag.NewRequest(userID, query, filters, topK)
	if err != nil {
		return RAGContext{}, err
	}
	return c.retrieval.RetrieveContext(ctx, req)
}

// Recommend produces explained practice recommendations for query.
func (c *Client) Recommend(
	ctx context.Context, userID, query string, filters map[string]any, topK int,
) (resp RecommendationResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend", start, err) }()
	req, err := rag.NewRequest(userID, query, filters, topK)
	if err != nil {
		return RecommendationResponse{}, err
	}
	return c.recs.Generate(ctx, req)
}

// Explain returns the stored rationale of a recommendation, or ErrNotFound.
func (c *Client) Explain(id string) (Explanation, error) {
	return c.recs.Explanation(id)
}

// Search runs an advanced search. It may return fewer than topK results.
func (c *Client) Search(ctx context.Context, query string, criteria Criteria, topK int) (out []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()
	return c.retrieval.AdvancedSearch(ctx, query, criteria, topK)
}

// Similar returns practices similar to practiceID. An unknown practice yields no results.
func (c *Client) Similar(ctx context.Context, practiceID string, topK int) (out []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("similar", start, err) }()
	return c.retrieval.RetrieveSimilarPractices(ctx, practiceID, topK)
}

// Category returns practices in category, ranked against query or, when query is empty,
// against the category label.
func (c *Client) Category(ctx context.Context, category, query string, topK int) (out []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("category", start, err) }()
	return c.retrieval.FindPracticesByCategory(ctx, category, query, topK)
}

// AddPractices embeds and indexes practices. onProgress may be nil.
func (c *Client) AddPractices(ctx context.Context, items []Item, onProgress func(Progress)) (ids []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("add_practices", start, err) }()
	return c.catalog.AddPractices(ctx, items, onProgress)
}

// AddFrameworks embeds and indexes frameworks. onProgress may be nil.
func (c *Client) AddFrameworks(ctx context.Context, items []Item, onProgress func(Progress)) (ids []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("add_frameworks", start, err) }()
	return c.catalog.AddFrameworks(ctx, items, onProgress)
}

// Stats reports catalog document and vector counts.
func (c *Client) Stats(ctx context.Context) (CatalogStats, error) {
	return c.catalog.Stats(ctx)
}

// RecordSession stores a completed interaction.
func (c *Client) RecordSession(ctx context.Context, sess Session) (stored Session, err error) {
	start := time.Now()
	defer func() { c.obs.observe("record_session", start, err) }()
	return c.sessions.Record(ctx, sess)
}

// Sessions lists a user's sessions, most recent first.
func (c *Client) Sessions(ctx context.Context, userID string) ([]Session, error) {
	return c.sessions.List(ctx, userID)
}
