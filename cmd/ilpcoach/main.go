package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ilpcoach/internal/config"
	dbRedis "github.com/kailas-cloud/ilpcoach/internal/db/redis"
	"github.com/kailas-cloud/ilpcoach/internal/domain"
	logpkg "github.com/kailas-cloud/ilpcoach/internal/logger"
	"github.com/kailas-cloud/ilpcoach/internal/metrics"
	catalogrepo "github.com/kailas-cloud/ilpcoach/internal/repository/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/repository/embcache"
	"github.com/kailas-cloud/ilpcoach/internal/repository/explanation"
	sessionrepo "github.com/kailas-cloud/ilpcoach/internal/repository/session"
	vectorrepo "github.com/kailas-cloud/ilpcoach/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/ilpcoach/internal/transport/chi"
	openaiProvider "github.com/kailas-cloud/ilpcoach/internal/transport/openai"
	cataloguc "github.com/kailas-cloud/ilpcoach/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/ilpcoach/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/ilpcoach/internal/usecase/health"
	recommendationuc "github.com/kailas-cloud/ilpcoach/internal/usecase/recommendation"
	retrievaluc "github.com/kailas-cloud/ilpcoach/internal/usecase/retrieval"
	sessionuc "github.com/kailas-cloud/ilpcoach/internal/usecase/session"
	"github.com/kailas-cloud/ilpcoach/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ilpcoach API server",
		zap.String("build", version.String()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("strategy", cfg.Recommendation.Strategy),
		zap.Bool("stub_mode", cfg.StubMode()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	deps, cleanup := buildDeps(&cfg, logger)
	defer cleanup()

	stub := deps.Retriever == nil
	server := chiTransport.NewServer(deps, chiTransport.Config{
		DefaultTopK:  cfg.Retrieval.DefaultTopK,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Stub:         stub,
	}, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.APIKeyAuth(chiTransport.AuthConfig{Keys: cfg.Auth.APIKeys, Stub: stub}))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildDeps is the composition root. Without a database or an embedding key it returns
// only the health service, and the server answers /api with the stub body.
func buildDeps(cfg *config.Config, logger *zap.Logger) (chiTransport.Deps, func()) {
	dims := cfg.Embedding.Dimensions

	if cfg.StubMode() {
		logger.Warn("Backends not configured, serving stub responses",
			zap.Bool("database_configured", len(cfg.Database.Addrs) > 0),
			zap.Bool("embedding_configured", cfg.Embedding.APIKey != ""),
		)
		// Pass nil interfaces (not typed nil pointers) so health reports them as unconfigured.
		var (
			pinger  healthuc.DBPinger
			checker healthuc.EmbeddingChecker
		)
		if len(cfg.Database.Addrs) > 0 {
			if store, err := dbRedis.NewStore(dbRedis.Config{
				Addrs: cfg.Database.Addrs, Password: cfg.Database.Password,
			}); err == nil {
				pinger = store
				return chiTransport.Deps{Health: healthuc.New(pinger, checker, dims, logger)}, store.Close
			}
		}
		return chiTransport.Deps{Health: healthuc.New(pinger, checker, dims, logger)}, func() {}
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	vectors := vectorrepo.New(store, dims).WithHNSW(vectorrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	catalog := catalogrepo.New(store)
	sessions := sessionrepo.New(store)

	for name, ensure := range map[string]func(context.Context) error{
		"vectors":  vectors.EnsureIndex,
		"catalog":  catalog.EnsureIndex,
		"sessions": sessions.EnsureIndex,
	} {
		if err := ensure(ctx); err != nil {
			logger.Fatal("Failed to ensure index", zap.String("index", name), zap.Error(err))
		}
	}

	embedder := buildEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", dims),
	)

	retrievalSvc := retrievaluc.New(vectors, catalog, sessions, embedder, retrievaluc.Config{
		ProviderTimeout: time.Duration(cfg.Retrieval.ProviderTimeoutSec) * time.Second,
		ExcludeSeed:     cfg.Retrieval.ExcludeSeed,
	}, logger)

	explanations := explanation.New(
		time.Duration(cfg.Cache.ExplanationTTLSec)*time.Second,
		cfg.Cache.ExplanationCapacity,
	)
	recommendationSvc := buildRecommender(cfg, retrievalSvc, explanations, logger)

	catalogSvc := cataloguc.New(catalog, vectors, sessions, embedder, logger).
		WithBatchSize(cfg.Catalog.UpsertBatchSize)
	sessionSvc := sessionuc.New(sessions)
	healthSvc := healthuc.New(store, embedder, dims, logger)

	return chiTransport.Deps{
		Retriever:   retrievalSvc,
		Recommender: recommendationSvc,
		Sessions:    sessionSvc,
		Catalog:     catalogSvc,
		Health:      healthSvc,
	}, store.Close
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(cfg *config.Config, store *dbRedis.Store, logger *zap.Logger) *embeddinguc.InstrumentedEmbedder {
	base, err := openaiProvider.NewEmbedder(&openaiProvider.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		User:       cfg.Embedding.User,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}

	cached := embcache.New(base, store, embcache.Options{
		Model:      cfg.Embedding.Model,
		TTL:        time.Duration(cfg.Embedding.CacheTTLSec) * time.Second,
		CacheTotal: metrics.EmbeddingCacheTotal,
	}, logger)

	return embeddinguc.NewInstrumentedEmbedder(
		cached, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger,
	)
}

// buildRecommender selects the synthesis strategy. The LLM strategy falls back to rules
// when no generation client can be built.
func buildRecommender(
	cfg *config.Config,
	retriever recommendationuc.Retriever,
	explanations *explanation.Cache,
	logger *zap.Logger,
) *recommendationuc.Service {
	recCfg := recommendationuc.Config{
		Strategy:    recommendationuc.Strategy(cfg.Recommendation.Strategy),
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
	}

	var generator domain.TextGenerator
	if recCfg.Strategy == recommendationuc.StrategyLLM {
		gen, err := openaiProvider.NewGenerator(&openaiProvider.Config{
			APIKey:   cfg.Generation.APIKey,
			BaseURL:  cfg.Generation.BaseURL,
			Model:    cfg.Generation.Model,
			Provider: cfg.Embedding.Provider,
			Logger:   logger,
		})
		if err != nil {
			logger.Warn("Text generation unavailable, using rule-based recommendations", zap.Error(err))
			recCfg.Strategy = recommendationuc.StrategyRules
		} else {
			generator = gen
		}
	}

	svc, err := recommendationuc.New(retriever, generator, explanations, recCfg, logger)
	if err != nil {
		logger.Fatal("Failed to create recommendation service", zap.Error(err))
	}
	return svc
}
