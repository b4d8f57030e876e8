// ilpseed loads a YAML practice/framework catalog into Redis.
//
// Env vars:
//
//	REDIS_ADDR       Redis address (default: localhost:6379)
//	REDIS_PASSWORD   Redis password
//	OPENAI_API_KEY   embedding provider API key
//	OPENAI_BASE_URL  OpenAI-compatible endpoint (default: OpenAI)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ilpcoach"
	logpkg "github.com/kailas-cloud/ilpcoach/internal/logger"
)

func main() {
	catalogPath := flag.String("catalog", "config/catalog.example.yaml", "path to the YAML catalog")
	batchSize := flag.Int("batch", 100, "vectors per upsert batch")
	flag.Parse()

	logger, err := logpkg.NewLogger("local", os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, *catalogPath, *batchSize); err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, catalogPath string, batchSize int) error {
	cat, err := ilpcoach.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	logger.Info("Catalog loaded",
		zap.String("path", catalogPath),
		zap.Int("practices", len(cat.Practices)),
		zap.Int("frameworks", len(cat.Frameworks)),
	)

	client, err := ilpcoach.New(
		ilpcoach.WithRedis(env("REDIS_ADDR", "localhost:6379"), os.Getenv("REDIS_PASSWORD")),
		ilpcoach.WithOpenAI(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL")),
		ilpcoach.WithUpsertBatchSize(batchSize),
		ilpcoach.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	progress := func(kind string) func(ilpcoach.Progress) {
		return func(p ilpcoach.Progress) {
			logger.Info("Upsert progress", zap.String("kind", kind), zap.Int("done", p.Done), zap.Int("total", p.Total))
		}
	}

	if len(cat.Practices) > 0 {
		if _, err := client.AddPractices(ctx, cat.Practices, progress("practice")); err != nil {
			return fmt.Errorf("add practices: %w", err)
		}
	}
	if len(cat.Frameworks) > 0 {
		if _, err := client.AddFrameworks(ctx, cat.Frameworks, progress("framework")); err != nil {
			return fmt.Errorf("add frameworks: %w", err)
		}
	}

	stats, err := client.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	logger.Info("Catalog seeded",
		zap.Int("practices", stats.Practices),
		zap.Int("frameworks", stats.Frameworks),
		zap.Int("vectors", stats.VectorCount),
	)
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
