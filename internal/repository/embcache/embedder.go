// Package embcache memoizes embeddings in Redis so repeated queries and
// re-ingested catalog texts do not pay for provider calls twice.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ilpcoach/internal/db"
	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
)

var keyPrefix = domain.KeyPrefix + "emb:"

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures a CachedEmbedder.
type Options struct {
	// Model scopes keys so vectors from a previous model are never served.
	Model string
	// TTL bounds entry lifetime; zero keeps entries until evicted by Redis.
	TTL time.Duration
	// CacheTotal counts lookups by result label "hit" or "miss". Optional.
	CacheTotal *prometheus.CounterVec
}

// CachedEmbedder is a read-through cache in front of an embedder.
type CachedEmbedder struct {
	inner  domain.Embedder
	store  store
	opts   Options
	logger *zap.Logger
}

// New wraps inner with a cache kept in s.
func New(inner domain.Embedder, s store, opts Options, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: s, opts: opts, logger: logger}
}

// Embed serves text from the cache or the inner embedder. Hits report zero tokens.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.save(ctx, key, res.Embedding)
	return res, nil
}

// BatchEmbed serves hits from the cache and sends each distinct missing text to
// the inner embedder once, in input order.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	out := make([][]float32, len(texts))
	pending := make(map[string][]int)
	var misses []string
	for i, text := range texts {
		if idx, seen := pending[text]; seen {
			pending[text] = append(idx, i)
			continue
		}
		if vec, ok := c.lookup(ctx, c.key(text)); ok {
			out[i] = vec
			continue
		}
		pending[text] = []int{i}
		misses = append(misses, text)
	}
	if len(misses) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: out}, nil
	}

	res, err := domain.BatchEmbed(ctx, c.inner, misses)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed batch: %w", err)
	}
	if len(res.Embeddings) != len(misses) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed batch: expected %d embeddings, got %d: %w",
			len(misses), len(res.Embeddings), domain.ErrEmbeddingProviderError)
	}

	for j, text := range misses {
		for _, i := range pending[text] {
			out[i] = res.Embeddings[j]
		}
		c.save(ctx, c.key(text), res.Embeddings[j])
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   out,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// key is ilp:emb:[<model>:]<sha256(text)>.
func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	if c.opts.Model == "" {
		return keyPrefix + hex.EncodeToString(sum[:])
	}
	return keyPrefix + c.opts.Model + ":" + hex.EncodeToString(sum[:])
}

// lookup treats any store or decode failure as a miss; the cache never fails a request.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
	}
	vec, derr := vector.Decode(data)
	if derr != nil {
		c.logger.Warn("Discarding corrupt cached embedding", zap.String("key", key), zap.Error(derr))
	}
	if err != nil || derr != nil || len(vec) == 0 {
		c.count("miss")
		return nil, false
	}
	c.count("hit")
	return vec, true
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	if err := c.store.Set(ctx, key, vector.Encode(vec), c.opts.TTL); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(result string) {
	if c.opts.CacheTotal != nil {
		c.opts.CacheTotal.WithLabelValues(result).Inc()
	}
}
