package ilpcoach

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	embedder       Embedder
	openAIKey      string
	openAIBaseURL  string
	embeddingModel string

	generationModel string

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int
	upsertBatchSize  int
	providerTimeout  time.Duration
	excludeSeed      bool

	explanationTTL      time.Duration
	explanationCapacity int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		embeddingModel:   defaultEmbeddingModel,
		vectorDimensions: defaultDimensions,
		logger:           zap.NewNop(),
	}
}

// WithRedis configures the client to connect to a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets a custom text embedding provider. It takes precedence over WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI uses an OpenAI-compatible API for embeddings (and text generation when
// WithLLMStrategy is set). An empty baseURL selects the OpenAI endpoint.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIBaseURL = baseURL
	})
}

// WithEmbeddingModel sets the embedding model and its vector length.
// Defaults: text-embedding-3-small, 1536.
func WithEmbeddingModel(model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = model
		c.vectorDimensions = dimensions
	})
}

// WithLLMStrategy synthesizes recommendations with the given chat model instead of rules.
// Requires WithOpenAI.
func WithLLMStrategy(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.generationModel = model
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithUpsertBatchSize sets the number of vectors written per catalog upsert batch.
// Default: 100.
func WithUpsertBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.upsertBatchSize = size
	})
}

// WithProviderTimeout bounds each embedding, search and document call. Default: 10s.
func WithProviderTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.providerTimeout = d
	})
}

// WithExcludeSeed drops the seed practice from Similar results.
func WithExcludeSeed() Option {
	return optionFunc(func(c *clientConfig) {
		c.excludeSeed = true
	})
}

// WithExplanationCache bounds the recommendation explanation cache.
// Defaults: 1h TTL, 10000 entries.
func WithExplanationCache(ttl time.Duration, capacity int) Option {
	return optionFunc(func(c *clientConfig) {
		c.explanationTTL = ttl
		c.explanationCapacity = capacity
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
