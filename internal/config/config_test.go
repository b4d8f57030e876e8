package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 0}}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_Strategy(t *testing.T) {
	for _, s := range []string{StrategyRules, StrategyLLM} {
		cfg := Config{HTTP: HTTPConfig{Port: 8080}, Recommendation: RecommendationConfig{Strategy: s}}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			t.Errorf("strategy %q: unexpected error %v", s, err)
		}
	}

	cfg := Config{HTTP: HTTPConfig{Port: 8080}, Recommendation: RecommendationConfig{Strategy: "oracle"}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestValidate_TopKAndTemperature(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}, Retrieval: RetrievalConfig{DefaultTopK: 500}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for default_top_k above 100")
	}

	cfg = Config{HTTP: HTTPConfig{Port: 8080}, Generation: GenerationConfig{Temperature: 3}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for temperature above 2")
	}
}

func TestValidate_MissingBackendsIsStubMode(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing backends must not fail validation: %v", err)
	}
	if !cfg.StubMode() {
		t.Error("expected stub mode without database and api key")
	}

	cfg.Database.Addrs = []string{"localhost:6379"}
	if !cfg.StubMode() {
		t.Error("expected stub mode without embedding api key")
	}

	cfg.Embedding.APIKey = "sk-test"
	if cfg.StubMode() {
		t.Error("expected full mode with database and api key")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Retrieval.DefaultTopK != 5 {
		t.Errorf("expected DefaultTopK=5, got %d", cfg.Retrieval.DefaultTopK)
	}
	if cfg.Retrieval.ProviderTimeoutSec != 10 {
		t.Errorf("expected ProviderTimeoutSec=10, got %d", cfg.Retrieval.ProviderTimeoutSec)
	}
	if cfg.Retrieval.ExcludeSeed {
		t.Error("expected ExcludeSeed=false")
	}
	if cfg.Recommendation.Strategy != StrategyRules {
		t.Errorf("expected Strategy=rules, got %q", cfg.Recommendation.Strategy)
	}
	if cfg.Catalog.UpsertBatchSize != 100 {
		t.Errorf("expected UpsertBatchSize=100, got %d", cfg.Catalog.UpsertBatchSize)
	}
	if cfg.Cache.ExplanationTTLSec != 3600 || cfg.Cache.ExplanationCapacity != 10000 {
		t.Errorf("unexpected cache defaults %+v", cfg.Cache)
	}
	if cfg.Index.HNSWM != 16 || cfg.Index.HNSWEFConstruct != 200 {
		t.Errorf("unexpected index defaults %+v", cfg.Index)
	}
}

func TestApplyDefaults_GenerationInheritsProvider(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{APIKey: "sk-emb", BaseURL: "https://api.example.com/v1"}}
	cfg.ApplyDefaults()

	if cfg.Generation.APIKey != "sk-emb" || cfg.Generation.BaseURL != "https://api.example.com/v1" {
		t.Errorf("generation = %+v", cfg.Generation)
	}

	cfg = Config{
		Embedding:  EmbeddingConfig{APIKey: "sk-emb"},
		Generation: GenerationConfig{APIKey: "sk-gen"},
	}
	cfg.ApplyDefaults()
	if cfg.Generation.APIKey != "sk-gen" {
		t.Errorf("explicit generation key overridden: %q", cfg.Generation.APIKey)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15},
		Retrieval: RetrievalConfig{DefaultTopK: 8, ProviderTimeoutSec: 3},
		Index:     IndexConfig{HNSWM: 32, HNSWEFConstruct: 400},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Retrieval.DefaultTopK != 8 || cfg.Retrieval.ProviderTimeoutSec != 3 {
		t.Errorf("retrieval overridden: %+v", cfg.Retrieval)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("ILP_TEST_API_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "test.yaml")
	yaml := `
http:
  port: ${ILP_TEST_PORT:-9090}
database:
  addrs: ["localhost:6379"]
embedding:
  api_key: ${ILP_TEST_API_KEY}
retrieval:
  exclude_seed: true
recommendation:
  strategy: llm
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want default 9090", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "sk-from-env" || cfg.Generation.APIKey != "sk-from-env" {
		t.Errorf("api keys = %q / %q", cfg.Embedding.APIKey, cfg.Generation.APIKey)
	}
	if !cfg.Retrieval.ExcludeSeed || cfg.Recommendation.Strategy != StrategyLLM {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.StubMode() {
		t.Error("expected full mode")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
