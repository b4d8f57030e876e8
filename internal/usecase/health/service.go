package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates backends are not configured and the service runs in stub mode.
	Degraded Status = "degraded"
	// Unhealthy indicates at least one failing check.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckUnconfigured indicates a component that is not configured.
	CheckUnconfigured CheckResult = "unconfigured"
)

// Check names.
const (
	CheckDatabase            = "database"
	CheckEmbedding           = "embedding"
	CheckEmbeddingDimensions = "embedding_dimensions"
)

// probeText is embedded to verify the provider's vector length.
const probeText = "health check"

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	dims      int
	logger    *zap.Logger
}

// New creates a Service. db and embedding may be nil in stub mode.
// dims is the required embedding length; zero selects domain.EmbeddingDimensions.
func New(db DBPinger, embedding EmbeddingChecker, dims int, logger *zap.Logger) *Service {
	if dims <= 0 {
		dims = domain.EmbeddingDimensions
	}
	return &Service{db: db, embedding: embedding, dims: dims, logger: logger}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	if s.db == nil {
		checks[CheckDatabase] = CheckUnconfigured
	} else if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("database health check failed", zap.Error(err))
		checks[CheckDatabase] = CheckError
	} else {
		checks[CheckDatabase] = CheckOK
	}

	if s.embedding == nil {
		checks[CheckEmbedding] = CheckUnconfigured
		checks[CheckEmbeddingDimensions] = CheckUnconfigured
	} else {
		checks[CheckEmbedding] = s.checkEmbedding(ctx)
		checks[CheckEmbeddingDimensions] = s.checkDimensions(ctx)
	}

	status := Healthy
	for _, v := range checks {
		switch v {
		case CheckError:
			return Report{Status: Unhealthy, Checks: checks}
		case CheckUnconfigured:
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) checkEmbedding(ctx context.Context) CheckResult {
	if err := s.embedding.HealthCheck(ctx); err != nil {
		s.logger.Warn("embedding health check failed", zap.Error(err))
		return CheckError
	}
	return CheckOK
}

func (s *Service) checkDimensions(ctx context.Context) CheckResult {
	res, err := s.embedding.Embed(ctx, probeText)
	if err != nil {
		s.logger.Warn("embedding probe failed", zap.Error(err))
		return CheckError
	}
	if len(res.Embedding) != s.dims {
		s.logger.Error("embedding dimension mismatch",
			zap.Int("expected", s.dims), zap.Int("got", len(res.Embedding)))
		return CheckError
	}
	return CheckOK
}
