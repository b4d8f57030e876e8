package health

import (
	"context"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability and output shape.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
