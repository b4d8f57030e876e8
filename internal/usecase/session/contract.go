package session

import (
	"context"

	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
)

// Repository persists and lists user sessions.
type Repository interface {
	Add(ctx context.Context, s domsess.Session) error
	ListByUser(ctx context.Context, userID string) ([]domsess.Session, error)
}
