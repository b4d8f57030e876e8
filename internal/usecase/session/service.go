// Package session records and lists user sessions.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
)

// Service records immutable session events.
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// New creates a session service.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now, newID: uuid.NewString}
}

// Record validates and stores s. A missing ID or completion time is assigned here.
// Sessions are immutable: reusing an ID fails with domain.ErrAlreadyExists.
func (s *Service) Record(ctx context.Context, sess domsess.Session) (domsess.Session, error) {
	if err := sess.Validate(); err != nil {
		return domsess.Session{}, domain.Invalidf("%v", err)
	}
	if sess.ID == "" {
		sess.ID = s.newID()
	}
	if sess.CompletedAt.IsZero() {
		sess.CompletedAt = s.now().UTC()
	}

	if err := s.repo.Add(ctx, sess); err != nil {
		return domsess.Session{}, fmt.Errorf("record session: %w", err)
	}
	return sess, nil
}

// List returns the user's sessions, most recent first.
func (s *Service) List(ctx context.Context, userID string) ([]domsess.Session, error) {
	if userID == "" {
		return nil, domain.Invalidf("userId is required")
	}
	sessions, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []domsess.Session{}
	}
	return sessions, nil
}
