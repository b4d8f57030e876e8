package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ilpcoach/internal/db"
	"github.com/kailas-cloud/ilpcoach/internal/domain"
	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
)

const pageSize = 100

var (
	keyPrefix = domain.KeyPrefix + "session:"
	indexName = domain.KeyPrefix + "sessions:idx"
)

// store is the consumer interface for the session log (ISP).
type store interface {
	JSONCreate(ctx context.Context, key string, data []byte) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo stores user sessions as JSON documents keyed by user and session ID.
type Repo struct {
	store store
}

// New creates a session repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the session index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check session index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(indexName).
		OnJSON().
		Prefix(keyPrefix).
		TagWithOpts("$.userId", "", true).As("userId").
		Tag("$.type").As("type").
		Numeric("$.completedAtUnix").As("completedAt").Sortable().
		Build()
	if err != nil {
		return fmt.Errorf("build session index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create session index: %w", err)
	}
	return nil
}

// Add persists a new session. Sessions are write-once: an ID the user already
// recorded is domain.ErrAlreadyExists.
func (r *Repo) Add(ctx context.Context, s domsess.Session) error {
	doc := toDoc(&s)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}

	key := sessionKey(s.UserID, s.ID)
	err = r.store.JSONCreate(ctx, key, data)
	switch {
	case errors.Is(err, db.ErrKeyExists):
		return fmt.Errorf("session %s: %w", s.ID, domain.ErrAlreadyExists)
	case err != nil:
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// ListByUser returns every session of the user, most recent first.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]domsess.Session, error) {
	return r.list(ctx, userQuery(userID))
}

// ListByUserAndType returns the user's sessions of one type, most recent first.
func (r *Repo) ListByUserAndType(ctx context.Context, userID string, t domsess.Type) ([]domsess.Session, error) {
	q := fmt.Sprintf("%s @type:{%s}", userQuery(userID), db.EscapeTag(string(t)))
	return r.list(ctx, q)
}

// Count returns the number of stored sessions.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// list pages through query newest first. Sessions are never deleted, so a write
// between pages can only shift entries down; seen keys drop the repeats.
func (r *Repo) list(ctx context.Context, query string) ([]domsess.Session, error) {
	sessions := []domsess.Session{}
	seen := make(map[string]struct{})

	q := &db.ListQuery{
		Index:      indexName,
		Query:      query,
		Limit:      pageSize,
		Fields:     []string{"$"},
		SortBy:     "completedAt",
		Descending: true,
	}
	for ; ; q.Offset += pageSize {
		res, err := r.store.SearchList(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("search sessions: %w", err)
		}
		if res == nil || len(res.Entries) == 0 {
			break
		}

		for _, entry := range res.Entries {
			if _, dup := seen[entry.Key]; dup {
				continue
			}
			seen[entry.Key] = struct{}{}

			var doc sessionDoc
			if err := json.Unmarshal([]byte(entry.Fields["$"]), &doc); err != nil {
				return nil, fmt.Errorf("unmarshal %s: %w", entry.Key, err)
			}
			sessions = append(sessions, doc.toDomain())
		}

		if q.Offset+len(res.Entries) >= res.Total {
			break
		}
	}
	return sessions, nil
}

func userQuery(userID string) string {
	return fmt.Sprintf("@userId:{%s}", db.EscapeTag(userID))
}

func sessionKey(userID, id string) string {
	return keyPrefix + userID + ":" + id
}
