package session

import (
	"time"

	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
)

// sessionDoc is the stored JSON shape. completedAtUnix backs the numeric index field.
type sessionDoc struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Type            string         `json:"type"`
	Content         map[string]any `json:"content,omitempty"`
	Insights        []string       `json:"insights,omitempty"`
	CompletedAt     time.Time      `json:"completedAt"`
	CompletedAtUnix int64          `json:"completedAtUnix"`
	Embedding       []float32      `json:"embedding,omitempty"`
}

func toDoc(s *domsess.Session) sessionDoc {
	return sessionDoc{
		ID:              s.ID,
		UserID:          s.UserID,
		Type:            string(s.Type),
		Content:         s.Content,
		Insights:        s.Insights,
		CompletedAt:     s.CompletedAt.UTC(),
		CompletedAtUnix: s.CompletedAt.UnixMilli(),
		Embedding:       s.Embedding,
	}
}

func (d *sessionDoc) toDomain() domsess.Session {
	return domsess.Session{
		ID:          d.ID,
		UserID:      d.UserID,
		Type:        domsess.Type(d.Type),
		Content:     d.Content,
		Insights:    d.Insights,
		CompletedAt: d.CompletedAt,
		Embedding:   d.Embedding,
	}
}
