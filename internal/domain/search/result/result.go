package result

import (
	"encoding/json"
	"maps"
)

// Metadata keys carried by catalog search hits.
const (
	KeyTitle         = "title"
	KeyDescription   = "description"
	KeyCategory      = "category"
	KeyDifficulty    = "difficulty"
	KeyDuration      = "duration"
	KeyEvidence      = "evidence"
	KeyFrameworks    = "frameworks"
	KeyFrameworkType = "frameworkType"
	KeyTags          = "tags"
	KeyType          = "type"
)

// Result is a single search hit. Accessors never mutate the stored metadata.
type Result struct {
	id       string
	score    float64
	metadata map[string]any
}

// New creates a search result. The metadata map is copied.
func New(id string, score float64, metadata map[string]any) Result {
	return Result{id: id, score: score, metadata: maps.Clone(metadata)}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the similarity score in [0, 1].
func (r *Result) Score() float64 { return r.score }

// Metadata returns a copy of the raw metadata.
func (r *Result) Metadata() map[string]any { return maps.Clone(r.metadata) }

// Title returns the display title.
func (r *Result) Title() string { return r.str(KeyTitle) }

// Description returns the description text.
func (r *Result) Description() string { return r.str(KeyDescription) }

// Category returns the catalog category.
func (r *Result) Category() string { return r.str(KeyCategory) }

// Difficulty returns the difficulty label.
func (r *Result) Difficulty() string { return r.str(KeyDifficulty) }

// Type returns "practice" or "framework".
func (r *Result) Type() string { return r.str(KeyType) }

// FrameworkType returns the framework classification, empty for practices.
func (r *Result) FrameworkType() string { return r.str(KeyFrameworkType) }

// Duration returns the duration in minutes and whether it is present.
func (r *Result) Duration() (float64, bool) {
	switch v := r.metadata[KeyDuration].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Evidence returns the evidence citations.
func (r *Result) Evidence() []string { return r.strs(KeyEvidence) }

// Frameworks returns the frameworks the item belongs to.
func (r *Result) Frameworks() []string { return r.strs(KeyFrameworks) }

// Tags returns the free-form tags.
func (r *Result) Tags() []string { return r.strs(KeyTags) }

func (r *Result) str(key string) string {
	s, _ := r.metadata[key].(string)
	return s
}

func (r *Result) strs(key string) []string {
	switch v := r.metadata[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

type resultJSON struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// MarshalJSON renders the result as {id, score, metadata}.
func (r Result) MarshalJSON() ([]byte, error) {
	md := r.metadata
	if md == nil {
		md = map[string]any{}
	}
	return json.Marshal(resultJSON{ID: r.id, Score: r.score, Metadata: md})
}
