// Package catalog defines practice and framework documents.
package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Kind distinguishes practices from frameworks.
type Kind string

// Catalog kinds, also used as the "type" search metadata value.
const (
	KindPractice  Kind = "practice"
	KindFramework Kind = "framework"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindPractice || k == KindFramework
}

// Item is a practice or framework definition.
type Item struct {
	ID            string    `json:"id" yaml:"id"`
	Kind          Kind      `json:"kind" yaml:"kind"`
	Title         string    `json:"title" yaml:"title"`
	Description   string    `json:"description,omitempty" yaml:"description"`
	Category      string    `json:"category,omitempty" yaml:"category"`
	Difficulty    string    `json:"difficulty,omitempty" yaml:"difficulty"`
	Duration      float64   `json:"duration,omitempty" yaml:"duration"`
	Evidence      []string  `json:"evidence,omitempty" yaml:"evidence"`
	Frameworks    []string  `json:"frameworks,omitempty" yaml:"frameworks"`
	Tags          []string  `json:"tags,omitempty" yaml:"tags"`
	FrameworkType string    `json:"frameworkType,omitempty" yaml:"frameworkType"`
	Embedding     []float32 `json:"embedding,omitempty" yaml:"-"`
}

// Validate checks identity fields. ID: ^[a-zA-Z0-9_-]+$, 1-128 chars.
func (it *Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(it.ID) > 128 {
		return fmt.Errorf("id too long (max 128)")
	}
	if !idRegex.MatchString(it.ID) {
		return fmt.Errorf("id %q must be alphanumeric with underscores and hyphens", it.ID)
	}
	if !it.Kind.IsValid() {
		return fmt.Errorf("item %s: invalid kind %q", it.ID, it.Kind)
	}
	if strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("item %s: title is required", it.ID)
	}
	if it.Duration < 0 {
		return fmt.Errorf("item %s: duration must not be negative", it.ID)
	}
	return nil
}

// EmbeddingText is the text vectorized for similarity search.
func (it *Item) EmbeddingText() string {
	if it.Description == "" {
		return it.Title
	}
	return it.Title + ". " + it.Description
}

// Metadata returns the search metadata stored next to the vector.
func (it *Item) Metadata() map[string]any {
	md := map[string]any{
		result.KeyType:  string(it.Kind),
		result.KeyTitle: it.Title,
	}
	setString(md, result.KeyDescription, it.Description)
	setString(md, result.KeyCategory, it.Category)
	setString(md, result.KeyDifficulty, it.Difficulty)
	setString(md, result.KeyFrameworkType, it.FrameworkType)
	if it.Duration > 0 {
		md[result.KeyDuration] = it.Duration
	}
	setList(md, result.KeyEvidence, it.Evidence)
	setList(md, result.KeyFrameworks, it.Frameworks)
	setList(md, result.KeyTags, it.Tags)
	return md
}

func setString(md map[string]any, key, v string) {
	if v != "" {
		md[key] = v
	}
}

func setList(md map[string]any, key string, v []string) {
	if len(v) > 0 {
		md[key] = append([]string(nil), v...)
	}
}

// Stats is the document count report.
type Stats struct {
	Practices        int `json:"practices"`
	Frameworks       int `json:"frameworks"`
	Sessions         int `json:"sessions"`
	VectorCount      int `json:"vectorCount"`
	TotalVectorCount int `json:"totalVectorCount"`
}
