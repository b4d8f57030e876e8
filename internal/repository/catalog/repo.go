package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ilpcoach/internal/db"
	"github.com/kailas-cloud/ilpcoach/internal/domain"
	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
)

var indexName = domain.KeyPrefix + "catalog:idx"

// store is the consumer interface for catalog documents (ISP).
type store interface {
	JSONSetMulti(ctx context.Context, items []db.JSONDoc) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo stores practice and framework definitions as JSON documents.
type Repo struct {
	store store
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the catalog index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check catalog index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(indexName).
		OnJSON().
		Prefix(itemPrefix(domcat.KindPractice), itemPrefix(domcat.KindFramework)).
		Tag("$.kind").As("kind").
		Tag("$.category").As("category").
		Tag("$.difficulty").As("difficulty").
		Build()
	if err != nil {
		return fmt.Errorf("build catalog index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create catalog index: %w", err)
	}
	return nil
}

// AddItems writes items in one pipelined round-trip and returns their IDs in input order.
func (r *Repo) AddItems(ctx context.Context, items []domcat.Item) ([]string, error) {
	if len(items) == 0 {
		return []string{}, nil
	}

	batch := make([]db.JSONDoc, len(items))
	ids := make([]string, len(items))
	for i := range items {
		data, err := json.Marshal(&items[i])
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", items[i].ID, err)
		}
		batch[i] = db.JSONDoc{Key: itemKey(items[i].Kind, items[i].ID), Path: "$", Data: data}
		ids[i] = items[i].ID
	}

	if err := r.store.JSONSetMulti(ctx, batch); err != nil {
		return nil, fmt.Errorf("store catalog items: %w", err)
	}
	return ids, nil
}

// GetPractice returns a practice by ID, or domain.ErrNotFound.
func (r *Repo) GetPractice(ctx context.Context, id string) (domcat.Item, error) {
	return r.get(ctx, domcat.KindPractice, id)
}

// GetFramework returns a framework by ID, or domain.ErrNotFound.
func (r *Repo) GetFramework(ctx context.Context, id string) (domcat.Item, error) {
	return r.get(ctx, domcat.KindFramework, id)
}

func (r *Repo) get(ctx context.Context, kind domcat.Kind, id string) (domcat.Item, error) {
	key := itemKey(kind, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcat.Item{}, domain.ErrNotFound
		}
		return domcat.Item{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSON.GET with a "$" path wraps the document in an array.
	var docs []domcat.Item
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domcat.Item{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	if len(docs) == 0 {
		return domcat.Item{}, domain.ErrNotFound
	}
	return docs[0], nil
}

// Count returns the number of stored items of the given kind.
func (r *Repo) Count(ctx context.Context, kind domcat.Kind) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, fmt.Sprintf("@kind:{%s}", db.EscapeTag(string(kind))))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

func itemPrefix(kind domcat.Kind) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, kind)
}

func itemKey(kind domcat.Kind, id string) string {
	return itemPrefix(kind) + id
}
