// Package db defines the Redis Stack storage contract shared by the catalog,
// session, vector and embedding-cache repositories.
package db

import (
	"context"
	"time"
)

// Store is everything the repositories need from one Redis Stack connection.
type Store interface {
	HashStore
	JSONStore
	KVStore
	IndexManager
	Searcher
	Ping(ctx context.Context) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// HashDoc is one hash written by HSetMulti. Vector records are stored this way.
type HashDoc struct {
	Key    string
	Fields map[string]string
	// Clear names fields to remove in the same write, for values that became empty.
	Clear []string
}

// HashStore holds vector records as hashes.
type HashStore interface {
	HSetMulti(ctx context.Context, docs []HashDoc) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// JSONDoc is one document written by JSONSetMulti.
type JSONDoc struct {
	Key  string
	Path string
	Data []byte
}

// JSONStore holds catalog items and sessions as JSON documents.
type JSONStore interface {
	JSONCreate(ctx context.Context, key string, data []byte) error
	JSONSetMulti(ctx context.Context, docs []JSONDoc) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// KVStore backs the embedding cache. A ttl of zero keeps the value forever.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager creates FT indexes on startup.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs FT.SEARCH queries.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
