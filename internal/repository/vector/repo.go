package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/ilpcoach/internal/db"
	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/filter"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
)

const (
	fieldVector   = "__vector"
	fieldMetadata = "__metadata"
	fieldScore    = "__vector_score"
	fieldID       = "id"

	// DefaultBatchSize is used when Upsert receives a non-positive batch size.
	DefaultBatchSize = 100
)

var (
	keyPrefix = domain.KeyPrefix + "vec:"
	indexName = domain.KeyPrefix + "vectors:idx"
)

// store is the consumer interface for vector operations (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashDoc) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores catalog vectors as hashes under one FT index.
type Repo struct {
	store store
	dims  int
	hnsw  HNSWConfig
}

// New creates a vector repository for embeddings of the given dimensionality.
func New(s store, dims int) *Repo {
	return &Repo{store: s, dims: dims, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the vector index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check vector index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(indexName).
		Prefix(keyPrefix).
		Tag(fieldID).
		Tag(result.KeyType).
		Tag(result.KeyCategory).
		Tag(result.KeyDifficulty).
		TagWithOpts(result.KeyFrameworks, ",", false).
		TagWithOpts(result.KeyTags, ",", false).
		Numeric(result.KeyDuration).
		VectorHNSW(fieldVector, r.dims, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build vector index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create vector index: %w", err)
	}
	return nil
}

// QuerySimilar returns up to topK nearest neighbours of vec that satisfy filters,
// highest score first.
func (r *Repo) QuerySimilar(
	ctx context.Context, vec []float32, topK int, filters filter.Expression,
) ([]result.Result, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		VectorField:  fieldVector,
		Filters:      filters,
		Vector:       vec,
		K:            topK,
		ReturnFields: []string{fieldMetadata, fieldScore},
	})
	if err != nil {
		return nil, fmt.Errorf("query similar: %w", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return []result.Result{}, nil
	}

	results := make([]result.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		md, err := decodeMetadata(entry.Fields[fieldMetadata])
		if err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", entry.Key, err)
		}
		results = append(results, result.New(strings.TrimPrefix(entry.Key, keyPrefix), entry.Score, md))
	}
	return results, nil
}

// Upsert writes vectors in batches of batchSize, reporting progress after each batch.
func (r *Repo) Upsert(
	ctx context.Context, vectors []vector.Vector, batchSize int, onProgress vector.ProgressFunc,
) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	for i := range vectors {
		if err := vectors[i].Validate(r.dims); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrDimensionMismatch, err)
		}
	}

	total := len(vectors)
	for start := 0; start < total; start += batchSize {
		end := min(start+batchSize, total)

		items := make([]db.HashDoc, 0, end-start)
		for _, v := range vectors[start:end] {
			fields, err := hashFields(v)
			if err != nil {
				return err
			}
			items = append(items, db.HashDoc{Key: keyPrefix + v.ID, Fields: fields, Clear: unsetFields(fields)})
		}

		if err := r.store.HSetMulti(ctx, items); err != nil {
			return fmt.Errorf("upsert vectors [%d:%d]: %w", start, end, err)
		}
		if onProgress != nil {
			onProgress(vector.Progress{Done: end, Total: total})
		}
	}
	return nil
}

// Fetch loads a stored vector by ID. Returns domain.ErrNotFound when absent.
func (r *Repo) Fetch(ctx context.Context, id string) (vector.Vector, error) {
	fields, err := r.store.HGetAll(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return vector.Vector{}, domain.ErrNotFound
		}
		return vector.Vector{}, fmt.Errorf("fetch vector %s: %w", id, err)
	}
	if len(fields) == 0 {
		return vector.Vector{}, domain.ErrNotFound
	}

	md, err := decodeMetadata(fields[fieldMetadata])
	if err != nil {
		return vector.Vector{}, fmt.Errorf("decode metadata %s: %w", id, err)
	}
	values, err := vector.Decode([]byte(fields[fieldVector]))
	if err != nil {
		return vector.Vector{}, fmt.Errorf("decode vector %s: %w", id, err)
	}
	return vector.Vector{ID: id, Values: values, Metadata: md}, nil
}

// IndexStats reports indexed documents and stored vector keys.
func (r *Repo) IndexStats(ctx context.Context) (vector.Stats, error) {
	indexed, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		return vector.Stats{}, fmt.Errorf("count indexed vectors: %w", err)
	}
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return vector.Stats{}, fmt.Errorf("scan vector keys: %w", err)
	}
	return vector.Stats{VectorCount: indexed, TotalVectorCount: len(keys)}, nil
}

// hashFields flattens a vector into indexed hash fields plus the raw metadata blob.
func hashFields(v vector.Vector) (map[string]string, error) {
	md, err := json.Marshal(v.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata %s: %w", v.ID, err)
	}

	fields := map[string]string{
		fieldID:       v.ID,
		fieldVector:   string(vector.Encode(v.Values)),
		fieldMetadata: string(md),
	}
	for _, key := range []string{result.KeyType, result.KeyCategory, result.KeyDifficulty} {
		if s, ok := v.Metadata[key].(string); ok && s != "" {
			fields[key] = s
		}
	}
	for _, key := range []string{result.KeyFrameworks, result.KeyTags} {
		if list := stringList(v.Metadata[key]); len(list) > 0 {
			fields[key] = strings.Join(list, ",")
		}
	}
	if d, ok := number(v.Metadata[result.KeyDuration]); ok {
		fields[result.KeyDuration] = strconv.FormatFloat(d, 'f', -1, 64)
	}
	return fields, nil
}

// optionalFields are indexed only when the item carries a value for them.
var optionalFields = []string{
	result.KeyType, result.KeyCategory, result.KeyDifficulty,
	result.KeyFrameworks, result.KeyTags, result.KeyDuration,
}

// unsetFields lists the optional fields absent from fields. Re-ingesting an item
// must drop them, or a stale category would keep matching filters.
func unsetFields(fields map[string]string) []string {
	var out []string
	for _, f := range optionalFields {
		if _, ok := fields[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func decodeMetadata(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var md map[string]any
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, err
	}
	return md, nil
}

func stringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func number(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}
