package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ilpcoach/internal/db"
)

// scanCount is the SCAN page size hint.
const scanCount = 100

// HSetMulti writes vector hashes in one round trip. Each doc's Clear fields are
// removed right after its HSET on the same connection.
func (s *Store) HSetMulti(ctx context.Context, docs []db.HashDoc) error {
	if len(docs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(docs))
	cmds := make([]rueidis.Completed, 0, len(docs))
	for _, d := range docs {
		cmd := s.b().Hset().Key(d.Key).FieldValue()
		for field, value := range d.Fields {
			cmd = cmd.FieldValue(field, value)
		}
		keys, cmds = append(keys, d.Key), append(cmds, cmd.Build())
		if len(d.Clear) > 0 {
			keys = append(keys, d.Key)
			cmds = append(cmds, s.b().Hdel().Key(d.Key).Field(d.Clear...).Build())
		}
	}
	return s.pipeline(ctx, db.OpHSet, keys, cmds)
}

// HGetAll reads a hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// Scan lists every key matching pattern.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	for cursor := uint64(0); ; {
		entry, err := s.do(ctx, s.b().Scan().Cursor(cursor).Match(pattern).Count(scanCount).Build()).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, entry.Elements...)
		if cursor = entry.Cursor; cursor == 0 {
			return keys, nil
		}
	}
}

// JSONCreate writes a new document at the root. An existing key is db.ErrKeyExists
// and is left untouched.
func (s *Store) JSONCreate(ctx context.Context, key string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args("$", string(data), "NX").Build()
	err := s.do(ctx, cmd).Error()
	switch {
	case rueidis.IsRedisNil(err):
		return db.ErrKeyExists
	case err != nil:
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONSetMulti writes catalog documents in one round trip.
func (s *Store) JSONSetMulti(ctx context.Context, docs []db.JSONDoc) error {
	if len(docs) == 0 {
		return nil
	}
	keys := make([]string, len(docs))
	cmds := make([]rueidis.Completed, len(docs))
	for i, d := range docs {
		keys[i], cmds[i] = d.Key, s.jsonSet(d.Key, d.Path, d.Data)
	}
	return s.pipeline(ctx, db.OpJSONSet, keys, cmds)
}

// JSONGet reads a document, or the given paths of it. A missing key is db.ErrKeyNotFound.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(paths...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	case raw == "":
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

func (s *Store) jsonSet(key, path string, data []byte) rueidis.Completed {
	return s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
}

// Get reads a cached value. A missing key is db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set writes a cached value, expiring after ttl when ttl is positive.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.b().Set().Key(key).Value(rueidis.BinaryString(value))
	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = set.Ex(ttl).Build()
	} else {
		cmd = set.Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
