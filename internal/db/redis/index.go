package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/ilpcoach/internal/db"
)

// CreateIndex runs FT.CREATE. An index that already exists is db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}
	if err := s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error(); err != nil {
		if serverSays(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists asks FT.INFO about the index.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case serverSays(err, "unknown index name"), serverSays(err, "no such index"):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}

// createArgs renders def as FT.CREATE arguments:
// name ON storage [PREFIX n p...] SCHEMA field [AS alias] type [options]...
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	storage := def.Storage
	if storage == "" {
		storage = db.StorageHash
	}
	args := []string{def.Name, "ON", string(storage)}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for i := range def.Fields {
		args = append(args, fieldArgs(&def.Fields[i])...)
	}
	return args, nil
}

func fieldArgs(f *db.IndexField) []string {
	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	switch f.Kind {
	case db.FieldNumeric:
		args = append(args, "NUMERIC")
	case db.FieldTag:
		args = append(args, "TAG")
		if f.Separator != "" {
			args = append(args, "SEPARATOR", f.Separator)
		}
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	case db.FieldVector:
		args = append(args, hnswArgs(f.HNSW)...)
	}
	if f.Sortable && f.Kind != db.FieldVector {
		args = append(args, "SORTABLE")
	}
	return args
}

// hnswArgs renders VECTOR HNSW <count> TYPE FLOAT32 DIM d DISTANCE_METRIC m [M ..] [EF_CONSTRUCTION ..].
func hnswArgs(p *db.HNSWParams) []string {
	distance := p.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}
	attrs := []string{"TYPE", "FLOAT32", "DIM", strconv.Itoa(p.Dim), "DISTANCE_METRIC", string(distance)}
	if p.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(p.M))
	}
	if p.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(p.EFConstruct))
	}
	return append([]string{"VECTOR", "HNSW", strconv.Itoa(len(attrs))}, attrs...)
}
