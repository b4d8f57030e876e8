package db

import (
	"fmt"
	"regexp"
)

// StorageType is the ON clause of FT.CREATE.
type StorageType string

// Storage types.
const (
	StorageHash StorageType = "HASH"
	StorageJSON StorageType = "JSON"
)

// DistanceMetric is the vector DISTANCE_METRIC.
type DistanceMetric string

// Distance metrics.
const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// FieldKind is the schema type of an indexed attribute.
type FieldKind int

// Field kinds.
const (
	FieldNumeric FieldKind = iota
	FieldTag
	FieldVector
)

// HNSWParams configures an HNSW vector field. Zero M or EFConstruct leaves the server default.
type HNSWParams struct {
	Dim         int
	Distance    DistanceMetric
	M           int
	EFConstruct int
}

// IndexField is one SCHEMA entry.
type IndexField struct {
	Name  string
	Alias string
	Kind  FieldKind

	// Sortable keeps the value in the sorting vector so SORTBY needs no document load.
	Sortable bool

	// Tag options.
	Separator     string
	CaseSensitive bool

	// Vector options, set when Kind is FieldVector.
	HNSW *HNSWParams
}

// Attribute is the name queries use: the alias when set.
func (f *IndexField) Attribute() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IndexDefinition is a complete FT.CREATE request.
type IndexDefinition struct {
	Name     string
	Storage  StorageType
	Prefixes []string
	Fields   []IndexField
}

var identifier = regexp.MustCompile(`^[A-Za-z0-9_:-]+$`)

// Validate reports the first problem that FT.CREATE would reject.
func (d *IndexDefinition) Validate() error {
	if !identifier.MatchString(d.Name) {
		return fmt.Errorf("%w: bad index name %q", ErrInvalidIndex, d.Name)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("%w: %s has no fields", ErrInvalidIndex, d.Name)
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidIndex, i)
		}
		attr := f.Attribute()
		if _, dup := seen[attr]; dup {
			return fmt.Errorf("%w: duplicate attribute %q", ErrInvalidIndex, attr)
		}
		seen[attr] = struct{}{}
		if f.Kind == FieldVector && (f.HNSW == nil || f.HNSW.Dim <= 0) {
			return fmt.Errorf("%w: vector %q needs a positive dimension", ErrInvalidIndex, attr)
		}
	}
	return nil
}

// IndexBuilder assembles an IndexDefinition. Storage defaults to HASH.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for the named index.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name, Storage: StorageHash}}
}

// OnJSON indexes JSON documents; field names become JSONPath expressions.
func (b *IndexBuilder) OnJSON() *IndexBuilder {
	b.def.Storage = StorageJSON
	return b
}

// Prefix restricts the index to keys with the given prefixes.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Numeric adds a NUMERIC attribute.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldNumeric})
}

// Tag adds a TAG attribute with default separator.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldTag})
}

// TagWithOpts adds a TAG attribute with a custom separator and case sensitivity.
func (b *IndexBuilder) TagWithOpts(name, separator string, caseSensitive bool) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldTag, Separator: separator, CaseSensitive: caseSensitive})
}

// VectorHNSW adds a FLOAT32 HNSW vector attribute.
func (b *IndexBuilder) VectorHNSW(name string, dim int, distance DistanceMetric, m, efConstruct int) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: FieldVector, HNSW: &HNSWParams{
		Dim: dim, Distance: distance, M: m, EFConstruct: efConstruct,
	}})
}

// As aliases the last added field, e.g. "$.userId" AS userId.
func (b *IndexBuilder) As(alias string) *IndexBuilder {
	if n := len(b.def.Fields); n > 0 {
		b.def.Fields[n-1].Alias = alias
	}
	return b
}

// Sortable marks the last added field SORTABLE.
func (b *IndexBuilder) Sortable() *IndexBuilder {
	if n := len(b.def.Fields); n > 0 {
		b.def.Fields[n-1].Sortable = true
	}
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}
