package db

import (
	"errors"
	"testing"
)

func TestIndexBuilder_Vectors(t *testing.T) {
	def, err := NewIndex("ilp:vectors:idx").
		Prefix("ilp:vec:").
		Tag("type").
		TagWithOpts("frameworks", ",", false).
		Numeric("duration").
		VectorHNSW("__vector", 1536, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if def.Storage != StorageHash {
		t.Errorf("storage = %s, want HASH", def.Storage)
	}
	if len(def.Fields) != 4 {
		t.Fatalf("fields = %d", len(def.Fields))
	}
	if f := def.Fields[1]; f.Kind != FieldTag || f.Separator != "," {
		t.Errorf("frameworks = %+v", f)
	}
	v := def.Fields[3]
	if v.Kind != FieldVector || v.HNSW == nil || v.HNSW.Dim != 1536 || v.HNSW.EFConstruct != 200 {
		t.Errorf("vector = %+v", v)
	}
}

func TestIndexBuilder_JSONAliases(t *testing.T) {
	def, err := NewIndex("ilp:catalog:idx").OnJSON().
		Tag("$.kind").As("kind").
		Tag("$.category").As("category").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if def.Storage != StorageJSON {
		t.Errorf("storage = %s", def.Storage)
	}
	if def.Fields[0].Attribute() != "kind" || def.Fields[1].Name != "$.category" {
		t.Errorf("fields = %+v", def.Fields)
	}
}

func TestIndexBuilder_AsWithoutField(t *testing.T) {
	b := NewIndex("idx").As("ignored").Tag("type")
	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if def.Fields[0].Alias != "" {
		t.Errorf("alias applied before any field: %+v", def.Fields[0])
	}
}

func TestIndexBuilder_BuildCopies(t *testing.T) {
	b := NewIndex("idx").Tag("a")
	first, _ := b.Build()
	b.Tag("b")
	if len(first.Fields) != 1 {
		t.Errorf("earlier definition changed: %+v", first.Fields)
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]*IndexBuilder{
		"empty name":      NewIndex("").Tag("a"),
		"bad name":        NewIndex("has space").Tag("a"),
		"no fields":       NewIndex("idx"),
		"unnamed field":   NewIndex("idx").Tag(""),
		"duplicate":       NewIndex("idx").Tag("a").Numeric("a"),
		"duplicate alias": NewIndex("idx").Tag("$.a").As("a").Tag("a"),
		"zero dim":        NewIndex("idx").VectorHNSW("v", 0, DistanceCosine, 0, 0),
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := b.Build(); !errors.Is(err, ErrInvalidIndex) {
				t.Errorf("err = %v, want ErrInvalidIndex", err)
			}
		})
	}

	raw := &IndexDefinition{Name: "idx", Fields: []IndexField{{Name: "v", Kind: FieldVector}}}
	if err := raw.Validate(); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("vector without params: %v", err)
	}
}

func TestEscapeTag(t *testing.T) {
	tests := map[string]string{
		"practice":        "practice",
		"box-breathing":   `box\-breathing`,
		"Spiral Dynamics": `Spiral\ Dynamics`,
		"a.b,c":           `a\.b\,c`,
		"user@example":    `user\@example`,
		"":                "",
	}
	for in, want := range tests {
		if got := EscapeTag(in); got != want {
			t.Errorf("EscapeTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := error(&Error{Op: OpSearch, Err: inner})
	if err.Error() != "FT.SEARCH: boom" || !errors.Is(err, inner) {
		t.Errorf("err = %v", err)
	}
}
