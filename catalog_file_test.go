package ilpcoach

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `
practices:
  - id: box-breathing
    title: Box Breathing
    description: Four-count breath cycle.
    category: body
    difficulty: beginner
    duration: 5
    evidence: ["Reduces acute stress (Ma et al., 2017)"]
    frameworks: [ILP]
frameworks:
  - id: aqal
    title: AQAL
    frameworkType: integral
`

func TestParseCatalog(t *testing.T) {
	f, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Practices) != 1 || len(f.Frameworks) != 1 {
		t.Fatalf("catalog = %+v", f)
	}
	p := f.Practices[0]
	if p.Kind != KindPractice || p.Duration != 5 || len(p.Evidence) != 1 || p.Frameworks[0] != "ILP" {
		t.Errorf("practice = %+v", p)
	}
	if f.Frameworks[0].Kind != KindFramework || f.Frameworks[0].FrameworkType != "integral" {
		t.Errorf("framework = %+v", f.Frameworks[0])
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":      "practices: [",
		"missing title": "practices:\n  - id: p1\n",
		"bad id":        "frameworks:\n  - id: 'has space'\n    title: X\n",
	}
	for name, data := range cases {
		if _, err := ParseCatalog([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Practices[0].ID != "box-breathing" {
		t.Errorf("practices = %+v", f.Practices)
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
