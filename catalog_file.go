package ilpcoach

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CatalogFile is a YAML catalog of practices and frameworks.
//
//	practices:
//	  - id: box-breathing
//	    title: Box Breathing
//	    category: body
//	    duration: 5
//	frameworks:
//	  - id: aqal
//	    title: AQAL
//	    frameworkType: integral
type CatalogFile struct {
	Practices  []Item `yaml:"practices"`
	Frameworks []Item `yaml:"frameworks"`
}

// LoadCatalog reads and validates a YAML catalog file.
func LoadCatalog(path string) (CatalogFile, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return CatalogFile{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog and validates every item.
func ParseCatalog(data []byte) (CatalogFile, error) {
	var f CatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return CatalogFile{}, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range f.Practices {
		f.Practices[i].Kind = KindPractice
		if err := f.Practices[i].Validate(); err != nil {
			return CatalogFile{}, fmt.Errorf("practice %d: %w", i, err)
		}
	}
	for i := range f.Frameworks {
		f.Frameworks[i].Kind = KindFramework
		if err := f.Frameworks[i].Validate(); err != nil {
			return CatalogFile{}, fmt.Errorf("framework %d: %w", i, err)
		}
	}
	return f, nil
}
