package mapping

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/restated-dev/restated/internal/taxonomy"
)

// File is the on-disk mapping document: ordered prefix rules plus
// explicit per-line overrides keyed by source line ID.
type File struct {
	Rules     []Rule            `yaml:"rules"`
	Overrides map[string]string `yaml:"overrides,omitempty"`
}

// Read parses a mapping document and validates it against a taxonomy.
func Read(r io.Reader, tax *taxonomy.Taxonomy) (*Table, map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading mapping: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing mapping: %w", err)
	}

	table, err := NewTable(f.Rules, tax)
	if err != nil {
		return nil, nil, err
	}

	for id, key := range f.Overrides {
		if !tax.IsLeaf(key) {
			return nil, nil, fmt.Errorf("override for line %q: category %q is not a leaf category", id, key)
		}
	}
	return table, f.Overrides, nil
}

// Load reads a mapping document from disk.
func Load(path string, tax *taxonomy.Taxonomy) (*Table, map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening mapping: %w", err)
	}
	defer f.Close()
	return Read(f, tax)
}

// Save writes a mapping document to disk.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling mapping: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}
	return nil
}
