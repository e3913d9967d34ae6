// Package catalog holds the static registry of models this device knows
// about. The catalog maps a model id to its remote source, estimated
// footprint, runtime library, and cloud flag; it never changes after load.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"modelmgrd/pkg/types"
)

// Catalog is an immutable, indexed view over the catalog entries.
type Catalog struct {
	entries []types.CatalogEntry
	byID    map[string]types.CatalogEntry
}

// New builds a Catalog from a slice of entries. Later duplicates win.
func New(entries []types.CatalogEntry) *Catalog {
	c := &Catalog{
		entries: make([]types.CatalogEntry, len(entries)),
		byID:    make(map[string]types.CatalogEntry, len(entries)),
	}
	copy(c.entries, entries)
	for _, e := range entries {
		c.byID[e.ID] = e
	}
	return c
}

// catalogFile is the on-disk shape shared by all supported encodings.
type catalogFile struct {
	Models []types.CatalogEntry `json:"models" toml:"models" yaml:"models"`
}

// LoadFile reads a catalog file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("empty catalog path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f catalogFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &f); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &f); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported catalog extension: %s", ext)
	}
	for _, e := range f.Models {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry with empty id in %s", path)
		}
	}
	return New(f.Models), nil
}

// Resolve returns the entry for id, and whether it exists.
func (c *Catalog) Resolve(id string) (types.CatalogEntry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Entries returns a copy of all catalog entries in file order.
func (c *Catalog) Entries() []types.CatalogEntry {
	out := make([]types.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// InstallDirName returns the directory name a model's artifacts live under,
// relative to the models root. Slashes in ids are flattened so the result is
// always a single path element.
func (c *Catalog) InstallDirName(id string) string {
	return strings.ReplaceAll(id, "/", "--")
}
