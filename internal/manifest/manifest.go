// Package manifest writes and reads links.yml, the identifier to page
// mapping published next to the converted tree.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/starford/wikimd/internal/linktable"
)

// DefaultPath is the manifest location relative to the output root.
const DefaultPath = "links.yml"

// Store is the subset of storage the manifest needs.
type Store interface {
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
}

// Build converts a table export (identifier -> document path) to manifest
// entries in page-link form.
func Build(export map[string]string) map[string]string {
	out := make(map[string]string, len(export))
	for id, dest := range export {
		out[id] = linktable.PageLink(dest)
	}
	return out
}

// Write stores the table's current mapping at name. Keys are emitted in
// sorted order.
func Write(store Store, name string, table *linktable.Table) (int, error) {
	entries := Build(table.Export())
	data, err := yaml.Marshal(entries)
	if err != nil {
		return 0, fmt.Errorf("manifest: marshal: %w", err)
	}
	if err := store.Write(name, data); err != nil {
		return 0, fmt.Errorf("manifest: write %s: %w", name, err)
	}
	return len(entries), nil
}

// Read loads a manifest written by Write.
func Read(store Store, name string) (map[string]string, error) {
	data, err := store.Read(name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", name, err)
	}
	out := make(map[string]string)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", name, err)
	}
	return out, nil
}
