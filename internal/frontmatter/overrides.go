package frontmatter

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed sections.yaml
var sectionsYAML []byte

// Override carries the per-section front matter fields keyed by exact
// page title. A nil Categories leaves the category list alone; a non-nil
// empty one clears it.
type Override struct {
	Categories  *[]string `yaml:"categories"`
	Order       int       `yaml:"order"`
	Icon        string    `yaml:"icon"`
	Description string    `yaml:"description"`
}

var overrides = mustParseOverrides(sectionsYAML)

// Lookup returns the override registered for title.
func Lookup(title string) (Override, bool) {
	o, ok := overrides[title]
	return o, ok
}

// ParseOverrides decodes an override table.
func ParseOverrides(data []byte) (map[string]Override, error) {
	out := make(map[string]Override)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("frontmatter: parse overrides: %w", err)
	}
	return out, nil
}

func mustParseOverrides(data []byte) map[string]Override {
	out, err := ParseOverrides(data)
	if err != nil {
		panic(err)
	}
	return out
}
