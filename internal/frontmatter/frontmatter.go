// Package frontmatter renders the YAML header of output documents and holds
// the static per-section override table.
package frontmatter

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes a front matter block.
const Delimiter = "---"

// Header is the front matter of one output document.
type Header struct {
	Identifier  string    `yaml:"identifier"`
	UpdatedAt   time.Time `yaml:"updated_at"`
	Layout      string    `yaml:"layout"`
	Lang        string    `yaml:"lang"`
	Title       string    `yaml:"title"`
	Categories  []string  `yaml:"categories"`
	Order       int       `yaml:"order,omitempty"`
	Icon        string    `yaml:"icon,omitempty"`
	Description string    `yaml:"description,omitempty"`
}

// Apply merges an override into h. The override's category list only
// replaces the breadcrumb category of top-level pages.
func (h *Header) Apply(o Override, topLevel bool) {
	if o.Categories != nil && topLevel {
		h.Categories = append([]string{}, (*o.Categories)...)
	}
	if o.Order != 0 {
		h.Order = o.Order
	}
	if o.Icon != "" {
		h.Icon = o.Icon
	}
	if o.Description != "" {
		h.Description = o.Description
	}
}

// Render returns the delimited YAML block for h. Keys are emitted in a fixed
// order so documents are byte-stable across runs.
func Render(h Header) ([]byte, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
	}

	add("identifier", str(h.Identifier))
	add("updated_at", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: h.UpdatedAt.UTC().Format(time.RFC3339)})
	add("layout", str(h.Layout))
	add("lang", str(h.Lang))
	add("title", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.SingleQuotedStyle, Value: h.Title})

	cats := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, c := range h.Categories {
		cats.Content = append(cats.Content, str(c))
	}
	add("categories", cats)

	if h.Order != 0 {
		add("order", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(h.Order)})
	}
	if h.Icon != "" {
		add("icon", str(h.Icon))
	}
	if h.Description != "" {
		add("description", str(h.Description))
	}

	var buf bytes.Buffer
	buf.WriteString(Delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	buf.WriteString(Delimiter + "\n")
	return buf.Bytes(), nil
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
