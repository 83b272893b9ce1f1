// Package parser reads converted documents back: front matter, body, and the
// page references they carry.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	fm "github.com/adrg/frontmatter"

	"github.com/starford/wikimd/internal/frontmatter"
	"github.com/starford/wikimd/internal/linktable"
)

var refRe = regexp.MustCompile(`\{%\s*ref\s+([^\s%#]+)(?:#[^\s%]*)?\s*%\}`)

// Result holds the output of parsing one document.
type Result struct {
	Header     *frontmatter.Header // nil when absent or invalid
	Body       string
	References []string // identifiers from page tokens, first-seen order
	Unresolved []string // page links no fixup rewrote
	Title      string
}

// Parse extracts front matter, body and references from raw document bytes.
// Invalid front matter is not an error: the whole input is treated as body.
func Parse(data []byte) (*Result, error) {
	header, body := splitFrontmatter(data)
	refs, unresolved := extractReferences(body)
	return &Result{
		Header:     header,
		Body:       body,
		References: refs,
		Unresolved: unresolved,
		Title:      deriveTitle(header, body),
	}, nil
}

func splitFrontmatter(data []byte) (*frontmatter.Header, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(frontmatter.Delimiter)) {
		return nil, string(data)
	}

	var h frontmatter.Header
	body, err := fm.Parse(bytes.NewReader(trimmed), &h)
	if err != nil {
		return nil, string(data)
	}
	return &h, strings.TrimLeft(string(body), "\n\r")
}

// extractReferences returns deduplicated identifiers of rewritten references
// and deduplicated raw page links still awaiting a rewrite.
func extractReferences(body string) (refs, unresolved []string) {
	seenRef := make(map[string]struct{})
	seenRaw := make(map[string]struct{})
	for _, m := range refRe.FindAllStringSubmatch(body, -1) {
		target := m[1]
		switch {
		case strings.HasPrefix(target, linktable.ReferencePrefix):
			id := strings.TrimPrefix(target, linktable.ReferencePrefix)
			if id == "" {
				continue
			}
			if _, ok := seenRef[id]; !ok {
				seenRef[id] = struct{}{}
				refs = append(refs, id)
			}
		case strings.HasSuffix(target, ".html"):
			if _, ok := seenRaw[target]; !ok {
				seenRaw[target] = struct{}{}
				unresolved = append(unresolved, target)
			}
		}
	}
	return refs, unresolved
}

// deriveTitle returns the front matter title if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(h *frontmatter.Header, body string) string {
	if h != nil && h.Title != "" {
		return h.Title
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
