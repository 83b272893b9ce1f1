// Package resolver derives where a converted page lives from its breadcrumb
// trail and title.
package resolver

import (
	"path"
	"regexp"
	"strings"

	"github.com/starford/wikimd/internal/sanitize"
)

// HomeCategory is the primary category of pages without breadcrumb categories.
const HomeCategory = "home"

// rootCrumbs is the number of leading breadcrumb labels (space home and
// knowledge-base root) that carry no structure.
const rootCrumbs = 2

var titleRe = regexp.MustCompile(`^(?:.*) : (.*)$`)

// Location is the resolved output placement of one page.
type Location struct {
	Folder     string   // sanitized categories joined with "/", may be empty
	Filename   string   // sanitized, without extension
	Title      string   // leaf title as displayed, may be empty
	Categories []string // raw category labels, root crumbs removed
}

// Primary returns the sanitized first category, or HomeCategory.
func (l Location) Primary() string {
	for _, c := range l.Categories {
		if s := sanitize.Filename(c); s != "" {
			return s
		}
	}
	return HomeCategory
}

// TopLevel reports whether the page sits directly under the root.
func (l Location) TopLevel() bool {
	return l.Folder == ""
}

// Categories drops the root crumbs from trail.
func Categories(trail []string) []string {
	if len(trail) <= rootCrumbs {
		return nil
	}
	out := make([]string, 0, len(trail)-rootCrumbs)
	for _, c := range trail[rootCrumbs:] {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// TitleLeaf extracts the leaf from a "<space> : <leaf>" title. It returns ""
// when raw does not have that shape.
func TitleLeaf(raw string) string {
	m := titleRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Folder joins the sanitized categories into a relative folder path.
func Folder(categories []string) string {
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		if s := sanitize.Filename(c); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return path.Join(parts...)
}

// Resolve computes the location of a page. sourceName is the input filename
// and provides the fallback filename when the title does not match.
func Resolve(trail []string, rawTitle, sourceName string) Location {
	cats := Categories(trail)
	title := TitleLeaf(rawTitle)

	filename := sanitize.Filename(title)
	if filename == "" {
		stem := strings.TrimSuffix(path.Base(sourceName), path.Ext(sourceName))
		filename = sanitize.Filename(stem)
	}

	return Location{
		Folder:     Folder(cats),
		Filename:   filename,
		Title:      title,
		Categories: cats,
	}
}
