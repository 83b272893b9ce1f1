// Package linktable tracks where every converted page currently lives and
// which identifier links should use for it.
//
// The table is the single source of truth for link fixup. Entries are
// registered once per input page during conversion and relocated whenever
// the reorganizer moves a page, in the same step as the rename itself.
package linktable

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/starford/wikimd/internal/apperr"
)

// ReferencePrefix marks an identifier-qualified page reference in output
// documents.
const ReferencePrefix = "page:"

// Entry is one registered page.
type Entry struct {
	Reference   string // original input filename, as it appears in hrefs
	Destination string // current relative document path, e.g. "docs/a.md"
	Identifier  string
}

// Table maps original page references to their current destination and
// identifier. It is safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	byRef map[string]*Entry
	ids   map[string]string // identifier -> reference
}

// New returns an empty table.
func New() *Table {
	return &Table{
		byRef: make(map[string]*Entry),
		ids:   make(map[string]string),
	}
}

// Reference returns the token link fixup substitutes for a page reference.
func Reference(identifier string) string {
	return ReferencePrefix + identifier
}

// DocPath normalizes a destination to document form (".md").
func DocPath(p string) string {
	p = path.Clean(strings.TrimPrefix(p, "./"))
	if strings.HasSuffix(p, ".html") {
		return strings.TrimSuffix(p, ".html") + ".md"
	}
	return p
}

// PageLink converts a destination to the page-link form (".html") the site
// generator serves.
func PageLink(p string) string {
	p = DocPath(p)
	return strings.TrimSuffix(p, ".md") + ".html"
}

// Register adds a page. Registering a reference twice, or reusing an
// identifier, is an error.
func (t *Table) Register(reference, destination, identifier string) error {
	if reference == "" || identifier == "" {
		return fmt.Errorf("linktable: register: empty reference or identifier")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byRef[reference]; ok {
		return fmt.Errorf("linktable: register %s: %w", reference, apperr.ErrAlreadyRegistered)
	}
	if other, ok := t.ids[identifier]; ok {
		return fmt.Errorf("linktable: register %s: identifier %s already used by %s: %w",
			reference, identifier, other, apperr.ErrIdentifierCollision)
	}
	t.byRef[reference] = &Entry{
		Reference:   reference,
		Destination: DocPath(destination),
		Identifier:  identifier,
	}
	t.ids[identifier] = reference
	return nil
}

// Relocate moves the unique entry whose destination is from to to. Both
// paths may be given in document or page-link form. It fails with
// apperr.ErrNotFound or apperr.ErrAmbiguous when the lookup is not unique,
// leaving the table unchanged.
func (t *Table) Relocate(from, to string) error {
	from, to = DocPath(from), DocPath(to)

	t.mu.Lock()
	defer t.mu.Unlock()

	var match *Entry
	count := 0
	for _, e := range t.byRef {
		if e.Destination == from {
			match = e
			count++
		}
	}
	switch count {
	case 0:
		return fmt.Errorf("linktable: relocate %s: %w", from, apperr.ErrNotFound)
	case 1:
		match.Destination = to
		return nil
	default:
		return fmt.Errorf("linktable: relocate %s: %d entries share it: %w", from, count, apperr.ErrAmbiguous)
	}
}

// Resolve returns the entry registered for reference.
func (t *Table) Resolve(reference string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byRef[reference]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Export returns identifier -> current destination for every entry.
func (t *Table) Export() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.byRef))
	for _, e := range t.byRef {
		out[e.Identifier] = e.Destination
	}
	return out
}

// Entries returns a snapshot of all entries sorted by reference.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, 0, len(t.byRef))
	for _, e := range t.byRef {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byRef)
}

// SharedDestinations returns destinations claimed by more than one entry,
// mapped to the sorted references claiming them. Such pages overwrote each
// other on disk and cannot be relocated.
func (t *Table) SharedDestinations() map[string][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	byDest := make(map[string][]string)
	for _, e := range t.byRef {
		byDest[e.Destination] = append(byDest[e.Destination], e.Reference)
	}
	out := make(map[string][]string)
	for dest, refs := range byDest {
		if len(refs) > 1 {
			sort.Strings(refs)
			out[dest] = refs
		}
	}
	return out
}

// Replacer returns a replacer substituting every registered reference with
// its identifier token in one pass. Longer references are tried first, so a
// reference that is a suffix of another never splits it.
func (t *Table) Replacer() *strings.Replacer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	refs := make([]string, 0, len(t.byRef))
	for ref := range t.byRef {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if len(refs[i]) != len(refs[j]) {
			return len(refs[i]) > len(refs[j])
		}
		return refs[i] < refs[j]
	})
	pairs := make([]string, 0, 2*len(refs))
	for _, ref := range refs {
		pairs = append(pairs, ref, Reference(t.byRef[ref].Identifier))
	}
	return strings.NewReplacer(pairs...)
}
