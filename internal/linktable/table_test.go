package linktable

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wikimd/internal/apperr"
)

func TestRegisterAndResolve(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Register("Getting-started_1.html", "docs/getting_started.md", "aaa"))

	e, ok := tbl.Resolve("Getting-started_1.html")
	require.True(t, ok)
	assert.Equal(t, "docs/getting_started.md", e.Destination)
	assert.Equal(t, "aaa", e.Identifier)

	_, ok = tbl.Resolve("missing.html")
	assert.False(t, ok)
	assert.Equal(t, 1, tbl.Len())
}

func TestRegister_NormalizesPageLinkForm(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Register("a.html", "./docs/a.html", "id1"))
	e, _ := tbl.Resolve("a.html")
	assert.Equal(t, "docs/a.md", e.Destination)
}

func TestRegister_Duplicates(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Register("a.html", "a.md", "id1"))

	err := tbl.Register("a.html", "b.md", "id2")
	assert.ErrorIs(t, err, apperr.ErrAlreadyRegistered)

	err = tbl.Register("b.html", "b.md", "id1")
	assert.ErrorIs(t, err, apperr.ErrIdentifierCollision)

	assert.Error(t, tbl.Register("", "c.md", "id3"))
	assert.Equal(t, 1, tbl.Len())
}

func TestRelocate(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Register("cats.html", "cats.md", "c1"))

	require.NoError(t, tbl.Relocate("cats.html", "cats/index.html"))
	e, _ := tbl.Resolve("cats.html")
	assert.Equal(t, "cats/index.md", e.Destination)

	require.NoError(t, tbl.Relocate("cats/index.md", "pets/cats/index.md"))
	e, _ = tbl.Resolve("cats.html")
	assert.Equal(t, "pets/cats/index.md", e.Destination)
}

func TestRelocate_NotFound(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Register("a.html", "a.md", "id1"))
	err := tbl.Relocate("nowhere.md", "x.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	e, _ := tbl.Resolve("a.html")
	assert.Equal(t, "a.md", e.Destination)
}

func TestRelocate_Ambiguous(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Register("Setup_1.html", "docs/setup.md", "id1"))
	require.NoError(t, tbl.Register("Setup_2.html", "docs/setup.md", "id2"))

	err := tbl.Relocate("docs/setup.md", "docs/setup/index.md")
	assert.ErrorIs(t, err, apperr.ErrAmbiguous)

	for _, ref := range []string{"Setup_1.html", "Setup_2.html"} {
		e, _ := tbl.Resolve(ref)
		assert.Equal(t, "docs/setup.md", e.Destination, "entry %s must be untouched", ref)
	}
	assert.Equal(t, map[string][]string{"docs/setup.md": {"Setup_1.html", "Setup_2.html"}}, tbl.SharedDestinations())
}

func TestExportAndEntries(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Register("b.html", "x/b.md", "id2"))
	require.NoError(t, tbl.Register("a.html", "a.md", "id1"))

	assert.Equal(t, map[string]string{"id1": "a.md", "id2": "x/b.md"}, tbl.Export())

	entries := tbl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a.html", entries[0].Reference)
	assert.Equal(t, "b.html", entries[1].Reference)
}

func TestReplacer(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Register("Page_1.html", "a.md", "short"))
	require.NoError(t, tbl.Register("Big-Page_1.html", "b.md", "long"))

	r := tbl.Replacer()
	in := "[a]({% ref Page_1.html %}) [b]({% ref Big-Page_1.html#top %}) [c](Other.html)"
	out := r.Replace(in)
	assert.Equal(t, "[a]({% ref page:short %}) [b]({% ref page:long#top %}) [c](Other.html)", out)
	assert.Equal(t, out, r.Replace(out), "second pass must not change anything")
}

func TestPathForms(t *testing.T) {
	assert.Equal(t, "docs/a.md", DocPath("docs/a.html"))
	assert.Equal(t, "docs/a.md", DocPath("./docs/a.md"))
	assert.Equal(t, "docs/a.html", PageLink("docs/a.md"))
	assert.Equal(t, "page:xyz", Reference("xyz"))
}

func TestConcurrentRegister(t *testing.T) {
	tbl := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := fmt.Sprintf("p%d.html", i)
			assert.NoError(t, tbl.Register(ref, fmt.Sprintf("p%d.md", i), fmt.Sprintf("id%d", i)))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, tbl.Len())
}
