// Package testutil provides shared test helpers for export fixtures and
// output trees.
package testutil

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/wikimd/internal/storage"
)

// ExportPage describes a Confluence export page fixture.
type ExportPage struct {
	Title       string   // full title text, e.g. "Docs : Getting started"
	Breadcrumbs []string // e.g. Home, KB, Docs
	Modified    string   // metadata line; empty omits the block
	Body        string   // raw HTML placed in #main-content
}

// ConfluencePage renders page in the shape of a Confluence HTML export.
func ConfluencePage(page ExportPage) []byte {
	var crumbs strings.Builder
	for i, c := range page.Breadcrumbs {
		fmt.Fprintf(&crumbs, "<li><a href=\"crumb_%d.html\">%s</a></li>", i, html.EscapeString(c))
	}
	meta := ""
	if page.Modified != "" {
		meta = "<div class=\"page-metadata\">" + html.EscapeString(page.Modified) + "</div>"
	}
	return []byte(`<!DOCTYPE html>
<html>
<head><title>` + html.EscapeString(page.Title) + `</title></head>
<body>
<div id="page">
<div id="main-header">
<div id="breadcrumb-section"><ol id="breadcrumbs">` + crumbs.String() + `</ol></div>
<h1 id="title-heading" class="pagetitle"><span id="title-text"> ` + html.EscapeString(page.Title) + ` </span></h1>
</div>
<div id="content" class="view">
` + meta + `
<div id="main-content" class="wiki-content group">
` + page.Body + `
</div>
</div>
<div id="footer"><section class="footer-body"><p>Document generated by Confluence</p></section></div>
</div>
</body>
</html>
`)
}

// WriteExport writes fixture pages into a fresh input directory.
func WriteExport(t *testing.T, pages map[string]ExportPage) string {
	t.Helper()
	dir := t.TempDir()
	for name, page := range pages {
		if err := os.WriteFile(filepath.Join(dir, name), ConfluencePage(page), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// TestTree creates a temporary output directory with a storage.Provider.
func TestTree(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, storage.MarkdownExt)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFiles writes rel path to content pairs under root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// MkdirAll creates rel directories under root.
func MkdirAll(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

// ReadFile returns the content of rel under root, failing the test if it
// does not exist.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// Exists reports whether rel exists under root.
func Exists(t *testing.T, root, rel string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}
