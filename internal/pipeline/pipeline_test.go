package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wikimd/internal/apperr"
	"github.com/starford/wikimd/internal/converter"
	"github.com/starford/wikimd/internal/identity"
	"github.com/starford/wikimd/internal/index"
	"github.com/starford/wikimd/internal/linkfix"
	"github.com/starford/wikimd/internal/manifest"
	"github.com/starford/wikimd/internal/metrics"
	"github.com/starford/wikimd/internal/storage"
	"github.com/starford/wikimd/internal/testutil"
)

var export = map[string]testutil.ExportPage{
	"Docs_4.html": {
		Title:       "KB : Docs",
		Breadcrumbs: []string{"Home", "KB"},
		Body:        `<p>Start with <a href="Getting-started_1.html">this</a>.</p>`,
	},
	"Getting-started_1.html": {
		Title:       "Docs : Getting started",
		Breadcrumbs: []string{"Home", "KB", "Docs"},
		Modified:    "Created by Alice, last modified on Mar 02, 2016",
		Body:        `<p>See <a href="Auth_2.html">auth</a> and <a href="Docs_4.html#top">docs</a>.</p>`,
	},
	"Auth_2.html": {
		Title:       "API : Auth",
		Breadcrumbs: []string{"Home", "KB", "Developer docs", "API"},
		Body:        `<p>Back to <a href="Getting-started_1.html">start</a>.</p>`,
	},
	"Developer-docs_5.html": {
		Title:       "KB : Developer docs",
		Breadcrumbs: []string{"Home", "KB"},
		Body:        `<p>Developer area.</p>`,
	},
}

type fixture struct {
	inDir  string
	outDir string
	out    storage.Provider
	opts   Options
}

func newFixture(t *testing.T, pages map[string]testutil.ExportPage) *fixture {
	t.Helper()
	inDir := testutil.WriteExport(t, pages)
	in, err := storage.NewFS(inDir, storage.HTMLExt)
	require.NoError(t, err)
	outDir, out := testutil.TestTree(t)

	ids, err := identity.New(identity.ModeDeterministic, identity.DefaultLength)
	require.NoError(t, err)

	return &fixture{
		inDir:  inDir,
		outDir: outDir,
		out:    out,
		opts: Options{
			Input:  in,
			Output: out,
			Converter: converter.New(converter.Options{
				Layout:          "article_with_sidebar",
				Lang:            "en",
				Preamble:        "{% include global.html %}",
				DefaultLanguage: "php",
				Now:             func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
			}),
			Identities: ids,
			Workers:    4,
			Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	}
}

func (f *fixture) run(t *testing.T) *Report {
	t.Helper()
	p, err := New(f.opts)
	require.NoError(t, err)
	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	return rep
}

func TestRun_EndToEnd(t *testing.T) {
	f := newFixture(t, export)
	rep := f.run(t)

	assert.Equal(t, 4, rep.Converted)
	assert.Zero(t, rep.Failed)
	assert.Empty(t, rep.Shared)
	assert.Equal(t, 2, rep.Promote.Moved)
	assert.Equal(t, 1, rep.Flatten.Moved)
	assert.Equal(t, 4, rep.Manifest)

	for ref, want := range map[string]string{
		"Docs_4.html":            "docs/index.md",
		"Getting-started_1.html": "docs/getting_started.md",
		"Auth_2.html":            "api/auth.md",
		"Developer-docs_5.html":  "developer_docs/index.md",
	} {
		e, ok := rep.Table.Resolve(ref)
		require.True(t, ok, ref)
		assert.Equal(t, want, e.Destination, ref)
	}
	assert.False(t, testutil.Exists(t, f.outDir, "docs.md"))
	assert.False(t, testutil.Exists(t, f.outDir, "developer_docs/api"))

	gs := testutil.ReadFile(t, f.outDir, "docs/getting_started.md")
	auth, _ := rep.Table.Resolve("Auth_2.html")
	docs, _ := rep.Table.Resolve("Docs_4.html")
	assert.Contains(t, gs, "categories: [docs]\n")
	assert.Contains(t, gs, "order: 1\n")
	assert.Contains(t, gs, "icon: rocket\n")
	assert.Contains(t, gs, "updated_at: 2016-03-02T00:00:00Z\n")
	assert.Contains(t, gs, "[auth]({% ref page:"+auth.Identifier+" %})")
	assert.Contains(t, gs, "[docs]({% ref page:"+docs.Identifier+"#top %})")
	assert.NotContains(t, gs, "Auth_2.html")

	assert.Contains(t, testutil.ReadFile(t, f.outDir, "docs/index.md"), "categories: [home]\n")
}

func TestRun_DestinationsExistAfterReorganize(t *testing.T) {
	f := newFixture(t, export)
	rep := f.run(t)
	for _, e := range rep.Table.Entries() {
		assert.True(t, testutil.Exists(t, f.outDir, e.Destination), "%s -> %s", e.Reference, e.Destination)
	}
}

func TestRun_Manifest(t *testing.T) {
	f := newFixture(t, export)
	rep := f.run(t)

	got, err := manifest.Read(f.out, manifest.DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, manifest.Build(rep.Table.Export()), got)

	auth, _ := rep.Table.Resolve("Auth_2.html")
	assert.Equal(t, "api/auth.html", got[auth.Identifier])
}

func TestRun_LinkFixIdempotent(t *testing.T) {
	f := newFixture(t, export)
	rep := f.run(t)

	before := snapshot(t, f.outDir)
	res, err := linkfix.Fix(context.Background(), f.out, rep.Table, 2, f.opts.Logger)
	require.NoError(t, err)
	assert.Zero(t, res.Changed)
	assert.Equal(t, before, snapshot(t, f.outDir))
}

func TestRun_DeterministicIdentifiersStable(t *testing.T) {
	f := newFixture(t, export)
	first := f.run(t).Table.Export()

	f.opts.Clean = true
	second := f.run(t).Table.Export()
	assert.Equal(t, first, second)
}

func TestRun_CleanRemovesStaleOutput(t *testing.T) {
	f := newFixture(t, export)
	testutil.WriteFiles(t, f.outDir, map[string]string{"stale/old.md": "old"})
	f.opts.Clean = true
	f.run(t)
	assert.False(t, testutil.Exists(t, f.outDir, "stale"))
	assert.True(t, testutil.Exists(t, f.outDir, "docs/getting_started.md"))
}

func TestRun_SiteIndex(t *testing.T) {
	f := newFixture(t, export)
	dbPath := filepath.Join(t.TempDir(), "site.db")
	f.opts.IndexPath = dbPath
	rep := f.run(t)

	require.NotNil(t, rep.Index)
	assert.Equal(t, 4, rep.Index.Indexed)

	db, err := index.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	gs, _ := rep.Table.Resolve("Getting-started_1.html")
	bl, err := db.Backlinks(gs.Identifier)
	require.NoError(t, err)
	assert.Equal(t, []string{"api/auth.md", "docs/index.md"}, bl)
}

func TestRun_RecordsMetrics(t *testing.T) {
	f := newFixture(t, export)
	rec := metrics.NewPrometheusRecorder(nil)
	f.opts.Recorder = rec
	f.run(t)

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, rec.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wikimd_pages_converted_total 4")
	assert.Contains(t, string(data), `wikimd_stage_results_total{result="success",stage="linkfix"} 1`)
}

type constantIDs struct{}

func (constantIDs) New(string) (string, error) { return "same", nil }

func TestRun_IdentifierCollisionIsFatal(t *testing.T) {
	f := newFixture(t, export)
	f.opts.Identities = constantIDs{}
	p, err := New(f.opts)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, apperr.ErrIdentifierCollision)
	assert.False(t, testutil.Exists(t, f.outDir, manifest.DefaultPath))
}

func TestRun_UnlistableInputIsFatal(t *testing.T) {
	f := newFixture(t, export)
	require.NoError(t, os.RemoveAll(f.inDir))
	p, err := New(f.opts)
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	assert.Error(t, err)
}

func TestNew_RequiresStorage(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}
