package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/wikimd/internal/testutil"
)

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRun_ConvertsExport(t *testing.T) {
	in := testutil.WriteExport(t, map[string]testutil.ExportPage{
		"Getting-started_1.html": {
			Title:       "Docs : Getting started",
			Breadcrumbs: []string{"Home", "KB", "Docs"},
			Body:        "<p>Hello</p>",
		},
	})
	out := filepath.Join(t.TempDir(), "site")
	metricsFile := filepath.Join(t.TempDir(), "wikimd.prom")

	cfg := NewDefaultConfig()
	cfg.Input.Path = in
	cfg.Output.Path = out
	cfg.Convert.Workers = 2
	cfg.Metrics.Textfile = metricsFile
	cfg.Index.Path = filepath.Join(t.TempDir(), "site.db")

	err := Run(context.Background(),
		WithConfig(cfg),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	doc := testutil.ReadFile(t, out, "docs/getting_started.md")
	if !strings.Contains(doc, "categories: [docs]") {
		t.Errorf("unexpected document:\n%s", doc)
	}
	if !testutil.Exists(t, out, "links.yml") {
		t.Error("manifest not written")
	}
	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(data), "wikimd_pages_converted_total 1") {
		t.Errorf("metrics = %s", data)
	}
}

func TestRun_MissingInput(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Input.Path = filepath.Join(t.TempDir(), "absent")
	cfg.Output.Path = t.TempDir()
	err := Run(context.Background(),
		WithConfig(cfg),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err == nil {
		t.Fatal("expected error for missing input directory")
	}
}
