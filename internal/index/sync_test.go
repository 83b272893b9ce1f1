package index

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/wikimd/internal/testutil"
)

const page = `---
identifier: %s
updated_at: 2016-03-02T00:00:00Z
layout: default
lang: en
title: '%s'
categories: [docs]
---

%s
`

func doc(id, title, body string) string {
	return fmt.Sprintf(page, id, title, body)
}

func TestSync(t *testing.T) {
	root, store := testutil.TestTree(t)
	testutil.WriteFiles(t, root, map[string]string{
		"docs/a.md": doc("aaa", "A", "see [b]({% ref page:bbb %})"),
		"docs/b.md": doc("bbb", "B", "plain"),
		"links.yml": "aaa: docs/a.html\n",
	})
	db := testDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	res, err := Sync(db, store, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Indexed != 2 || res.Removed != 0 {
		t.Errorf("first sync = %+v", res)
	}

	p, err := db.GetPage("docs/a.md")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if p.Identifier != "aaa" || p.Title != "A" || p.Category != "docs" {
		t.Errorf("row = %+v", p)
	}
	bl, _ := db.Backlinks("bbb")
	if len(bl) != 1 || bl[0] != "docs/a.md" {
		t.Errorf("backlinks = %v", bl)
	}

	res, err = Sync(db, store, logger)
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 0 || res.Unchanged != 2 {
		t.Errorf("second sync = %+v", res)
	}

	if err := os.Remove(filepath.Join(root, "docs", "b.md")); err != nil {
		t.Fatal(err)
	}
	res, err = Sync(db, store, logger)
	if err != nil {
		t.Fatal(err)
	}
	if res.Removed != 1 {
		t.Errorf("third sync = %+v", res)
	}
	if n, _ := db.CountPages(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
