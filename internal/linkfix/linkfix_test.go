package linkfix

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wikimd/internal/linktable"
	"github.com/starford/wikimd/internal/testutil"
)

func TestFix(t *testing.T) {
	root, store := testutil.TestTree(t)
	testutil.WriteFiles(t, root, map[string]string{
		"a.md":       "see [b]({% ref B_2.html %}) and [x](https://example.com/B_2.html)\n",
		"sub/b.md":   "back to [a]({% ref A_1.html#intro %})\n",
		"plain.md":   "no links\n",
		"links.yml":  "A_1.html: untouched\n",
		"sub/c.html": "A_1.html",
	})
	tbl := linktable.New()
	require.NoError(t, tbl.Register("A_1.html", "a.md", "aaa"))
	require.NoError(t, tbl.Register("B_2.html", "sub/b.md", "bbb"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := Fix(context.Background(), store, tbl, 2, logger)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 3, Changed: 2}, res)

	assert.Equal(t, "see [b]({% ref page:bbb %}) and [x](https://example.com/page:bbb)\n", testutil.ReadFile(t, root, "a.md"))
	assert.Equal(t, "back to [a]({% ref page:aaa#intro %})\n", testutil.ReadFile(t, root, "sub/b.md"))
	assert.Equal(t, "A_1.html: untouched\n", testutil.ReadFile(t, root, "links.yml"))
	assert.Equal(t, "A_1.html", testutil.ReadFile(t, root, "sub/c.html"))

	again, err := Fix(context.Background(), store, tbl, 2, logger)
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 3, Changed: 0}, again)
	assert.Equal(t, "back to [a]({% ref page:aaa#intro %})\n", testutil.ReadFile(t, root, "sub/b.md"))
}

func TestFix_EmptyTable(t *testing.T) {
	root, store := testutil.TestTree(t)
	testutil.WriteFiles(t, root, map[string]string{"a.md": "[x]({% ref X.html %})"})
	res, err := Fix(context.Background(), store, linktable.New(), 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, Result{Scanned: 1}, res)
	assert.Equal(t, "[x]({% ref X.html %})", testutil.ReadFile(t, root, "a.md"))
}
