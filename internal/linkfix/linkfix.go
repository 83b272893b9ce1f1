// Package linkfix rewrites page references in the output tree to the
// identifier tokens the site generator resolves.
package linkfix

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/starford/wikimd/internal/linktable"
	"github.com/starford/wikimd/internal/storage"
)

// Result counts the documents scanned and rewritten.
type Result struct {
	Scanned int
	Changed int
}

// Fix replaces every registered page reference in every document of store
// with its identifier token. Each document is read and written at most once,
// and running Fix again on its own output changes nothing.
func Fix(ctx context.Context, store storage.Provider, table *linktable.Table, workers int, logger *slog.Logger) (Result, error) {
	files, err := store.List("")
	if err != nil {
		return Result{}, fmt.Errorf("linkfix: list: %w", err)
	}
	replacer := table.Replacer()

	var changed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := store.Read(f.Path)
			if err != nil {
				return fmt.Errorf("linkfix: %w", err)
			}
			out := []byte(replacer.Replace(string(data)))
			if bytes.Equal(out, data) {
				return nil
			}
			if err := store.Write(f.Path, out); err != nil {
				return fmt.Errorf("linkfix: %w", err)
			}
			changed.Add(1)
			logger.Debug("linkfix: rewrote", slog.String("path", f.Path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{Scanned: len(files), Changed: int(changed.Load())}, nil
}
