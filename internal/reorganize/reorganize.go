// Package reorganize restructures the converted tree: standalone pages are
// promoted to the index of a same-named directory, and the developer docs
// subtree is flattened into its parent.
//
// Every move is followed by a relocate on the link table. Skips (ambiguous
// or conflicting targets, failed relocates) are logged and counted; only
// storage errors abort a pass.
package reorganize

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/wikimd/internal/linktable"
	"github.com/starford/wikimd/internal/storage"
)

// IndexName is the base name of a directory's index document.
const IndexName = "index"

// Relocator records that a page moved.
type Relocator interface {
	Relocate(from, to string) error
}

// Result summarizes one pass.
type Result struct {
	Moved    int // files renamed on disk
	Skipped  int // candidates left in place
	Unlinked int // moves whose link table entry could not be updated
}

// PromoteIndexes moves every file whose bare name equals the name of exactly
// one directory in the tree into that directory as its index document.
func PromoteIndexes(ctx context.Context, store storage.Provider, table Relocator, logger *slog.Logger) (Result, error) {
	var res Result

	files, err := store.List("")
	if err != nil {
		return res, fmt.Errorf("reorganize: list files: %w", err)
	}
	dirs, err := store.Dirs("")
	if err != nil {
		return res, fmt.Errorf("reorganize: list dirs: %w", err)
	}

	byName := make(map[string][]string, len(dirs))
	for _, d := range dirs {
		name := path.Base(d)
		byName[name] = append(byName[name], d)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		bare := strings.TrimSuffix(path.Base(f.Path), path.Ext(f.Path))
		if bare == IndexName {
			continue
		}

		candidates := byName[bare]
		switch len(candidates) {
		case 0:
			continue
		case 1:
		default:
			logger.Warn("promote: ambiguous directory match, skipping",
				slog.String("path", f.Path),
				slog.Any("candidates", candidates))
			res.Skipped++
			continue
		}

		dest := path.Join(candidates[0], IndexName+path.Ext(f.Path))
		exists, err := store.Exists(dest)
		if err != nil {
			return res, fmt.Errorf("reorganize: %w", err)
		}
		if exists {
			logger.Warn("promote: directory already has an index, skipping",
				slog.String("path", f.Path),
				slog.String("index", dest))
			res.Skipped++
			continue
		}

		if err := store.Move(f.Path, dest); err != nil {
			return res, fmt.Errorf("reorganize: promote %s: %w", f.Path, err)
		}
		res.Moved++
		logger.Debug("promote: moved", slog.String("from", f.Path), slog.String("to", dest))

		if err := table.Relocate(linktable.PageLink(f.Path), linktable.PageLink(dest)); err != nil {
			logger.Warn("promote: link table not updated",
				slog.String("from", f.Path),
				slog.String("to", dest),
				slog.String("error", err.Error()))
			res.Unlinked++
		}
	}
	return res, nil
}

// FlattenSubtree moves every file below the directory called name one level
// up, dropping that directory from the path. The directory's own index
// document stays. Nothing happens when no such directory exists; more than
// one is ambiguous and skipped.
func FlattenSubtree(ctx context.Context, store storage.Provider, table Relocator, name string, logger *slog.Logger) (Result, error) {
	var res Result

	dirs, err := store.Dirs("")
	if err != nil {
		return res, fmt.Errorf("reorganize: list dirs: %w", err)
	}
	var roots []string
	for _, d := range dirs {
		if path.Base(d) == name {
			roots = append(roots, d)
		}
	}
	switch len(roots) {
	case 0:
		logger.Debug("flatten: subtree not present", slog.String("name", name))
		return res, nil
	case 1:
	default:
		logger.Warn("flatten: several subtrees share the name, skipping",
			slog.String("name", name),
			slog.Any("candidates", roots))
		res.Skipped++
		return res, nil
	}
	root := roots[0]
	parent := path.Dir(root)

	files, err := store.List(root)
	if err != nil {
		return res, fmt.Errorf("reorganize: list %s: %w", root, err)
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rel := strings.TrimPrefix(f.Path, root+"/")
		if rel == IndexName+path.Ext(f.Path) {
			continue
		}
		dest := path.Join(parent, rel)

		exists, err := store.Exists(dest)
		if err != nil {
			return res, fmt.Errorf("reorganize: %w", err)
		}
		if exists {
			logger.Warn("flatten: target already exists, skipping",
				slog.String("path", f.Path),
				slog.String("target", dest))
			res.Skipped++
			continue
		}

		if err := store.Move(f.Path, dest); err != nil {
			return res, fmt.Errorf("reorganize: flatten %s: %w", f.Path, err)
		}
		res.Moved++
		logger.Debug("flatten: moved", slog.String("from", f.Path), slog.String("to", dest))

		if err := table.Relocate(f.Path, dest); err != nil {
			logger.Warn("flatten: link table not updated",
				slog.String("from", f.Path),
				slog.String("to", dest),
				slog.String("error", err.Error()))
			res.Unlinked++
		}
	}

	if err := store.Prune(root); err != nil {
		return res, fmt.Errorf("reorganize: %w", err)
	}
	return res, nil
}
