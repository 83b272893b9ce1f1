package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/wikimd/internal/parser"
	"github.com/starford/wikimd/internal/storage"
)

// SyncResult counts what a Sync pass did.
type SyncResult struct {
	Indexed   int
	Unchanged int
	Removed   int
}

// Sync walks the output tree and brings the index up to date:
//   - new/changed pages are parsed and upserted
//   - pages no longer on disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (SyncResult, error) {
	var res SyncResult

	metas, err := store.List("")
	if err != nil {
		return res, fmt.Errorf("index: sync: %w", err)
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return res, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			res.Unchanged++
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexPage(db, m.Path, m.Checksum, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		res.Indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeletePage(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		res.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	return res, nil
}

// indexPage parses a document and upserts it.
func indexPage(db *DB, path, checksum string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	row := PageRow{
		Path:     path,
		Title:    res.Title,
		Checksum: checksum,
	}
	if h := res.Header; h != nil {
		row.Identifier = h.Identifier
		row.UpdatedAt = h.UpdatedAt
		if len(h.Categories) > 0 {
			row.Category = h.Categories[0]
		}
	}
	return db.UpsertPage(row, res.References)
}
