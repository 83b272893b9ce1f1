package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/wikimd/internal/apperr"
)

// PageRow represents a row in the pages table.
type PageRow struct {
	Path       string
	Identifier string
	Title      string
	Category   string
	Checksum   string
	UpdatedAt  time.Time
}

// UpsertPage inserts or replaces a page and its outgoing links within a
// transaction. links are target identifiers.
func (db *DB) UpsertPage(p PageRow, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO pages (path, identifier, title, category, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			identifier = excluded.identifier,
			title      = excluded.title,
			category   = excluded.category,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, p.Path, p.Identifier, p.Title, p.Category, p.Checksum, p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, p.Path); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(p.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePage removes a page and its outgoing links.
func (db *DB) DeletePage(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM pages WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete page: %w", err)
	}
	return tx.Commit()
}

// GetPage returns the row for path, or apperr.ErrNotFound.
func (db *DB) GetPage(path string) (*PageRow, error) {
	var p PageRow
	err := db.conn.QueryRow(`
		SELECT path, identifier, title, category, checksum, updated_at
		FROM pages WHERE path = ?
	`, path).Scan(&p.Path, &p.Identifier, &p.Title, &p.Category, &p.Checksum, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: get page %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get page: %w", err)
	}
	return &p, nil
}

// Backlinks returns the sorted paths of all pages linking to identifier.
func (db *DB) Backlinks(identifier string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, identifier)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed page.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// CountPages returns the number of indexed pages.
func (db *DB) CountPages() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count pages: %w", err)
	}
	return n, nil
}
