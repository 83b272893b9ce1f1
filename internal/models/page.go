// Package models defines the domain types for wikimd.
package models

import "time"

// Page is a source page during conversion. It only lives for the duration
// of the convert stage.
type Page struct {
	Source     string    `json:"source"` // input filename, e.g. "Getting-started_1234.html"
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	Categories []string  `json:"categories,omitempty"`
	Folder     string    `json:"folder"`
	Filename   string    `json:"filename"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Destination returns the relative document path for the page.
func (p *Page) Destination() string {
	if p.Folder == "" {
		return p.Filename + ".md"
	}
	return p.Folder + "/" + p.Filename + ".md"
}

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
