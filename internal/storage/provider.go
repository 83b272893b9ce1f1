// Package storage defines the file-system abstraction over the input export
// and the output tree.
package storage

import "github.com/starford/wikimd/internal/models"

// Extensions the pipeline lists.
const (
	MarkdownExt = ".md"
	HTMLExt     = ".html"
)

// Provider is the interface for tree file operations. All paths are
// slash-separated and relative to the tree root.
type Provider interface {
	// List returns metadata for every file with the provider's extension
	// under dir, recursively.
	List(dir string) ([]models.FileMetadata, error)
	// ReadDir returns the names of files with the provider's extension
	// directly inside dir.
	ReadDir(dir string) ([]string, error)
	// Dirs returns every directory under dir, recursively, excluding dir.
	Dirs(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically and durably writes content to path.
	Write(path string, content []byte) error
	// Exists reports whether path exists.
	Exists(path string) (bool, error)
	// Move renames oldPath to newPath, creating parent directories.
	Move(oldPath, newPath string) error
	// Prune removes empty directories under dir, including dir itself.
	Prune(dir string) error
	// Clear removes everything under the root, keeping the root.
	Clear() error
}
