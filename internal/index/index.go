package index

// PageIndex defines the operations the pipeline and tooling use.
type PageIndex interface {
	UpsertPage(p PageRow, links []string) error
	DeletePage(path string) error
	GetPage(path string) (*PageRow, error)
	Backlinks(identifier string) ([]string, error)
	AllChecksums() (map[string]string, error)
	CountPages() (int, error)
	Close() error
}

// Verify *DB satisfies PageIndex at compile time.
var _ PageIndex = (*DB)(nil)
