package index

import "github.com/starford/anchor/internal/models"

// ReferenceIndex defines the interface for reference indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ReferenceIndex interface {
	UpsertReference(position int, r models.Reference) error
	DeleteReference(id string) error
	GetChecksum(id string) (string, error)
	AllChecksums() (map[string]string, error)
	Count() (int, error)
	Search(q Query) ([]string, error)
	Close() error
}

// Verify *DB satisfies ReferenceIndex at compile time.
var _ ReferenceIndex = (*DB)(nil)
