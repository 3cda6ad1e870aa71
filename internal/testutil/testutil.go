// Package testutil provides shared test helpers for setting up stores and indexes.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/anchor/internal/index"
	"github.com/starford/anchor/internal/models"
	"github.com/starford/anchor/internal/refstore"
	"github.com/starford/anchor/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "anchor-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a data file store in a temporary directory. The file
// itself does not exist until the first save.
func TestStore(t *testing.T) *storage.File {
	t.Helper()
	f, err := storage.NewFile(filepath.Join(t.TempDir(), "Anchor", storage.DefaultFileName), Logger())
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// TestService creates a reference service over a fresh TestStore.
func TestService(t *testing.T, opts ...refstore.Option) (*refstore.Service, *storage.File) {
	t.Helper()
	store := TestStore(t)
	opts = append([]refstore.Option{refstore.WithLogger(Logger())}, opts...)
	return refstore.NewService(store, opts...), store
}

// Candidate returns a valid candidate for a folder reference.
func Candidate(name, path string, tags ...string) models.Candidate {
	if tags == nil {
		tags = []string{}
	}
	return models.Candidate{
		ReferenceName: name,
		AbsolutePath:  path,
		Type:          models.TypeFolder,
		Status:        models.StatusActive,
		Tags:          tags,
	}
}
