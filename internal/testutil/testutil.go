// Package testutil provides shared test helpers for setting up screenshot
// libraries and progress databases.
package testutil

import (
	"os"
	"testing"

	"github.com/carvtrainer/carvtrainer/internal/progress"
	"github.com/carvtrainer/carvtrainer/internal/storage"
)

// TestDB creates a temporary SQLite progress database that is automatically cleaned up.
func TestDB(t *testing.T) *progress.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "carvtrainer-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := progress.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary screenshot library with a storage.Provider.
func TestLibrary(t *testing.T) (string, storage.Provider) {
	t.Helper()
	libraryDir := t.TempDir()
	store, err := storage.NewFS(libraryDir)
	if err != nil {
		t.Fatal(err)
	}
	return libraryDir, store
}
