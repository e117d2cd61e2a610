// Package testutil provides shared test helpers: a data directory and a
// fake Brandoo backend.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/brandoo/console/internal/storage"
)

// TestDataDir creates a temporary data directory with its storage.FS.
func TestDataDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// JournalPath returns the journal database path inside dir.
func JournalPath(dir string) string {
	return filepath.Join(dir, "journal.db")
}
