package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dstreuter/zeitlog/internal/db"
)

// NewTestDB creates a throwaway SQLite tracking database with all
// migrations applied. The database lives under t.TempDir() rather than in
// memory so concurrent-writer tests exercise real file locking. It is
// closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "zeitlog.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
