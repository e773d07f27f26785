// Package testutil holds shared test fixtures.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/pitchside/pitchside/internal/db"
)

// NewTestDB opens a throwaway SQLite database with migrations applied. It is
// file backed rather than in-memory so tests can open several connections
// against the same schema; the busy timeout covers tests that overlap
// transactions.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "pitchside.db") + "?_busy_timeout=5000"
	database, err := db.New(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}
