package testutil

import (
	"testing"

	"syncwell/internal/localdb"
)

// NewTestDatabase creates a new in-memory SQLite database with all
// migrations applied. The database is automatically closed when the test
// completes.
func NewTestDatabase(t *testing.T) *localdb.DB {
	t.Helper()

	db, err := localdb.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
