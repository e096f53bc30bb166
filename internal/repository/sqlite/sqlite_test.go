package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

// newTestDB returns a fresh in-memory database that is closed when the
// test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })
	return db
}

func TestNew_FileDatabaseMigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devmarket.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Re-opening runs the migrations again against existing tables.
	db, err = New(path)
	if err != nil {
		t.Fatalf("New() on existing database error = %v", err)
	}
	defer db.Close(context.Background())

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
