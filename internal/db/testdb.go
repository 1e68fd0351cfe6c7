package db

import (
	"context"
	"database/sql"
	"testing"
)

// NewTestSQLite creates a fresh in-memory SQLite database with the schema applied.
func NewTestSQLite(t testing.TB) *sql.DB {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := MigrateSQLite(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
