package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// setupTestDB opens a migrated database for a test. It uses a temp-dir
// SQLite file unless TEST_DB_DSN points at a PostgreSQL server.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	driver, dsn := DriverSQLite, filepath.Join(t.TempDir(), "test.db")
	if pg := os.Getenv("TEST_DB_DSN"); pg != "" {
		driver, dsn = DriverPostgres, pg
	}

	db, err := New(driver, dsn)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
