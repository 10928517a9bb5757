package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/database"
)

// SetupTestDB returns a migrated in-memory database that is closed when the
// test ends. database.Open pins a single connection, which keeps the
// in-memory schema alive for the lifetime of db.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CountRows returns the number of rows in table. Only pass table names
// written in the test itself.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}
