// Package dbtest opens throwaway sqlite databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/bhaskar601/shikshaoffline/internal/db"
)

// Open returns a private in-memory sqlite database with the schema applied.
// It is closed when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}
