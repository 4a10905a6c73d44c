// Package dbtest opens migrated in-memory databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"PONTO-backend/internal/platform/config"
	"PONTO-backend/internal/platform/db"
)

// NewSQLite returns a fresh, fully migrated in-memory SQLite database that is
// closed when the test ends.
func NewSQLite(t testing.TB) (*sql.DB, db.Dialect) {
	t.Helper()

	conn, dialect, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
	if err != nil {
		t.Fatalf("dbtest: connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.Migrate(ctx, conn, dialect); err != nil {
		t.Fatalf("dbtest: migrate: %v", err)
	}
	return conn, dialect
}
