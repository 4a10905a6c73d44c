package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending migration for the dialect and returns how many ran.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) (int, error) {
	sub, err := fs.Sub(migrations, "migrations/"+d.migrationsDir)
	if err != nil {
		return 0, fmt.Errorf("db: migrations for %s: %w", d.Name, err)
	}

	provider, err := goose.NewProvider(d.goose, db, sub)
	if err != nil {
		return 0, fmt.Errorf("db: goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("db: goose up: %w", err)
	}
	return len(results), nil
}
