package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"PONTO-backend/internal/platform/config"
)

// Dialect captures the SQL differences the stores care about.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// Returning reports whether INSERT ... RETURNING is available.
	Returning bool

	goose         goose.Dialect
	migrationsDir string
}

var (
	SQLite   = Dialect{Name: "sqlite", Placeholder: sq.Question, Returning: true, goose: goose.DialectSQLite3, migrationsDir: "sqlite"}
	LibSQL   = Dialect{Name: "libsql", Placeholder: sq.Question, Returning: true, goose: goose.DialectTurso, migrationsDir: "sqlite"}
	MySQL    = Dialect{Name: "mysql", Placeholder: sq.Question, Returning: false, goose: goose.DialectMySQL, migrationsDir: "mysql"}
	Postgres = Dialect{Name: "postgres", Placeholder: sq.Dollar, Returning: true, goose: goose.DialectPostgres, migrationsDir: "postgres"}
)

// Builder returns a squirrel statement builder bound to the dialect's placeholders.
func (d Dialect) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.Placeholder)
}

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite":
		return SQLite, nil
	case "libsql":
		return LibSQL, nil
	case "mysql":
		return MySQL, nil
	case "postgres":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
}

// Connect opens the configured database, verifies it answers and sizes the pool.
func Connect(c config.DatabaseConfig) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(c.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := open(c)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("db: open %s: %w", c.Driver, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, Dialect{}, fmt.Errorf("db: ping %s: %w", c.Driver, err)
	}

	if dialect.Name == "sqlite" && strings.Contains(c.URL, ":memory:") {
		// every in-memory connection is a separate database, keep exactly one alive
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return db, dialect, nil
	}

	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(min(c.MaxIdleConns, c.MaxOpenConns))
	db.SetConnMaxLifetime(c.ConnMaxLifetime)
	db.SetConnMaxIdleTime(c.ConnMaxIdleTime)

	return db, dialect, nil
}

func open(c config.DatabaseConfig) (*sql.DB, error) {
	switch c.Driver {
	case "sqlite":
		return sql.Open("sqlite", c.URL)
	case "libsql":
		var opts []libsql.Option
		if c.AuthToken != "" {
			opts = append(opts, libsql.WithAuthToken(c.AuthToken))
		}
		connector, err := libsql.NewConnector(c.URL, opts...)
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(connector), nil
	case "mysql":
		return sql.Open("mysql", c.URL)
	case "postgres":
		return sql.Open("pgx", c.URL)
	}
	return nil, fmt.Errorf("unsupported driver %q", c.Driver)
}
