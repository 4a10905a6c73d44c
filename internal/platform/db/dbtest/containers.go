//go:build integration

package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"PONTO-backend/internal/platform/config"
	"PONTO-backend/internal/platform/db"
)

type shared struct {
	once sync.Once
	url  string
	err  error
}

var (
	mysqlC    shared
	postgresC shared
)

// NewMySQL connects to a shared MySQL container (started once per test
// binary) and migrates it. Tables are emptied when the test ends.
func NewMySQL(t *testing.T) (*sql.DB, db.Dialect) {
	t.Helper()
	mysqlC.once.Do(func() {
		mysqlC.url, mysqlC.err = startContainer(testcontainers.ContainerRequest{
			Image:        "mysql:8.4",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "testpass",
				"MYSQL_DATABASE":      "ponto",
			},
			WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(120 * time.Second),
		}, "3306", "root:testpass@tcp(%s:%s)/ponto")
	})
	return connect(t, "mysql", &mysqlC)
}

// NewPostgres is NewMySQL for PostgreSQL.
func NewPostgres(t *testing.T) (*sql.DB, db.Dialect) {
	t.Helper()
	postgresC.once.Do(func() {
		postgresC.url, postgresC.err = startContainer(testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "ponto",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		}, "5432", "postgres://testuser:testpass@%s:%s/ponto?sslmode=disable")
	})
	return connect(t, "postgres", &postgresC)
}

func startContainer(req testcontainers.ContainerRequest, port nat.Port, urlFormat string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}
	return fmt.Sprintf(urlFormat, host, mapped.Port()), nil
}

func connect(t *testing.T, driver string, c *shared) (*sql.DB, db.Dialect) {
	t.Helper()
	if c.err != nil {
		t.Fatalf("dbtest: %s container: %v", driver, c.err)
	}

	conn, dialect, err := db.Connect(config.DatabaseConfig{
		Driver:       driver,
		URL:          c.url,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Fatalf("dbtest: connect %s: %v", driver, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.Migrate(ctx, conn, dialect); err != nil {
		conn.Close()
		t.Fatalf("dbtest: migrate %s: %v", driver, err)
	}

	t.Cleanup(func() {
		for _, table := range []string{"presences", "auth_accounts"} {
			_, _ = conn.Exec("DELETE FROM " + table)
		}
		conn.Close()
	})
	return conn, dialect
}
