// Package db provides database connection helpers.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// Open connects to the configured backend, verifies connectivity and applies
// the schema. driver is "postgres" or "sqlite".
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "postgres":
		return openPostgres(ctx, dsn)
	case "sqlite":
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open(pgx): %w", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if err := applySchema(ctx, conn, postgresSchema); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// OpenSQLite opens an embedded database file. Writes are serialised through
// a single connection.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	if !strings.Contains(path, "_time_format=") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + "_time_format=sqlite"
	}

	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open(sqlite): %w", err)
	}
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := applySchema(ctx, conn, sqliteSchema); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func applySchema(ctx context.Context, conn *sqlx.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
