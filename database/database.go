// Package database provides database connectivity and schema management.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // Import postgres driver
	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver

	"mediacatalog/logging"
)

// Dialect identifies the SQL flavor behind a DB.
type Dialect string

// Supported dialects; the values double as database/sql driver names.
const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// Options configures the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps the SQL connection pool. It is owned by the process for its whole
// lifetime; every query checks a connection out of the pool and returns it
// when the statement finishes.
type DB struct {
	*sql.DB
	dialect Dialect
}

// NewDB opens a connection pool for the given driver and verifies it.
func NewDB(driver, dataSourceName string, opts Options) (*DB, error) {
	dialect := Dialect(driver)
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to an in-memory SQLite database is a separate,
	// empty database.
	if dialect == DialectSQLite && isSQLiteMemory(dataSourceName) {
		opts.MaxOpenConns = 1
		opts.MaxIdleConns = 1
		opts.ConnMaxLifetime = 0
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: dialect}, nil
}

func isSQLiteMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Dialect returns the SQL flavor of the database.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
func (db *DB) Rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	var schema string
	switch db.dialect {
	case DialectPostgres:
		schema = `
		CREATE TABLE IF NOT EXISTS media (
			id SERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			release_date DATE NOT NULL,
			genre TEXT NOT NULL
		)`
	default:
		schema = `
		CREATE TABLE IF NOT EXISTS media (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			release_date DATE NOT NULL,
			genre TEXT NOT NULL
		)`
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logging.Info().Str("dialect", string(db.dialect)).Msg("Database schema initialized")
	return nil
}

// TestConnection runs a trivial query to prove the store answers.
func (db *DB) TestConnection(ctx context.Context) (int, error) {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1 + 1 AS result").Scan(&result); err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}
	return result, nil
}
