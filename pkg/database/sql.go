package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// SQLHandle is an open *sql.DB together with whatever owns its connections.
type SQLHandle struct {
	DB     *sql.DB
	Driver string
	// DSN is what migrations should connect with.
	DSN  string
	pool *pgxpool.Pool
}

// Close closes the database and, for pgx, the underlying pool.
func (h *SQLHandle) Close() error {
	err := h.DB.Close()
	ClosePgxPool(h.pool)
	return err
}

// SQLiteDSN returns the connection string used for an SQLite database file:
// foreign keys on, WAL journal and a busy timeout.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

// OpenSQL opens a *sql.DB for driver. pgx goes through a pgxpool wrapped by
// stdlib, postgres uses lib/pq and sqlite3 opens the file at dsn.
func OpenSQL(ctx context.Context, driver, dsn string, check bool) (*SQLHandle, error) {
	switch driver {
	case DriverPgx:
		pool, err := NewPgxPool(ctx, dsn, check)
		if err != nil {
			return nil, err
		}
		return &SQLHandle{DB: stdlib.OpenDBFromPool(pool), Driver: driver, DSN: dsn, pool: pool}, nil

	case DriverPostgres:
		db, err := sql.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		if check {
			if err := db.PingContext(ctx); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to ping database: %w", err)
			}
		}
		return &SQLHandle{DB: db, Driver: driver, DSN: dsn}, nil

	case DriverSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("sqlite path cannot be empty")
		}
		dsn = SQLiteDSN(dsn)
		db, err := sql.Open(DriverSQLite, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// SQLite allows one writer; a single connection serialises transactions
		// instead of failing them with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return &SQLHandle{DB: db, Driver: driver, DSN: dsn}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
