// Package dbtest opens migrated SQLite databases for storage and service tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shadwattai/miniwallet/internal/platform/migrations"
	"github.com/shadwattai/miniwallet/internal/repositories/database/audit"
	"github.com/shadwattai/miniwallet/internal/repositories/database/catalog"
	"github.com/shadwattai/miniwallet/internal/repositories/database/crud"
	"github.com/shadwattai/miniwallet/pkg/database"
	"github.com/stretchr/testify/require"
)

// Stack is a migrated database with the storage layer wired on top.
type Stack struct {
	DB       *sql.DB
	Catalog  *catalog.Catalog
	Recorder *audit.Recorder
	Engine   *crud.Engine
}

// Open migrates a fresh SQLite file under t.TempDir and wires the engine.
func Open(t testing.TB, opts ...crud.Option) *Stack {
	t.Helper()

	path := filepath.Join(t.TempDir(), "miniwallet.db")
	require.NoError(t, migrations.Run(database.DriverSQLite, database.SQLiteDSN(path), "", nil))

	h, err := database.OpenSQL(context.Background(), database.DriverSQLite, path, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	cat := catalog.New(h.DB, catalog.SQLite{})
	rec := audit.NewRecorder(h.DB, catalog.SQLite{})
	return &Stack{
		DB:       h.DB,
		Catalog:  cat,
		Recorder: rec,
		Engine:   crud.NewEngine(h.DB, cat, rec, opts...),
	}
}

// CountAudit returns the number of audit entries for table and action.
func (s *Stack) CountAudit(t testing.TB, table, action string) int {
	t.Helper()
	var n int
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM users_audit_trails WHERE table_name = ? AND action = ?`, table, action).Scan(&n)
	require.NoError(t, err)
	return n
}

// CountRows returns the number of rows in table, deleted or not.
func (s *Stack) CountRows(t testing.TB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

// FixedClock returns a clock that advances by one millisecond per call.
func FixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start.UTC()
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Millisecond)
		return current
	}
}
