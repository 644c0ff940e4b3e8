package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shadwattai/miniwallet/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "wallet.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", database.SQLiteDSN("wallet.db"))
	assert.Equal(t, "wallet.db?mode=ro", database.SQLiteDSN("wallet.db?mode=ro"))
}

func TestOpenSQL_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.db")

	h, err := database.OpenSQL(context.Background(), database.DriverSQLite, path, true)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, database.DriverSQLite, h.Driver)
	assert.Equal(t, database.SQLiteDSN(path), h.DSN)
	assert.Equal(t, 1, h.DB.Stats().MaxOpenConnections)

	var fk int
	require.NoError(t, h.DB.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenSQL_Rejects(t *testing.T) {
	_, err := database.OpenSQL(context.Background(), "oracle", "dsn", false)
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = database.OpenSQL(context.Background(), database.DriverSQLite, "", false)
	assert.Error(t, err)

	_, err = database.NewPgxPool(context.Background(), "", false)
	assert.ErrorContains(t, err, "cannot be empty")

	assert.NotPanics(t, func() { database.ClosePgxPool(nil) })
}
