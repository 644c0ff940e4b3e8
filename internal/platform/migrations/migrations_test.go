package migrations_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shadwattai/miniwallet/internal/platform/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func TestRun_SQLiteEmbedded(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "wallet.db") + "?_foreign_keys=on"

	require.NoError(t, migrations.Run("sqlite3", dsn, "", nil))
	// A second run finds nothing to apply.
	require.NoError(t, migrations.Run("sqlite3", dsn, "", nil))

	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"wlt_accounts", "wlt_transactions", "wlt_transactions_details", "wlt_accounts_balances", "users_audit_trails"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestRun_EntrySideCheck(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "check.db") + "?_foreign_keys=off"
	require.NoError(t, migrations.Run("sqlite3", dsn, "", nil))

	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer db.Close()

	insert := `INSERT INTO wlt_transactions_details (key, trxn_key, acct_key, entry, amount_dr, amount_cr, created_by, created_at, updated_by, updated_at)
		VALUES (?, 't', 'a', 'DR', ?, ?, 'u', CURRENT_TIMESTAMP, 'u', CURRENT_TIMESTAMP)`

	_, err = db.Exec(insert, "ok", "10.00", "0")
	assert.NoError(t, err)

	_, err = db.Exec(insert, "both", "10.00", "5.00")
	assert.Error(t, err)

	_, err = db.Exec(insert, "neither", "0", "0")
	assert.Error(t, err)
}

func TestRun_UnsupportedDriver(t *testing.T) {
	err := migrations.Run("mysql", "whatever", "", nil)
	assert.Error(t, err)
}
