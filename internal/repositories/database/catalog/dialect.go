package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Dialect captures the SQL differences between the supported storage engines.
type Dialect interface {
	// Name returns the driver family ("postgres" or "sqlite3").
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// Quote quotes an identifier.
	Quote(ident string) string
	// ColumnsQuery returns name, nullable, has_default, data_type, is_pk for a table.
	ColumnsQuery() string
	// ConstraintsQuery returns constraint_name, is_primary, column_name for every
	// unique or primary key constraint of a table, in constraint then ordinal order.
	ConstraintsQuery() string
	// IsUniqueViolation reports whether err is a unique constraint violation.
	IsUniqueViolation(err error) bool
}

// DialectFor returns the dialect used with a database/sql driver name.
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "pgx", "postgres":
		return Postgres{}, nil
	case "sqlite3", "sqlite":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}
}

// Postgres covers both the pgx stdlib and lib/pq drivers.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (Postgres) ColumnsQuery() string {
	return `
		SELECT c.column_name,
		       c.is_nullable = 'YES' AS nullable,
		       c.column_default IS NOT NULL AS has_default,
		       c.data_type,
		       EXISTS (
		           SELECT 1
		           FROM information_schema.table_constraints tc
		           JOIN information_schema.key_column_usage kcu
		             ON tc.constraint_name = kcu.constraint_name
		            AND tc.table_schema = kcu.table_schema
		            AND tc.table_name = kcu.table_name
		           WHERE tc.constraint_type = 'PRIMARY KEY'
		             AND tc.table_schema = c.table_schema
		             AND tc.table_name = c.table_name
		             AND kcu.column_name = c.column_name
		       ) AS is_pk
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema() AND c.table_name = $1
		ORDER BY c.ordinal_position`
}

func (Postgres) ConstraintsQuery() string {
	return `
		SELECT tc.constraint_name,
		       tc.constraint_type = 'PRIMARY KEY' AS is_primary,
		       kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		 AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = current_schema()
		  AND tc.table_name = $1
		  AND tc.constraint_type IN ('UNIQUE', 'PRIMARY KEY')
		ORDER BY tc.constraint_name, kcu.ordinal_position`
}

func (Postgres) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// SQLite is used for embedded deployments and the storage test suites.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite3" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (SQLite) ColumnsQuery() string {
	return `
		SELECT name,
		       "notnull" = 0 AND pk = 0 AS nullable,
		       dflt_value IS NOT NULL AS has_default,
		       type,
		       pk > 0 AS is_pk
		FROM pragma_table_info(?)
		ORDER BY cid`
}

func (SQLite) ConstraintsQuery() string {
	return `
		SELECT il.name,
		       il.origin = 'pk' AS is_primary,
		       ii.name
		FROM pragma_index_list(?) AS il, pragma_index_info(il.name) AS ii
		WHERE il."unique" = 1
		ORDER BY il.name, ii.seqno`
}

func (SQLite) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
