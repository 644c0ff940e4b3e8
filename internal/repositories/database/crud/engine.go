package crud

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/middleware"
	"github.com/shadwattai/miniwallet/internal/repositories/database/audit"
	"github.com/shadwattai/miniwallet/internal/repositories/database/catalog"
)

// System columns maintained by the engine.
const (
	colVersion   = "version"
	colCreatedAt = "created_at"
	colCreatedBy = "created_by"
	colUpdatedAt = "updated_at"
	colUpdatedBy = "updated_by"
	colDeletedAt = "deleted_at"
	colDeletedBy = "deleted_by"
)

// DefaultRestrictedTables can never be reached through the engine.
var DefaultRestrictedTables = []string{
	"migrations", "schema_migrations", "cache", "sessions", audit.TableName, "users",
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ConflictCounter is notified whenever a compare-and-swap write loses.
type ConflictCounter interface {
	ConflictDetected(table string)
}

// ReadOptions tunes a read. IncludeDeleted returns soft-deleted rows too.
// NoAudit skips the read audit entry and is meant for lookups the engine's
// callers make on their own behalf.
type ReadOptions struct {
	IncludeDeleted bool
	NoAudit        bool
}

func mergeReadOptions(opts []ReadOptions) ReadOptions {
	var out ReadOptions
	for _, o := range opts {
		out.IncludeDeleted = out.IncludeDeleted || o.IncludeDeleted
		out.NoAudit = out.NoAudit || o.NoAudit
	}
	return out
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for system timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithConflictCounter reports lost compare-and-swap writes.
func WithConflictCounter(counter ConflictCounter) Option {
	return func(e *Engine) { e.conflicts = counter }
}

// WithRestrictedTables adds tables to the restricted set.
func WithRestrictedTables(tables ...string) Option {
	return func(e *Engine) {
		for _, t := range tables {
			e.restricted[t] = struct{}{}
		}
	}
}

// Engine is a schema-driven CRUD layer: every operation reads the table's
// metadata from the catalog, so no per-entity code is needed. Writes are
// audited through the recorder and versioned rows are updated with a
// compare-and-swap statement.
type Engine struct {
	db         *sql.DB
	exec       executor
	tx         *sql.Tx
	catalog    *catalog.Catalog
	dialect    catalog.Dialect
	recorder   *audit.Recorder
	restricted map[string]struct{}
	now        func() time.Time
	conflicts  ConflictCounter
}

// NewEngine creates an Engine over db. recorder may be nil, which disables auditing.
func NewEngine(db *sql.DB, cat *catalog.Catalog, recorder *audit.Recorder, opts ...Option) *Engine {
	e := &Engine{
		db:         db,
		exec:       db,
		catalog:    cat,
		dialect:    cat.Dialect(),
		recorder:   recorder,
		restricted: make(map[string]struct{}, len(DefaultRestrictedTables)),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, t := range DefaultRestrictedTables {
		e.restricted[t] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validator returns the record validator bound to this engine.
func (e *Engine) Validator() *Validator { return &Validator{e: e} }

// Concurrency returns the optimistic concurrency controller bound to this engine.
func (e *Engine) Concurrency() *Concurrency { return &Concurrency{e: e} }

// Dialect returns the SQL dialect of the underlying database.
func (e *Engine) Dialect() catalog.Dialect { return e.dialect }

// InTx reports whether the engine is bound to a storage transaction.
func (e *Engine) InTx() bool { return e.tx != nil }

// WithTx runs fn against an engine bound to a single storage transaction.
// A nested call reuses the outer transaction. Any error or panic from fn
// rolls the transaction back.
func (e *Engine) WithTx(ctx context.Context, fn func(tx *Engine) error) (err error) {
	if e.tx != nil {
		return fn(e)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewAppError(http.StatusServiceUnavailable, "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	bound := *e
	bound.tx = tx
	bound.exec = tx

	if err := fn(&bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to roll back transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to commit transaction", err)
	}
	return nil
}

// table guards the restricted set and resolves metadata.
func (e *Engine) table(ctx context.Context, name string) (*catalog.Table, error) {
	if _, ok := e.restricted[name]; ok {
		return nil, &apperrors.SchemaError{Table: name, Reason: "restricted table"}
	}
	t, err := e.catalog.TableVia(ctx, e.exec, name)
	if err != nil {
		return nil, err
	}
	if t.KeyColumn == "" {
		return nil, &apperrors.SchemaError{Table: name, Reason: "table has no single-column primary key"}
	}
	return t, nil
}

func (e *Engine) audit(ctx context.Context, actor domain.Actor, action domain.AuditAction, description, table string, prev, next any) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(ctx, e.exec, e.tx != nil, actor, audit.Entry{
		Action:      action,
		Description: description,
		Table:       table,
		Prev:        prev,
		New:         next,
	})
}

// binder accumulates positional arguments for one statement.
type binder struct {
	dialect catalog.Dialect
	args    []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, bindValue(v))
	return b.dialect.Placeholder(len(b.args))
}

func (e *Engine) q(ident string) string { return e.dialect.Quote(ident) }

func (e *Engine) selectList(t *catalog.Table) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = e.q(c.Name)
	}
	return strings.Join(cols, ", ")
}

// equalityWhere renders filters as "col = ?" terms joined by AND, in column-name order.
// Unknown columns fail with SchemaError.
func (e *Engine) equalityWhere(t *catalog.Table, b *binder, filters map[string]any) ([]string, error) {
	fields := sortedKeys(filters)
	conds := make([]string, 0, len(fields))
	for _, f := range fields {
		if !t.Has(f) {
			return nil, &apperrors.SchemaError{Table: t.Name, Reason: fmt.Sprintf("unknown column %s", f)}
		}
		v := filters[f]
		if v == nil {
			conds = append(conds, e.q(f)+" IS NULL")
			continue
		}
		conds = append(conds, e.q(f)+" = "+b.bind(v))
	}
	return conds, nil
}

func (e *Engine) liveCondition(t *catalog.Table, includeDeleted bool) []string {
	if includeDeleted || !t.SoftDeletes() {
		return nil
	}
	return []string{e.q(colDeletedAt) + " IS NULL"}
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (e *Engine) queryRecords(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, err := e.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []domain.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(domain.Record, len(cols))
		for i, c := range cols {
			rec[c] = normalizeScanned(vals[i])
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (e *Engine) count(ctx context.Context, t *catalog.Table, conds []string, args []any) (int64, error) {
	query := "SELECT COUNT(*) FROM " + e.q(t.Name) + whereClause(conds)
	rows, err := e.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", t.Name, err)
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to scan row count of %s: %w", t.Name, err)
		}
	}
	return n, rows.Err()
}

// fetchByKey loads one row without auditing.
func (e *Engine) fetchByKey(ctx context.Context, t *catalog.Table, key string, includeDeleted bool) (domain.Record, error) {
	b := &binder{dialect: e.dialect}
	conds := append([]string{e.q(t.KeyColumn) + " = " + b.bind(key)}, e.liveCondition(t, includeDeleted)...)
	query := "SELECT " + e.selectList(t) + " FROM " + e.q(t.Name) + whereClause(conds)

	recs, err := e.queryRecords(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", t.Name, key, err)
	}
	if len(recs) == 0 {
		return nil, &apperrors.NotFoundError{Table: t.Name, Key: key}
	}
	return recs[0], nil
}

// insert writes one validated row, stamping the system columns. An empty key
// is replaced with a generated uuid.
func (e *Engine) insert(ctx context.Context, actor domain.Actor, t *catalog.Table, clean map[string]any, key string) (domain.Record, error) {
	if key == "" {
		key = uuid.NewString()
	}
	now := e.now()

	row := make(domain.Record, len(clean)+6)
	for k, v := range clean {
		row[k] = v
	}
	row[t.KeyColumn] = key
	stamp := map[string]any{colCreatedAt: now, colCreatedBy: actor.UserKey, colUpdatedAt: now, colUpdatedBy: actor.UserKey}
	for col, v := range stamp {
		if t.Has(col) {
			row[col] = v
		}
	}
	if t.Versioned() {
		row[colVersion] = int64(1)
	}

	b := &binder{dialect: e.dialect}
	cols := sortedKeys(row)
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = e.q(c)
		marks[i] = b.bind(row[c])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", e.q(t.Name), strings.Join(names, ", "), strings.Join(marks, ", "))

	if _, err := e.exec.ExecContext(ctx, query, b.args...); err != nil {
		if e.dialect.IsUniqueViolation(err) {
			return nil, &apperrors.DuplicateError{Table: t.Name}
		}
		return nil, fmt.Errorf("failed to insert into %s: %w", t.Name, err)
	}
	return row, nil
}

// casGuard is what the stored row must still hold for casUpdate to write.
// updatedAt is only compared on tables without a version column.
type casGuard struct {
	version   int64
	updatedAt *time.Time
}

// casUpdate writes set to the row. Versioned tables compare and bump the
// version in the same statement; unversioned tables compare updated_at when
// the guard carries one. A lost race is reported as a conflict.
// It returns the version after the write (zero for unversioned tables).
func (e *Engine) casUpdate(ctx context.Context, t *catalog.Table, key string, set map[string]any, guard casGuard) (int64, error) {
	b := &binder{dialect: e.dialect}
	cols := sortedKeys(set)
	assignments := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		assignments = append(assignments, e.q(c)+" = "+b.bind(set[c]))
	}
	conds := []string{e.q(t.KeyColumn) + " = " + b.bind(key)}
	stampGuarded := false
	switch {
	case t.Versioned():
		assignments = append(assignments, e.q(colVersion)+" = "+e.q(colVersion)+" + 1")
		conds = append(conds, e.q(colVersion)+" = "+b.bind(guard.version))
	case guard.updatedAt != nil && t.Has(colUpdatedAt):
		conds = append(conds, e.q(colUpdatedAt)+" = "+b.bind(*guard.updatedAt))
		stampGuarded = true
	}
	query := fmt.Sprintf("UPDATE %s SET %s%s", e.q(t.Name), strings.Join(assignments, ", "), whereClause(conds))

	res, err := e.exec.ExecContext(ctx, query, b.args...)
	if err != nil {
		if e.dialect.IsUniqueViolation(err) {
			return 0, &apperrors.DuplicateError{Table: t.Name}
		}
		return 0, fmt.Errorf("failed to update %s %s: %w", t.Name, key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows for %s %s: %w", t.Name, key, err)
	}
	if affected == 0 {
		current, err := e.fetchByKey(ctx, t, key, true)
		if err != nil {
			return 0, err
		}
		if stampGuarded {
			updatedAt, _ := asTime(current[colUpdatedAt])
			return 0, e.conflict(t.Name, key, guard.updatedAt.UnixNano(), updatedAt.UnixNano())
		}
		version, _ := asInt64(current[colVersion])
		return 0, e.conflict(t.Name, key, guard.version, version)
	}
	if !t.Versioned() {
		return 0, nil
	}
	return guard.version + 1, nil
}

func (e *Engine) conflict(table, key string, expected, current int64) error {
	if e.conflicts != nil {
		e.conflicts.ConflictDetected(table)
	}
	return &apperrors.ConcurrencyConflictError{Table: table, Key: key, Expected: expected, Current: current}
}

// stampUpdate adds updated_at/updated_by to set when the table carries them.
func (e *Engine) stampUpdate(t *catalog.Table, actor domain.Actor, set map[string]any) {
	if t.Has(colUpdatedAt) {
		set[colUpdatedAt] = e.now()
	}
	if t.Has(colUpdatedBy) {
		set[colUpdatedBy] = actor.UserKey
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func keyString(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case string:
		return k
	case []byte:
		return string(k)
	default:
		return fmt.Sprint(k)
	}
}
