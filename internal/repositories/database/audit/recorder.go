package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/middleware"
	"github.com/shadwattai/miniwallet/internal/repositories/database/catalog"
	"github.com/shadwattai/miniwallet/internal/utils/pagination"
)

// TableName is the audit trail table.
const TableName = "users_audit_trails"

const savepoint = "audit_trail"

// Executor is satisfied by *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// FailureCounter is notified of every audit entry that could not be written.
type FailureCounter interface {
	AuditWriteFailed(action string)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithFailureCounter reports failed writes to counter.
func WithFailureCounter(counter FailureCounter) Option {
	return func(r *Recorder) { r.failures = counter }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// Entry is one action to be recorded.
type Entry struct {
	Action      domain.AuditAction
	Description string
	Table       string
	Prev        any
	New         any
}

// Recorder appends immutable audit trail entries.
type Recorder struct {
	db       Executor
	dialect  catalog.Dialect
	failures FailureCounter
	now      func() time.Time
}

// NewRecorder creates a Recorder. db is used for reads and for writes made
// outside a storage transaction.
func NewRecorder(db Executor, dialect catalog.Dialect, opts ...Option) *Recorder {
	r := &Recorder{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record writes entry through exec and reports whether it was persisted.
// When inTx is set the insert runs under a savepoint so a failed write leaves the
// caller's transaction usable. Failures are logged and counted, never returned.
func (r *Recorder) Record(ctx context.Context, exec Executor, inTx bool, actor domain.Actor, entry Entry) bool {
	if exec == nil {
		exec = r.db
	}
	if err := r.write(ctx, exec, inTx, actor, entry); err != nil {
		failure := &apperrors.AuditWriteFailure{Action: string(entry.Action), Table: entry.Table, Err: err}
		middleware.GetLoggerFromCtx(ctx).Error("Failed to record audit trail",
			slog.String("error", failure.Error()),
			slog.String("action", string(entry.Action)),
			slog.String("table", entry.Table),
			slog.String("actor", actor.UserKey))
		if r.failures != nil {
			r.failures.AuditWriteFailed(string(entry.Action))
		}
		return false
	}
	return true
}

func (r *Recorder) write(ctx context.Context, exec Executor, inTx bool, actor domain.Actor, entry Entry) error {
	if !entry.Action.Valid() {
		return fmt.Errorf("invalid audit action %q", entry.Action)
	}

	prev, err := snapshot(entry.Prev)
	if err != nil {
		return fmt.Errorf("failed to encode previous data: %w", err)
	}
	next, err := snapshot(entry.New)
	if err != nil {
		return fmt.Errorf("failed to encode new data: %w", err)
	}

	now := r.now()
	query := fmt.Sprintf(`INSERT INTO %s (key, action, description, table_name, prev_data, new_data, action_time,
		user_ip, user_agent, request_id, created_by, created_at, updated_by, updated_at)
		VALUES (%s)`, TableName, r.placeholders(14))
	args := []any{
		uuid.NewString(), string(entry.Action), entry.Description, entry.Table, prev, next, now,
		actor.ClientIP, actor.UserAgent, actor.RequestID, actor.UserKey, now, actor.UserKey, now,
	}

	if !inTx {
		_, err := exec.ExecContext(ctx, query, args...)
		return err
	}

	if _, err := exec.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		if _, rbErr := exec.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back to savepoint: %w", rbErr))
		}
		_, _ = exec.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint)
		return err
	}
	if _, err := exec.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

func (r *Recorder) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = r.dialect.Placeholder(i + 1)
	}
	return strings.Join(marks, ", ")
}

func snapshot(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}

// Query filters an audit trail listing. Empty fields match everything.
type Query struct {
	Table     string
	Action    domain.AuditAction
	ActorKey  string
	Limit     int
	NextToken string
}

// List returns audit entries newest first and a token for the next page, if any.
func (r *Recorder) List(ctx context.Context, q Query) ([]domain.AuditEntry, *string, error) {
	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var where []string
	var args []any
	bind := func(v any) string {
		args = append(args, v)
		return r.dialect.Placeholder(len(args))
	}
	if q.Table != "" {
		where = append(where, "table_name = "+bind(q.Table))
	}
	if q.Action != "" {
		where = append(where, "action = "+bind(string(q.Action)))
	}
	if q.ActorKey != "" {
		where = append(where, "created_by = "+bind(q.ActorKey))
	}
	if q.NextToken != "" {
		at, key, err := pagination.DecodeCursor(q.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		where = append(where, fmt.Sprintf("(action_time < %s OR (action_time = %s AND key < %s))", bind(at), bind(at), bind(key)))
	}

	query := `SELECT key, action, description, table_name, prev_data, new_data, action_time,
		user_ip, user_agent, request_id, created_by FROM ` + TableName
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY action_time DESC, key DESC LIMIT %d", limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list audit trail: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var action string
		var description, prev, next, ip, agent, requestID sql.NullString
		if err := rows.Scan(&e.Key, &action, &description, &e.TableName, &prev, &next, &e.ActionTime,
			&ip, &agent, &requestID, &e.ActorKey); err != nil {
			return nil, nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = domain.AuditAction(action)
		e.Description = description.String
		if prev.Valid {
			e.PrevData = json.RawMessage(prev.String)
		}
		if next.Valid {
			e.NewData = json.RawMessage(next.String)
		}
		e.UserIP, e.UserAgent, e.RequestID = ip.String, agent.String, requestID.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate audit trail: %w", err)
	}

	var nextToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeCursor(last.ActionTime, last.Key)
		nextToken = &token
	}
	return entries, nextToken, nil
}
