package crud

import (
	"context"
	"time"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
)

// Expectation is what a caller believes the row looks like before writing.
// Nil fields are not checked.
type Expectation struct {
	Version   *int64
	UpdatedAt *time.Time
}

// ExpectVersion is shorthand for an Expectation on the version column.
func ExpectVersion(v int64) Expectation {
	return Expectation{Version: &v}
}

// Concurrency implements optimistic concurrency checks.
type Concurrency struct {
	e *Engine
}

// CheckVersion loads the live row and compares it with exp. Tables without a
// version or updated_at column are not checked.
func (c *Concurrency) CheckVersion(ctx context.Context, table, key string, exp Expectation) (domain.Record, error) {
	e := c.e
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}

	current, err := e.fetchByKey(ctx, t, key, false)
	if err != nil {
		return nil, err
	}

	if t.Versioned() && exp.Version != nil {
		version, _ := asInt64(current[colVersion])
		if version != *exp.Version {
			return nil, e.conflict(table, key, *exp.Version, version)
		}
	}
	if t.Has(colUpdatedAt) && exp.UpdatedAt != nil {
		updatedAt, ok := asTime(current[colUpdatedAt])
		if !ok || !updatedAt.Equal(*exp.UpdatedAt) {
			return nil, e.conflict(table, key, exp.UpdatedAt.UnixNano(), updatedAt.UnixNano())
		}
	}
	return current, nil
}

// NextVersion returns the version the row will carry after its next update.
func (c *Concurrency) NextVersion(ctx context.Context, table, key string) (int64, error) {
	e := c.e
	t, err := e.table(ctx, table)
	if err != nil {
		return 0, err
	}
	if !t.Versioned() {
		return 0, &apperrors.SchemaError{Table: table, Reason: "table has no version column"}
	}
	current, err := e.fetchByKey(ctx, t, key, false)
	if err != nil {
		return 0, err
	}
	version, _ := asInt64(current[colVersion])
	return version + 1, nil
}
