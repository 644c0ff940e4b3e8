package crud

import (
	"context"
	"fmt"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/repositories/database/catalog"
	"github.com/shopspring/decimal"
)

// ReasonNoChanges is reported when an update matches the stored row.
const ReasonNoChanges = "no_changes"

// Change is the before and after value of one column.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// UpdateResult describes the outcome of UpdateSingle.
type UpdateResult struct {
	Updated bool              `json:"updated"`
	Reason  string            `json:"reason,omitempty"`
	Changes map[string]Change `json:"changes,omitempty"`
	Version int64             `json:"version"`
}

// UpdateSingle applies the columns of data that differ from the stored row.
// The row is checked against exp first, and the write itself is a
// compare-and-swap on the version that was checked. Nothing is written when
// no column differs.
func (e *Engine) UpdateSingle(ctx context.Context, actor domain.Actor, table, key string, data map[string]any, exp Expectation) (*UpdateResult, error) {
	var result *UpdateResult
	err := e.WithTx(ctx, func(tx *Engine) error {
		var err error
		result, err = tx.updateOne(ctx, actor, table, key, data, exp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) updateOne(ctx context.Context, actor domain.Actor, table, key string, data map[string]any, exp Expectation) (*UpdateResult, error) {
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	current, err := e.Concurrency().CheckVersion(ctx, table, key, exp)
	if err != nil {
		return nil, err
	}
	clean, err := e.Validator().ValidateForUpdate(ctx, table, data)
	if err != nil {
		return nil, err
	}

	version, _ := asInt64(current[colVersion])
	changes := diff(current, clean)
	if len(changes) == 0 {
		return &UpdateResult{Updated: false, Reason: ReasonNoChanges, Version: version}, nil
	}

	set := make(map[string]any, len(changes)+2)
	for field, c := range changes {
		set[field] = c.New
	}
	if err := e.Validator().CheckUniqueConstraints(ctx, table, uniqueProbe(t, current, set), key); err != nil {
		return nil, err
	}
	e.stampUpdate(t, actor, set)

	guard := casGuard{version: version}
	if exp.Version != nil {
		guard.version = *exp.Version
	}
	if exp.UpdatedAt != nil {
		if stored, ok := asTime(current[colUpdatedAt]); ok {
			guard.updatedAt = &stored
		}
	}
	next, err := e.casUpdate(ctx, t, key, set, guard)
	if err != nil {
		return nil, err
	}

	prev := make(map[string]any, len(changes))
	after := make(map[string]any, len(changes))
	for field, c := range changes {
		prev[field] = c.Old
		after[field] = c.New
	}
	e.audit(ctx, actor, domain.ActionUpdate, fmt.Sprintf("Updated %s record %s", table, key), table, prev, after)

	return &UpdateResult{Updated: true, Changes: changes, Version: next}, nil
}

// diff returns the proposed columns whose value differs from the stored one.
func diff(current domain.Record, proposed map[string]any) map[string]Change {
	changes := make(map[string]Change)
	for field, value := range proposed {
		old := current[field]
		if valuesDiffer(old, value) {
			changes[field] = Change{Old: old, New: value}
		}
	}
	return changes
}

// uniqueProbe collects, for every unique group touched by changed, the values
// the row will hold after the write.
func uniqueProbe(t *catalog.Table, current domain.Record, changed map[string]any) map[string]any {
	probe := make(map[string]any)
	for _, group := range t.Groups {
		if group.Primary {
			continue
		}
		touched := false
		for _, col := range group.Columns {
			if _, ok := changed[col]; ok {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}
		for _, col := range group.Columns {
			if v, ok := changed[col]; ok {
				probe[col] = v
			} else {
				probe[col] = current[col]
			}
		}
	}
	return probe
}

// BulkUpdate validates every payload before applying any, then updates each
// row with its own compare-and-swap inside one transaction.
func (e *Engine) BulkUpdate(ctx context.Context, actor domain.Actor, table string, updates map[string]map[string]any) (map[string]*UpdateResult, error) {
	results := make(map[string]*UpdateResult, len(updates))
	err := e.WithTx(ctx, func(tx *Engine) error {
		for _, key := range sortedKeys(updates) {
			if _, err := tx.Validator().ValidateForUpdate(ctx, table, updates[key]); err != nil {
				return fmt.Errorf("row %s: %w", key, err)
			}
		}
		for _, key := range sortedKeys(updates) {
			res, err := tx.updateOne(ctx, actor, table, key, updates[key], Expectation{})
			if err != nil {
				return err
			}
			results[key] = res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// IncrementField adds by to a numeric column in a single statement and bumps
// the version. It returns the row as stored afterwards.
func (e *Engine) IncrementField(ctx context.Context, actor domain.Actor, table, key, field string, by decimal.Decimal) (domain.Record, error) {
	var row domain.Record
	err := e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}
		col, ok := t.Column(field)
		if !ok {
			return &apperrors.SchemaError{Table: table, Reason: fmt.Sprintf("unknown column %s", field)}
		}
		if col.PrimaryKey || field == colVersion {
			return &apperrors.SchemaError{Table: table, Reason: fmt.Sprintf("column %s cannot be incremented", field)}
		}

		b := &binder{dialect: tx.dialect}
		assignments := []string{tx.q(field) + " = " + tx.q(field) + " + " + b.bind(by)}
		stamps := make(map[string]any, 2)
		tx.stampUpdate(t, actor, stamps)
		for _, c := range sortedKeys(stamps) {
			assignments = append(assignments, tx.q(c)+" = "+b.bind(stamps[c]))
		}
		if t.Versioned() {
			assignments = append(assignments, tx.q(colVersion)+" = "+tx.q(colVersion)+" + 1")
		}
		conds := append([]string{tx.q(t.KeyColumn) + " = " + b.bind(key)}, tx.liveCondition(t, false)...)
		query := "UPDATE " + tx.q(t.Name) + " SET " + joinComma(assignments) + whereClause(conds)

		res, err := tx.exec.ExecContext(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("failed to increment %s.%s: %w", table, field, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to read affected rows for %s %s: %w", table, key, err)
		} else if n == 0 {
			return &apperrors.NotFoundError{Table: table, Key: key}
		}

		row, err = tx.fetchByKey(ctx, t, key, false)
		if err != nil {
			return err
		}
		tx.audit(ctx, actor, domain.ActionUpdate, fmt.Sprintf("Incremented %s.%s on %s", table, field, key), table,
			nil, map[string]any{field: row[field], "by": by.String()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// DecrementField subtracts by from a numeric column. See IncrementField.
func (e *Engine) DecrementField(ctx context.Context, actor domain.Actor, table, key, field string, by decimal.Decimal) (domain.Record, error) {
	return e.IncrementField(ctx, actor, table, key, field, by.Neg())
}

// ToggleField flips a boolean column through UpdateSingle.
func (e *Engine) ToggleField(ctx context.Context, actor domain.Actor, table, key, field string) (*UpdateResult, error) {
	var result *UpdateResult
	err := e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}
		if !t.Has(field) {
			return &apperrors.SchemaError{Table: table, Reason: fmt.Sprintf("unknown column %s", field)}
		}
		current, err := tx.fetchByKey(ctx, t, key, false)
		if err != nil {
			return err
		}
		value, ok := asBool(current[field])
		if !ok {
			return fmt.Errorf("%w: column %s of %s is not boolean", apperrors.ErrValidation, field, table)
		}
		version, _ := asInt64(current[colVersion])
		result, err = tx.updateOne(ctx, actor, table, key, map[string]any{field: !value}, ExpectVersion(version))
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
