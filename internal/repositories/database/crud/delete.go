package crud

import (
	"context"
	"fmt"
	"time"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/repositories/database/catalog"
)

// DeleteRow soft-deletes the row when the table supports it and removes it
// otherwise. A row that is already soft-deleted is reported as not found.
func (e *Engine) DeleteRow(ctx context.Context, actor domain.Actor, table, key string) (bool, error) {
	err := e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}
		if t.SoftDeletes() {
			return tx.softDelete(ctx, actor, t, key)
		}
		return tx.hardDelete(ctx, actor, t, key, false)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SoftDelete stamps deleted_at/deleted_by and bumps the version.
func (e *Engine) SoftDelete(ctx context.Context, actor domain.Actor, table, key string) error {
	return e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}
		if !t.SoftDeletes() {
			return &apperrors.SchemaError{Table: table, Reason: "table does not support soft deletes"}
		}
		return tx.softDelete(ctx, actor, t, key)
	})
}

// HardDelete removes the row, soft-deleted or not.
func (e *Engine) HardDelete(ctx context.Context, actor domain.Actor, table, key string) error {
	return e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}
		return tx.hardDelete(ctx, actor, t, key, true)
	})
}

func (e *Engine) softDelete(ctx context.Context, actor domain.Actor, t *catalog.Table, key string) error {
	current, err := e.fetchByKey(ctx, t, key, false)
	if err != nil {
		return err
	}

	set := map[string]any{colDeletedAt: e.now()}
	if t.Has(colDeletedBy) {
		set[colDeletedBy] = actor.UserKey
	}
	e.stampUpdate(t, actor, set)

	version, _ := asInt64(current[colVersion])
	if _, err := e.casUpdate(ctx, t, key, set, casGuard{version: version}); err != nil {
		return err
	}
	e.audit(ctx, actor, domain.ActionDelete, fmt.Sprintf("Soft-deleted %s record %s", t.Name, key), t.Name, current, set)
	return nil
}

func (e *Engine) hardDelete(ctx context.Context, actor domain.Actor, t *catalog.Table, key string, includeDeleted bool) error {
	current, err := e.fetchByKey(ctx, t, key, includeDeleted)
	if err != nil {
		return err
	}

	b := &binder{dialect: e.dialect}
	query := "DELETE FROM " + e.q(t.Name) + " WHERE " + e.q(t.KeyColumn) + " = " + b.bind(key)
	res, err := e.exec.ExecContext(ctx, query, b.args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", t.Name, key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &apperrors.NotFoundError{Table: t.Name, Key: key}
	}
	e.audit(ctx, actor, domain.ActionDelete, fmt.Sprintf("Deleted %s record %s", t.Name, key), t.Name, current, nil)
	return nil
}

// BulkDelete deletes every key with DeleteRow semantics. It is atomic: one
// missing key aborts the whole batch.
func (e *Engine) BulkDelete(ctx context.Context, actor domain.Actor, table string, keys []string) (int, error) {
	deleted := 0
	err := e.WithTx(ctx, func(tx *Engine) error {
		for _, key := range keys {
			if _, err := tx.DeleteRow(ctx, actor, table, key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteByField deletes every live row whose field equals value.
func (e *Engine) DeleteByField(ctx context.Context, actor domain.Actor, table, field string, value any) (int, error) {
	deleted := 0
	err := e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}
		b := &binder{dialect: tx.dialect}
		conds, err := tx.equalityWhere(t, b, map[string]any{field: value})
		if err != nil {
			return err
		}
		conds = append(conds, tx.liveCondition(t, false)...)
		recs, err := tx.queryRecords(ctx, "SELECT "+tx.q(t.KeyColumn)+" FROM "+tx.q(t.Name)+whereClause(conds), b.args...)
		if err != nil {
			return fmt.Errorf("failed to select %s rows by %s: %w", table, field, err)
		}
		for _, rec := range recs {
			if _, err := tx.DeleteRow(ctx, actor, table, keyString(rec[t.KeyColumn])); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// PurgeSoftDeleted removes rows soft-deleted before olderThan.
func (e *Engine) PurgeSoftDeleted(ctx context.Context, actor domain.Actor, table string, olderThan time.Time) (int64, error) {
	var purged int64
	err := e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}
		if !t.SoftDeletes() {
			return &apperrors.SchemaError{Table: table, Reason: "table does not support soft deletes"}
		}
		b := &binder{dialect: tx.dialect}
		query := fmt.Sprintf("DELETE FROM %s WHERE %s IS NOT NULL AND %s < %s",
			tx.q(t.Name), tx.q(colDeletedAt), tx.q(colDeletedAt), b.bind(olderThan.UTC()))
		res, err := tx.exec.ExecContext(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("failed to purge %s: %w", table, err)
		}
		purged, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read purged rows of %s: %w", table, err)
		}
		tx.audit(ctx, actor, domain.ActionDelete, fmt.Sprintf("Purged %d soft-deleted %s records", purged, table), table,
			map[string]any{"older_than": olderThan.UTC()}, map[string]any{"purged": purged})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

// DeletableCount counts the live rows of table.
func (e *Engine) DeletableCount(ctx context.Context, table string) (int64, error) {
	t, err := e.table(ctx, table)
	if err != nil {
		return 0, err
	}
	return e.count(ctx, t, e.liveCondition(t, false), nil)
}

// SoftDeletedCount counts the soft-deleted rows of table.
func (e *Engine) SoftDeletedCount(ctx context.Context, table string) (int64, error) {
	t, err := e.table(ctx, table)
	if err != nil {
		return 0, err
	}
	if !t.SoftDeletes() {
		return 0, nil
	}
	return e.count(ctx, t, []string{e.q(colDeletedAt) + " IS NOT NULL"}, nil)
}

// RestoreRow clears deleted_at/deleted_by on a soft-deleted row.
func (e *Engine) RestoreRow(ctx context.Context, actor domain.Actor, table, key string) error {
	return e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}
		if !t.SoftDeletes() {
			return &apperrors.SchemaError{Table: table, Reason: "table does not support soft deletes"}
		}
		current, err := tx.fetchByKey(ctx, t, key, true)
		if err != nil {
			return err
		}
		if current[colDeletedAt] == nil {
			return &apperrors.NotFoundError{Table: table, Key: key}
		}

		set := map[string]any{colDeletedAt: nil}
		if t.Has(colDeletedBy) {
			set[colDeletedBy] = nil
		}
		tx.stampUpdate(t, actor, set)

		version, _ := asInt64(current[colVersion])
		if _, err := tx.casUpdate(ctx, t, key, set, casGuard{version: version}); err != nil {
			return err
		}
		tx.audit(ctx, actor, domain.ActionUpdate, fmt.Sprintf("Restored %s record %s", table, key), table, current, set)
		return nil
	})
}
