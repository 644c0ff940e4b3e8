package crud

import (
	"context"
	"errors"
	"fmt"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/repositories/database/catalog"
)

// Relation names a row that must exist before a dependent row is created.
type Relation struct {
	Table string
	Key   string
}

// CreateSingle validates data, checks unique groups and inserts one row under
// a generated key.
func (e *Engine) CreateSingle(ctx context.Context, actor domain.Actor, table string, data map[string]any) (string, error) {
	var key string
	err := e.WithTx(ctx, func(tx *Engine) error {
		row, err := tx.createOne(ctx, actor, table, data, "")
		if err != nil {
			return err
		}
		key = keyString(row.key)
		tx.audit(ctx, actor, domain.ActionCreate, fmt.Sprintf("Created %s record", table), table, nil, row.record)
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

type createdRow struct {
	key    any
	record domain.Record
}

func (e *Engine) createOne(ctx context.Context, actor domain.Actor, table string, data map[string]any, key string) (*createdRow, error) {
	t, err := e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	v := e.Validator()
	clean, err := v.ValidateForCreate(ctx, table, data)
	if err != nil {
		return nil, err
	}
	delete(clean, t.KeyColumn)
	if err := v.CheckUniqueConstraints(ctx, table, clean, ""); err != nil {
		return nil, err
	}
	rec, err := e.insert(ctx, actor, t, clean, key)
	if err != nil {
		return nil, err
	}
	return &createdRow{key: rec[t.KeyColumn], record: rec}, nil
}

// CreateOrUpdate updates the live row named by key in place, or inserts a new
// row (under key, or a generated one) when there is none. created reports
// which of the two happened. A soft-deleted row under key is not revived: it
// reports not found until RestoreRow brings it back.
func (e *Engine) CreateOrUpdate(ctx context.Context, actor domain.Actor, table string, data map[string]any, key string) (string, bool, error) {
	var created bool
	err := e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}

		if key != "" {
			current, err := tx.fetchByKey(ctx, t, key, false)
			if err == nil {
				return tx.overwrite(ctx, actor, t, key, current, data)
			}
			if !isNotFound(err) {
				return err
			}
			if t.SoftDeletes() {
				if _, err := tx.fetchByKey(ctx, t, key, true); err == nil {
					return fmt.Errorf("%s record %s is soft-deleted, restore it first: %w",
						table, key, &apperrors.NotFoundError{Table: table, Key: key})
				}
			}
		}

		row, err := tx.createOne(ctx, actor, table, data, key)
		if err != nil {
			return err
		}
		key = keyString(row.key)
		created = true
		tx.audit(ctx, actor, domain.ActionAdd, fmt.Sprintf("Added %s record", table), table, nil, row.record)
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return key, created, nil
}

// overwrite is the update half of CreateOrUpdate: created_* are preserved and
// the version is bumped even when no column changed.
func (e *Engine) overwrite(ctx context.Context, actor domain.Actor, t *catalog.Table, key string, current domain.Record, data map[string]any) error {
	clean, err := e.Validator().ValidateForUpdate(ctx, t.Name, data)
	if err != nil {
		return err
	}
	if err := e.Validator().CheckUniqueConstraints(ctx, t.Name, uniqueProbe(t, current, clean), key); err != nil {
		return err
	}

	set := make(map[string]any, len(clean)+2)
	for k, v := range clean {
		set[k] = v
	}
	e.stampUpdate(t, actor, set)

	version, _ := asInt64(current[colVersion])
	if _, err := e.casUpdate(ctx, t, key, set, casGuard{version: version}); err != nil {
		return err
	}

	next := current.Clone()
	for k, v := range set {
		next[k] = v
	}
	e.audit(ctx, actor, domain.ActionEdit, fmt.Sprintf("Edited %s record %s", t.Name, key), t.Name, current, next)
	return nil
}

// CreateMultiple inserts rows atomically. Every row is validated before the
// first insert.
func (e *Engine) CreateMultiple(ctx context.Context, actor domain.Actor, table string, rows []map[string]any) ([]string, error) {
	var keys []string
	err := e.WithTx(ctx, func(tx *Engine) error {
		t, err := tx.table(ctx, table)
		if err != nil {
			return err
		}
		v := tx.Validator()

		cleaned := make([]map[string]any, len(rows))
		for i, data := range rows {
			clean, err := v.ValidateForCreate(ctx, table, data)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			delete(clean, t.KeyColumn)
			if err := v.CheckUniqueConstraints(ctx, table, clean, ""); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			cleaned[i] = clean
		}

		keys = make([]string, 0, len(cleaned))
		for _, clean := range cleaned {
			rec, err := tx.insert(ctx, actor, t, clean, "")
			if err != nil {
				return err
			}
			keys = append(keys, keyString(rec[t.KeyColumn]))
			tx.audit(ctx, actor, domain.ActionCreate, fmt.Sprintf("Created %s record", table), table, nil, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateWithRelations creates a row after checking that every related row
// exists and is not soft-deleted.
func (e *Engine) CreateWithRelations(ctx context.Context, actor domain.Actor, table string, data map[string]any, relations []Relation) (string, error) {
	var key string
	err := e.WithTx(ctx, func(tx *Engine) error {
		for _, rel := range relations {
			rt, err := tx.table(ctx, rel.Table)
			if err != nil {
				return err
			}
			if _, err := tx.fetchByKey(ctx, rt, rel.Key, false); err != nil {
				return err
			}
		}
		var err error
		key, err = tx.CreateSingle(ctx, actor, table, data)
		return err
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
