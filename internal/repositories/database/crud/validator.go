package crud

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/middleware"
)

// systemFields are never required from callers: the engine fills them in.
var systemFields = map[string]struct{}{
	"id": {}, "key": {}, colCreatedBy: {}, colCreatedAt: {}, colUpdatedBy: {}, colUpdatedAt: {},
}

// Validator cleans payloads against table metadata.
type Validator struct {
	e *Engine
}

// ValidateForCreate drops nil, blank and unknown fields, trims strings and
// fails with MissingFieldError when a required column is absent. A column is
// required when it is not nullable, has no default and is not the primary key.
func (v *Validator) ValidateForCreate(ctx context.Context, table string, raw map[string]any) (map[string]any, error) {
	t, err := v.e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	clean := make(map[string]any, len(raw))
	for _, field := range sortedKeys(raw) {
		value := raw[field]
		if !t.Has(field) {
			logger.Warn("Skipping unknown field", slog.String("table", table), slog.String("field", field))
			continue
		}
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			value = s
		}
		clean[field] = value
	}

	var missing []string
	for _, col := range t.Columns {
		if col.Nullable || col.HasDefault || col.PrimaryKey {
			continue
		}
		if _, ok := systemFields[col.Name]; ok {
			continue
		}
		if _, ok := clean[col.Name]; !ok {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &apperrors.MissingFieldError{Table: table, Fields: missing}
	}
	return clean, nil
}

// ValidateForUpdate drops unknown fields and the immutable columns, trims
// strings and turns blank strings into NULL.
func (v *Validator) ValidateForUpdate(ctx context.Context, table string, raw map[string]any) (map[string]any, error) {
	t, err := v.e.table(ctx, table)
	if err != nil {
		return nil, err
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	immutable := map[string]struct{}{
		t.KeyColumn: {}, colCreatedAt: {}, colCreatedBy: {}, colVersion: {}, colDeletedAt: {}, colDeletedBy: {},
	}

	clean := make(map[string]any, len(raw))
	for _, field := range sortedKeys(raw) {
		value := raw[field]
		if !t.Has(field) {
			logger.Warn("Skipping unknown field", slog.String("table", table), slog.String("field", field))
			continue
		}
		if _, ok := immutable[field]; ok {
			logger.Debug("Skipping immutable field", slog.String("table", table), slog.String("field", field))
			continue
		}
		if s, ok := value.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				clean[field] = nil
				continue
			}
			value = s
		}
		clean[field] = value
	}
	return clean, nil
}

// CheckUniqueConstraints fails with DuplicateError when a live row other than
// excludeKey already holds the values of a unique group. Only groups whose
// columns are all present in data are checked; primary keys are left to the
// database.
func (v *Validator) CheckUniqueConstraints(ctx context.Context, table string, data map[string]any, excludeKey string) error {
	e := v.e
	t, err := e.table(ctx, table)
	if err != nil {
		return err
	}

	for _, group := range t.Groups {
		if group.Primary {
			continue
		}
		values := make([]any, 0, len(group.Columns))
		complete := true
		for _, col := range group.Columns {
			val, ok := data[col]
			if !ok || val == nil {
				complete = false
				break
			}
			values = append(values, val)
		}
		if !complete {
			continue
		}

		b := &binder{dialect: e.dialect}
		conds := make([]string, 0, len(group.Columns)+2)
		for i, col := range group.Columns {
			conds = append(conds, e.q(col)+" = "+b.bind(values[i]))
		}
		conds = append(conds, e.liveCondition(t, false)...)
		if excludeKey != "" {
			conds = append(conds, e.q(t.KeyColumn)+" <> "+b.bind(excludeKey))
		}
		query := "SELECT " + e.q(t.KeyColumn) + " FROM " + e.q(t.Name) + whereClause(conds) + " LIMIT 1"

		recs, err := e.queryRecords(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("failed to check unique constraint %s: %w", group.Name, err)
		}
		if len(recs) > 0 {
			return &apperrors.DuplicateError{Table: table, Fields: group.Columns, Values: values}
		}
	}
	return nil
}
