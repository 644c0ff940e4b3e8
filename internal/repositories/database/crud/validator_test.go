package crud_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/repositories/database/crud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ForUpdateStripsImmutableColumns(t *testing.T) {
	s := newStack(t)

	clean, err := s.Engine.Validator().ValidateForUpdate(context.Background(), accounts, map[string]any{
		"key":          "other",
		"version":      int64(9),
		"created_by":   "mallory",
		"deleted_at":   time.Now(),
		"account_name": "  Travel  ",
		"bank_key":     "   ",
		"nickname":     "unknown column",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"account_name": "Travel", "bank_key": nil}, clean)
}

func TestValidator_CheckUniqueConstraints(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	v := s.Engine.Validator()

	key, err := s.Engine.CreateSingle(ctx, alice, accounts, accountData("WLT00000051"))
	require.NoError(t, err)

	err = v.CheckUniqueConstraints(ctx, accounts, map[string]any{"account_number": "WLT00000051"}, "")
	var dup *apperrors.DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, accounts, dup.Table)

	assert.NoError(t, v.CheckUniqueConstraints(ctx, accounts, map[string]any{"account_number": "WLT00000051"}, key),
		"the row itself is excluded")
	assert.NoError(t, v.CheckUniqueConstraints(ctx, accounts, map[string]any{"account_name": "Main wallet"}, ""),
		"groups with absent columns are skipped")

	require.NoError(t, s.Engine.SoftDelete(ctx, alice, accounts, key))
	assert.NoError(t, v.CheckUniqueConstraints(ctx, accounts, map[string]any{"account_number": "WLT00000051"}, ""),
		"soft-deleted rows do not hold values")
}

func TestConcurrency_CheckVersion(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	c := s.Engine.Concurrency()

	key, err := s.Engine.CreateSingle(ctx, alice, accounts, accountData("WLT00000052"))
	require.NoError(t, err)

	current, err := c.CheckVersion(ctx, accounts, key, crud.ExpectVersion(1))
	require.NoError(t, err)
	assert.Equal(t, key, current["key"])

	updatedAt, ok := current["updated_at"].(time.Time)
	require.True(t, ok, "updated_at should scan as time")
	_, err = c.CheckVersion(ctx, accounts, key, crud.Expectation{UpdatedAt: &updatedAt})
	assert.NoError(t, err)

	_, err = c.CheckVersion(ctx, accounts, key, crud.ExpectVersion(3))
	var conflict *apperrors.ConcurrencyConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(3), conflict.Expected)
	assert.Equal(t, int64(1), conflict.Current)

	stale := updatedAt.Add(-time.Hour)
	_, err = c.CheckVersion(ctx, accounts, key, crud.Expectation{UpdatedAt: &stale})
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)

	_, err = c.CheckVersion(ctx, accounts, "missing", crud.Expectation{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetSingleAndDeletedRows(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	k1, err := s.Engine.CreateSingle(ctx, alice, accounts, accountData("WLT00000053"))
	require.NoError(t, err)
	k2, err := s.Engine.CreateSingle(ctx, alice, accounts, accountData("WLT00000054"))
	require.NoError(t, err)

	row, err := s.Engine.GetSingle(ctx, alice, accounts, map[string]any{"account_number": "WLT00000054"})
	require.NoError(t, err)
	assert.Equal(t, k2, row["key"])

	_, err = s.Engine.GetSingle(ctx, alice, accounts, map[string]any{"account_number": "WLT99999999"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, s.Engine.SoftDelete(ctx, alice, accounts, k1))
	deleted, err := s.Engine.GetSoftDeleted(ctx, alice, accounts, 0, crud.ReadOptions{NoAudit: true})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, k1, deleted[0]["key"])

	require.NoError(t, s.Engine.HardDelete(ctx, alice, accounts, k1))
	assert.Equal(t, 1, s.CountRows(t, accounts))
	assert.Equal(t, 2, s.CountAudit(t, accounts, "delete"), "soft then hard delete")
}
