package sqlrepo

import (
	"context"
	"fmt"
	"sort"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	"github.com/shadwattai/miniwallet/internal/repositories/database/crud"
	"github.com/shadwattai/miniwallet/internal/utils"
	"github.com/shadwattai/miniwallet/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const maxAccountsPerUser = 500

type accountRepository struct {
	BaseRepository
}

func newAccountRepository(engine *crud.Engine) portsrepo.AccountRepositoryFacade {
	return &accountRepository{BaseRepository{engine: engine}}
}

// Ensure accountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*accountRepository)(nil)

func (r *accountRepository) FindAccountByKey(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error) {
	rec, err := r.engine.GetByKey(ctx, actor, TableAccounts, key, lookup)
	if err != nil {
		return nil, err
	}
	a, err := mapping.ToDomainAccount(rec)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) FindInitialAccount(ctx context.Context, actor domain.Actor, userKey, currency string) (*domain.Account, error) {
	return r.findOne(ctx, actor, map[string]any{
		"user_key":     userKey,
		"account_type": string(domain.AccountTypeInitial),
		"currency":     currency,
	})
}

func (r *accountRepository) FindCommissionAccount(ctx context.Context, actor domain.Actor, currency string) (*domain.Account, error) {
	return r.findOne(ctx, actor, map[string]any{
		"user_key":     domain.SystemUserKey,
		"account_type": string(domain.AccountTypeCommission),
		"currency":     currency,
	})
}

func (r *accountRepository) findOne(ctx context.Context, actor domain.Actor, filters map[string]any) (*domain.Account, error) {
	rec, err := r.engine.GetSingle(ctx, actor, TableAccounts, filters, lookup)
	if err != nil {
		return nil, err
	}
	a, err := mapping.ToDomainAccount(rec)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAccountsByUser returns the user's accounts oldest first.
func (r *accountRepository) ListAccountsByUser(ctx context.Context, actor domain.Actor, userKey string) ([]domain.Account, error) {
	recs, err := r.engine.Search(ctx, actor, TableAccounts, equals("user_key", userKey), maxAccountsPerUser)
	if err != nil {
		return nil, err
	}
	accounts, err := mapping.ToDomainAccountSlice(recs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].Key < accounts[j].Key
	})
	return accounts, nil
}

func (r *accountRepository) SaveAccount(ctx context.Context, actor domain.Actor, account domain.Account) (*domain.Account, error) {
	key, err := r.engine.CreateSingle(ctx, actor, TableAccounts, mapping.ToAccountRecord(account))
	if err != nil {
		return nil, err
	}
	return r.FindAccountByKey(ctx, actor, key)
}

func (r *accountRepository) UpdateBalance(ctx context.Context, actor domain.Actor, key string, newBalance decimal.Decimal, expectedVersion int64) (int64, error) {
	if newBalance.IsNegative() {
		return 0, fmt.Errorf("refusing to store negative balance %s on account %s", newBalance.String(), key)
	}
	return r.update(ctx, actor, key, map[string]any{"balance": utils.FormatMoney(newBalance)}, expectedVersion)
}

// CreditBalance does not compare versions: concurrent credits to one account
// all apply.
func (r *accountRepository) CreditBalance(ctx context.Context, actor domain.Actor, key string, amount decimal.Decimal) (*domain.Account, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: credit to account %s must be positive, got %s", apperrors.ErrValidation, key, amount.String())
	}
	rec, err := r.engine.IncrementField(ctx, actor, TableAccounts, key, "balance", amount)
	if err != nil {
		return nil, err
	}
	a, err := mapping.ToDomainAccount(rec)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) SetActive(ctx context.Context, actor domain.Actor, key string, active bool, expectedVersion int64) (int64, error) {
	return r.update(ctx, actor, key, map[string]any{"is_active": active}, expectedVersion)
}

func (r *accountRepository) SetDefault(ctx context.Context, actor domain.Actor, key string, isDefault bool, expectedVersion int64) (int64, error) {
	return r.update(ctx, actor, key, map[string]any{"is_default": isDefault}, expectedVersion)
}

func (r *accountRepository) update(ctx context.Context, actor domain.Actor, key string, data map[string]any, expectedVersion int64) (int64, error) {
	res, err := r.engine.UpdateSingle(ctx, actor, TableAccounts, key, data, crud.ExpectVersion(expectedVersion))
	if err != nil {
		return 0, err
	}
	return res.Version, nil
}
