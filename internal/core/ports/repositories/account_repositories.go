package repositories

import (
	"context"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByKey retrieves a live account by its key.
	FindAccountByKey(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error)

	// FindInitialAccount retrieves the user's funding boundary account for a currency.
	FindInitialAccount(ctx context.Context, actor domain.Actor, userKey, currency string) (*domain.Account, error)

	// FindCommissionAccount retrieves the system commission account for a currency.
	FindCommissionAccount(ctx context.Context, actor domain.Actor, currency string) (*domain.Account, error)

	// ListAccountsByUser retrieves every live account owned by userKey.
	ListAccountsByUser(ctx context.Context, actor domain.Actor, userKey string) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account and returns it with its key and version.
	SaveAccount(ctx context.Context, actor domain.Actor, account domain.Account) (*domain.Account, error)

	// UpdateBalance sets the balance with a compare-and-swap on expectedVersion
	// and returns the new version.
	UpdateBalance(ctx context.Context, actor domain.Actor, key string, newBalance decimal.Decimal, expectedVersion int64) (int64, error)

	// CreditBalance adds amount to the balance in one statement, without a
	// version check, and returns the account as stored afterwards.
	CreditBalance(ctx context.Context, actor domain.Actor, key string, amount decimal.Decimal) (*domain.Account, error)

	// SetActive activates or deactivates an account.
	SetActive(ctx context.Context, actor domain.Actor, key string, active bool, expectedVersion int64) (int64, error)

	// SetDefault marks or unmarks an account as its owner's default.
	SetDefault(ctx context.Context, actor domain.Actor, key string, isDefault bool, expectedVersion int64) (int64, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
// This is a facade for clients that need access to all operations
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
