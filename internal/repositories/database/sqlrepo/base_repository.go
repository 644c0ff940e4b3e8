package sqlrepo

import (
	"context"

	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	"github.com/shadwattai/miniwallet/internal/repositories/database/crud"
)

// Ledger tables.
const (
	TableAccounts     = "wlt_accounts"
	TableTransactions = "wlt_transactions"
	TableEntries      = "wlt_transactions_details"
	TableBalances     = "wlt_accounts_balances"
)

// internal lookups made on behalf of a posting are not audited as reads
var lookup = crud.ReadOptions{NoAudit: true}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	engine *crud.Engine
}

type txManager struct {
	BaseRepository
}

// NewTransactionManager runs repository work inside engine transactions.
func NewTransactionManager(engine *crud.Engine) portsrepo.TransactionManager {
	return &txManager{BaseRepository{engine: engine}}
}

func (m *txManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) error {
	return m.engine.WithTx(ctx, func(tx *crud.Engine) error {
		return fn(ctx, newTxRepositories(tx))
	})
}

func newTxRepositories(engine *crud.Engine) portsrepo.TxRepositories {
	return portsrepo.TxRepositories{
		Accounts:     newAccountRepository(engine),
		Transactions: newTransactionRepository(engine),
		Entries:      newEntryRepository(engine),
		Balances:     newBalanceHistoryRepository(engine),
	}
}

func equals(field string, value any) []crud.Criterion {
	return []crud.Criterion{{Field: field, Op: "=", Value: value}}
}
