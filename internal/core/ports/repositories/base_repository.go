package repositories

import (
	"context"
)

// TxRepositories are the ledger repositories bound to one storage transaction.
type TxRepositories struct {
	Accounts     AccountRepositoryFacade
	Transactions TransactionRepositoryFacade
	Entries      EntryRepositoryFacade
	Balances     BalanceHistoryRepositoryFacade
}

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	// RunInTx runs fn inside one storage transaction. The transaction commits
	// when fn returns nil and rolls back on an error or panic. Nested calls
	// join the outer transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}
