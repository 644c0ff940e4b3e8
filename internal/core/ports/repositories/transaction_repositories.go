package repositories

import (
	"context"

	"github.com/shadwattai/miniwallet/internal/core/domain"
)

// TransactionReader defines read operations for ledger transaction headers
type TransactionReader interface {
	// FindTransactionByRef retrieves a transaction by its reference number.
	FindTransactionByRef(ctx context.Context, actor domain.Actor, refNumber string) (*domain.LedgerTransaction, error)

	// ListTransactionsByAccount retrieves transactions where the account is sender or
	// receiver, newest first, using token-based pagination.
	ListTransactionsByAccount(ctx context.Context, actor domain.Actor, acctKey string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error)
}

// TransactionWriter defines write operations for ledger transaction headers
type TransactionWriter interface {
	// SaveTransaction persists a new transaction header.
	SaveTransaction(ctx context.Context, actor domain.Actor, txn domain.LedgerTransaction) (*domain.LedgerTransaction, error)

	// UpdateStatus moves a transaction to next. It is the only permitted mutation
	// of a posted transaction.
	UpdateStatus(ctx context.Context, actor domain.Actor, key string, next domain.TransactionStatus, expectedVersion int64) (int64, error)
}

// TransactionRepositoryFacade combines all transaction-related repository interfaces
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}

// EntryReader defines read operations for ledger entries
type EntryReader interface {
	FindEntriesByTransaction(ctx context.Context, actor domain.Actor, trxnKey string) ([]domain.LedgerEntry, error)
}

// EntryWriter defines write operations for ledger entries
type EntryWriter interface {
	// SaveEntries persists all entries of one transaction atomically.
	SaveEntries(ctx context.Context, actor domain.Actor, trxnKey string, entries []domain.LedgerEntry) ([]domain.LedgerEntry, error)
}

// EntryRepositoryFacade combines all entry-related repository interfaces
type EntryRepositoryFacade interface {
	EntryReader
	EntryWriter
}

// BalanceHistoryReader defines read operations for running balance snapshots
type BalanceHistoryReader interface {
	ListBalanceHistory(ctx context.Context, actor domain.Actor, acctKey string, limit int) ([]domain.BalanceHistory, error)
}

// BalanceHistoryWriter defines write operations for running balance snapshots
type BalanceHistoryWriter interface {
	SaveBalanceHistory(ctx context.Context, actor domain.Actor, h domain.BalanceHistory) error
}

// BalanceHistoryRepositoryFacade combines all balance history repository interfaces
type BalanceHistoryRepositoryFacade interface {
	BalanceHistoryReader
	BalanceHistoryWriter
}
