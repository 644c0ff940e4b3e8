package services

import (
	"context"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/dto"
)

// LedgerWriterSvc posts money movements. Every method runs in one storage transaction.
type LedgerWriterSvc interface {
	// Deposit moves money from the user's initial account into a savings account.
	Deposit(ctx context.Context, actor domain.Actor, req dto.DepositRequest) (*domain.BalanceResult, error)

	// Withdraw moves money from a savings account to the user's initial account.
	Withdraw(ctx context.Context, actor domain.Actor, req dto.WithdrawRequest) (*domain.BalanceResult, error)

	// TopUp moves money from a savings account into a wallet of the same user.
	TopUp(ctx context.Context, actor domain.Actor, req dto.TopUpRequest) (*domain.TopUpResult, error)

	// Transfer moves money between wallets and charges the sender a commission.
	Transfer(ctx context.Context, actor domain.Actor, req dto.TransferRequest) (*domain.TransferResult, error)
}

// LedgerReaderSvc reads posted transactions and balance snapshots.
type LedgerReaderSvc interface {
	// GetTransaction returns a transaction with its entries. The actor must own one side.
	GetTransaction(ctx context.Context, actor domain.Actor, refNumber string) (*domain.LedgerTransaction, error)

	// ListTransactions pages over the transactions touching a wallet, newest first.
	ListTransactions(ctx context.Context, actor domain.Actor, walletKey string, params dto.ListTransactionsParams) ([]domain.LedgerTransaction, *string, error)

	// BalanceHistory returns the newest running-balance snapshots of a wallet.
	BalanceHistory(ctx context.Context, actor domain.Actor, walletKey string, limit int) ([]domain.BalanceHistory, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerWriterSvc
	LedgerReaderSvc
}
