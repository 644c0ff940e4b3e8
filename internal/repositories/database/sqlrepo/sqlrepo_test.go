package sqlrepo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	"github.com/shadwattai/miniwallet/internal/repositories/database/dbtest"
	"github.com/shadwattai/miniwallet/internal/repositories/database/sqlrepo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = domain.Actor{UserKey: "alice", ClientIP: "10.0.0.1", UserAgent: "test"}

func newProvider(t *testing.T) (*dbtest.Stack, portsrepo.RepositoryProvider) {
	t.Helper()
	s := dbtest.Open(t)
	return s, sqlrepo.NewRepositoryProvider(s.Engine, s.Recorder)
}

func saveWallet(t *testing.T, repo portsrepo.AccountRepositoryFacade, number, balance string) *domain.Account {
	t.Helper()
	a, err := repo.SaveAccount(context.Background(), alice, domain.Account{
		UserKey:       alice.UserKey,
		AccountNumber: number,
		AccountName:   "Wallet " + number,
		AccountType:   domain.AccountTypeWallet,
		Currency:      "AED",
		Balance:       decimal.RequireFromString(balance),
		IsActive:      true,
	})
	require.NoError(t, err)
	return a
}

func TestAccountRepository(t *testing.T) {
	_, p := newProvider(t)
	ctx := context.Background()

	a := saveWallet(t, p.AccountRepo, "WLT00000001", "500")
	assert.NotEmpty(t, a.Key)
	assert.Equal(t, int64(1), a.Version)
	assert.True(t, decimal.NewFromInt(500).Equal(a.Balance))
	assert.True(t, a.IsActive)
	assert.Equal(t, "alice", a.CreatedBy)

	v, err := p.AccountRepo.UpdateBalance(ctx, alice, a.Key, decimal.RequireFromString("398.50"), a.Version)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = p.AccountRepo.UpdateBalance(ctx, alice, a.Key, decimal.NewFromInt(1), a.Version)
	var conflict *apperrors.ConcurrencyConflictError
	require.True(t, errors.As(err, &conflict))

	_, err = p.AccountRepo.UpdateBalance(ctx, alice, a.Key, decimal.NewFromInt(-1), v)
	assert.Error(t, err)

	got, err := p.AccountRepo.FindAccountByKey(ctx, alice, a.Key)
	require.NoError(t, err)
	assert.Equal(t, "398.50", got.Balance.StringFixed(2))

	v, err = p.AccountRepo.SetActive(ctx, alice, a.Key, false, v)
	require.NoError(t, err)
	_, err = p.AccountRepo.SetDefault(ctx, alice, a.Key, true, v)
	require.NoError(t, err)
	got, err = p.AccountRepo.FindAccountByKey(ctx, alice, a.Key)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.IsDefault)
	assert.Equal(t, int64(4), got.Version)

	saveWallet(t, p.AccountRepo, "WLT00000002", "0")
	list, err := p.AccountRepo.ListAccountsByUser(ctx, alice, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "WLT00000001", list[0].AccountNumber)

	_, err = p.AccountRepo.FindAccountByKey(ctx, alice, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = p.AccountRepo.FindCommissionAccount(ctx, alice, "AED")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAccountRepository_CreditBalance(t *testing.T) {
	_, p := newProvider(t)
	ctx := context.Background()

	a := saveWallet(t, p.AccountRepo, "WLT00000001", "10")
	_, err := p.AccountRepo.UpdateBalance(ctx, alice, a.Key, decimal.RequireFromString("12.25"), a.Version)
	require.NoError(t, err)

	credited, err := p.AccountRepo.CreditBalance(ctx, alice, a.Key, decimal.RequireFromString("1.50"))
	require.NoError(t, err, "a credit does not need the current version")
	assert.Equal(t, "13.75", credited.Balance.StringFixed(2))
	assert.Equal(t, int64(3), credited.Version)

	credited, err = p.AccountRepo.CreditBalance(ctx, alice, a.Key, decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	assert.Equal(t, "14.00", credited.Balance.StringFixed(2))

	_, err = p.AccountRepo.CreditBalance(ctx, alice, a.Key, decimal.Zero)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = p.AccountRepo.CreditBalance(ctx, alice, "missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRunInTx_RollsBackEverything(t *testing.T) {
	s, p := newProvider(t)
	ctx := context.Background()
	a := saveWallet(t, p.AccountRepo, "WLT00000001", "500")
	b := saveWallet(t, p.AccountRepo, "WLT00000002", "50")

	boom := errors.New("boom")
	err := p.TxManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		txn, err := tx.Transactions.SaveTransaction(ctx, alice, domain.LedgerTransaction{
			RefNumber: "TRF1", SenderAcctKey: a.Key, ReceiverAcctKey: b.Key,
			Type: domain.TransactionTransfer, Amount: decimal.NewFromInt(100), Status: domain.StatusCompleted,
		})
		require.NoError(t, err)
		_, err = tx.Accounts.UpdateBalance(ctx, alice, a.Key, decimal.NewFromInt(400), a.Version)
		require.NoError(t, err)
		require.NoError(t, tx.Balances.SaveBalanceHistory(ctx, alice, domain.BalanceHistory{
			AcctKey: a.Key, TrxnKey: txn.Key, PrevBalance: decimal.NewFromInt(500),
			TrxnAmount: decimal.NewFromInt(-100), RunningBalance: decimal.NewFromInt(400),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 0, s.CountRows(t, sqlrepo.TableTransactions))
	assert.Equal(t, 0, s.CountRows(t, sqlrepo.TableBalances))
	got, err := p.AccountRepo.FindAccountByKey(ctx, alice, a.Key)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(got.Balance))
	assert.Equal(t, int64(1), got.Version)
}

func TestTransactionRepository(t *testing.T) {
	_, p := newProvider(t)
	ctx := context.Background()
	a := saveWallet(t, p.AccountRepo, "WLT00000001", "500")
	b := saveWallet(t, p.AccountRepo, "WLT00000002", "50")
	c := saveWallet(t, p.AccountRepo, "WLT00000003", "0")

	save := func(ref, from, to string, status domain.TransactionStatus) *domain.LedgerTransaction {
		txn, err := p.TransactionRepo.SaveTransaction(ctx, alice, domain.LedgerTransaction{
			RefNumber: ref, SenderAcctKey: from, ReceiverAcctKey: to, Description: ref,
			Type: domain.TransactionTransfer, Amount: decimal.NewFromInt(10),
			CommissionFee: decimal.RequireFromString("0.15"), Status: status,
		})
		require.NoError(t, err)
		return txn
	}
	first := save("TRF1", a.Key, b.Key, domain.StatusCompleted)
	save("TRF2", b.Key, a.Key, domain.StatusCompleted)
	save("TRF3", b.Key, c.Key, domain.StatusCompleted)
	pending := save("TRF4", c.Key, a.Key, domain.StatusPending)

	byRef, err := p.TransactionRepo.FindTransactionByRef(ctx, alice, "TRF1")
	require.NoError(t, err)
	assert.Equal(t, first.Key, byRef.Key)
	assert.Equal(t, "0.15", byRef.CommissionFee.StringFixed(2))

	page, next, err := p.TransactionRepo.ListTransactionsByAccount(ctx, alice, a.Key, 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, "TRF4", page[0].RefNumber)
	assert.Equal(t, "TRF2", page[1].RefNumber)

	rest, next, err := p.TransactionRepo.ListTransactionsByAccount(ctx, alice, a.Key, 2, next)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, next)
	assert.Equal(t, "TRF1", rest[0].RefNumber)

	v, err := p.TransactionRepo.UpdateStatus(ctx, alice, pending.Key, domain.StatusCompleted, pending.Version)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = p.TransactionRepo.UpdateStatus(ctx, alice, pending.Key, domain.StatusPending, v)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = p.TransactionRepo.UpdateStatus(ctx, alice, first.Key, domain.StatusCancelled, 7)
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
}

func TestEntryAndBalanceRepositories(t *testing.T) {
	_, p := newProvider(t)
	ctx := context.Background()
	a := saveWallet(t, p.AccountRepo, "WLT00000001", "500")
	b := saveWallet(t, p.AccountRepo, "WLT00000002", "50")
	txn, err := p.TransactionRepo.SaveTransaction(ctx, alice, domain.LedgerTransaction{
		RefNumber: "TRF1", SenderAcctKey: a.Key, ReceiverAcctKey: b.Key,
		Type: domain.TransactionTransfer, Amount: decimal.NewFromInt(100), Status: domain.StatusCompleted,
	})
	require.NoError(t, err)

	saved, err := p.EntryRepo.SaveEntries(ctx, alice, txn.Key, []domain.LedgerEntry{
		domain.NewCreditEntry(a.Key, decimal.NewFromInt(100), "out"),
		domain.NewDebitEntry(b.Key, decimal.NewFromInt(100), "in"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotEmpty(t, saved[0].Key)

	entries, err := p.EntryRepo.FindEntriesByTransaction(ctx, alice, txn.Key)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.Credit, entries[0].Entry)
	assert.Equal(t, domain.Debit, entries[1].Entry)

	_, err = p.EntryRepo.SaveEntries(ctx, alice, txn.Key, []domain.LedgerEntry{
		domain.NewDebitEntry(a.Key, decimal.NewFromInt(5), "ok"),
		{AcctKey: b.Key, Entry: domain.Debit, AmountDr: decimal.Zero, AmountCr: decimal.Zero},
	})
	assert.Error(t, err)
	entries, err = p.EntryRepo.FindEntriesByTransaction(ctx, alice, txn.Key)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, p.BalanceRepo.SaveBalanceHistory(ctx, alice, domain.BalanceHistory{
		AcctKey: a.Key, TrxnKey: txn.Key, PrevBalance: decimal.NewFromInt(500),
		TrxnAmount: decimal.NewFromInt(-100), RunningBalance: decimal.NewFromInt(400),
	}))
	err = p.BalanceRepo.SaveBalanceHistory(ctx, alice, domain.BalanceHistory{
		AcctKey: a.Key, TrxnKey: txn.Key, PrevBalance: decimal.NewFromInt(400),
		TrxnAmount: decimal.NewFromInt(-1), RunningBalance: decimal.NewFromInt(399),
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	history, err := p.BalanceRepo.ListBalanceHistory(ctx, alice, a.Key, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "400.00", history[0].RunningBalance.StringFixed(2))
}

func TestAuditAndRecordRepositories(t *testing.T) {
	_, p := newProvider(t)
	ctx := context.Background()
	a := saveWallet(t, p.AccountRepo, "WLT00000001", "500")

	entries, _, err := p.AuditRepo.ListAuditEntries(ctx, portsrepo.AuditFilter{Table: sqlrepo.TableAccounts, Action: domain.ActionCreate})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].ActorKey)

	rec, err := p.RecordRepo.GetRecord(ctx, alice, sqlrepo.TableAccounts, a.Key)
	require.NoError(t, err)
	assert.Equal(t, "WLT00000001", rec["account_number"])

	page, err := p.RecordRepo.ListRecords(ctx, alice, sqlrepo.TableAccounts, 10, "")
	require.NoError(t, err)
	assert.Len(t, page.Rows, 1)

	stats, err := p.RecordRepo.RecordStats(ctx, alice, sqlrepo.TableAccounts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Active)

	_, err = p.RecordRepo.ListRecords(ctx, alice, "users_audit_trails", 10, "")
	assert.ErrorIs(t, err, apperrors.ErrSchema)
}
