package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	portssvc "github.com/shadwattai/miniwallet/internal/core/ports/services"
	"github.com/shadwattai/miniwallet/internal/core/services"
	"github.com/shadwattai/miniwallet/internal/dto"
	"github.com/shadwattai/miniwallet/internal/repositories/database/dbtest"
	"github.com/shadwattai/miniwallet/internal/repositories/database/sqlrepo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Actor{UserKey: "alice", ClientIP: "10.0.0.1", UserAgent: "test"}
	bob   = domain.Actor{UserKey: "bob", ClientIP: "10.0.0.2", UserAgent: "test"}
	carol = domain.Actor{UserKey: "carol", ClientIP: "10.0.0.3", UserAgent: "test"}
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.MoneyEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event domain.MoneyEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []domain.MoneyEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.MoneyEvent(nil), n.events...)
}

// ledgerFixture is a migrated SQLite database with the real repositories and services on top.
type ledgerFixture struct {
	t        *testing.T
	ctx      context.Context
	stack    *dbtest.Stack
	repos    portsrepo.RepositoryProvider
	ledger   portssvc.LedgerSvcFacade
	wallets  portssvc.WalletSvcFacade
	notifier *recordingNotifier
}

func newLedgerFixture(t *testing.T, opts ...services.LedgerOption) *ledgerFixture {
	t.Helper()
	stack := dbtest.Open(t)
	repos := sqlrepo.NewRepositoryProvider(stack.Engine, stack.Recorder)
	notifier := &recordingNotifier{}
	opts = append([]services.LedgerOption{services.WithNotifier(notifier)}, opts...)

	f := &ledgerFixture{
		t:        t,
		ctx:      context.Background(),
		stack:    stack,
		repos:    repos,
		ledger:   services.NewLedgerService(repos, opts...),
		wallets:  services.NewWalletService(repos),
		notifier: notifier,
	}
	require.NoError(t, f.wallets.EnsureSystemAccounts(f.ctx, []string{"AED"}))
	return f
}

// open onboards user and opens an account of type t holding balance.
func (f *ledgerFixture) open(user domain.Actor, t domain.AccountType, currency, balance string) *domain.Account {
	f.t.Helper()
	_, _, err := f.wallets.Onboard(f.ctx, user, dto.OnboardRequest{Currency: currency})
	require.NoError(f.t, err)

	a, err := f.wallets.CreateWallet(f.ctx, user, dto.CreateWalletRequest{
		AccountName: string(t) + " " + currency,
		AccountType: t,
		Currency:    currency,
	})
	require.NoError(f.t, err)
	if balance == "0" {
		return a
	}
	_, err = f.repos.AccountRepo.UpdateBalance(f.ctx, user, a.Key, decimal.RequireFromString(balance), a.Version)
	require.NoError(f.t, err)
	a, err = f.repos.AccountRepo.FindAccountByKey(f.ctx, user, a.Key)
	require.NoError(f.t, err)
	return a
}

func (f *ledgerFixture) balance(key string) string {
	f.t.Helper()
	a, err := f.repos.AccountRepo.FindAccountByKey(f.ctx, domain.SystemActor(), key)
	require.NoError(f.t, err)
	return a.Balance.StringFixed(2)
}

func (f *ledgerFixture) commissionBalance() string {
	f.t.Helper()
	a, err := f.repos.AccountRepo.FindCommissionAccount(f.ctx, domain.SystemActor(), "AED")
	require.NoError(f.t, err)
	return a.Balance.StringFixed(2)
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertBalanced(t *testing.T, entries []domain.LedgerEntry) {
	t.Helper()
	dr, cr := decimal.Zero, decimal.Zero
	for _, e := range entries {
		require.NoError(t, e.Validate())
		dr = dr.Add(e.AmountDr)
		cr = cr.Add(e.AmountCr)
	}
	assert.True(t, dr.Equal(cr), "DR %s != CR %s", dr, cr)
}

func TestTransfer_ChargesCommissionToSender(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.open(alice, domain.AccountTypeWallet, "AED", "500")
	b := f.open(bob, domain.AccountTypeWallet, "AED", "50")

	res, err := f.ledger.Transfer(f.ctx, alice, dto.TransferRequest{
		SenderWalletKey:   a.Key,
		ReceiverWalletKey: b.Key,
		Amount:            amount("100"),
		Description:       "rent share",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.RefNumber, "TRF"))
	assert.Equal(t, "1.50", res.CommissionFee.StringFixed(2))
	assert.Equal(t, "398.50", res.NewSenderBalance.StringFixed(2))
	assert.Equal(t, "150.00", res.NewReceiverBalance.StringFixed(2))
	assert.Equal(t, "398.50", f.balance(a.Key))
	assert.Equal(t, "150.00", f.balance(b.Key))
	assert.Equal(t, "1.50", f.commissionBalance())

	txn, err := f.ledger.GetTransaction(f.ctx, alice, res.RefNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTransfer, txn.Type)
	assert.Equal(t, domain.StatusCompleted, txn.Status)
	assert.Equal(t, "100.00", txn.Amount.StringFixed(2))
	require.Len(t, txn.Entries, 3)
	assertBalanced(t, txn.Entries)

	bySide := map[string]domain.LedgerEntry{}
	for _, e := range txn.Entries {
		bySide[e.AcctKey] = e
	}
	assert.Equal(t, domain.Credit, bySide[a.Key].Entry)
	assert.Equal(t, "101.50", bySide[a.Key].AmountCr.StringFixed(2))
	assert.Equal(t, domain.Debit, bySide[b.Key].Entry)
	assert.Equal(t, "100.00", bySide[b.Key].AmountDr.StringFixed(2))

	// The receiver can read it too, a stranger cannot.
	_, err = f.ledger.GetTransaction(f.ctx, bob, res.RefNumber)
	require.NoError(t, err)
	_, err = f.ledger.GetTransaction(f.ctx, carol, res.RefNumber)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	history, err := f.ledger.BalanceHistory(f.ctx, alice, a.Key, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "500.00", history[0].PrevBalance.StringFixed(2))
	assert.Equal(t, "-101.50", history[0].TrxnAmount.StringFixed(2))
	assert.Equal(t, "398.50", history[0].RunningBalance.StringFixed(2))

	events := f.notifier.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventMoneyReceived, events[0].Name)
	assert.Equal(t, "user.bob", events[0].Channel())
	assert.Equal(t, "100.00", events[0].Amount)
	assert.Equal(t, "150.00", events[0].NewBalance)
	assert.Equal(t, domain.EventMoneySent, events[1].Name)
	assert.Equal(t, "user.alice", events[1].Channel())
	assert.Equal(t, "398.50", events[1].NewBalance)
}

func TestWithdraw_MinimumBalanceViolationLeavesBalance(t *testing.T) {
	f := newLedgerFixture(t, services.WithMinBalance(domain.AccountTypeSavings, amount("100")))
	savings := f.open(alice, domain.AccountTypeSavings, "AED", "1000")

	_, err := f.ledger.Withdraw(f.ctx, alice, dto.WithdrawRequest{WalletKey: savings.Key, Amount: amount("950")})

	var minErr *apperrors.MinimumBalanceViolationError
	require.True(t, errors.As(err, &minErr))
	assert.Equal(t, savings.Key, minErr.AccountKey)
	assert.Equal(t, "100.00", minErr.MinBalance.StringFixed(2))
	assert.Equal(t, "1000.00", f.balance(savings.Key))
	assert.Equal(t, 0, f.stack.CountRows(t, sqlrepo.TableTransactions))
	assert.Equal(t, 0, f.stack.CountRows(t, sqlrepo.TableEntries))
}

func TestDepositThenWithdrawRestoresBalance(t *testing.T) {
	f := newLedgerFixture(t)
	savings := f.open(alice, domain.AccountTypeSavings, "AED", "200")
	initial, err := f.repos.AccountRepo.FindInitialAccount(f.ctx, alice, alice.UserKey, "AED")
	require.NoError(t, err)

	dep, err := f.ledger.Deposit(f.ctx, alice, dto.DepositRequest{WalletKey: savings.Key, Amount: amount("75.25")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dep.RefNumber, "TXN"))
	assert.Equal(t, "275.25", dep.NewBalance.StringFixed(2))

	wd, err := f.ledger.Withdraw(f.ctx, alice, dto.WithdrawRequest{WalletKey: savings.Key, Amount: amount("75.25")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(wd.RefNumber, "WD"))
	assert.Equal(t, "200.00", wd.NewBalance.StringFixed(2))
	assert.Equal(t, "200.00", f.balance(savings.Key))

	for _, ref := range []string{dep.RefNumber, wd.RefNumber} {
		txn, err := f.ledger.GetTransaction(f.ctx, alice, ref)
		require.NoError(t, err)
		require.Len(t, txn.Entries, 2)
		assertBalanced(t, txn.Entries)
		assert.True(t, txn.CommissionFee.IsZero())
	}

	// The initial account marks the system boundary and keeps no balance.
	assert.Equal(t, "0.00", f.balance(initial.Key))
	history, err := f.repos.BalanceRepo.ListBalanceHistory(f.ctx, alice, initial.Key, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = f.ledger.BalanceHistory(f.ctx, alice, savings.Key, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "-75.25", history[0].TrxnAmount.StringFixed(2))
	assert.Equal(t, "75.25", history[1].TrxnAmount.StringFixed(2))

	events := f.notifier.Events()
	require.Len(t, events, 1, "only the deposit notifies")
	assert.Equal(t, "user.alice", events[0].Channel())
}

func TestTransfer_SameWalletWritesNothing(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.open(alice, domain.AccountTypeWallet, "AED", "500")
	auditRows := f.stack.CountRows(t, "users_audit_trails")

	_, err := f.ledger.Transfer(f.ctx, alice, dto.TransferRequest{
		SenderWalletKey:   a.Key,
		ReceiverWalletKey: a.Key,
		Amount:            amount("10"),
	})
	assert.ErrorIs(t, err, apperrors.ErrSameWallet)

	assert.Equal(t, 0, f.stack.CountRows(t, sqlrepo.TableTransactions))
	assert.Equal(t, 0, f.stack.CountRows(t, sqlrepo.TableEntries))
	assert.Equal(t, auditRows, f.stack.CountRows(t, "users_audit_trails"))
	assert.Equal(t, "500.00", f.balance(a.Key))
	assert.Empty(t, f.notifier.Events())
}

func TestTopUp(t *testing.T) {
	f := newLedgerFixture(t, services.WithMinBalance(domain.AccountTypeSavings, amount("1000")))
	savings := f.open(alice, domain.AccountTypeSavings, "AED", "1500")
	wallet := f.open(alice, domain.AccountTypeWallet, "AED", "0")

	res, err := f.ledger.TopUp(f.ctx, alice, dto.TopUpRequest{
		WalletKey:        wallet.Key,
		SourceAccountKey: savings.Key,
		Amount:           amount("400"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.RefNumber, "TU"))
	assert.Equal(t, "1100.00", res.NewSourceBalance.StringFixed(2))
	assert.Equal(t, "400.00", res.NewTargetBalance.StringFixed(2))
	assert.Equal(t, "0.00", f.commissionBalance())

	_, err = f.ledger.TopUp(f.ctx, alice, dto.TopUpRequest{
		WalletKey:        wallet.Key,
		SourceAccountKey: savings.Key,
		Amount:           amount("200"),
	})
	assert.ErrorIs(t, err, apperrors.ErrMinimumBalance)
	assert.Equal(t, "1100.00", f.balance(savings.Key))
	assert.Empty(t, f.notifier.Events())
}

func TestLedger_RejectsIneligibleAccounts(t *testing.T) {
	f := newLedgerFixture(t)
	aliceWallet := f.open(alice, domain.AccountTypeWallet, "AED", "50")
	aliceSavings := f.open(alice, domain.AccountTypeSavings, "AED", "5000")
	bobWallet := f.open(bob, domain.AccountTypeWallet, "AED", "0")
	bobSavings := f.open(bob, domain.AccountTypeSavings, "AED", "0")
	bobDollars := f.open(bob, domain.AccountTypeWallet, "USD", "0")

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "deposit into a wallet",
			run: func() error {
				_, err := f.ledger.Deposit(f.ctx, alice, dto.DepositRequest{WalletKey: aliceWallet.Key, Amount: amount("1")})
				return err
			},
			want: apperrors.ErrInvalidAccountType,
		},
		{
			name: "deposit into someone else's savings",
			run: func() error {
				_, err := f.ledger.Deposit(f.ctx, alice, dto.DepositRequest{WalletKey: bobSavings.Key, Amount: amount("1")})
				return err
			},
			want: apperrors.ErrForbidden,
		},
		{
			name: "transfer from savings",
			run: func() error {
				_, err := f.ledger.Transfer(f.ctx, alice, dto.TransferRequest{
					SenderWalletKey: aliceSavings.Key, ReceiverWalletKey: bobWallet.Key, Amount: amount("1"),
				})
				return err
			},
			want: apperrors.ErrInvalidAccountType,
		},
		{
			name: "transfer across currencies",
			run: func() error {
				_, err := f.ledger.Transfer(f.ctx, alice, dto.TransferRequest{
					SenderWalletKey: aliceWallet.Key, ReceiverWalletKey: bobDollars.Key, Amount: amount("1"),
				})
				return err
			},
			want: apperrors.ErrCurrencyMismatch,
		},
		{
			name: "transfer more than the balance",
			run: func() error {
				_, err := f.ledger.Transfer(f.ctx, alice, dto.TransferRequest{
					SenderWalletKey: aliceWallet.Key, ReceiverWalletKey: bobWallet.Key, Amount: amount("50"),
				})
				return err
			},
			want: apperrors.ErrInsufficientFunds,
		},
		{
			name: "unknown wallet",
			run: func() error {
				_, err := f.ledger.Transfer(f.ctx, alice, dto.TransferRequest{
					SenderWalletKey: aliceWallet.Key, ReceiverWalletKey: "missing", Amount: amount("1"),
				})
				return err
			},
			want: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}

	_, err := f.wallets.DeactivateWallet(f.ctx, bob, bobWallet.Key)
	require.NoError(t, err)
	_, err = f.ledger.Transfer(f.ctx, alice, dto.TransferRequest{
		SenderWalletKey: aliceWallet.Key, ReceiverWalletKey: bobWallet.Key, Amount: amount("1"),
	})
	var inactive *apperrors.InactiveAccountError
	require.True(t, errors.As(err, &inactive))
	assert.Equal(t, bobWallet.Key, inactive.AccountKey)

	assert.Equal(t, 0, f.stack.CountRows(t, sqlrepo.TableTransactions))
	assert.Equal(t, "50.00", f.balance(aliceWallet.Key))
}

func TestLedger_ValidatesRequests(t *testing.T) {
	f := newLedgerFixture(t)

	tests := []struct {
		name string
		req  dto.DepositRequest
	}{
		{name: "missing wallet", req: dto.DepositRequest{Amount: amount("1")}},
		{name: "zero amount", req: dto.DepositRequest{WalletKey: "w", Amount: decimal.Zero}},
		{name: "negative amount", req: dto.DepositRequest{WalletKey: "w", Amount: amount("-5")}},
		{name: "three decimals", req: dto.DepositRequest{WalletKey: "w", Amount: amount("10.005")}},
		{name: "long description", req: dto.DepositRequest{WalletKey: "w", Amount: amount("1"), Description: strings.Repeat("x", 256)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Deposit(f.ctx, alice, tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestListTransactions_PagesNewestFirst(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.open(alice, domain.AccountTypeWallet, "AED", "1000")
	b := f.open(bob, domain.AccountTypeWallet, "AED", "0")

	var refs []string
	for _, amt := range []string{"10", "20", "30"} {
		res, err := f.ledger.Transfer(f.ctx, alice, dto.TransferRequest{
			SenderWalletKey: a.Key, ReceiverWalletKey: b.Key, Amount: amount(amt),
		})
		require.NoError(t, err)
		refs = append(refs, res.RefNumber)
	}

	page, next, err := f.ledger.ListTransactions(f.ctx, alice, a.Key, dto.ListTransactionsParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, refs[2], page[0].RefNumber)
	assert.Equal(t, refs[1], page[1].RefNumber)

	rest, next, err := f.ledger.ListTransactions(f.ctx, alice, a.Key, dto.ListTransactionsParams{Limit: 2, NextToken: *next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, next)
	assert.Equal(t, refs[0], rest[0].RefNumber)

	// The receiver sees the same transactions from the other side.
	received, _, err := f.ledger.ListTransactions(f.ctx, bob, b.Key, dto.ListTransactionsParams{})
	require.NoError(t, err)
	assert.Len(t, received, 3)

	_, _, err = f.ledger.ListTransactions(f.ctx, bob, a.Key, dto.ListTransactionsParams{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	history, err := f.ledger.BalanceHistory(f.ctx, bob, b.Key, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "60.00", history[0].RunningBalance.StringFixed(2))
}

func TestNotificationFailureKeepsPosting(t *testing.T) {
	f := newLedgerFixture(t)
	f.notifier.err = errors.New("redis down")
	savings := f.open(alice, domain.AccountTypeSavings, "AED", "0")

	res, err := f.ledger.Deposit(f.ctx, alice, dto.DepositRequest{WalletKey: savings.Key, Amount: amount("10")})
	require.NoError(t, err)
	assert.Equal(t, "10.00", res.NewBalance.StringFixed(2))
	assert.Len(t, f.notifier.Events(), 1)
	assert.Equal(t, 1, f.stack.CountRows(t, sqlrepo.TableTransactions))
}

func TestStaleBalanceUpdates_OneWriterWins(t *testing.T) {
	f := newLedgerFixture(t)
	wallet := f.open(alice, domain.AccountTypeWallet, "AED", "100")
	const writers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      []string
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := decimal.NewFromInt(int64(100 + i))
			_, err := f.repos.AccountRepo.UpdateBalance(f.ctx, alice, wallet.Key, next, wallet.Version)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins = append(wins, next.StringFixed(2))
			case errors.Is(err, apperrors.ErrConcurrencyConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i + 1)
	}
	wg.Wait()

	require.Len(t, wins, 1)
	assert.Equal(t, writers-1, conflicts)
	assert.Equal(t, wins[0], f.balance(wallet.Key))
}

func TestConcurrentTransfers_MatchSequentialResult(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.open(alice, domain.AccountTypeWallet, "AED", "1000")
	b := f.open(bob, domain.AccountTypeWallet, "AED", "0")
	const transfers = 5

	var wg sync.WaitGroup
	errs := make(chan error, transfers)
	for i := 0; i < transfers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Transfer(f.ctx, alice, dto.TransferRequest{
				SenderWalletKey: a.Key, ReceiverWalletKey: b.Key, Amount: amount("10"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, "949.25", f.balance(a.Key))
	assert.Equal(t, "50.00", f.balance(b.Key))
	assert.Equal(t, "0.75", f.commissionBalance())
	assert.Equal(t, transfers, f.stack.CountRows(t, sqlrepo.TableTransactions))
	assert.Equal(t, transfers*3, f.stack.CountRows(t, sqlrepo.TableEntries))
}

// commissionRacer bumps the commission account right after the posting has
// read it, as another committed transfer would.
type commissionRacer struct {
	portsrepo.AccountRepositoryFacade
	t *testing.T
}

func (r commissionRacer) FindCommissionAccount(ctx context.Context, actor domain.Actor, currency string) (*domain.Account, error) {
	a, err := r.AccountRepositoryFacade.FindCommissionAccount(ctx, actor, currency)
	if err != nil {
		return nil, err
	}
	_, err = r.AccountRepositoryFacade.UpdateBalance(ctx, actor, a.Key, a.Balance.Add(amount("5")), a.Version)
	require.NoError(r.t, err)
	return a, nil
}

type racingTxManager struct {
	portsrepo.TransactionManager
	t *testing.T
}

func (m racingTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) error {
	return m.TransactionManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		tx.Accounts = commissionRacer{AccountRepositoryFacade: tx.Accounts, t: m.t}
		return fn(ctx, tx)
	})
}

func TestTransfer_CommissionCreditIgnoresStaleVersion(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.open(alice, domain.AccountTypeWallet, "AED", "500")
	b := f.open(bob, domain.AccountTypeWallet, "AED", "0")

	repos := f.repos
	repos.TxManager = racingTxManager{TransactionManager: f.repos.TxManager, t: t}
	ledger := services.NewLedgerService(repos, services.WithNotifier(f.notifier))

	res, err := ledger.Transfer(f.ctx, alice, dto.TransferRequest{
		SenderWalletKey: a.Key, ReceiverWalletKey: b.Key, Amount: amount("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.50", res.CommissionFee.StringFixed(2))
	assert.Equal(t, "6.50", f.commissionBalance())
	assert.Equal(t, "398.50", f.balance(a.Key))

	commission, err := f.repos.AccountRepo.FindCommissionAccount(f.ctx, domain.SystemActor(), "AED")
	require.NoError(t, err)
	history, err := f.repos.BalanceRepo.ListBalanceHistory(f.ctx, domain.SystemActor(), commission.Key, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "5.00", history[0].PrevBalance.StringFixed(2))
	assert.Equal(t, "1.50", history[0].TrxnAmount.StringFixed(2))
	assert.Equal(t, "6.50", history[0].RunningBalance.StringFixed(2))
}
