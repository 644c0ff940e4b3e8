package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	portssvc "github.com/shadwattai/miniwallet/internal/core/ports/services"
	"github.com/shadwattai/miniwallet/internal/dto"
	"github.com/shadwattai/miniwallet/internal/utils"
	"github.com/shadwattai/miniwallet/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// DefaultCommissionRate is charged on transfers unless WithCommissionRate overrides it.
var DefaultCommissionRate = decimal.RequireFromString("0.015")

const (
	defaultHistoryLimit      = 20
	defaultBalanceLimit      = 50
	resultSuccess            = "success"
	transferCommissionSuffix = " (commission)"
)

// LedgerObserver receives posting outcomes. *metrics.Metrics satisfies it.
type LedgerObserver interface {
	ObserveLedger(operation, result string, elapsed time.Duration)
	AddVolume(operation, currency string, amount float64)
}

// ledgerService implements the LedgerSvcFacade interface
type ledgerService struct {
	BaseService
	txManager       portsrepo.TransactionManager
	accountRepo     portsrepo.AccountReader
	transactionRepo portsrepo.TransactionReader
	entryRepo       portsrepo.EntryReader
	balanceRepo     portsrepo.BalanceHistoryReader
	notifier        portsrepo.Notifier
	observer        LedgerObserver
	validate        *validator.Validate
	commissionRate  decimal.Decimal
	minBalance      map[domain.AccountType]decimal.Decimal
	now             func() time.Time
}

// LedgerOption is a functional option for configuring the ledger service
type LedgerOption func(*ledgerService)

// WithNotifier sets where post-commit money events are delivered.
func WithNotifier(n portsrepo.Notifier) LedgerOption {
	return func(s *ledgerService) {
		s.notifier = n
	}
}

// WithLedgerObserver sets the metrics sink for postings.
func WithLedgerObserver(o LedgerObserver) LedgerOption {
	return func(s *ledgerService) {
		s.observer = o
	}
}

// WithCommissionRate overrides DefaultCommissionRate.
func WithCommissionRate(rate decimal.Decimal) LedgerOption {
	return func(s *ledgerService) {
		s.commissionRate = rate
	}
}

// WithMinBalance sets the balance an account of type t must keep after a debit.
func WithMinBalance(t domain.AccountType, amount decimal.Decimal) LedgerOption {
	return func(s *ledgerService) {
		s.minBalance[t] = amount
	}
}

// WithLedgerClock replaces time.Now for reference numbers.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new ledger service with the provided options
func NewLedgerService(repos portsrepo.RepositoryProvider, options ...LedgerOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		txManager:       repos.TxManager,
		accountRepo:     repos.AccountRepo,
		transactionRepo: repos.TransactionRepo,
		entryRepo:       repos.EntryRepo,
		balanceRepo:     repos.BalanceRepo,
		validate:        dto.NewValidator(),
		commissionRate:  DefaultCommissionRate,
		minBalance:      map[domain.AccountType]decimal.Decimal{},
		now:             time.Now,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure ledgerService implements the LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// posting is one money movement from sender to receiver.
// A positive fee is debited from the sender on top of amount and credited to commission.
type posting struct {
	kind        domain.TransactionType
	sender      *domain.Account
	receiver    *domain.Account
	commission  *domain.Account
	amount      decimal.Decimal
	fee         decimal.Decimal
	description string
}

type postingResult struct {
	txn      *domain.LedgerTransaction
	balances map[string]decimal.Decimal // New balance by account key
	events   []domain.MoneyEvent
	currency string
}

func (s *ledgerService) Deposit(ctx context.Context, actor domain.Actor, req dto.DepositRequest) (*domain.BalanceResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	res, err := s.execute(ctx, actor, domain.TransactionDeposit, func(ctx context.Context, tx portsrepo.TxRepositories) (*postingResult, error) {
		savings, err := s.ownedAccount(ctx, tx.Accounts, actor, req.WalletKey, true, domain.AccountTypeSavings)
		if err != nil {
			return nil, err
		}
		initial, err := tx.Accounts.FindInitialAccount(ctx, actor, actor.UserKey, savings.Currency)
		if err != nil {
			return nil, err
		}
		return s.post(ctx, tx, actor, posting{
			kind:        domain.TransactionDeposit,
			sender:      initial,
			receiver:    savings,
			amount:      req.Amount,
			description: req.Description,
		})
	})
	if err != nil {
		return nil, err
	}

	return &domain.BalanceResult{
		RefNumber:  res.txn.RefNumber,
		NewBalance: res.balances[req.WalletKey],
	}, nil
}

func (s *ledgerService) Withdraw(ctx context.Context, actor domain.Actor, req dto.WithdrawRequest) (*domain.BalanceResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	res, err := s.execute(ctx, actor, domain.TransactionWithdrawal, func(ctx context.Context, tx portsrepo.TxRepositories) (*postingResult, error) {
		savings, err := s.ownedAccount(ctx, tx.Accounts, actor, req.WalletKey, true, domain.AccountTypeSavings)
		if err != nil {
			return nil, err
		}
		initial, err := tx.Accounts.FindInitialAccount(ctx, actor, actor.UserKey, savings.Currency)
		if err != nil {
			return nil, err
		}
		return s.post(ctx, tx, actor, posting{
			kind:        domain.TransactionWithdrawal,
			sender:      savings,
			receiver:    initial,
			amount:      req.Amount,
			description: req.Description,
		})
	})
	if err != nil {
		return nil, err
	}

	return &domain.BalanceResult{
		RefNumber:  res.txn.RefNumber,
		NewBalance: res.balances[req.WalletKey],
	}, nil
}

func (s *ledgerService) TopUp(ctx context.Context, actor domain.Actor, req dto.TopUpRequest) (*domain.TopUpResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.WalletKey == req.SourceAccountKey {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrSameWallet, req.WalletKey)
	}

	res, err := s.execute(ctx, actor, domain.TransactionTopUp, func(ctx context.Context, tx portsrepo.TxRepositories) (*postingResult, error) {
		source, err := s.ownedAccount(ctx, tx.Accounts, actor, req.SourceAccountKey, true, domain.AccountTypeSavings)
		if err != nil {
			return nil, err
		}
		wallet, err := s.ownedAccount(ctx, tx.Accounts, actor, req.WalletKey, true, domain.AccountTypeWallet)
		if err != nil {
			return nil, err
		}
		return s.post(ctx, tx, actor, posting{
			kind:        domain.TransactionTopUp,
			sender:      source,
			receiver:    wallet,
			amount:      req.Amount,
			description: req.Description,
		})
	})
	if err != nil {
		return nil, err
	}

	return &domain.TopUpResult{
		RefNumber:        res.txn.RefNumber,
		NewSourceBalance: res.balances[req.SourceAccountKey],
		NewTargetBalance: res.balances[req.WalletKey],
	}, nil
}

func (s *ledgerService) Transfer(ctx context.Context, actor domain.Actor, req dto.TransferRequest) (*domain.TransferResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.SenderWalletKey == req.ReceiverWalletKey {
		return nil, fmt.Errorf("%w: wallet %s", apperrors.ErrSameWallet, req.SenderWalletKey)
	}

	fee := accounting.CalculateCommission(req.Amount, s.commissionRate)
	res, err := s.execute(ctx, actor, domain.TransactionTransfer, func(ctx context.Context, tx portsrepo.TxRepositories) (*postingResult, error) {
		sender, err := s.ownedAccount(ctx, tx.Accounts, actor, req.SenderWalletKey, true, domain.AccountTypeWallet)
		if err != nil {
			return nil, err
		}
		receiver, err := tx.Accounts.FindAccountByKey(ctx, actor, req.ReceiverWalletKey)
		if err != nil {
			return nil, err
		}
		if err := checkUsable(receiver, domain.AccountTypeWallet); err != nil {
			return nil, err
		}

		p := posting{
			kind:        domain.TransactionTransfer,
			sender:      sender,
			receiver:    receiver,
			amount:      req.Amount,
			fee:         fee,
			description: req.Description,
		}
		if fee.IsPositive() {
			if p.commission, err = tx.Accounts.FindCommissionAccount(ctx, actor, sender.Currency); err != nil {
				return nil, fmt.Errorf("resolving commission account for %s: %w", sender.Currency, err)
			}
		}
		return s.post(ctx, tx, actor, p)
	})
	if err != nil {
		return nil, err
	}

	return &domain.TransferResult{
		RefNumber:          res.txn.RefNumber,
		CommissionFee:      fee,
		NewSenderBalance:   res.balances[req.SenderWalletKey],
		NewReceiverBalance: res.balances[req.ReceiverWalletKey],
	}, nil
}

// execute runs one posting in a storage transaction and handles everything
// that happens after it commits or fails.
func (s *ledgerService) execute(ctx context.Context, actor domain.Actor, kind domain.TransactionType,
	fn func(ctx context.Context, tx portsrepo.TxRepositories) (*postingResult, error)) (*postingResult, error) {
	start := time.Now()

	var res *postingResult
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		res, err = fn(ctx, tx)
		return err
	})

	result := resultSuccess
	if err != nil {
		result = apperrors.Kind(err)
	}
	if s.observer != nil {
		s.observer.ObserveLedger(string(kind), result, time.Since(start))
	}

	if err != nil {
		s.LogError(ctx, err, "Ledger posting failed",
			slog.String("type", string(kind)),
			slog.String("user_key", actor.UserKey),
			slog.String("result", result))
		return nil, err
	}

	if s.observer != nil {
		s.observer.AddVolume(string(kind), res.currency, res.txn.Amount.InexactFloat64())
	}
	s.LogInfo(ctx, "Ledger posting committed",
		slog.String("ref_number", res.txn.RefNumber),
		slog.String("type", string(kind)),
		slog.String("amount", utils.FormatMoney(res.txn.Amount)),
		slog.String("commission_fee", utils.FormatMoney(res.txn.CommissionFee)),
		slog.String("user_key", actor.UserKey))

	s.publish(ctx, res.events)
	return res, nil
}

// post writes the header, the balanced entries and the balance updates of p.
// It must run inside a storage transaction.
func (s *ledgerService) post(ctx context.Context, tx portsrepo.TxRepositories, actor domain.Actor, p posting) (*postingResult, error) {
	if p.sender.Currency != p.receiver.Currency {
		return nil, &apperrors.CurrencyMismatchError{Source: p.sender.Currency, Target: p.receiver.Currency}
	}
	if p.commission != nil && p.commission.Currency != p.sender.Currency {
		return nil, &apperrors.CurrencyMismatchError{Source: p.sender.Currency, Target: p.commission.Currency}
	}

	debit := p.amount.Add(p.fee)
	if err := s.checkFunds(p.sender, debit); err != nil {
		return nil, err
	}

	entries := []domain.LedgerEntry{
		domain.NewCreditEntry(p.sender.Key, debit, p.description),
		domain.NewDebitEntry(p.receiver.Key, p.amount, p.description),
	}
	if p.fee.IsPositive() {
		entries = append(entries, domain.NewDebitEntry(p.commission.Key, p.fee, p.description+transferCommissionSuffix))
	}
	if err := accounting.ValidateEntries(entries); err != nil {
		return nil, fmt.Errorf("%s posting: %w", p.kind, err)
	}

	ref, err := utils.GenerateRefNumber(p.kind.RefPrefix(), s.now())
	if err != nil {
		return nil, fmt.Errorf("generating reference number: %w", err)
	}
	txn, err := tx.Transactions.SaveTransaction(ctx, actor, domain.LedgerTransaction{
		RefNumber:       ref,
		SenderAcctKey:   p.sender.Key,
		ReceiverAcctKey: p.receiver.Key,
		Description:     p.description,
		Type:            p.kind,
		Amount:          p.amount,
		CommissionFee:   p.fee,
		Status:          domain.StatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("saving %s header: %w", p.kind, err)
	}

	saved, err := tx.Entries.SaveEntries(ctx, actor, txn.Key, entries)
	if err != nil {
		return nil, fmt.Errorf("saving %s entries: %w", p.kind, err)
	}
	txn.Entries = saved

	deltas := accounting.BalanceDeltas(saved)
	res := &postingResult{
		txn:      txn,
		balances: make(map[string]decimal.Decimal, len(deltas)),
		currency: p.sender.Currency,
	}
	for _, account := range []*domain.Account{p.sender, p.receiver, p.commission} {
		if account == nil || !account.TracksBalance() {
			continue
		}
		delta, ok := deltas[account.Key]
		if !ok {
			continue
		}
		prev, next, err := s.applyDelta(ctx, tx, actor, account, delta)
		if err != nil {
			return nil, err
		}
		if err := tx.Balances.SaveBalanceHistory(ctx, actor, domain.BalanceHistory{
			AcctKey:        account.Key,
			TrxnKey:        txn.Key,
			PrevBalance:    prev,
			TrxnAmount:     delta,
			RunningBalance: next,
		}); err != nil {
			return nil, fmt.Errorf("saving balance history for %s: %w", account.Key, err)
		}
		res.balances[account.Key] = next
	}

	res.events = s.events(p, txn.RefNumber, res.balances)
	return res, nil
}

// applyDelta moves account's balance by delta and returns the balance before
// and after. User accounts are written with a compare-and-swap on the version
// read when the posting was resolved. The commission account only ever
// receives, so it is credited in place.
func (s *ledgerService) applyDelta(ctx context.Context, tx portsrepo.TxRepositories, actor domain.Actor,
	account *domain.Account, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if account.AccountType == domain.AccountTypeCommission {
		credited, err := tx.Accounts.CreditBalance(ctx, actor, account.Key, delta)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return credited.Balance.Sub(delta), credited.Balance, nil
	}

	next := account.Balance.Add(delta)
	if _, err := tx.Accounts.UpdateBalance(ctx, actor, account.Key, next, account.Version); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return account.Balance, next, nil
}

// events builds the notifications a committed posting emits.
func (s *ledgerService) events(p posting, ref string, balances map[string]decimal.Decimal) []domain.MoneyEvent {
	amount := utils.FormatWithPrecision(p.amount, utils.MoneyPrecision)
	switch p.kind {
	case domain.TransactionDeposit:
		return []domain.MoneyEvent{{
			Name:       domain.EventMoneyReceived,
			UserKey:    p.receiver.UserKey,
			RefNumber:  ref,
			ReceiverID: p.receiver.UserKey,
			SenderID:   p.sender.UserKey,
			Amount:     amount,
			NewBalance: utils.FormatMoney(balances[p.receiver.Key]),
		}}
	case domain.TransactionTransfer:
		return []domain.MoneyEvent{
			{
				Name:       domain.EventMoneyReceived,
				UserKey:    p.receiver.UserKey,
				RefNumber:  ref,
				ReceiverID: p.receiver.UserKey,
				SenderID:   p.sender.UserKey,
				Amount:     amount,
				NewBalance: utils.FormatMoney(balances[p.receiver.Key]),
			},
			{
				Name:       domain.EventMoneySent,
				UserKey:    p.sender.UserKey,
				RefNumber:  ref,
				ReceiverID: p.receiver.UserKey,
				SenderID:   p.sender.UserKey,
				Amount:     amount,
				NewBalance: utils.FormatMoney(balances[p.sender.Key]),
			},
		}
	default:
		return nil
	}
}

// publish delivers events. A failed delivery is logged only: the posting has committed.
func (s *ledgerService) publish(ctx context.Context, events []domain.MoneyEvent) {
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.LogError(ctx, err, "Failed to deliver money notification",
				slog.String("event", event.Name),
				slog.String("ref_number", event.RefNumber),
				slog.String("channel", event.Channel()))
		}
	}
}

func (s *ledgerService) checkFunds(account *domain.Account, debit decimal.Decimal) error {
	if !account.TracksBalance() {
		return nil
	}
	if account.Balance.LessThan(debit) {
		return &apperrors.InsufficientFundsError{AccountKey: account.Key, Balance: account.Balance, Required: debit}
	}
	if minimum, ok := s.minBalance[account.AccountType]; ok && account.Balance.Sub(debit).LessThan(minimum) {
		return &apperrors.MinimumBalanceViolationError{
			AccountKey: account.Key,
			Balance:    account.Balance,
			Debit:      debit,
			MinBalance: minimum,
		}
	}
	return nil
}

// ownedAccount loads an account the actor must own. With usable set it must
// also be active and of one of the allowed types.
func (s *ledgerService) ownedAccount(ctx context.Context, repo portsrepo.AccountReader, actor domain.Actor, key string,
	usable bool, allowed ...domain.AccountType) (*domain.Account, error) {
	account, err := repo.FindAccountByKey(ctx, actor, key)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizeOwner(ctx, actor, account); err != nil {
		return nil, err
	}
	if usable {
		if err := checkUsable(account, allowed...); err != nil {
			return nil, err
		}
	}
	return account, nil
}

func checkUsable(account *domain.Account, allowed ...domain.AccountType) error {
	if !account.IsActive {
		return &apperrors.InactiveAccountError{AccountKey: account.Key}
	}
	for _, t := range allowed {
		if account.AccountType == t {
			return nil
		}
	}
	want := make([]string, len(allowed))
	for i, t := range allowed {
		want[i] = string(t)
	}
	return &apperrors.InvalidAccountTypeError{AccountKey: account.Key, Got: string(account.AccountType), Want: want}
}

func (s *ledgerService) GetTransaction(ctx context.Context, actor domain.Actor, refNumber string) (*domain.LedgerTransaction, error) {
	txn, err := s.transactionRepo.FindTransactionByRef(ctx, actor, refNumber)
	if err != nil {
		return nil, err
	}

	if !actor.IsSystem() {
		allowed := false
		for _, key := range []string{txn.SenderAcctKey, txn.ReceiverAcctKey} {
			account, err := s.accountRepo.FindAccountByKey(ctx, actor, key)
			if err != nil {
				return nil, err
			}
			if account.UserKey == actor.UserKey {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrForbidden, refNumber)
		}
	}

	entries, err := s.entryRepo.FindEntriesByTransaction(ctx, actor, txn.Key)
	if err != nil {
		s.LogError(ctx, err, "Failed to load transaction entries", slog.String("ref_number", refNumber))
		return nil, err
	}
	txn.Entries = entries
	return txn, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, actor domain.Actor, walletKey string, params dto.ListTransactionsParams) ([]domain.LedgerTransaction, *string, error) {
	wallet, err := s.ownedAccount(ctx, s.accountRepo, actor, walletKey, false)
	if err != nil {
		return nil, nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var token *string
	if params.NextToken != "" {
		token = &params.NextToken
	}
	return s.transactionRepo.ListTransactionsByAccount(ctx, actor, wallet.Key, limit, token)
}

func (s *ledgerService) BalanceHistory(ctx context.Context, actor domain.Actor, walletKey string, limit int) ([]domain.BalanceHistory, error) {
	wallet, err := s.ownedAccount(ctx, s.accountRepo, actor, walletKey, false)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultBalanceLimit
	}
	return s.balanceRepo.ListBalanceHistory(ctx, actor, wallet.Key, limit)
}
