package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	portssvc "github.com/shadwattai/miniwallet/internal/core/ports/services"
	"github.com/shadwattai/miniwallet/internal/dto"
	"github.com/shadwattai/miniwallet/internal/utils"
	"github.com/shopspring/decimal"
)

const (
	accountNumberDigits      = 8
	maxAccountNumberAttempts = 5
	defaultWalletName        = "Main Wallet"
)

// Account number prefixes by account type.
var accountNumberPrefixes = map[domain.AccountType]string{
	domain.AccountTypeWallet:     "WLT",
	domain.AccountTypeSavings:    "WLT",
	domain.AccountTypeInitial:    "INI",
	domain.AccountTypeCommission: "COM",
}

// walletService implements the WalletSvcFacade interface
type walletService struct {
	BaseService
	txManager           portsrepo.TransactionManager
	accountRepo         portsrepo.AccountRepositoryFacade
	defaultCurrency     string
	supportedCurrencies []string
}

// WalletOption is a functional option for configuring the wallet service
type WalletOption func(*walletService)

// WithDefaultCurrency sets the currency used when onboarding without one.
func WithDefaultCurrency(currency string) WalletOption {
	return func(s *walletService) {
		s.defaultCurrency = strings.ToUpper(currency)
	}
}

// WithSupportedCurrencies limits the currencies accounts may be opened in.
// An empty list accepts any three-letter code.
func WithSupportedCurrencies(currencies []string) WalletOption {
	return func(s *walletService) {
		s.supportedCurrencies = currencies
	}
}

// NewWalletService creates a new wallet service with the provided options
func NewWalletService(repos portsrepo.RepositoryProvider, options ...WalletOption) portssvc.WalletSvcFacade {
	svc := &walletService{
		txManager:       repos.TxManager,
		accountRepo:     repos.AccountRepo,
		defaultCurrency: "AED",
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure walletService implements the WalletSvcFacade interface
var _ portssvc.WalletSvcFacade = (*walletService)(nil)

func (s *walletService) CreateWallet(ctx context.Context, actor domain.Actor, req dto.CreateWalletRequest) (*domain.Account, error) {
	if req.AccountType != domain.AccountTypeWallet && req.AccountType != domain.AccountTypeSavings {
		return nil, fmt.Errorf("%w: account type must be wallet or savings, got %q", apperrors.ErrValidation, req.AccountType)
	}
	currency, err := s.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.AccountName)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}

	var created *domain.Account
	err = s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if req.IsDefault {
			if err := s.clearDefaults(ctx, tx.Accounts, actor, ""); err != nil {
				return err
			}
		}
		var err error
		created, err = s.createAccount(ctx, tx.Accounts, actor, domain.Account{
			UserKey:     actor.UserKey,
			AccountName: name,
			AccountType: req.AccountType,
			Currency:    currency,
			Balance:     decimal.Zero,
			IsActive:    true,
			IsDefault:   req.IsDefault,
		})
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create wallet",
			slog.String("user_key", actor.UserKey),
			slog.String("account_type", string(req.AccountType)))
		return nil, err
	}

	s.LogInfo(ctx, "Wallet created",
		slog.String("account_key", created.Key),
		slog.String("account_number", created.AccountNumber),
		slog.String("user_key", actor.UserKey))
	return created, nil
}

// createAccount assigns a fresh account number, retrying when it collides.
func (s *walletService) createAccount(ctx context.Context, repo portsrepo.AccountRepositoryFacade, actor domain.Actor, account domain.Account) (*domain.Account, error) {
	prefix := accountNumberPrefixes[account.AccountType]
	var lastErr error
	for attempt := 0; attempt < maxAccountNumberAttempts; attempt++ {
		number, err := utils.GenerateAccountNumber(prefix, accountNumberDigits)
		if err != nil {
			return nil, fmt.Errorf("generating account number: %w", err)
		}
		account.AccountNumber = number
		saved, err := repo.SaveAccount(ctx, actor, account)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicate) {
			return nil, err
		}
		s.LogDebug(ctx, "Account number collision, retrying", slog.String("account_number", number))
		lastErr = err
	}
	return nil, fmt.Errorf("no free account number after %d attempts: %w", maxAccountNumberAttempts, lastErr)
}

func (s *walletService) clearDefaults(ctx context.Context, repo portsrepo.AccountRepositoryFacade, actor domain.Actor, exceptKey string) error {
	accounts, err := repo.ListAccountsByUser(ctx, actor, actor.UserKey)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if !a.IsDefault || a.Key == exceptKey {
			continue
		}
		if _, err := repo.SetDefault(ctx, actor, a.Key, false, a.Version); err != nil {
			return fmt.Errorf("clearing default on %s: %w", a.Key, err)
		}
	}
	return nil
}

func (s *walletService) currency(requested string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(requested))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if len(currency) != 3 {
		return "", fmt.Errorf("%w: currency must be a three-letter code, got %q", apperrors.ErrValidation, requested)
	}
	if len(s.supportedCurrencies) == 0 {
		return currency, nil
	}
	for _, c := range s.supportedCurrencies {
		if c == currency {
			return currency, nil
		}
	}
	return "", fmt.Errorf("%w: currency %s is not supported", apperrors.ErrValidation, currency)
}

// ListWallets hides the initial and commission bookkeeping accounts.
func (s *walletService) ListWallets(ctx context.Context, actor domain.Actor) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccountsByUser(ctx, actor, actor.UserKey)
	if err != nil {
		s.LogError(ctx, err, "Failed to list wallets", slog.String("user_key", actor.UserKey))
		return nil, err
	}
	wallets := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		if !a.IsSystem() {
			wallets = append(wallets, a)
		}
	}
	return wallets, nil
}

func (s *walletService) GetWallet(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByKey(ctx, actor, key)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizeOwner(ctx, actor, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *walletService) DeactivateWallet(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error) {
	return s.setActive(ctx, actor, key, false)
}

func (s *walletService) ReactivateWallet(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error) {
	return s.setActive(ctx, actor, key, true)
}

func (s *walletService) setActive(ctx context.Context, actor domain.Actor, key string, active bool) (*domain.Account, error) {
	var updated *domain.Account
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		account, err := s.userWallet(ctx, tx.Accounts, actor, key)
		if err != nil {
			return err
		}
		if account.IsActive == active {
			updated = account
			return nil
		}
		if _, err := tx.Accounts.SetActive(ctx, actor, key, active, account.Version); err != nil {
			return err
		}
		updated, err = tx.Accounts.FindAccountByKey(ctx, actor, key)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to change wallet status",
			slog.String("account_key", key),
			slog.Bool("active", active))
		return nil, err
	}
	return updated, nil
}

func (s *walletService) SetDefaultWallet(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error) {
	var updated *domain.Account
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		account, err := s.userWallet(ctx, tx.Accounts, actor, key)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return &apperrors.InactiveAccountError{AccountKey: key}
		}
		if err := s.clearDefaults(ctx, tx.Accounts, actor, key); err != nil {
			return err
		}
		if account.IsDefault {
			updated = account
			return nil
		}
		if _, err := tx.Accounts.SetDefault(ctx, actor, key, true, account.Version); err != nil {
			return err
		}
		updated, err = tx.Accounts.FindAccountByKey(ctx, actor, key)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to set default wallet", slog.String("account_key", key))
		return nil, err
	}
	return updated, nil
}

// userWallet loads a wallet or savings account owned by the actor.
func (s *walletService) userWallet(ctx context.Context, repo portsrepo.AccountReader, actor domain.Actor, key string) (*domain.Account, error) {
	account, err := repo.FindAccountByKey(ctx, actor, key)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizeOwner(ctx, actor, account); err != nil {
		return nil, err
	}
	if account.IsSystem() {
		return nil, &apperrors.InvalidAccountTypeError{
			AccountKey: key,
			Got:        string(account.AccountType),
			Want:       []string{string(domain.AccountTypeWallet), string(domain.AccountTypeSavings)},
		}
	}
	return account, nil
}

func (s *walletService) Onboard(ctx context.Context, actor domain.Actor, req dto.OnboardRequest) (*domain.Account, *domain.Account, error) {
	currency, err := s.currency(req.Currency)
	if err != nil {
		return nil, nil, err
	}

	var initial, wallet *domain.Account
	err = s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		initial, err = tx.Accounts.FindInitialAccount(ctx, actor, actor.UserKey, currency)
		if errors.Is(err, apperrors.ErrNotFound) {
			initial, err = s.createAccount(ctx, tx.Accounts, actor, domain.Account{
				UserKey:     actor.UserKey,
				AccountName: "Initial " + currency,
				AccountType: domain.AccountTypeInitial,
				Currency:    currency,
				Balance:     decimal.Zero,
				IsActive:    true,
			})
		}
		if err != nil {
			return err
		}

		accounts, err := tx.Accounts.ListAccountsByUser(ctx, actor, actor.UserKey)
		if err != nil {
			return err
		}
		hasDefault := false
		for i := range accounts {
			a := accounts[i]
			hasDefault = hasDefault || a.IsDefault
			if a.AccountType != domain.AccountTypeWallet || a.Currency != currency {
				continue
			}
			if wallet == nil || (a.IsDefault && !wallet.IsDefault) {
				wallet = &a
			}
		}
		if wallet != nil {
			return nil
		}
		wallet, err = s.createAccount(ctx, tx.Accounts, actor, domain.Account{
			UserKey:     actor.UserKey,
			AccountName: defaultWalletName,
			AccountType: domain.AccountTypeWallet,
			Currency:    currency,
			Balance:     decimal.Zero,
			IsActive:    true,
			IsDefault:   !hasDefault,
		})
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to onboard user", slog.String("user_key", actor.UserKey))
		return nil, nil, err
	}

	s.LogInfo(ctx, "User onboarded",
		slog.String("user_key", actor.UserKey),
		slog.String("currency", currency),
		slog.String("wallet_key", wallet.Key))
	return initial, wallet, nil
}

func (s *walletService) EnsureSystemAccounts(ctx context.Context, currencies []string) error {
	actor := domain.SystemActor()
	for _, c := range currencies {
		currency := strings.ToUpper(c)
		err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
			_, err := tx.Accounts.FindCommissionAccount(ctx, actor, currency)
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			created, err := s.createAccount(ctx, tx.Accounts, actor, domain.Account{
				UserKey:     domain.SystemUserKey,
				AccountName: "Commission " + currency,
				AccountType: domain.AccountTypeCommission,
				Currency:    currency,
				Balance:     decimal.Zero,
				IsActive:    true,
			})
			if err != nil {
				return err
			}
			s.LogInfo(ctx, "Commission account created",
				slog.String("account_key", created.Key),
				slog.String("currency", currency))
			return nil
		})
		if err != nil {
			return fmt.Errorf("ensuring commission account for %s: %w", currency, err)
		}
	}
	return nil
}
