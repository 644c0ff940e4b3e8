package services

import (
	"context"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/dto"
)

// WalletReaderSvc defines read operations for a user's accounts
type WalletReaderSvc interface {
	// ListWallets returns the actor's wallet and savings accounts.
	ListWallets(ctx context.Context, actor domain.Actor) ([]domain.Account, error)

	// GetWallet returns one account owned by the actor.
	GetWallet(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error)
}

// WalletWriterSvc defines write operations for a user's accounts
type WalletWriterSvc interface {
	CreateWallet(ctx context.Context, actor domain.Actor, req dto.CreateWalletRequest) (*domain.Account, error)
	DeactivateWallet(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error)
	ReactivateWallet(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error)
	SetDefaultWallet(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error)

	// Onboard returns the actor's initial account and default wallet, creating
	// whichever is missing. Calling it again is harmless.
	Onboard(ctx context.Context, actor domain.Actor, req dto.OnboardRequest) (*domain.Account, *domain.Account, error)
}

// SystemAccountsSvc bootstraps accounts owned by the system user.
type SystemAccountsSvc interface {
	// EnsureSystemAccounts creates one commission account per currency when missing.
	EnsureSystemAccounts(ctx context.Context, currencies []string) error
}

// WalletSvcFacade combines all wallet-related service interfaces
type WalletSvcFacade interface {
	WalletReaderSvc
	WalletWriterSvc
	SystemAccountsSvc
}
