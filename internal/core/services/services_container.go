package services

import (
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	portssvc "github.com/shadwattai/miniwallet/internal/core/ports/services"
	"github.com/shadwattai/miniwallet/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, notifier portsrepo.Notifier, observer LedgerObserver) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	ledgerOpts := []LedgerOption{
		WithNotifier(notifier),
		WithCommissionRate(cfg.CommissionRate),
		WithMinBalance(domain.AccountTypeSavings, cfg.MinBalanceSavings),
		WithMinBalance(domain.AccountTypeWallet, cfg.MinBalanceWallet),
	}
	if observer != nil {
		ledgerOpts = append(ledgerOpts, WithLedgerObserver(observer))
	}
	container.Ledger = NewLedgerService(repos, ledgerOpts...)

	container.Wallet = NewWalletService(repos,
		WithDefaultCurrency(cfg.DefaultCurrency),
		WithSupportedCurrencies(cfg.SupportedCurrencies),
	)
	container.Audit = NewAuditService(repos.AuditRepo)
	container.Records = NewRecordService(repos.RecordRepo, cfg.IsAdmin)

	return container
}
