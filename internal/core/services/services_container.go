package services

import (
	portsrepo "github.com/SscSPs/wallet_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/wallet_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/wallet_ledger_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, publisher portssvc.EventPublisher) *portssvc.ServiceContainer {
	// Create the container structure first
	container := &portssvc.ServiceContainer{}

	// Risk screening runs ahead of the ledger engine
	container.Risk = NewRiskService(RiskConfig{
		TransferLimit:            cfg.TransferLimit,
		LargeWithdrawalThreshold: cfg.LargeWithdrawalThreshold,
		MaxTransfersPerMinute:    cfg.MaxTransfersPerMinute,
	})

	options := []LedgerEngineOption{
		WithAmountPrecision(cfg.AmountPrecision),
		WithMaxAmountDigits(cfg.MaxAmountDigits),
		WithNotifyTimeout(cfg.NotifyTimeout),
		WithRiskScreen(container.Risk),
	}
	if repos.Archive != nil {
		options = append(options, WithTransactionArchive(repos.Archive))
	}
	if publisher != nil {
		options = append(options, WithEventPublisher(publisher))
	}
	container.Ledger = NewLedgerEngine(repos.LedgerStore, options...)
	container.Query = NewQueryService(repos.LedgerStore)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.LedgerEngineSvcFacade = (*ledgerEngine)(nil)
	_ portssvc.QuerySvcFacade        = (*queryService)(nil)
	_ portssvc.RiskScreenSvc         = (*riskService)(nil)
)
