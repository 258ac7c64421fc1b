package services

import (
	"time"

	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
)

// ContainerConfig carries the tunables the services need at wiring time.
// Zero values keep the per-service defaults.
type ContainerConfig struct {
	StoreRetryMax      uint64
	PriceLookupTimeout time.Duration
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, priceLookup portssvc.PriceLookupSvc, cache portssvc.BalanceCacheSvc, cfg ContainerConfig) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	balanceOptions := []BalanceServiceOption{WithBalanceCache(cache)}
	if cfg.StoreRetryMax > 0 {
		balanceOptions = append(balanceOptions, WithStoreRetries(cfg.StoreRetryMax))
	}
	container.Balance = NewBalanceService(
		repos.LedgerRepo,
		repos.HierarchyRepo,
		balanceOptions...,
	)

	holdingOptions := []HoldingServiceOption{WithHoldingCache(cache)}
	if cfg.PriceLookupTimeout > 0 {
		holdingOptions = append(holdingOptions, WithPriceLookupTimeout(cfg.PriceLookupTimeout))
	}
	container.Holding = NewHoldingService(repos.LedgerRepo, priceLookup, holdingOptions...)

	container.Breakdown = NewBreakdownService(
		repos.AccountBookRepo,
		repos.HierarchyRepo,
		repos.LedgerRepo,
		container.Balance,
		container.Holding,
		priceLookup,
	)

	container.Transactor = NewTransactorService(
		repos.LedgerRepo,
		repos.HierarchyRepo,
		WithTransactorCache(cache),
	)

	return container
}
