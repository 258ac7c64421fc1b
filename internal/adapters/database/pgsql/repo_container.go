package pgsql

import (
	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the pgsql-backed repositories.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountBookRepo := newPgxAccountBookRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountBookRepo: accountBookRepo,
		HierarchyRepo:   accountBookRepo,
		LedgerRepo:      ledgerRepo,
	}
}

// NewPriceLookup wires the pgsql-backed price lookup.
func NewPriceLookup(dbPool *pgxpool.Pool) portssvc.PriceLookupSvc {
	return newPgxPriceRepository(dbPool)
}
