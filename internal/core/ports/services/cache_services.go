package services

import (
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceCacheSvc memoizes computed aggregation outputs keyed by the strings
// built in utils/cachekeys: per-unit balances under the account/group keys,
// holding gain/loss splits under the holding keys. Entries carry no date
// dimension: they represent "current" results, so historical requests bypass
// the cache entirely.
//
// Implementations must be safe for concurrent use, with linearizable per-key
// reads and writes. The cache is an injected capability, never a process-wide
// singleton, so tests can substitute a fresh instance per case.
type BalanceCacheSvc interface {
	// Get returns the cached per-unit balance for key, if present.
	Get(key string) (map[domain.UnitKey]decimal.Decimal, bool)

	// Put stores the per-unit balance for key, replacing any previous entry.
	Put(key string, balances map[domain.UnitKey]decimal.Decimal)

	// GetHolding returns the cached per-unit holding splits for key, if present.
	GetHolding(key string) (map[domain.UnitKey]domain.HoldingValuation, bool)

	// PutHolding stores the per-unit holding splits for key, replacing any
	// previous entry.
	PutHolding(key string, splits map[domain.UnitKey]domain.HoldingValuation)

	// Invalidate drops a single entry.
	Invalidate(key string)

	// InvalidateAccountBook drops every entry belonging to one account book.
	// Used on structural changes such as group re-parenting or gain/loss
	// routing changes.
	InvalidateAccountBook(accountBookID string)
}
