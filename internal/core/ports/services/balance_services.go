package services

import (
	"context"
	"iter"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	"github.com/SscSPs/family_ledger_app/internal/utils/period"
	"github.com/shopspring/decimal"
)

// HoldingClassifier decides whether a unit held by an account is a holding
// position, i.e. whether the gain/loss splitter applies. The default treats
// every cryptocurrency or security unit as a holding, plus currency units
// whose currency differs from the book's reference currency.
type HoldingClassifier func(unit domain.UnitKey, referenceCurrency string) bool

// BalanceSvc computes point-in-time per-unit balances. Results depend only on
// the identifier, the as-of date and the set of bookings dated at or before
// it; recomputation is idempotent.
type BalanceSvc interface {
	// BalanceOf sums the account's qualifying bookings grouped by unit key.
	// An account with no qualifying bookings yields an empty map, not an error.
	BalanceOf(ctx context.Context, accountBookID, accountID string, asOf time.Time) (map[domain.UnitKey]decimal.Decimal, error)

	// GroupBalanceOf recursively merges the balances of all direct children
	// (accounts and child groups) by per-unit addition.
	GroupBalanceOf(ctx context.Context, accountBookID, groupID string, asOf time.Time) (map[domain.UnitKey]decimal.Decimal, error)

	// ResidualOf sums the book's balance-sheet root groups per unit. A
	// balanced book yields zero for every unit; anything else flags stored
	// data that violates the double-entry invariant.
	ResidualOf(ctx context.Context, accountBookID string, asOf time.Time) (map[domain.UnitKey]decimal.Decimal, error)
}

// HoldingSvc separates a holding position's quantity/cost-basis ledger from
// its unrealized market movement.
type HoldingSvc interface {
	// SplitHolding values one (account, unit) position as of a date. When no
	// market price is available for a nonzero position it degrades to a
	// cost-basis-only result rather than failing or silently defaulting; the
	// caller decides whether that is acceptable.
	SplitHolding(ctx context.Context, book domain.AccountBook, accountID string, unit domain.UnitKey, asOf time.Time) (*domain.HoldingValuation, error)
}

// BreakdownSvc builds hierarchical snapshots and time series over them.
type BreakdownSvc interface {
	// Breakdown returns the node tree rooted at nodeID (a group or an
	// account) with per-node aggregated values in the book's reference
	// currency, as of the given date.
	Breakdown(ctx context.Context, accountBookID, nodeID string, asOf time.Time) (*domain.BreakdownNode, error)

	// Timeline yields one point per period boundary between from and to
	// inclusive, each computed via Breakdown at that boundary. The sequence
	// is lazy, finite and restartable.
	Timeline(ctx context.Context, accountBookID, nodeID string, from, to time.Time, granularity period.Granularity) iter.Seq2[domain.TimelinePoint, error]
}
