package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoldingDetail is the tri-state outcome of a holding gain/loss split.
type HoldingDetail string

const (
	// DetailFull means quantity, cost basis, market value and gain/loss are all known.
	DetailFull HoldingDetail = "FULL"
	// DetailCostBasisOnly means no market price was available: quantity and
	// cost basis are reliable, market value and gain/loss are not populated.
	DetailCostBasisOnly HoldingDetail = "COST_BASIS_ONLY"
)

// HoldingValuation is the result of splitting one holding position into its
// quantity/cost-basis ledger and its unrealized market movement.
type HoldingValuation struct {
	Unit               UnitKey         `json:"unit"`
	Quantity           decimal.Decimal `json:"quantity"`
	CostBasis          decimal.Decimal `json:"costBasis"`
	MarketValue        decimal.Decimal `json:"marketValue"`
	UnrealizedGainLoss decimal.Decimal `json:"unrealizedGainLoss"`
	Detail             HoldingDetail   `json:"detail"`
}

// BreakdownNodeKind tells whether a breakdown node stands for a group or an account.
type BreakdownNodeKind string

const (
	NodeGroup   BreakdownNodeKind = "GROUP"
	NodeAccount BreakdownNodeKind = "ACCOUNT"
)

// BreakdownNode is one node of a hierarchical point-in-time snapshot. Value is
// the node's aggregated worth in the book's reference currency, including all
// children. Holding accounts additionally carry their gain/loss splits;
// configured gain/loss groups carry routed derived postings in GainLoss.
type BreakdownNode struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Kind     BreakdownNodeKind `json:"kind"`
	Value    decimal.Decimal   `json:"value"`
	Balances map[UnitKey]decimal.Decimal `json:"balances,omitempty"`
	Holdings []HoldingValuation          `json:"holdings,omitempty"`
	// GainLoss is the sum of unrealized gain/loss routed to this node. It is
	// derived and never persisted; it appears only on gain/loss groups.
	GainLoss decimal.Decimal `json:"gainLoss"`
	Children []*BreakdownNode `json:"children,omitempty"`
}

// TimelinePoint is one period boundary of a timeline: the breakdown's
// aggregated value at that period's as-of date.
type TimelinePoint struct {
	PeriodEnd time.Time       `json:"periodEnd"`
	Value     decimal.Decimal `json:"value"`
}
