package dto

import (
	"sort"

	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// UnitAmountResponse is one per-unit balance line.
type UnitAmountResponse struct {
	UnitKind string          `json:"unitKind"`
	UnitCode string          `json:"unitCode"`
	Amount   decimal.Decimal `json:"amount"`
}

// HoldingResponse is one holding gain/loss split.
type HoldingResponse struct {
	UnitKind           string          `json:"unitKind"`
	UnitCode           string          `json:"unitCode"`
	Quantity           decimal.Decimal `json:"quantity"`
	CostBasis          decimal.Decimal `json:"costBasis"`
	MarketValue        decimal.Decimal `json:"marketValue"`
	UnrealizedGainLoss decimal.Decimal `json:"unrealizedGainLoss"`
	Detail             string          `json:"detail"`
}

// BreakdownNodeResponse mirrors domain.BreakdownNode with JSON-friendly
// balance lines (a struct-keyed map does not marshal).
type BreakdownNodeResponse struct {
	ID       string                  `json:"id"`
	Name     string                  `json:"name"`
	Kind     string                  `json:"kind"`
	Value    decimal.Decimal         `json:"value"`
	Balances []UnitAmountResponse    `json:"balances,omitempty"`
	Holdings []HoldingResponse       `json:"holdings,omitempty"`
	GainLoss decimal.Decimal         `json:"gainLoss"`
	Children []BreakdownNodeResponse `json:"children,omitempty"`
}

// BreakdownResponse is the envelope for a single as-of breakdown. All node
// values are denominated in the account book's reference currency.
type BreakdownResponse struct {
	AsOf string                `json:"asOf"`
	Root BreakdownNodeResponse `json:"root"`
}

// TimelinePointResponse is one period boundary of a timeline.
type TimelinePointResponse struct {
	PeriodEnd string          `json:"periodEnd"`
	Value     decimal.Decimal `json:"value"`
}

// TimelineResponse is the envelope for a timeline request.
type TimelineResponse struct {
	From        string                  `json:"from"`
	To          string                  `json:"to"`
	Granularity string                  `json:"granularity"`
	Points      []TimelinePointResponse `json:"points"`
}

// BalanceResponse is the envelope for a single account or group balance.
type BalanceResponse struct {
	AsOf     string               `json:"asOf"`
	Balances []UnitAmountResponse `json:"balances"`
}

// ToBreakdownNodeResponse converts a domain breakdown tree for transport.
func ToBreakdownNodeResponse(n *domain.BreakdownNode) BreakdownNodeResponse {
	resp := BreakdownNodeResponse{
		ID:       n.ID,
		Name:     n.Name,
		Kind:     string(n.Kind),
		Value:    n.Value,
		GainLoss: n.GainLoss,
		Balances: ToUnitAmountResponses(n.Balances),
	}
	for _, h := range n.Holdings {
		resp.Holdings = append(resp.Holdings, HoldingResponse{
			UnitKind:           string(h.Unit.Kind),
			UnitCode:           h.Unit.Code,
			Quantity:           h.Quantity,
			CostBasis:          h.CostBasis,
			MarketValue:        h.MarketValue,
			UnrealizedGainLoss: h.UnrealizedGainLoss,
			Detail:             string(h.Detail),
		})
	}
	for _, child := range n.Children {
		resp.Children = append(resp.Children, ToBreakdownNodeResponse(child))
	}
	return resp
}

// ToUnitAmountResponses flattens a per-unit balance map into stable, sorted lines.
func ToUnitAmountResponses(balances map[domain.UnitKey]decimal.Decimal) []UnitAmountResponse {
	if len(balances) == 0 {
		return nil
	}
	out := make([]UnitAmountResponse, 0, len(balances))
	for unit, amt := range balances {
		out = append(out, UnitAmountResponse{
			UnitKind: string(unit.Kind),
			UnitCode: unit.Code,
			Amount:   amt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitKind != out[j].UnitKind {
			return out[i].UnitKind < out[j].UnitKind
		}
		return out[i].UnitCode < out[j].UnitCode
	})
	return out
}
