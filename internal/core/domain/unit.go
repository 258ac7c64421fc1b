package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
)

// UnitKind discriminates what kind of asset a booking is denominated in.
// It is a closed set: the aggregator and the holding splitter both switch
// exhaustively on it, so a new kind cannot be added without updating them.
type UnitKind string

const (
	UnitCurrency       UnitKind = "CURRENCY"
	UnitCryptocurrency UnitKind = "CRYPTOCURRENCY"
	UnitSecurity       UnitKind = "SECURITY"
)

// UnitKey is the canonical, comparable identity of a unit. Two bookings are
// fungible quantities of the same asset iff their UnitKeys are equal.
// It is derived, never persisted.
type UnitKey struct {
	Kind UnitKind `json:"kind"`
	Code string   `json:"code"` // currency code, crypto symbol or security symbol
}

func (k UnitKey) String() string {
	return string(k.Kind) + ":" + k.Code
}

// ResolveUnitKey normalizes a booking's unit descriptor into its UnitKey.
// Codes and symbols are trimmed and uppercased before comparison.
func ResolveUnitKey(kind UnitKind, code string) (UnitKey, error) {
	switch kind {
	case UnitCurrency, UnitCryptocurrency, UnitSecurity:
	default:
		return UnitKey{}, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedUnit, kind)
	}
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return UnitKey{}, fmt.Errorf("%w: empty code for kind %s", apperrors.ErrValidation, kind)
	}
	return UnitKey{Kind: kind, Code: normalized}, nil
}
