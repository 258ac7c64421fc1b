// Package accounting holds the pure per-unit booking arithmetic shared by
// services and repositories.
package accounting

import (
	"fmt"

	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SumByUnit groups bookings by resolved UnitKey and sums their signed amounts.
// An unresolvable unit aborts the sum: silently dropping the booking would
// misstate the balance.
func SumByUnit(bookings []domain.Booking) (map[domain.UnitKey]decimal.Decimal, error) {
	sums := make(map[domain.UnitKey]decimal.Decimal)
	for _, bk := range bookings {
		key, err := bk.UnitKey()
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", bk.BookingID, err)
		}
		sums[key] = sums[key].Add(bk.Amount)
	}
	return sums, nil
}

// MergeInto adds every per-unit amount of src into dst and returns dst.
func MergeInto(dst, src map[domain.UnitKey]decimal.Decimal) map[domain.UnitKey]decimal.Decimal {
	for key, amt := range src {
		dst[key] = dst[key].Add(amt)
	}
	return dst
}

// ValidateTransactionBalance checks the double-entry invariant at write time:
// within each unit-key partition of a transaction's bookings, the signed
// amounts must sum to zero.
func ValidateTransactionBalance(bookings []domain.Booking) error {
	if len(bookings) < 2 {
		return fmt.Errorf("transaction must have at least two bookings")
	}
	sums, err := SumByUnit(bookings)
	if err != nil {
		return err
	}
	for key, sum := range sums {
		if !sum.IsZero() {
			return fmt.Errorf("bookings do not balance to zero for unit %s: sum is %s", key, sum.String())
		}
	}
	return nil
}

// Residual sums per-unit balances across the balance-sheet groups
// (asset/liability/equity). On a balanced book it is zero for every unit; a
// nonzero residual is the caller's signal that the underlying data violates
// the double-entry invariant. The read side tolerates such data and simply
// reports it.
func Residual(groupBalances map[domain.AccountType]map[domain.UnitKey]decimal.Decimal) map[domain.UnitKey]decimal.Decimal {
	residual := make(map[domain.UnitKey]decimal.Decimal)
	for _, t := range []domain.AccountType{domain.Asset, domain.Liability, domain.Equity} {
		MergeInto(residual, groupBalances[t])
	}
	return residual
}
