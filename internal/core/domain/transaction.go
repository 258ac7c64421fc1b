package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a named, dated economic event composed of one or more Bookings.
type Transaction struct {
	TransactionID string  `json:"transactionID"` // Primary Key (e.g., UUID)
	AccountBookID string  `json:"accountBookID"` // FK -> account_books (Not Null)
	Description   string  `json:"description"`   // Nullable user description
	AuditFields
	Bookings []Booking `json:"bookings,omitempty"`
}

// Booking is one leg of a Transaction, affecting one account on one date.
//
// Amount is signed and denominated in the booking's own unit: a money amount
// for CURRENCY units, a quantity for CRYPTOCURRENCY and SECURITY units.
// Price is the booking-time price of one unit in the book's reference
// currency; it is zero for same-currency bookings and drives the cost basis
// of holdings (cost basis moves only with acquisitions/disposals, never with
// market fluctuation).
type Booking struct {
	BookingID     string          `json:"bookingID"`     // Primary Key (e.g., UUID)
	TransactionID string          `json:"transactionID"` // FK -> transactions (Not Null)
	AccountID     string          `json:"accountID"`     // FK -> accounts (Not Null)
	Date          time.Time       `json:"date"`          // Date the leg takes effect
	Amount        decimal.Decimal `json:"amount"`        // Signed
	UnitKind      UnitKind        `json:"unitKind"`
	UnitCode      string          `json:"unitCode"` // currency code / crypto symbol / security symbol
	Price         decimal.Decimal `json:"price"`    // Booking-time price in reference currency
	Description   string          `json:"description"` // Nullable per-leg note
	AuditFields
}

// UnitKey resolves the booking's unit descriptor.
func (b Booking) UnitKey() (UnitKey, error) {
	return ResolveUnitKey(b.UnitKind, b.UnitCode)
}

// IsSplit reports whether the transaction needs the expanded (split)
// presentation: more than two bookings, more than one unit key, more than one
// date, or any per-leg description. This drives presentation only, never
// balance math.
func (t Transaction) IsSplit() bool {
	if len(t.Bookings) > 2 {
		return true
	}
	units := make(map[UnitKey]struct{}, len(t.Bookings))
	dates := make(map[time.Time]struct{}, len(t.Bookings))
	for _, bk := range t.Bookings {
		if bk.Description != "" {
			return true
		}
		if key, err := bk.UnitKey(); err == nil {
			units[key] = struct{}{}
		}
		dates[bk.Date] = struct{}{}
	}
	return len(units) > 1 || len(dates) > 1
}
