package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBookingRequest is one leg of a new transaction.
type CreateBookingRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Date        time.Time       `json:"date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	UnitKind    string          `json:"unitKind" binding:"required,oneof=CURRENCY CRYPTOCURRENCY SECURITY"`
	UnitCode    string          `json:"unitCode" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// CreateTransactionRequest creates a transaction with its bookings. The
// bookings must sum to zero within each unit-key partition.
type CreateTransactionRequest struct {
	Description string                 `json:"description"`
	Bookings    []CreateBookingRequest `json:"bookings" binding:"required,min=2,dive"`
}
