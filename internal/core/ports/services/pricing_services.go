package services

import (
	"context"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PriceLookupSvc is the external price-lookup capability. PriceOf returns the
// value of one unit in the account book's reference currency as of a date, or
// apperrors.ErrMissingPrice when no price is known. Calls are cancellable and
// timeout-bounded via ctx.
type PriceLookupSvc interface {
	PriceOf(ctx context.Context, unit domain.UnitKey, asOf time.Time) (decimal.Decimal, error)
}
