package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxPriceRepository serves the price-lookup capability from the unit_prices
// table: the latest stored price at or before the requested date wins.
type PgxPriceRepository struct {
	BaseRepository
}

func newPgxPriceRepository(pool *pgxpool.Pool) portssvc.PriceLookupSvc {
	return &PgxPriceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxPriceRepository implements portssvc.PriceLookupSvc
var _ portssvc.PriceLookupSvc = (*PgxPriceRepository)(nil)

// PriceOf returns the value of one unit in the reference currency as of a
// date, or apperrors.ErrMissingPrice when no price is stored.
func (r *PgxPriceRepository) PriceOf(ctx context.Context, unit domain.UnitKey, asOf time.Time) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := r.Pool.QueryRow(ctx, `
		SELECT price
		FROM unit_prices
		WHERE unit_kind = $1 AND unit_code = $2 AND price_date <= $3
		ORDER BY price_date DESC
		LIMIT 1
	`, unit.Kind, unit.Code, asOf).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: %s as of %s", apperrors.ErrMissingPrice, unit, asOf.Format(time.DateOnly))
		}
		return decimal.Zero, storeError(err)
	}
	return price, nil
}
