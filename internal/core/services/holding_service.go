package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/family_ledger_app/internal/utils/cachekeys"
	"github.com/SscSPs/family_ledger_app/internal/utils/period"
	"github.com/shopspring/decimal"
)

// DefaultHoldingClassifier treats every cryptocurrency or security unit as a
// holding position, plus currency units whose currency differs from the
// account book's reference currency (FX exposure).
func DefaultHoldingClassifier(unit domain.UnitKey, referenceCurrency string) bool {
	switch unit.Kind {
	case domain.UnitCryptocurrency, domain.UnitSecurity:
		return true
	case domain.UnitCurrency:
		return unit.Code != referenceCurrency
	default:
		return false
	}
}

// holdingService implements the HoldingSvc interface.
type holdingService struct {
	BaseService
	ledgerRepo   portsrepo.LedgerReader
	priceLookup  portssvc.PriceLookupSvc
	cache        portssvc.BalanceCacheSvc
	now          func() time.Time
	priceTimeout time.Duration
}

// HoldingServiceOption is a functional option for configuring the holding service.
type HoldingServiceOption func(*holdingService)

// WithPriceLookupTimeout bounds each market price lookup. A lookup that runs
// past the bound degrades the split to cost-basis-only instead of failing.
func WithPriceLookupTimeout(d time.Duration) HoldingServiceOption {
	return func(s *holdingService) {
		s.priceTimeout = d
	}
}

// WithHoldingCache memoizes current-date splits under the holding gain/loss
// cache keys. Without it every SplitHolding call recomputes from the ledger.
func WithHoldingCache(cache portssvc.BalanceCacheSvc) HoldingServiceOption {
	return func(s *holdingService) {
		s.cache = cache
	}
}

// WithHoldingClock overrides the current-time source, used by tests to pin
// what counts as the current date for caching.
func WithHoldingClock(now func() time.Time) HoldingServiceOption {
	return func(s *holdingService) {
		s.now = now
	}
}

// NewHoldingService creates a new holding gain/loss service.
func NewHoldingService(ledgerRepo portsrepo.LedgerReader, priceLookup portssvc.PriceLookupSvc, options ...HoldingServiceOption) portssvc.HoldingSvc {
	svc := &holdingService{
		ledgerRepo:  ledgerRepo,
		priceLookup: priceLookup,
		now:         time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure holdingService implements the HoldingSvc interface
var _ portssvc.HoldingSvc = (*holdingService)(nil)

// SplitHolding separates one (account, unit) position into its quantity and
// cost-basis ledger and its unrealized market movement as of a date.
//
// The cost basis moves only with actual acquisitions and disposals (signed
// quantity times booking-time price), never with price fluctuation. When no
// market price is available for a nonzero position the result degrades to
// cost-basis-only instead of failing or silently defaulting; the presentation
// layer decides what to do with a partial result.
func (s *holdingService) SplitHolding(ctx context.Context, book domain.AccountBook, accountID string, unit domain.UnitKey, asOf time.Time) (*domain.HoldingValuation, error) {
	asOf = period.Truncate(asOf)
	if cached := s.cachedSplit(book.AccountBookID, accountID, unit, asOf); cached != nil {
		return cached, nil
	}
	bookings, err := s.ledgerRepo.FetchBookings(ctx, book.AccountBookID, portsrepo.BookingFilter{
		AccountID: &accountID,
		To:        &asOf,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch bookings for holding split",
			slog.String("account_book_id", book.AccountBookID),
			slog.String("account_id", accountID),
			slog.String("unit", unit.String()))
		return nil, err
	}

	quantity := decimal.Zero
	costBasis := decimal.Zero
	for _, bk := range bookings {
		key, err := bk.UnitKey()
		if err != nil {
			return nil, err
		}
		if key != unit {
			continue
		}
		quantity = quantity.Add(bk.Amount)
		costBasis = costBasis.Add(bk.Amount.Mul(bk.Price))
	}

	valuation := &domain.HoldingValuation{
		Unit:      unit,
		Quantity:  quantity,
		CostBasis: costBasis,
		Detail:    domain.DetailFull,
	}

	if quantity.IsZero() {
		// A closed position needs no market price: market value is zero and
		// the residual cost basis is the whole unrealized movement.
		valuation.MarketValue = decimal.Zero
		valuation.UnrealizedGainLoss = valuation.MarketValue.Sub(costBasis)
		s.memoizeSplit(book.AccountBookID, accountID, valuation, asOf)
		return valuation, nil
	}

	priceCtx := ctx
	if s.priceTimeout > 0 {
		var cancel context.CancelFunc
		priceCtx, cancel = context.WithTimeout(ctx, s.priceTimeout)
		defer cancel()
	}
	price, err := s.priceLookup.PriceOf(priceCtx, unit, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrMissingPrice) || errors.Is(err, context.DeadlineExceeded) {
			s.LogDebug(ctx, "No market price for holding, degrading to cost basis",
				slog.String("unit", unit.String()),
				slog.String("as_of", asOf.Format(time.DateOnly)))
			valuation.Detail = domain.DetailCostBasisOnly
			return valuation, nil
		}
		return nil, err
	}

	valuation.MarketValue = quantity.Mul(price)
	valuation.UnrealizedGainLoss = valuation.MarketValue.Sub(costBasis)
	s.memoizeSplit(book.AccountBookID, accountID, valuation, asOf)
	return valuation, nil
}

// cachedSplit returns the memoized split for one unit of an account, or nil.
// Only current-date requests consult the cache; historical dates always
// recompute.
func (s *holdingService) cachedSplit(accountBookID, accountID string, unit domain.UnitKey, asOf time.Time) *domain.HoldingValuation {
	if s.cache == nil || !asOf.Equal(period.Truncate(s.now())) {
		return nil
	}
	splits, ok := s.cache.GetHolding(cachekeys.HoldingGainLoss(accountBookID, accountID))
	if !ok {
		return nil
	}
	if v, ok := splits[unit]; ok {
		return &v
	}
	return nil
}

// memoizeSplit stores a current-date split under the account's holding key,
// merging with any splits already cached for the account's other units.
// Cost-basis-only results are not stored, so a price source recovering is
// picked up on the next request rather than after the next invalidation.
func (s *holdingService) memoizeSplit(accountBookID, accountID string, valuation *domain.HoldingValuation, asOf time.Time) {
	if s.cache == nil || valuation.Detail != domain.DetailFull || !asOf.Equal(period.Truncate(s.now())) {
		return
	}
	key := cachekeys.HoldingGainLoss(accountBookID, accountID)
	splits, ok := s.cache.GetHolding(key)
	if !ok {
		splits = make(map[domain.UnitKey]domain.HoldingValuation, 1)
	}
	splits[valuation.Unit] = *valuation
	s.cache.PutHolding(key, splits)
}
