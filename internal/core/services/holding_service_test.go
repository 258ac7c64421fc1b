package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/adapters/cache"
	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	"github.com/SscSPs/family_ledger_app/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HoldingServiceTestSuite struct {
	suite.Suite
	ledgerRepo  *MockLedgerRepository
	priceLookup *MockPriceLookup
	ctx         context.Context
	book        domain.AccountBook
}

func (s *HoldingServiceTestSuite) SetupTest() {
	s.ledgerRepo = new(MockLedgerRepository)
	s.priceLookup = new(MockPriceLookup)
	s.ctx = context.Background()
	s.book = domain.AccountBook{
		AccountBookID:     testBookID,
		Name:              "Family",
		ReferenceCurrency: "USD",
	}
}

func securityBooking(accountID, quantity, price string, date time.Time) domain.Booking {
	return domain.Booking{
		BookingID: accountID + "-" + quantity,
		AccountID: accountID,
		Date:      date,
		Amount:    mustDecimal(quantity),
		UnitKind:  domain.UnitSecurity,
		UnitCode:  "ACME",
		Price:     mustDecimal(price),
	}
}

func (s *HoldingServiceTestSuite) TestSplitHolding_FullDetail() {
	asOf := utcDate(2026, time.March, 15)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.March, 1)),
		}, nil)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).
		Return(mustDecimal("60"), nil)

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup)
	valuation, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, asOf)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.DetailFull, valuation.Detail)
	assert.True(s.T(), valuation.Quantity.Equal(mustDecimal("2")))
	assert.True(s.T(), valuation.CostBasis.Equal(mustDecimal("100")))
	assert.True(s.T(), valuation.MarketValue.Equal(mustDecimal("120")))
	assert.True(s.T(), valuation.UnrealizedGainLoss.Equal(mustDecimal("20")))
	// The split always satisfies market value minus cost basis.
	assert.True(s.T(), valuation.MarketValue.Sub(valuation.CostBasis).Equal(valuation.UnrealizedGainLoss))
}

func (s *HoldingServiceTestSuite) TestSplitHolding_CostBasisMovesOnlyWithTrades() {
	// A partial disposal at a higher price shrinks the position; the cost
	// basis follows the signed quantity times the booking-time price.
	asOf := utcDate(2026, time.June, 1)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "10", "50", utcDate(2026, time.January, 10)),
			securityBooking("broker", "-4", "70", utcDate(2026, time.April, 2)),
		}, nil)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).
		Return(mustDecimal("80"), nil)

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup)
	valuation, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, asOf)

	require.NoError(s.T(), err)
	assert.True(s.T(), valuation.Quantity.Equal(mustDecimal("6")))
	assert.True(s.T(), valuation.CostBasis.Equal(mustDecimal("220")))   // 500 - 280
	assert.True(s.T(), valuation.MarketValue.Equal(mustDecimal("480"))) // 6 * 80
	assert.True(s.T(), valuation.UnrealizedGainLoss.Equal(mustDecimal("260")))
}

func (s *HoldingServiceTestSuite) TestSplitHolding_IgnoresOtherUnits() {
	asOf := utcDate(2026, time.March, 15)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.March, 1)),
			ledgerBooking("broker", "-100", domain.UnitCurrency, "USD", utcDate(2026, time.March, 1)),
		}, nil)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).
		Return(mustDecimal("60"), nil)

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup)
	valuation, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, asOf)

	require.NoError(s.T(), err)
	assert.True(s.T(), valuation.Quantity.Equal(mustDecimal("2")))
	assert.True(s.T(), valuation.CostBasis.Equal(mustDecimal("100")))
}

func (s *HoldingServiceTestSuite) TestSplitHolding_MissingPriceDegradesToCostBasis() {
	asOf := utcDate(2026, time.March, 15)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.March, 1)),
		}, nil)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).
		Return(decimal.Zero, apperrors.ErrMissingPrice)

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup)
	valuation, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, asOf)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.DetailCostBasisOnly, valuation.Detail)
	assert.True(s.T(), valuation.Quantity.Equal(mustDecimal("2")))
	assert.True(s.T(), valuation.CostBasis.Equal(mustDecimal("100")))
	assert.True(s.T(), valuation.MarketValue.IsZero())
	assert.True(s.T(), valuation.UnrealizedGainLoss.IsZero())
}

func (s *HoldingServiceTestSuite) TestSplitHolding_PriceTimeoutDegradesToCostBasis() {
	asOf := utcDate(2026, time.March, 15)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.March, 1)),
		}, nil)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).
		Return(decimal.Zero, context.DeadlineExceeded)

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup)
	valuation, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, asOf)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.DetailCostBasisOnly, valuation.Detail)
}

func (s *HoldingServiceTestSuite) TestSplitHolding_UnexpectedPriceErrorSurfaces() {
	asOf := utcDate(2026, time.March, 15)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.March, 1)),
		}, nil)
	priceErr := errors.New("price feed exploded")
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).
		Return(decimal.Zero, priceErr)

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup)
	_, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, asOf)

	assert.ErrorIs(s.T(), err, priceErr)
}

func (s *HoldingServiceTestSuite) TestSplitHolding_ClosedPositionNeedsNoPrice() {
	asOf := utcDate(2026, time.June, 1)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.January, 10)),
			securityBooking("broker", "-2", "70", utcDate(2026, time.April, 2)),
		}, nil)

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup)
	valuation, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, asOf)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.DetailFull, valuation.Detail)
	assert.True(s.T(), valuation.Quantity.IsZero())
	assert.True(s.T(), valuation.CostBasis.Equal(mustDecimal("-40")))
	assert.True(s.T(), valuation.MarketValue.IsZero())
	assert.True(s.T(), valuation.UnrealizedGainLoss.Equal(mustDecimal("40")))
	s.priceLookup.AssertNotCalled(s.T(), "PriceOf", mock.Anything, mock.Anything, mock.Anything)
}

func (s *HoldingServiceTestSuite) TestSplitHolding_CurrentDateServedFromCache() {
	today := utcDate(2026, time.March, 15)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.March, 1)),
		}, nil).Once()
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, today).
		Return(mustDecimal("60"), nil).Once()

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup,
		services.WithHoldingCache(cache.NewMemoryBalanceCache()),
		services.WithHoldingClock(fixedClock(today.Add(10*time.Hour))))

	first, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, today)
	require.NoError(s.T(), err)
	second, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, today)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), *first, *second)
	assert.True(s.T(), second.UnrealizedGainLoss.Equal(mustDecimal("20")))
	s.ledgerRepo.AssertNumberOfCalls(s.T(), "FetchBookings", 1)
	s.priceLookup.AssertNumberOfCalls(s.T(), "PriceOf", 1)
}

func (s *HoldingServiceTestSuite) TestSplitHolding_HistoricalDateBypassesCache() {
	today := utcDate(2026, time.March, 15)
	asOf := utcDate(2026, time.February, 1)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.January, 10)),
		}, nil)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).
		Return(mustDecimal("55"), nil)

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup,
		services.WithHoldingCache(cache.NewMemoryBalanceCache()),
		services.WithHoldingClock(fixedClock(today)))

	_, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, asOf)
	require.NoError(s.T(), err)
	_, err = svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, asOf)
	require.NoError(s.T(), err)

	s.ledgerRepo.AssertNumberOfCalls(s.T(), "FetchBookings", 2)
}

func (s *HoldingServiceTestSuite) TestSplitHolding_CostBasisOnlyNotCached() {
	// A degraded split must not be pinned: once the price source recovers the
	// next request should see the full valuation without waiting for a write
	// to invalidate the account.
	today := utcDate(2026, time.March, 15)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.March, 1)),
		}, nil)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, today).
		Return(decimal.Zero, apperrors.ErrMissingPrice).Once()
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, today).
		Return(mustDecimal("60"), nil).Once()

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup,
		services.WithHoldingCache(cache.NewMemoryBalanceCache()),
		services.WithHoldingClock(fixedClock(today)))

	degraded, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, today)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.DetailCostBasisOnly, degraded.Detail)

	recovered, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, today)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.DetailFull, recovered.Detail)
	assert.True(s.T(), recovered.UnrealizedGainLoss.Equal(mustDecimal("20")))
}

func (s *HoldingServiceTestSuite) TestSplitHolding_CacheEntriesKeyedPerUnit() {
	// One account can hold several units; each unit's split lives under the
	// same account key without clobbering the others.
	today := utcDate(2026, time.March, 15)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return([]domain.Booking{
			securityBooking("broker", "2", "50", utcDate(2026, time.March, 1)),
			{
				BookingID: "broker-btc",
				AccountID: "broker",
				Date:      utcDate(2026, time.March, 2),
				Amount:    mustDecimal("0.5"),
				UnitKind:  domain.UnitCryptocurrency,
				UnitCode:  "BTC",
				Price:     mustDecimal("40000"),
			},
		}, nil).Twice()
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, today).
		Return(mustDecimal("60"), nil).Once()
	s.priceLookup.On("PriceOf", mock.Anything, btcKey, today).
		Return(mustDecimal("50000"), nil).Once()

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup,
		services.WithHoldingCache(cache.NewMemoryBalanceCache()),
		services.WithHoldingClock(fixedClock(today)))

	_, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, today)
	require.NoError(s.T(), err)
	_, err = svc.SplitHolding(s.ctx, s.book, "broker", btcKey, today)
	require.NoError(s.T(), err)

	acme, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, today)
	require.NoError(s.T(), err)
	btc, err := svc.SplitHolding(s.ctx, s.book, "broker", btcKey, today)
	require.NoError(s.T(), err)

	assert.True(s.T(), acme.UnrealizedGainLoss.Equal(mustDecimal("20")))
	assert.True(s.T(), btc.UnrealizedGainLoss.Equal(mustDecimal("5000")))
	s.ledgerRepo.AssertNumberOfCalls(s.T(), "FetchBookings", 2)
}

func (s *HoldingServiceTestSuite) TestSplitHolding_StoreErrorSurfaces() {
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).
		Return(nil, apperrors.ErrStoreTimeout)

	svc := services.NewHoldingService(s.ledgerRepo, s.priceLookup)
	_, err := svc.SplitHolding(s.ctx, s.book, "broker", acmeKey, utcDate(2026, time.March, 15))

	assert.ErrorIs(s.T(), err, apperrors.ErrStoreTimeout)
}

func TestHoldingService(t *testing.T) {
	suite.Run(t, new(HoldingServiceTestSuite))
}

func TestDefaultHoldingClassifier(t *testing.T) {
	assert.True(t, services.DefaultHoldingClassifier(acmeKey, "USD"))
	assert.True(t, services.DefaultHoldingClassifier(btcKey, "USD"))
	assert.True(t, services.DefaultHoldingClassifier(eurKey, "USD"))
	assert.False(t, services.DefaultHoldingClassifier(usdKey, "USD"))
}
