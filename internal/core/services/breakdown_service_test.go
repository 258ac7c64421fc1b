package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/family_ledger_app/internal/core/services"
	"github.com/SscSPs/family_ledger_app/internal/utils/period"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BreakdownServiceTestSuite struct {
	suite.Suite
	bookRepo      *MockAccountBookRepository
	hierarchyRepo *MockHierarchyRepository
	ledgerRepo    *MockLedgerRepository
	priceLookup   *MockPriceLookup
	ctx           context.Context
	book          *domain.AccountBook
}

func (s *BreakdownServiceTestSuite) SetupTest() {
	s.bookRepo = new(MockAccountBookRepository)
	s.hierarchyRepo = new(MockHierarchyRepository)
	s.ledgerRepo = new(MockLedgerRepository)
	s.priceLookup = new(MockPriceLookup)
	s.ctx = context.Background()
	s.book = &domain.AccountBook{
		AccountBookID:     testBookID,
		Name:              "Family",
		ReferenceCurrency: "USD",
		GainLoss: domain.GainLossRouting{
			SecurityGroupID: strPtr("gl-sec"),
		},
	}
}

// newService assembles the engine over real balance and holding services so
// the whole read path runs against the mocked repositories.
func (s *BreakdownServiceTestSuite) newService(options ...services.BreakdownServiceOption) portssvc.BreakdownSvc {
	balanceSvc := services.NewBalanceService(s.ledgerRepo, s.hierarchyRepo)
	holdingSvc := services.NewHoldingService(s.ledgerRepo, s.priceLookup)
	return services.NewBreakdownService(s.bookRepo, s.hierarchyRepo, s.ledgerRepo, balanceSvc, holdingSvc, s.priceLookup, options...)
}

// setupFixture installs the standard book:
//
//	assets (ASSET)
//	├── checking: +1000 USD
//	└── broker:   +2 ACME bought at 50
//	equity (EQUITY)
//	└── gl-sec    (configured security gain/loss group)
func (s *BreakdownServiceTestSuite) setupFixture() {
	s.bookRepo.On("FindAccountBookByID", mock.Anything, testBookID).Return(s.book, nil)
	s.hierarchyRepo.On("ListGroupsByAccountBook", mock.Anything, testBookID).
		Return([]domain.AccountGroup{
			{GroupID: "assets", AccountBookID: testBookID, Name: "Assets", AccountType: domain.Asset, SortOrder: 1},
			{GroupID: "equity", AccountBookID: testBookID, Name: "Equity", AccountType: domain.Equity, SortOrder: 2},
			{GroupID: "gl-sec", AccountBookID: testBookID, Name: "Unrealized Gains", ParentGroupID: strPtr("equity"), AccountType: domain.Equity, SortOrder: 1},
		}, nil)
	s.hierarchyRepo.On("ListAccountsByAccountBook", mock.Anything, testBookID).
		Return([]domain.Account{
			{AccountID: "checking", GroupID: "assets", Name: "Checking", SortOrder: 1},
			{AccountID: "broker", GroupID: "assets", Name: "Broker", SortOrder: 2},
		}, nil)
	s.ledgerRepo.On("EarliestBookingDate", mock.Anything, testBookID, mock.Anything).
		Return(timePtr(utcDate(2026, time.March, 1)), nil)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.MatchedBy(func(f portsrepo.BookingFilter) bool {
		return f.AccountID != nil && *f.AccountID == "checking"
	})).Return([]domain.Booking{
		ledgerBooking("checking", "1000", domain.UnitCurrency, "USD", utcDate(2026, time.March, 1)),
	}, nil)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.MatchedBy(func(f portsrepo.BookingFilter) bool {
		return f.AccountID != nil && *f.AccountID == "broker"
	})).Return([]domain.Booking{
		securityBooking("broker", "2", "50", utcDate(2026, time.March, 1)),
	}, nil)
}

func (s *BreakdownServiceTestSuite) TestBreakdown_AccountNodePlainCurrency() {
	s.setupFixture()
	asOf := utcDate(2026, time.March, 15)

	node, err := s.newService().Breakdown(s.ctx, testBookID, "checking", asOf)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.NodeAccount, node.Kind)
	assert.Equal(s.T(), "checking", node.ID)
	assert.True(s.T(), node.Value.Equal(mustDecimal("1000")))
	assert.True(s.T(), node.Balances[usdKey].Equal(mustDecimal("1000")))
	assert.Empty(s.T(), node.Holdings)
	assert.Empty(s.T(), node.Children)
}

func (s *BreakdownServiceTestSuite) TestBreakdown_HoldingAccountValuedAtMarket() {
	s.setupFixture()
	asOf := utcDate(2026, time.March, 15)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).Return(mustDecimal("60"), nil)

	node, err := s.newService().Breakdown(s.ctx, testBookID, "broker", asOf)

	require.NoError(s.T(), err)
	assert.True(s.T(), node.Value.Equal(mustDecimal("120")))
	require.Len(s.T(), node.Holdings, 1)
	split := node.Holdings[0]
	assert.Equal(s.T(), acmeKey, split.Unit)
	assert.Equal(s.T(), domain.DetailFull, split.Detail)
	assert.True(s.T(), split.UnrealizedGainLoss.Equal(mustDecimal("20")))
}

func (s *BreakdownServiceTestSuite) TestBreakdown_GroupAggregatesChildrenInOrder() {
	s.setupFixture()
	asOf := utcDate(2026, time.March, 15)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).Return(mustDecimal("60"), nil)

	node, err := s.newService().Breakdown(s.ctx, testBookID, "assets", asOf)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.NodeGroup, node.Kind)
	assert.True(s.T(), node.Value.Equal(mustDecimal("1120")))
	require.Len(s.T(), node.Children, 2)
	assert.Equal(s.T(), "checking", node.Children[0].ID)
	assert.Equal(s.T(), "broker", node.Children[1].ID)
}

func (s *BreakdownServiceTestSuite) TestBreakdown_GainLossRoutedBookWide() {
	// The holdings live under assets, but requesting the equity subtree must
	// still route their gain/loss into the configured group.
	s.setupFixture()
	asOf := utcDate(2026, time.March, 15)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).Return(mustDecimal("60"), nil)

	node, err := s.newService().Breakdown(s.ctx, testBookID, "equity", asOf)

	require.NoError(s.T(), err)
	require.Len(s.T(), node.Children, 1)
	glNode := node.Children[0]
	assert.Equal(s.T(), "gl-sec", glNode.ID)
	assert.True(s.T(), glNode.GainLoss.Equal(mustDecimal("20")))
	assert.True(s.T(), glNode.Value.Equal(mustDecimal("20")))
	assert.True(s.T(), node.Value.Equal(mustDecimal("20")))
}

func (s *BreakdownServiceTestSuite) TestBreakdown_MissingPriceDegradesToCostBasis() {
	s.setupFixture()
	asOf := utcDate(2026, time.March, 15)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).Return(decimal.Zero, apperrors.ErrMissingPrice)

	node, err := s.newService().Breakdown(s.ctx, testBookID, "assets", asOf)

	require.NoError(s.T(), err)
	// Broker contributes its cost basis instead of an unknown market value.
	assert.True(s.T(), node.Value.Equal(mustDecimal("1100")))

	// Nothing routed: a cost-basis-only split has no known gain/loss.
	glRoot, err := s.newService().Breakdown(s.ctx, testBookID, "equity", asOf)
	require.NoError(s.T(), err)
	assert.True(s.T(), glRoot.Value.IsZero())
}

func (s *BreakdownServiceTestSuite) TestBreakdown_NonHoldingUnitPriceErrorSurfaces() {
	// With the classifier opting everything out, the security balance must be
	// priced as a plain unit; a missing price is then a hard error.
	s.setupFixture()
	asOf := utcDate(2026, time.March, 15)
	s.priceLookup.On("PriceOf", mock.Anything, acmeKey, asOf).Return(decimal.Zero, apperrors.ErrMissingPrice)

	svc := s.newService(services.WithHoldingClassifier(func(domain.UnitKey, string) bool { return false }))
	_, err := svc.Breakdown(s.ctx, testBookID, "broker", asOf)

	assert.ErrorIs(s.T(), err, apperrors.ErrMissingPrice)
}

func (s *BreakdownServiceTestSuite) TestBreakdown_UnknownNode() {
	s.setupFixture()

	_, err := s.newService().Breakdown(s.ctx, testBookID, "nope", utcDate(2026, time.March, 15))

	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)
}

func (s *BreakdownServiceTestSuite) TestBreakdown_BooklessBookYieldsZeroAtCurrentDate() {
	today := utcDate(2026, time.March, 20)
	s.bookRepo.On("FindAccountBookByID", mock.Anything, testBookID).Return(s.book, nil)
	s.hierarchyRepo.On("ListGroupsByAccountBook", mock.Anything, testBookID).
		Return([]domain.AccountGroup{
			{GroupID: "assets", AccountBookID: testBookID, Name: "Assets", AccountType: domain.Asset, SortOrder: 1},
		}, nil)
	s.hierarchyRepo.On("ListAccountsByAccountBook", mock.Anything, testBookID).
		Return([]domain.Account{
			{AccountID: "checking", GroupID: "assets", Name: "Checking", SortOrder: 1},
		}, nil)
	s.ledgerRepo.On("EarliestBookingDate", mock.Anything, testBookID, mock.Anything).Return(nil, nil)
	s.ledgerRepo.On("FetchBookings", mock.Anything, testBookID, mock.Anything).Return([]domain.Booking{}, nil)

	svc := s.newService(services.WithBreakdownClock(fixedClock(today)))
	node, err := svc.Breakdown(s.ctx, testBookID, "assets", utcDate(2020, time.January, 1))

	require.NoError(s.T(), err)
	assert.True(s.T(), node.Value.IsZero())
	require.Len(s.T(), node.Children, 1)
	assert.True(s.T(), node.Children[0].Value.IsZero())
}

func (s *BreakdownServiceTestSuite) TestTimeline_DailyPoints() {
	s.setupFixture()

	var points []domain.TimelinePoint
	for point, err := range s.newService().Timeline(s.ctx, testBookID, "checking", utcDate(2026, time.March, 1), utcDate(2026, time.March, 3), period.Daily) {
		require.NoError(s.T(), err)
		points = append(points, point)
	}

	require.Len(s.T(), points, 3)
	assert.Equal(s.T(), utcDate(2026, time.March, 1), points[0].PeriodEnd)
	assert.Equal(s.T(), utcDate(2026, time.March, 3), points[2].PeriodEnd)
	for _, point := range points {
		assert.True(s.T(), point.Value.Equal(mustDecimal("1000")))
	}
}

func (s *BreakdownServiceTestSuite) TestTimeline_MonthlyWithPartialTail() {
	s.setupFixture()

	var ends []time.Time
	for point, err := range s.newService().Timeline(s.ctx, testBookID, "checking", utcDate(2026, time.March, 1), utcDate(2026, time.May, 15), period.Monthly) {
		require.NoError(s.T(), err)
		ends = append(ends, point.PeriodEnd)
	}

	assert.Equal(s.T(), []time.Time{
		utcDate(2026, time.March, 31),
		utcDate(2026, time.April, 30),
		utcDate(2026, time.May, 15),
	}, ends)
}

func (s *BreakdownServiceTestSuite) TestTimeline_IsRestartable() {
	s.setupFixture()

	seq := s.newService().Timeline(s.ctx, testBookID, "checking", utcDate(2026, time.March, 1), utcDate(2026, time.March, 3), period.Daily)
	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(s.T(), err)
			n++
		}
		return n
	}
	assert.Equal(s.T(), 3, count())
	assert.Equal(s.T(), 3, count())
}

func (s *BreakdownServiceTestSuite) TestTimeline_ErrorStopsSequence() {
	s.bookRepo.On("FindAccountBookByID", mock.Anything, testBookID).
		Return(nil, apperrors.ErrStoreUnavailable)

	var yields int
	var lastErr error
	for _, err := range s.newService().Timeline(s.ctx, testBookID, "checking", utcDate(2026, time.March, 1), utcDate(2026, time.March, 10), period.Daily) {
		yields++
		lastErr = err
	}

	assert.Equal(s.T(), 1, yields)
	assert.ErrorIs(s.T(), lastErr, apperrors.ErrStoreUnavailable)
}

func TestBreakdownService(t *testing.T) {
	suite.Run(t, new(BreakdownServiceTestSuite))
}
