package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

// Ensure MockLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FetchBookings(ctx context.Context, accountBookID string, filter portsrepo.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, accountBookID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockLedgerRepository) EarliestBookingDate(ctx context.Context, accountBookID string, accountID *string) (*time.Time, error) {
	args := m.Called(ctx, accountBookID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, accountBookID, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, accountBookID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLedgerRepository) DeleteTransaction(ctx context.Context, accountBookID, transactionID string) error {
	args := m.Called(ctx, accountBookID, transactionID)
	return args.Error(0)
}

// --- Mock HierarchyRepository ---
type MockHierarchyRepository struct {
	mock.Mock
}

// Ensure MockHierarchyRepository implements portsrepo.HierarchyReader
var _ portsrepo.HierarchyReader = (*MockHierarchyRepository)(nil)

func (m *MockHierarchyRepository) ListGroupsByAccountBook(ctx context.Context, accountBookID string) ([]domain.AccountGroup, error) {
	args := m.Called(ctx, accountBookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountGroup), args.Error(1)
}

func (m *MockHierarchyRepository) ListAccountsByAccountBook(ctx context.Context, accountBookID string) ([]domain.Account, error) {
	args := m.Called(ctx, accountBookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

// --- Mock AccountBookRepository ---
type MockAccountBookRepository struct {
	mock.Mock
}

// Ensure MockAccountBookRepository implements portsrepo.AccountBookReader
var _ portsrepo.AccountBookReader = (*MockAccountBookRepository)(nil)

func (m *MockAccountBookRepository) FindAccountBookByID(ctx context.Context, accountBookID string) (*domain.AccountBook, error) {
	args := m.Called(ctx, accountBookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountBook), args.Error(1)
}

// --- Mock PriceLookup ---
type MockPriceLookup struct {
	mock.Mock
}

// Ensure MockPriceLookup implements portssvc.PriceLookupSvc
var _ portssvc.PriceLookupSvc = (*MockPriceLookup)(nil)

func (m *MockPriceLookup) PriceOf(ctx context.Context, unit domain.UnitKey, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, unit, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- shared helpers ---

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
