package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/core/domain"
)

// BookingFilter narrows a booking fetch. Nil fields mean "no constraint".
// From and To are inclusive.
type BookingFilter struct {
	AccountID *string
	From      *time.Time
	To        *time.Time
}

// LedgerReader defines the read contract the core uses against the external
// transactional store. Implementations must return bookings ordered by date
// ascending and must reflect a single consistent snapshot for the duration of
// one call. Timeouts surface as apperrors.ErrStoreTimeout, unreachable stores
// as apperrors.ErrStoreUnavailable.
type LedgerReader interface {
	// FetchBookings retrieves the bookings of an account book matching the filter.
	FetchBookings(ctx context.Context, accountBookID string, filter BookingFilter) ([]domain.Booking, error)

	// EarliestBookingDate returns the date of the oldest booking in scope:
	// the account's when accountID is set, else the whole book's. Nil when the
	// scope has no bookings at all.
	EarliestBookingDate(ctx context.Context, accountBookID string, accountID *string) (*time.Time, error)
}

// TransactionReader defines read operations on whole transactions.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction with its bookings. A missing
	// transaction is reported as apperrors.ErrNotFound, never as (nil, nil).
	FindTransactionByID(ctx context.Context, accountBookID, transactionID string) (*domain.Transaction, error)
}

// TransactionWriter defines write operations invoked by the mutation side.
type TransactionWriter interface {
	// SaveTransaction persists a transaction and its bookings atomically.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// DeleteTransaction removes a transaction and its bookings atomically.
	DeleteTransaction(ctx context.Context, accountBookID, transactionID string) error
}

// LedgerRepositoryFacade combines the ledger contracts for clients that need
// both sides.
type LedgerRepositoryFacade interface {
	LedgerReader
	TransactionReader
	TransactionWriter
}
