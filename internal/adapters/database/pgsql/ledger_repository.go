package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for transaction and booking data.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// storeError maps transport-level failures onto the core's taxonomy so the
// service layer can decide what is retryable.
func storeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", apperrors.ErrStoreTimeout, err.Error())
	}
	var pgErr *pgconn.ConnectError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s", apperrors.ErrStoreUnavailable, err.Error())
	}
	return err
}

// FetchBookings retrieves an account book's bookings matching the filter,
// ordered by date ascending. Date bounds are inclusive.
func (r *PgxLedgerRepository) FetchBookings(ctx context.Context, accountBookID string, filter portsrepo.BookingFilter) ([]domain.Booking, error) {
	query := `
		SELECT b.booking_id, b.transaction_id, b.account_id, b.booking_date,
		       b.amount, b.unit_kind, b.unit_code, b.price, b.description,
		       b.created_at, b.created_by, b.last_updated_at, b.last_updated_by
		FROM bookings b
		JOIN transactions t ON t.transaction_id = b.transaction_id
		WHERE t.account_book_id = $1
	`
	args := []any{accountBookID}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		query += fmt.Sprintf(" AND b.account_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND b.booking_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND b.booking_date <= $%d", len(args))
	}
	query += " ORDER BY b.booking_date ASC, b.booking_id ASC"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var bk domain.Booking
		if err := rows.Scan(
			&bk.BookingID, &bk.TransactionID, &bk.AccountID, &bk.Date,
			&bk.Amount, &bk.UnitKind, &bk.UnitCode, &bk.Price, &bk.Description,
			&bk.CreatedAt, &bk.CreatedBy, &bk.LastUpdatedAt, &bk.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, bk)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return bookings, nil
}

// EarliestBookingDate returns the oldest booking date in scope, nil when the
// scope has no bookings.
func (r *PgxLedgerRepository) EarliestBookingDate(ctx context.Context, accountBookID string, accountID *string) (*time.Time, error) {
	query := `
		SELECT MIN(b.booking_date)
		FROM bookings b
		JOIN transactions t ON t.transaction_id = b.transaction_id
		WHERE t.account_book_id = $1
	`
	args := []any{accountBookID}
	if accountID != nil {
		args = append(args, *accountID)
		query += " AND b.account_id = $2"
	}
	var earliest *time.Time
	if err := r.Pool.QueryRow(ctx, query, args...).Scan(&earliest); err != nil {
		return nil, storeError(err)
	}
	return earliest, nil
}

// FindTransactionByID retrieves a transaction with its bookings.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, accountBookID, transactionID string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := r.Pool.QueryRow(ctx, `
		SELECT transaction_id, account_book_id, description,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM transactions
		WHERE account_book_id = $1 AND transaction_id = $2
	`, accountBookID, transactionID).Scan(
		&txn.TransactionID, &txn.AccountBookID, &txn.Description,
		&txn.CreatedAt, &txn.CreatedBy, &txn.LastUpdatedAt, &txn.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, storeError(err)
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT booking_id, transaction_id, account_id, booking_date,
		       amount, unit_kind, unit_code, price, description,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM bookings
		WHERE transaction_id = $1
		ORDER BY booking_date ASC, booking_id ASC
	`, transactionID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var bk domain.Booking
		if err := rows.Scan(
			&bk.BookingID, &bk.TransactionID, &bk.AccountID, &bk.Date,
			&bk.Amount, &bk.UnitKind, &bk.UnitCode, &bk.Price, &bk.Description,
			&bk.CreatedAt, &bk.CreatedBy, &bk.LastUpdatedAt, &bk.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		txn.Bookings = append(txn.Bookings, bk)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return &txn, nil
}

// SaveTransaction persists a transaction and its bookings atomically.
func (r *PgxLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (
			transaction_id, account_book_id, description,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		txn.TransactionID, txn.AccountBookID, txn.Description,
		txn.CreatedAt, txn.CreatedBy, txn.LastUpdatedAt, txn.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}

	for _, bk := range txn.Bookings {
		_, err = tx.Exec(ctx, `
			INSERT INTO bookings (
				booking_id, transaction_id, account_id, booking_date,
				amount, unit_kind, unit_code, price, description,
				created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			bk.BookingID, bk.TransactionID, bk.AccountID, bk.Date,
			bk.Amount, bk.UnitKind, bk.UnitCode, bk.Price, bk.Description,
			bk.CreatedAt, bk.CreatedBy, bk.LastUpdatedAt, bk.LastUpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking %s: %w", bk.BookingID, err)
		}
	}

	return r.Commit(ctx, tx)
}

// DeleteTransaction removes a transaction and its bookings atomically.
func (r *PgxLedgerRepository) DeleteTransaction(ctx context.Context, accountBookID, transactionID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE transaction_id = $1`, transactionID); err != nil {
		return fmt.Errorf("failed to delete bookings of transaction %s: %w", transactionID, err)
	}
	tag, err := tx.Exec(ctx, `
		DELETE FROM transactions WHERE account_book_id = $1 AND transaction_id = $2
	`, accountBookID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return r.Commit(ctx, tx)
}
