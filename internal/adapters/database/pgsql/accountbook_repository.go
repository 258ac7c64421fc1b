package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountBookRepository struct {
	BaseRepository
}

// newPgxAccountBookRepository creates a new repository for account book,
// group and account data.
func newPgxAccountBookRepository(pool *pgxpool.Pool) *PgxAccountBookRepository {
	return &PgxAccountBookRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAccountBookRepository implements the read ports
var (
	_ portsrepo.AccountBookReader = (*PgxAccountBookRepository)(nil)
	_ portsrepo.HierarchyReader   = (*PgxAccountBookRepository)(nil)
)

// FindAccountBookByID retrieves an account book by its unique identifier.
func (r *PgxAccountBookRepository) FindAccountBookByID(ctx context.Context, accountBookID string) (*domain.AccountBook, error) {
	var book domain.AccountBook
	err := r.Pool.QueryRow(ctx, `
		SELECT account_book_id, name, reference_currency,
		       security_gain_loss_group_id, crypto_gain_loss_group_id, fx_gain_loss_group_id,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM account_books
		WHERE account_book_id = $1
	`, accountBookID).Scan(
		&book.AccountBookID, &book.Name, &book.ReferenceCurrency,
		&book.GainLoss.SecurityGroupID, &book.GainLoss.CryptoGroupID, &book.GainLoss.FxGroupID,
		&book.CreatedAt, &book.CreatedBy, &book.LastUpdatedAt, &book.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, storeError(err)
	}
	return &book, nil
}

// ListGroupsByAccountBook retrieves all account groups of a book.
func (r *PgxAccountBookRepository) ListGroupsByAccountBook(ctx context.Context, accountBookID string) ([]domain.AccountGroup, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT group_id, account_book_id, name, parent_group_id, account_type,
		       sort_order, is_active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM account_groups
		WHERE account_book_id = $1
		ORDER BY sort_order ASC, name ASC
	`, accountBookID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var groups []domain.AccountGroup
	for rows.Next() {
		var g domain.AccountGroup
		if err := rows.Scan(
			&g.GroupID, &g.AccountBookID, &g.Name, &g.ParentGroupID, &g.AccountType,
			&g.SortOrder, &g.IsActive,
			&g.CreatedAt, &g.CreatedBy, &g.LastUpdatedAt, &g.LastUpdatedBy,
		); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListAccountsByAccountBook retrieves all accounts of a book.
func (r *PgxAccountBookRepository) ListAccountsByAccountBook(ctx context.Context, accountBookID string) ([]domain.Account, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT a.account_id, a.group_id, a.name, a.sort_order,
		       a.created_at, a.created_by, a.last_updated_at, a.last_updated_by
		FROM accounts a
		JOIN account_groups g ON g.group_id = a.group_id
		WHERE g.account_book_id = $1
		ORDER BY a.sort_order ASC, a.name ASC
	`, accountBookID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(
			&a.AccountID, &a.GroupID, &a.Name, &a.SortOrder,
			&a.CreatedAt, &a.CreatedBy, &a.LastUpdatedAt, &a.LastUpdatedBy,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
