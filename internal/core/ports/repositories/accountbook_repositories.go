package repositories

import (
	"context"

	"github.com/SscSPs/family_ledger_app/internal/core/domain"
)

// AccountBookReader defines read operations for account book data.
type AccountBookReader interface {
	// FindAccountBookByID retrieves an account book by its unique identifier.
	FindAccountBookByID(ctx context.Context, accountBookID string) (*domain.AccountBook, error)
}

// HierarchyReader loads the raw material the account hierarchy is built from.
// The core builds a fresh domain.Hierarchy per request from these lists.
type HierarchyReader interface {
	// ListGroupsByAccountBook retrieves all account groups of a book.
	ListGroupsByAccountBook(ctx context.Context, accountBookID string) ([]domain.AccountGroup, error)

	// ListAccountsByAccountBook retrieves all accounts of a book.
	ListAccountsByAccountBook(ctx context.Context, accountBookID string) ([]domain.Account, error)
}
