package services

import (
	"context"

	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	"github.com/SscSPs/family_ledger_app/internal/dto"
)

// TransactorSvc is the mutation side of the ledger: it validates the
// double-entry invariant at write time and performs the cache invalidation
// hooks the read side depends on (the booked account plus every ancestor
// group, per mutated booking).
type TransactorSvc interface {
	// CreateTransaction validates and persists a transaction with its
	// bookings, then invalidates the affected cache entries.
	CreateTransaction(ctx context.Context, accountBookID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error)

	// DeleteTransaction removes a transaction and invalidates the affected
	// cache entries.
	DeleteTransaction(ctx context.Context, accountBookID, transactionID, userID string) error
}
