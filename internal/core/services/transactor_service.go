package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/family_ledger_app/internal/dto"
	"github.com/SscSPs/family_ledger_app/internal/utils/accounting"
	"github.com/SscSPs/family_ledger_app/internal/utils/cachekeys"
	"github.com/SscSPs/family_ledger_app/internal/utils/period"
	"github.com/google/uuid"
)

// transactorService implements the TransactorSvc interface. It is the caller
// side of the cache contract: after every successful mutation it invalidates
// the booked accounts and all their ancestor groups. The store write and the
// invalidation are not one transaction, so a stale read window exists; that is
// acceptable for display, and recomputation always heals it.
type transactorService struct {
	BaseService
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	hierarchyRepo portsrepo.HierarchyReader
	cache         portssvc.BalanceCacheSvc
}

// TransactorServiceOption is a functional option for configuring the transactor service.
type TransactorServiceOption func(*transactorService)

// WithTransactorCache sets the balance cache invalidated on mutations.
func WithTransactorCache(cache portssvc.BalanceCacheSvc) TransactorServiceOption {
	return func(s *transactorService) {
		s.cache = cache
	}
}

// NewTransactorService creates a new transactor service with the provided options.
func NewTransactorService(ledgerRepo portsrepo.LedgerRepositoryFacade, hierarchyRepo portsrepo.HierarchyReader, options ...TransactorServiceOption) portssvc.TransactorSvc {
	svc := &transactorService{
		ledgerRepo:    ledgerRepo,
		hierarchyRepo: hierarchyRepo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure transactorService implements the TransactorSvc interface
var _ portssvc.TransactorSvc = (*transactorService)(nil)

// CreateTransaction validates and persists a transaction with its bookings.
func (s *transactorService) CreateTransaction(ctx context.Context, accountBookID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	now := time.Now().UTC()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountBookID: accountBookID,
		Description:   req.Description,
		AuditFields:   audit,
	}
	for _, leg := range req.Bookings {
		unitKind := domain.UnitKind(leg.UnitKind)
		if _, err := domain.ResolveUnitKey(unitKind, leg.UnitCode); err != nil {
			return nil, err
		}
		txn.Bookings = append(txn.Bookings, domain.Booking{
			BookingID:     uuid.NewString(),
			TransactionID: txn.TransactionID,
			AccountID:     leg.AccountID,
			Date:          period.Truncate(leg.Date),
			Amount:        leg.Amount,
			UnitKind:      unitKind,
			UnitCode:      leg.UnitCode,
			Price:         leg.Price,
			Description:   leg.Description,
			AuditFields:   audit,
		})
	}

	if err := accounting.ValidateTransactionBalance(txn.Bookings); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	if err := s.ledgerRepo.SaveTransaction(ctx, txn); err != nil {
		s.LogError(ctx, err, "Failed to save transaction",
			slog.String("account_book_id", accountBookID),
			slog.String("transaction_id", txn.TransactionID))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.invalidateAffected(ctx, accountBookID, txn.Bookings)
	s.LogInfo(ctx, "Transaction created",
		slog.String("account_book_id", accountBookID),
		slog.String("transaction_id", txn.TransactionID),
		slog.Int("booking_count", len(txn.Bookings)))
	return &txn, nil
}

// DeleteTransaction removes a transaction and its bookings.
func (s *transactorService) DeleteTransaction(ctx context.Context, accountBookID, transactionID, userID string) error {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, accountBookID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	if err := s.ledgerRepo.DeleteTransaction(ctx, accountBookID, transactionID); err != nil {
		s.LogError(ctx, err, "Failed to delete transaction",
			slog.String("account_book_id", accountBookID),
			slog.String("transaction_id", transactionID))
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.invalidateAffected(ctx, accountBookID, txn.Bookings)
	s.LogInfo(ctx, "Transaction deleted",
		slog.String("account_book_id", accountBookID),
		slog.String("transaction_id", transactionID),
		slog.String("deleted_by", userID))
	return nil
}

// invalidateAffected drops the cache entries whose balance could have changed:
// each booked account, its holding split, and every ancestor group up to the
// root. Failing to resolve the ancestors falls back to bulk invalidation of
// the whole book rather than risking stale ancestors.
func (s *transactorService) invalidateAffected(ctx context.Context, accountBookID string, bookings []domain.Booking) {
	if s.cache == nil {
		return
	}
	h, err := s.loadHierarchy(ctx, accountBookID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load hierarchy for cache invalidation, bulk invalidating",
			slog.String("account_book_id", accountBookID))
		s.cache.InvalidateAccountBook(accountBookID)
		return
	}
	seen := make(map[string]struct{})
	for _, bk := range bookings {
		if _, done := seen[bk.AccountID]; done {
			continue
		}
		seen[bk.AccountID] = struct{}{}
		s.cache.Invalidate(cachekeys.AccountBalance(accountBookID, bk.AccountID))
		s.cache.Invalidate(cachekeys.HoldingGainLoss(accountBookID, bk.AccountID))
		chain, err := h.AncestorChain(bk.AccountID)
		if err != nil {
			s.cache.InvalidateAccountBook(accountBookID)
			return
		}
		for _, groupID := range chain {
			s.cache.Invalidate(cachekeys.AccountBalance(accountBookID, groupID))
		}
	}
}

func (s *transactorService) loadHierarchy(ctx context.Context, accountBookID string) (*domain.Hierarchy, error) {
	groups, err := s.hierarchyRepo.ListGroupsByAccountBook(ctx, accountBookID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.hierarchyRepo.ListAccountsByAccountBook(ctx, accountBookID)
	if err != nil {
		return nil, err
	}
	return domain.BuildHierarchy(groups, accounts)
}
