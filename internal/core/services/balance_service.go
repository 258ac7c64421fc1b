package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/family_ledger_app/internal/utils/accounting"
	"github.com/SscSPs/family_ledger_app/internal/utils/cachekeys"
	"github.com/SscSPs/family_ledger_app/internal/utils/period"
	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// balanceService implements the BalanceSvc interface.
type balanceService struct {
	BaseService
	ledgerRepo    portsrepo.LedgerReader
	hierarchyRepo portsrepo.HierarchyReader
	cache         portssvc.BalanceCacheSvc
	flight        singleflight.Group
	now           func() time.Time
	maxRetries    uint64
}

// BalanceServiceOption is a functional option for configuring the balance service.
type BalanceServiceOption func(*balanceService)

// WithBalanceCache sets the cache used for current-date balances.
func WithBalanceCache(cache portssvc.BalanceCacheSvc) BalanceServiceOption {
	return func(s *balanceService) {
		s.cache = cache
	}
}

// WithBalanceClock overrides the "today" clock, used by tests.
func WithBalanceClock(now func() time.Time) BalanceServiceOption {
	return func(s *balanceService) {
		s.now = now
	}
}

// WithStoreRetries sets how many times a timed-out or unavailable store call
// is retried before the error surfaces to the caller.
func WithStoreRetries(n uint64) BalanceServiceOption {
	return func(s *balanceService) {
		s.maxRetries = n
	}
}

// NewBalanceService creates a new balance service with the provided options.
func NewBalanceService(ledgerRepo portsrepo.LedgerReader, hierarchyRepo portsrepo.HierarchyReader, options ...BalanceServiceOption) portssvc.BalanceSvc {
	svc := &balanceService{
		ledgerRepo:    ledgerRepo,
		hierarchyRepo: hierarchyRepo,
		now:           time.Now,
		maxRetries:    3,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure balanceService implements the BalanceSvc interface
var _ portssvc.BalanceSvc = (*balanceService)(nil)

// BalanceOf sums the account's bookings dated at or before asOf, grouped by
// unit key. An account with no qualifying bookings yields an empty map.
func (s *balanceService) BalanceOf(ctx context.Context, accountBookID, accountID string, asOf time.Time) (map[domain.UnitKey]decimal.Decimal, error) {
	asOf = period.Truncate(asOf)
	resolved, err := s.resolveAsOf(ctx, accountBookID, &accountID, asOf)
	if err != nil {
		return nil, err
	}
	key := cachekeys.AccountBalance(accountBookID, accountID)
	return s.cached(ctx, key, asOf, func() (map[domain.UnitKey]decimal.Decimal, error) {
		return s.computeAccountBalance(ctx, accountBookID, accountID, resolved)
	})
}

// GroupBalanceOf recursively merges the balances of all direct children by
// per-unit addition. The hierarchy snapshot is rebuilt from the store per
// request, so concurrent readers never observe a torn tree.
func (s *balanceService) GroupBalanceOf(ctx context.Context, accountBookID, groupID string, asOf time.Time) (map[domain.UnitKey]decimal.Decimal, error) {
	asOf = period.Truncate(asOf)
	h, err := s.loadHierarchy(ctx, accountBookID)
	if err != nil {
		return nil, err
	}
	if _, ok := h.Group(groupID); !ok {
		return nil, fmt.Errorf("%w: group %s", apperrors.ErrNotFound, groupID)
	}
	key := cachekeys.AccountBalance(accountBookID, groupID)
	return s.cached(ctx, key, asOf, func() (map[domain.UnitKey]decimal.Decimal, error) {
		return s.groupBalance(ctx, h, accountBookID, groupID, asOf)
	})
}

// ResidualOf merges the balances of the book's asset, liability and equity
// roots per unit. Income and expense roots are excluded. The read side never
// rejects imbalanced stored data, so this is the operation that makes such
// data visible.
func (s *balanceService) ResidualOf(ctx context.Context, accountBookID string, asOf time.Time) (map[domain.UnitKey]decimal.Decimal, error) {
	asOf = period.Truncate(asOf)
	h, err := s.loadHierarchy(ctx, accountBookID)
	if err != nil {
		return nil, err
	}
	byType := make(map[domain.AccountType]map[domain.UnitKey]decimal.Decimal)
	for _, rootID := range h.Roots() {
		root, ok := h.Group(rootID)
		if !ok {
			continue
		}
		balances, err := s.groupBalance(ctx, h, accountBookID, rootID, asOf)
		if err != nil {
			return nil, err
		}
		if byType[root.AccountType] == nil {
			byType[root.AccountType] = make(map[domain.UnitKey]decimal.Decimal)
		}
		accounting.MergeInto(byType[root.AccountType], balances)
	}
	return accounting.Residual(byType), nil
}

func (s *balanceService) groupBalance(ctx context.Context, h *domain.Hierarchy, accountBookID, groupID string, asOf time.Time) (map[domain.UnitKey]decimal.Decimal, error) {
	merged := make(map[domain.UnitKey]decimal.Decimal)
	for _, acc := range h.ChildAccounts(groupID) {
		balances, err := s.BalanceOf(ctx, accountBookID, acc.AccountID, asOf)
		if err != nil {
			return nil, err
		}
		accounting.MergeInto(merged, balances)
	}
	for _, child := range h.ChildGroups(groupID) {
		balances, err := s.groupBalance(ctx, h, accountBookID, child.GroupID, asOf)
		if err != nil {
			return nil, err
		}
		accounting.MergeInto(merged, balances)
	}
	return merged, nil
}

// cached serves compute() through the balance cache when asOf is the current
// date. The cache carries no date dimension, so historical dates recompute
// directly. Concurrent misses for the same key collapse into one computation;
// recomputation is idempotent, so duplication would be safe, just wasteful.
func (s *balanceService) cached(ctx context.Context, key string, asOf time.Time, compute func() (map[domain.UnitKey]decimal.Decimal, error)) (map[domain.UnitKey]decimal.Decimal, error) {
	if s.cache == nil || !asOf.Equal(period.Truncate(s.now())) {
		return compute()
	}
	if balances, ok := s.cache.Get(key); ok {
		s.LogDebug(ctx, "Balance cache hit", slog.String("key", key))
		return balances, nil
	}
	result, err, _ := s.flight.Do(key, func() (interface{}, error) {
		balances, err := compute()
		if err != nil {
			return nil, err
		}
		s.cache.Put(key, balances)
		return balances, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneBalances(result.(map[domain.UnitKey]decimal.Decimal)), nil
}

func (s *balanceService) computeAccountBalance(ctx context.Context, accountBookID, accountID string, asOf time.Time) (map[domain.UnitKey]decimal.Decimal, error) {
	bookings, err := s.fetchBookings(ctx, accountBookID, portsrepo.BookingFilter{
		AccountID: &accountID,
		To:        &asOf,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch bookings for balance",
			slog.String("account_book_id", accountBookID),
			slog.String("account_id", accountID))
		return nil, err
	}
	// Data violating the double-entry invariant is summed as-is: imbalance
	// shows up as a residual at the top of the hierarchy, which callers can
	// detect and report.
	return accounting.SumByUnit(bookings)
}

// fetchBookings reads from the store with bounded exponential backoff.
// Only transient store errors are retried; exhausted retries surface to the
// caller instead of degrading to a zero balance.
func (s *balanceService) fetchBookings(ctx context.Context, accountBookID string, filter portsrepo.BookingFilter) ([]domain.Booking, error) {
	op := func() ([]domain.Booking, error) {
		bookings, err := s.ledgerRepo.FetchBookings(ctx, accountBookID, filter)
		if err != nil {
			if errors.Is(err, apperrors.ErrStoreTimeout) || errors.Is(err, apperrors.ErrStoreUnavailable) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return bookings, nil
	}
	return backoff.RetryWithData(op, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx))
}

// resolveAsOf applies the minimum-booking-date fallback per the narrowest
// applicable scope: the account's earliest booking first, else the account
// book's, else the current date (a bookless book yields all-zero balances).
func (s *balanceService) resolveAsOf(ctx context.Context, accountBookID string, accountID *string, asOf time.Time) (time.Time, error) {
	floor, err := s.ledgerRepo.EarliestBookingDate(ctx, accountBookID, accountID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve earliest booking date: %w", err)
	}
	if floor == nil && accountID != nil {
		floor, err = s.ledgerRepo.EarliestBookingDate(ctx, accountBookID, nil)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to resolve earliest booking date: %w", err)
		}
	}
	if floor == nil {
		return period.Truncate(s.now()), nil
	}
	if f := period.Truncate(*floor); asOf.Before(f) {
		return f, nil
	}
	return asOf, nil
}

func (s *balanceService) loadHierarchy(ctx context.Context, accountBookID string) (*domain.Hierarchy, error) {
	groups, err := s.hierarchyRepo.ListGroupsByAccountBook(ctx, accountBookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account groups: %w", err)
	}
	accounts, err := s.hierarchyRepo.ListAccountsByAccountBook(ctx, accountBookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return domain.BuildHierarchy(groups, accounts)
}

func cloneBalances(balances map[domain.UnitKey]decimal.Decimal) map[domain.UnitKey]decimal.Decimal {
	clone := make(map[domain.UnitKey]decimal.Decimal, len(balances))
	for key, amt := range balances {
		clone[key] = amt
	}
	return clone
}
