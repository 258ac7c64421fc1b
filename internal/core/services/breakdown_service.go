package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/family_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/family_ledger_app/internal/utils/period"
	"github.com/shopspring/decimal"
)

// breakdownService implements the BreakdownSvc interface.
type breakdownService struct {
	BaseService
	bookRepo      portsrepo.AccountBookReader
	hierarchyRepo portsrepo.HierarchyReader
	ledgerRepo    portsrepo.LedgerReader
	balanceSvc    portssvc.BalanceSvc
	holdingSvc    portssvc.HoldingSvc
	priceLookup   portssvc.PriceLookupSvc
	classify      portssvc.HoldingClassifier
	now           func() time.Time
}

// BreakdownServiceOption is a functional option for configuring the breakdown service.
type BreakdownServiceOption func(*breakdownService)

// WithHoldingClassifier overrides the rule deciding which (account, unit)
// positions get the gain/loss split.
func WithHoldingClassifier(classify portssvc.HoldingClassifier) BreakdownServiceOption {
	return func(s *breakdownService) {
		s.classify = classify
	}
}

// WithBreakdownClock overrides the "today" clock, used by tests.
func WithBreakdownClock(now func() time.Time) BreakdownServiceOption {
	return func(s *breakdownService) {
		s.now = now
	}
}

// NewBreakdownService creates a new breakdown/timeline engine.
func NewBreakdownService(
	bookRepo portsrepo.AccountBookReader,
	hierarchyRepo portsrepo.HierarchyReader,
	ledgerRepo portsrepo.LedgerReader,
	balanceSvc portssvc.BalanceSvc,
	holdingSvc portssvc.HoldingSvc,
	priceLookup portssvc.PriceLookupSvc,
	options ...BreakdownServiceOption,
) portssvc.BreakdownSvc {
	svc := &breakdownService{
		bookRepo:      bookRepo,
		hierarchyRepo: hierarchyRepo,
		ledgerRepo:    ledgerRepo,
		balanceSvc:    balanceSvc,
		holdingSvc:    holdingSvc,
		priceLookup:   priceLookup,
		classify:      DefaultHoldingClassifier,
		now:           time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure breakdownService implements the BreakdownSvc interface
var _ portssvc.BreakdownSvc = (*breakdownService)(nil)

// breakdownPass carries the per-request state of one breakdown computation:
// the immutable hierarchy snapshot, the resolved as-of date and the holding
// splits computed so far.
type breakdownPass struct {
	book      *domain.AccountBook
	hierarchy *domain.Hierarchy
	asOf      time.Time
	splits    map[string][]domain.HoldingValuation // account ID -> splits
	glByKind  map[domain.UnitKind]decimal.Decimal  // routed unrealized gain/loss
}

// Breakdown builds the node tree rooted at nodeID with per-node aggregated
// values in the book's reference currency.
func (s *breakdownService) Breakdown(ctx context.Context, accountBookID, nodeID string, asOf time.Time) (*domain.BreakdownNode, error) {
	book, err := s.bookRepo.FindAccountBookByID(ctx, accountBookID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account book %s: %w", accountBookID, err)
	}

	groups, err := s.hierarchyRepo.ListGroupsByAccountBook(ctx, accountBookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account groups: %w", err)
	}
	accounts, err := s.hierarchyRepo.ListAccountsByAccountBook(ctx, accountBookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	h, err := domain.BuildHierarchy(groups, accounts)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolveAsOf(ctx, h, accountBookID, nodeID, period.Truncate(asOf))
	if err != nil {
		return nil, err
	}

	pass := &breakdownPass{
		book:      book,
		hierarchy: h,
		asOf:      resolved,
		splits:    make(map[string][]domain.HoldingValuation),
		glByKind:  make(map[domain.UnitKind]decimal.Decimal),
	}

	// Unrealized gain/loss routing is book-wide: when the requested subtree
	// includes a configured gain/loss group, the routed figure must cover
	// every holding in the book, not just those under the subtree.
	if s.subtreeContainsGainLossGroup(h, book, nodeID) {
		for accountID := range allAccountIDs(h) {
			if err := s.splitAccountHoldings(ctx, pass, accountID); err != nil {
				return nil, err
			}
		}
	}

	if _, ok := h.Account(nodeID); ok {
		return s.buildAccountNode(ctx, pass, nodeID)
	}
	if _, ok := h.Group(nodeID); ok {
		return s.buildGroupNode(ctx, pass, nodeID)
	}
	return nil, fmt.Errorf("%w: node %s", apperrors.ErrNotFound, nodeID)
}

// Timeline yields one point per period boundary between from and to
// inclusive, each computed via Breakdown at that boundary. The sequence is
// lazy, finite and restartable: every iteration recomputes from the store.
func (s *breakdownService) Timeline(ctx context.Context, accountBookID, nodeID string, from, to time.Time, granularity period.Granularity) iter.Seq2[domain.TimelinePoint, error] {
	return func(yield func(domain.TimelinePoint, error) bool) {
		for _, end := range period.Ends(from, to, granularity) {
			node, err := s.Breakdown(ctx, accountBookID, nodeID, end)
			if err != nil {
				yield(domain.TimelinePoint{PeriodEnd: end}, err)
				return
			}
			if !yield(domain.TimelinePoint{PeriodEnd: end, Value: node.Value}, nil) {
				return
			}
		}
	}
}

func (s *breakdownService) buildGroupNode(ctx context.Context, pass *breakdownPass, groupID string) (*domain.BreakdownNode, error) {
	group, _ := pass.hierarchy.Group(groupID)
	node := &domain.BreakdownNode{
		ID:   group.GroupID,
		Name: group.Name,
		Kind: domain.NodeGroup,
	}
	for _, child := range pass.hierarchy.ChildGroups(groupID) {
		childNode, err := s.buildGroupNode(ctx, pass, child.GroupID)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
		node.Value = node.Value.Add(childNode.Value)
	}
	for _, acc := range pass.hierarchy.ChildAccounts(groupID) {
		childNode, err := s.buildAccountNode(ctx, pass, acc.AccountID)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
		node.Value = node.Value.Add(childNode.Value)
	}
	// A configured gain/loss group additionally carries the book-wide routed
	// figure. The holding accounts themselves already show market value, so
	// this derived posting is the balancing credit, not a second count.
	if gl, ok := s.routedGainLoss(pass, groupID); ok {
		node.GainLoss = gl
		node.Value = node.Value.Add(gl)
	}
	return node, nil
}

func (s *breakdownService) buildAccountNode(ctx context.Context, pass *breakdownPass, accountID string) (*domain.BreakdownNode, error) {
	acc, _ := pass.hierarchy.Account(accountID)
	balances, err := s.balanceSvc.BalanceOf(ctx, pass.book.AccountBookID, accountID, pass.asOf)
	if err != nil {
		return nil, err
	}
	node := &domain.BreakdownNode{
		ID:       acc.AccountID,
		Name:     acc.Name,
		Kind:     domain.NodeAccount,
		Balances: balances,
	}
	if err := s.splitAccountHoldings(ctx, pass, accountID); err != nil {
		return nil, err
	}
	node.Holdings = pass.splits[accountID]

	splitByUnit := make(map[domain.UnitKey]domain.HoldingValuation, len(node.Holdings))
	for _, split := range node.Holdings {
		splitByUnit[split.Unit] = split
	}
	for unit, amount := range balances {
		if split, ok := splitByUnit[unit]; ok {
			// Holding units are valued at market; without a price the cost
			// basis is the best defensible figure.
			if split.Detail == domain.DetailCostBasisOnly {
				node.Value = node.Value.Add(split.CostBasis)
			} else {
				node.Value = node.Value.Add(split.MarketValue)
			}
			continue
		}
		value, err := s.valueInReferenceCurrency(ctx, pass, unit, amount)
		if err != nil {
			return nil, err
		}
		node.Value = node.Value.Add(value)
	}
	return node, nil
}

// splitAccountHoldings computes (once per account and pass) the gain/loss
// splits for every holding unit of the account and accumulates the routed
// book-wide totals. Cost-basis-only splits contribute nothing to the routed
// figure since their gain/loss is unknown.
func (s *breakdownService) splitAccountHoldings(ctx context.Context, pass *breakdownPass, accountID string) error {
	if _, done := pass.splits[accountID]; done {
		return nil
	}
	balances, err := s.balanceSvc.BalanceOf(ctx, pass.book.AccountBookID, accountID, pass.asOf)
	if err != nil {
		return err
	}
	splits := []domain.HoldingValuation{}
	for unit := range balances {
		if !s.classify(unit, pass.book.ReferenceCurrency) {
			continue
		}
		split, err := s.holdingSvc.SplitHolding(ctx, *pass.book, accountID, unit, pass.asOf)
		if err != nil {
			return err
		}
		splits = append(splits, *split)
		if split.Detail == domain.DetailFull {
			pass.glByKind[unit.Kind] = pass.glByKind[unit.Kind].Add(split.UnrealizedGainLoss)
		} else {
			s.LogDebug(ctx, "Holding excluded from gain/loss routing, no price",
				slog.String("account_id", accountID),
				slog.String("unit", unit.String()))
		}
	}
	pass.splits[accountID] = splits
	return nil
}

// valueInReferenceCurrency converts a non-holding unit amount. Reference
// currency amounts pass through; anything else is priced via the lookup.
func (s *breakdownService) valueInReferenceCurrency(ctx context.Context, pass *breakdownPass, unit domain.UnitKey, amount decimal.Decimal) (decimal.Decimal, error) {
	if unit.Kind == domain.UnitCurrency && unit.Code == pass.book.ReferenceCurrency {
		return amount, nil
	}
	price, err := s.priceLookup.PriceOf(ctx, unit, pass.asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to price unit %s: %w", unit, err)
	}
	return amount.Mul(price), nil
}

// routedGainLoss sums the gain/loss kinds the book routes to this group.
func (s *breakdownService) routedGainLoss(pass *breakdownPass, groupID string) (decimal.Decimal, bool) {
	routed := false
	total := decimal.Zero
	for _, kind := range []domain.UnitKind{domain.UnitSecurity, domain.UnitCryptocurrency, domain.UnitCurrency} {
		target := pass.book.GainLossGroupFor(kind)
		if target != nil && *target == groupID {
			routed = true
			total = total.Add(pass.glByKind[kind])
		}
	}
	return total, routed
}

// subtreeContainsGainLossGroup reports whether any configured gain/loss group
// lies inside the subtree rooted at nodeID.
func (s *breakdownService) subtreeContainsGainLossGroup(h *domain.Hierarchy, book *domain.AccountBook, nodeID string) bool {
	targets := make(map[string]struct{})
	for _, target := range []*string{book.GainLoss.SecurityGroupID, book.GainLoss.CryptoGroupID, book.GainLoss.FxGroupID} {
		if target != nil {
			targets[*target] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return false
	}
	var contains func(groupID string) bool
	contains = func(groupID string) bool {
		if _, ok := targets[groupID]; ok {
			return true
		}
		for _, child := range h.ChildGroups(groupID) {
			if contains(child.GroupID) {
				return true
			}
		}
		return false
	}
	if _, ok := h.Group(nodeID); ok {
		return contains(nodeID)
	}
	return false
}

// resolveAsOf applies the minimum-booking-date fallback per the narrowest
// applicable scope: the requested account first, else the account book, else
// the current date (a bookless book yields an all-zero breakdown).
func (s *breakdownService) resolveAsOf(ctx context.Context, h *domain.Hierarchy, accountBookID, nodeID string, asOf time.Time) (time.Time, error) {
	var accountID *string
	if _, ok := h.Account(nodeID); ok {
		accountID = &nodeID
	}
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

func allAccountIDs(h *domain.Hierarchy) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, root := range h.Roots() {
		for acc := range h.DescendantAccounts(root) {
			ids[acc.AccountID] = struct{}{}
		}
	}
	return ids
}
