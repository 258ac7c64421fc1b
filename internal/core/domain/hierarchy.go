package domain

import (
	"fmt"
	"iter"
	"sort"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
)

// Hierarchy is an immutable, validated snapshot of one account book's group
// tree. It is an arena of nodes addressed by stable identifiers: the forest
// invariant (no cycles, no orphans, no mixed-type nesting) is checked once at
// construction, so traversals never have to defend against loops.
//
// A fresh Hierarchy is built per aggregation request; the external store stays
// the source of truth.
type Hierarchy struct {
	groups      map[string]AccountGroup
	accounts    map[string]Account
	childGroups map[string][]string // parent group ID -> child group IDs
	childAccts  map[string][]string // group ID -> account IDs
	roots       []string
}

// BuildHierarchy validates the parent relation and assembles the arena.
// It fails with ErrCycleDetected if the parent relation is not acyclic,
// ErrOrphanReference if a group or account references a nonexistent parent or
// group, and ErrValidation if a group nests under a parent of a different
// type class.
func BuildHierarchy(groups []AccountGroup, accounts []Account) (*Hierarchy, error) {
	h := &Hierarchy{
		groups:      make(map[string]AccountGroup, len(groups)),
		accounts:    make(map[string]Account, len(accounts)),
		childGroups: make(map[string][]string),
		childAccts:  make(map[string][]string),
	}
	for _, g := range groups {
		if _, ok := h.groups[g.GroupID]; ok {
			return nil, fmt.Errorf("%w: group %s", apperrors.ErrDuplicate, g.GroupID)
		}
		h.groups[g.GroupID] = g
	}
	for _, g := range groups {
		if g.ParentGroupID == nil {
			h.roots = append(h.roots, g.GroupID)
			continue
		}
		parent, ok := h.groups[*g.ParentGroupID]
		if !ok {
			return nil, fmt.Errorf("%w: group %s has unknown parent %s", apperrors.ErrOrphanReference, g.GroupID, *g.ParentGroupID)
		}
		if parent.AccountType.TypeClass() != g.AccountType.TypeClass() {
			return nil, fmt.Errorf("%w: group %s (%s) cannot nest under %s (%s)",
				apperrors.ErrValidation, g.GroupID, g.AccountType, parent.GroupID, parent.AccountType)
		}
		h.childGroups[*g.ParentGroupID] = append(h.childGroups[*g.ParentGroupID], g.GroupID)
	}
	for _, a := range accounts {
		if _, ok := h.groups[a.GroupID]; !ok {
			return nil, fmt.Errorf("%w: account %s references unknown group %s", apperrors.ErrOrphanReference, a.AccountID, a.GroupID)
		}
		h.accounts[a.AccountID] = a
		h.childAccts[a.GroupID] = append(h.childAccts[a.GroupID], a.AccountID)
	}
	if err := h.checkAcyclic(); err != nil {
		return nil, err
	}
	h.sortChildren()
	return h, nil
}

// checkAcyclic walks every parent chain; a chain longer than the number of
// groups can only mean a cycle.
func (h *Hierarchy) checkAcyclic() error {
	for id := range h.groups {
		steps := 0
		cur := id
		for {
			g := h.groups[cur]
			if g.ParentGroupID == nil {
				break
			}
			steps++
			if steps > len(h.groups) {
				return fmt.Errorf("%w: starting at group %s", apperrors.ErrCycleDetected, id)
			}
			cur = *g.ParentGroupID
		}
	}
	return nil
}

// sortChildren fixes the traversal order: sort order first, name as tiebreak.
func (h *Hierarchy) sortChildren() {
	for parent, ids := range h.childGroups {
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := h.groups[ids[i]], h.groups[ids[j]]
			if a.SortOrder != b.SortOrder {
				return a.SortOrder < b.SortOrder
			}
			return a.Name < b.Name
		})
		h.childGroups[parent] = ids
	}
	for group, ids := range h.childAccts {
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := h.accounts[ids[i]], h.accounts[ids[j]]
			if a.SortOrder != b.SortOrder {
				return a.SortOrder < b.SortOrder
			}
			return a.Name < b.Name
		})
		h.childAccts[group] = ids
	}
}

// Group returns the group for an ID.
func (h *Hierarchy) Group(groupID string) (AccountGroup, bool) {
	g, ok := h.groups[groupID]
	return g, ok
}

// Account returns the account for an ID.
func (h *Hierarchy) Account(accountID string) (Account, bool) {
	a, ok := h.accounts[accountID]
	return a, ok
}

// Roots returns the root group IDs in traversal order.
func (h *Hierarchy) Roots() []string {
	roots := make([]string, len(h.roots))
	copy(roots, h.roots)
	sort.SliceStable(roots, func(i, j int) bool {
		a, b := h.groups[roots[i]], h.groups[roots[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Name < b.Name
	})
	return roots
}

// ChildGroups returns the direct child groups of a group, ordered.
func (h *Hierarchy) ChildGroups(groupID string) []AccountGroup {
	ids := h.childGroups[groupID]
	out := make([]AccountGroup, 0, len(ids))
	for _, id := range ids {
		out = append(out, h.groups[id])
	}
	return out
}

// ChildAccounts returns the accounts attached directly to a group, ordered.
func (h *Hierarchy) ChildAccounts(groupID string) []Account {
	ids := h.childAccts[groupID]
	out := make([]Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, h.accounts[id])
	}
	return out
}

// DescendantAccounts yields every account under a group, at any depth, in
// depth-first traversal order. The sequence is lazy, finite and restartable.
func (h *Hierarchy) DescendantAccounts(groupID string) iter.Seq[Account] {
	return func(yield func(Account) bool) {
		var walk func(id string) bool
		walk = func(id string) bool {
			for _, a := range h.ChildAccounts(id) {
				if !yield(a) {
					return false
				}
			}
			for _, child := range h.childGroups[id] {
				if !walk(child) {
					return false
				}
			}
			return true
		}
		walk(groupID)
	}
}

// AncestorChain returns the group IDs from the account's own group up to the
// root, nearest first. This is exactly the set of cache keys a mutation on the
// account must invalidate, besides the account's own.
func (h *Hierarchy) AncestorChain(accountID string) ([]string, error) {
	a, ok := h.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	var chain []string
	cur := a.GroupID
	for {
		chain = append(chain, cur)
		g := h.groups[cur]
		if g.ParentGroupID == nil {
			return chain, nil
		}
		cur = *g.ParentGroupID
	}
}
