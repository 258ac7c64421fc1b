// Package cache provides the in-process balance cache implementation.
package cache

import (
	"strings"
	"sync"

	"github.com/SscSPs/family_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/family_ledger_app/internal/utils/cachekeys"
	"github.com/shopspring/decimal"
)

// memoryBalanceCache is a mutex-guarded pair of maps, one per entry kind.
// Get and Put copy the stored maps, so no caller ever observes a half-written
// or later-mutated entry.
type memoryBalanceCache struct {
	mu       sync.RWMutex
	entries  map[string]map[domain.UnitKey]decimal.Decimal
	holdings map[string]map[domain.UnitKey]domain.HoldingValuation
}

// NewMemoryBalanceCache creates an empty in-memory balance cache. Each call
// returns an independent instance; the cache is injected, never global.
func NewMemoryBalanceCache() portssvc.BalanceCacheSvc {
	return &memoryBalanceCache{
		entries:  make(map[string]map[domain.UnitKey]decimal.Decimal),
		holdings: make(map[string]map[domain.UnitKey]domain.HoldingValuation),
	}
}

// Ensure memoryBalanceCache implements the BalanceCacheSvc interface
var _ portssvc.BalanceCacheSvc = (*memoryBalanceCache)(nil)

func (c *memoryBalanceCache) Get(key string) (map[domain.UnitKey]decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	balances, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return copyBalances(balances), true
}

func (c *memoryBalanceCache) Put(key string, balances map[domain.UnitKey]decimal.Decimal) {
	clone := copyBalances(balances)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = clone
}

func (c *memoryBalanceCache) GetHolding(key string) (map[domain.UnitKey]domain.HoldingValuation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	splits, ok := c.holdings[key]
	if !ok {
		return nil, false
	}
	return copyHoldings(splits), true
}

func (c *memoryBalanceCache) PutHolding(key string, splits map[domain.UnitKey]domain.HoldingValuation) {
	clone := copyHoldings(splits)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdings[key] = clone
}

func (c *memoryBalanceCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	delete(c.holdings, key)
}

func (c *memoryBalanceCache) InvalidateAccountBook(accountBookID string) {
	prefix := cachekeys.AccountBookPrefix(accountBookID)
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	for key := range c.holdings {
		if strings.HasPrefix(key, prefix) {
			delete(c.holdings, key)
		}
	}
}

func copyBalances(balances map[domain.UnitKey]decimal.Decimal) map[domain.UnitKey]decimal.Decimal {
	clone := make(map[domain.UnitKey]decimal.Decimal, len(balances))
	for key, amt := range balances {
		clone[key] = amt
	}
	return clone
}

func copyHoldings(splits map[domain.UnitKey]domain.HoldingValuation) map[domain.UnitKey]domain.HoldingValuation {
	clone := make(map[domain.UnitKey]domain.HoldingValuation, len(splits))
	for key, v := range splits {
		clone[key] = v
	}
	return clone
}
