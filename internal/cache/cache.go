// Package cache keeps the last balance seen for each address so that
// get-balance can still answer, marked stale, when the indexer is down.
package cache

import (
	"sync"
	"time"

	"github.com/mrz1836/multisig/internal/chain"
)

// DefaultStaleness is the age after which an entry is reported as stale.
const DefaultStaleness = 5 * time.Minute

// BalanceCache stores cached balances keyed by network and address.
type BalanceCache struct {
	mu      sync.RWMutex     `json:"-"`
	Entries map[string]Entry `json:"entries"`
}

// Entry is a cached balance. Amounts are satoshis.
type Entry struct {
	Network     chain.Network `json:"network"`
	Address     string        `json:"address"`
	Confirmed   int64         `json:"confirmed"`
	Unconfirmed int64         `json:"unconfirmed"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewBalanceCache creates a new empty balance cache.
func NewBalanceCache() *BalanceCache {
	return &BalanceCache{
		Entries: make(map[string]Entry),
	}
}

// Key generates a cache key for an address on a network.
func Key(net chain.Network, address string) string {
	return string(net) + ":" + address
}

// Get returns the entry, whether it exists, and its age.
func (c *BalanceCache) Get(net chain.Network, address string) (*Entry, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.Entries[Key(net, address)]
	if !exists {
		return nil, false, 0
	}
	return &entry, true, time.Since(entry.UpdatedAt)
}

// Put stores the balance b observed now.
func (c *BalanceCache) Put(net chain.Network, b chain.Balance) {
	c.Set(Entry{
		Network:     net,
		Address:     b.Address,
		Confirmed:   b.Confirmed,
		Unconfirmed: b.Unconfirmed,
		UpdatedAt:   time.Now().UTC(),
	})
}

// Set stores entry as is. A zero UpdatedAt is set to now.
func (c *BalanceCache) Set(entry Entry) {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Entries == nil {
		c.Entries = make(map[string]Entry)
	}
	c.Entries[Key(entry.Network, entry.Address)] = entry
}

// IsStale reports whether an entry is missing or older than staleness.
func (c *BalanceCache) IsStale(net chain.Network, address string, staleness time.Duration) bool {
	_, exists, age := c.Get(net, address)
	return !exists || age > staleness
}

// Delete removes a cache entry.
func (c *BalanceCache) Delete(net chain.Network, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Entries, Key(net, address))
}

// Size returns the number of cache entries.
func (c *BalanceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

// Prune removes entries older than maxAge and returns how many went.
func (c *BalanceCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, entry := range c.Entries {
		if entry.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	return removed
}
