package poller

import "sync"

// ClaimTable is the in-process mutual-exclusion mechanism preventing two
// orchestrations from owning the same mission key. Check-then-insert happens
// under one lock hold, so claim acquisition is atomic with respect to the
// poll loop. Claims do not survive process restart; the durable mission
// record is the source of truth for recovery.
type ClaimTable struct {
	mu     sync.Mutex
	limit  int
	claims map[string]struct{}
}

// NewClaimTable creates a claim table admitting at most limit concurrent claims
func NewClaimTable(limit int) *ClaimTable {
	return &ClaimTable{
		limit:  limit,
		claims: make(map[string]struct{}),
	}
}

// TryClaim inserts key if it is not already claimed and the table is below
// its limit. Returns whether the claim was acquired.
func (c *ClaimTable) TryClaim(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.claims) >= c.limit {
		return false
	}
	if _, exists := c.claims[key]; exists {
		return false
	}
	c.claims[key] = struct{}{}
	return true
}

// Release removes key's claim. Releasing an unclaimed key is a no-op.
func (c *ClaimTable) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claims, key)
}

// Has reports whether key is currently claimed
func (c *ClaimTable) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.claims[key]
	return exists
}

// Len returns the number of live claims
func (c *ClaimTable) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.claims)
}

// Full reports whether the table is at its admission limit
func (c *ClaimTable) Full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.claims) >= c.limit
}
