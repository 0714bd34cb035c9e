package quote

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paw-chain/swaprouter/pkg/types"
)

// DefaultCacheTTL bounds how long an assembled quote may be served without
// re-simulating against fresh reserves.
const DefaultCacheTTL = 3 * time.Second

type cacheEntry struct {
	quote     *types.Quote
	expiresAt time.Time
}

// Cache is a TTL quote cache. Reads take an atomic snapshot of the entry map
// so the hot path never contends with writers; writes rebuild the map under a
// mutex, the same copy-on-write shape the pool registry uses.
type Cache struct {
	mu      sync.Mutex
	entries atomic.Pointer[map[string]cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache builds a cache with the given TTL; non-positive selects the default.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{ttl: ttl, now: time.Now}
	empty := map[string]cacheEntry{}
	c.entries.Store(&empty)
	return c
}

// WithClock overrides the time source (tests).
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Key derives the cache key for a request. Requests carrying exclusions are
// not cacheable and get an empty key.
func Key(req types.QuoteRequest) string {
	if len(req.ExcludedAssets) > 0 || len(req.ExcludedPools) > 0 {
		return ""
	}
	return fmt.Sprintf("%s|%s|%s|%d|%d|%d",
		req.SourceAsset, req.DestinationAsset,
		req.Amount.Amount().String(), req.Amount.Direction(),
		req.SlippageBps, req.MaxHops)
}

// Get returns the cached quote for key if it is still fresh and its own
// execution deadline has not passed.
func (c *Cache) Get(key string) (*types.Quote, bool) {
	if key == "" {
		return nil, false
	}
	entries := *c.entries.Load()
	entry, ok := entries[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	if now.After(entry.expiresAt) || entry.quote.Expired(now) {
		return nil, false
	}
	return entry.quote, true
}

// Put stores a quote under key. Expired entries are pruned on the way in.
func (c *Cache) Put(key string, q *types.Quote) {
	if key == "" || q == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	old := *c.entries.Load()
	next := make(map[string]cacheEntry, len(old)+1)
	for k, e := range old {
		if now.After(e.expiresAt) {
			continue
		}
		next[k] = e
	}
	next[key] = cacheEntry{quote: q, expiresAt: now.Add(c.ttl)}
	c.entries.Store(&next)
}

// InvalidateAll drops every entry. Wired to registry refresh events so stale
// reserves never back a served quote.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	empty := map[string]cacheEntry{}
	c.entries.Store(&empty)
}

// Len reports the current entry count, counting entries past their TTL that
// have not been pruned yet.
func (c *Cache) Len() int {
	return len(*c.entries.Load())
}
