package pattern

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
)

// DefaultCacheTTL bounds how stale the cached rule set can get under read load.
const DefaultCacheTTL = 5 * time.Minute

// Cache holds the compiled rule set for a bounded time. Mutations must call
// Invalidate so the next read reloads from storage.
type Cache struct {
	loadedAt   time.Time
	loader     RuleLoader
	now        Clock
	matcher    *Matcher
	logger     *slog.Logger
	ttl        time.Duration
	generation uint64
	mu         sync.RWMutex
}

// NewCache creates a rule cache. A nil clock means time.Now; a non-positive ttl means DefaultCacheTTL.
func NewCache(loader RuleLoader, ttl time.Duration, clock Clock) *Cache {
	if clock == nil {
		clock = time.Now
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		loader: loader,
		ttl:    ttl,
		now:    clock,
		logger: common.Component("rule_cache"),
	}
}

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time {
	return c.now()
}

// Matcher returns the cached matcher, reloading it when missing or expired.
func (c *Cache) Matcher(ctx context.Context) (*Matcher, error) {
	c.mu.RLock()
	matcher, loadedAt, generation := c.matcher, c.loadedAt, c.generation
	c.mu.RUnlock()

	if matcher != nil && c.now().Sub(loadedAt) < c.ttl {
		return matcher, nil
	}

	rules, err := c.loader.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	matcher = NewMatcher(rules)

	c.mu.Lock()
	// An invalidation that raced with the load wins; the next read reloads.
	if c.generation == generation {
		c.matcher = matcher
		c.loadedAt = c.now()
	}
	c.mu.Unlock()

	c.logger.Debug("Loaded rule set", "rules", matcher.Len())
	return matcher, nil
}

// Invalidate drops the cached rule set. It returns after the drop is visible to all readers.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.matcher = nil
	c.generation++
	c.mu.Unlock()
}
