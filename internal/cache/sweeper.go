package cache

import (
	"log/slog"
	"time"
)

// Background maintenance: a periodic sweep drops TTL-expired entries and, if
// the memory estimate still exceeds the limit afterwards, evicts by LRU
// order until back under. The sweep runs independently of foreground
// operations and is stoppable on its own.

// StartSweeper launches the periodic sweep. Calling it while a sweeper is
// already running is a no-op.
func (c *Cache) StartSweeper() {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()

	if c.sweepStop != nil {
		return
	}
	stop := make(chan struct{})
	c.sweepStop = stop

	go func() {
		ticker := time.NewTicker(c.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				removed, evicted := c.Sweep()
				if removed > 0 || evicted > 0 {
					slog.Debug("cache sweep finished",
						"expired_removed", removed,
						"memory_evicted", evicted)
				}
			}
		}
	}()
}

// StopSweeper stops the periodic sweep. Safe to call twice and safe to call
// before StartSweeper.
func (c *Cache) StopSweeper() {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()

	if c.sweepStop == nil {
		return
	}
	close(c.sweepStop)
	c.sweepStop = nil
}

// Sweep removes stale entries and relieves memory pressure once. It returns
// the expired-entry count and the LRU-evicted count.
func (c *Cache) Sweep() (removedExpired, evicted int) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, elem := range c.items {
		e := elem.Value.(*entry)
		if !c.validLocked(e, now) {
			c.removeLocked(elem)
			removedExpired++
		}
	}
	c.expired.Add(int64(removedExpired))

	for c.memory > c.cfg.MemoryLimit && c.order.Len() > 0 {
		c.evictLRULocked()
		evicted++
	}
	return removedExpired, evicted
}

// ReleaseMemory evicts LRU entries until the memory estimate is under the
// limit. Used by engine maintenance.
func (c *Cache) ReleaseMemory() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for c.memory > c.cfg.MemoryLimit && c.order.Len() > 0 {
		c.evictLRULocked()
		evicted++
	}
	return evicted
}
