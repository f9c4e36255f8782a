package cache

import "time"

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	HitRate       float64 `json:"hitRate"`
	Evictions     int64   `json:"evictions"`
	Invalidations int64   `json:"invalidations"`
	Expired       int64   `json:"expired"`
	Size          int     `json:"size"`
	MaxSize       int     `json:"maxSize"`
	MemoryBytes   int64   `json:"memoryBytes"`
	MemoryLimit   int64   `json:"memoryLimit"`
	Version       uint64  `json:"version"`
}

// Status is the coarse health state derived from stats.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Health is the cache health report: status plus operator recommendations.
type Health struct {
	Status          Status    `json:"status"`
	SizeUsage       float64   `json:"sizeUsage"`
	MemoryUsage     float64   `json:"memoryUsage"`
	HitRate         float64   `json:"hitRate"`
	Recommendations []string  `json:"recommendations,omitempty"`
	CheckedAt       time.Time `json:"checkedAt"`
}

// GetStats returns the current counters.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	size := len(c.items)
	memory := c.memory
	version := c.version
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	rate := 0.0
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}

	return Stats{
		Hits:          hits,
		Misses:        misses,
		HitRate:       rate,
		Evictions:     c.evictions.Load(),
		Invalidations: c.invalidations.Load(),
		Expired:       c.expired.Load(),
		Size:          size,
		MaxSize:       c.cfg.MaxSize,
		MemoryBytes:   memory,
		MemoryLimit:   c.cfg.MemoryLimit,
		Version:       version,
	}
}

// GetHealthStatus derives healthy/warning/critical from size usage, memory
// usage, and hit rate. The hit rate only counts once enough lookups have
// been sampled.
func (c *Cache) GetHealthStatus() Health {
	stats := c.GetStats()

	sizeUsage := float64(stats.Size) / float64(stats.MaxSize)
	memUsage := float64(stats.MemoryBytes) / float64(stats.MemoryLimit)

	h := Health{
		Status:      StatusHealthy,
		SizeUsage:   sizeUsage,
		MemoryUsage: memUsage,
		HitRate:     stats.HitRate,
		CheckedAt:   time.Now(),
	}

	if sizeUsage > c.cfg.WarnThreshold {
		h.Status = StatusWarning
		h.Recommendations = append(h.Recommendations,
			"cache nearly full, consider raising max_size or shortening ttl")
	}
	if memUsage > c.cfg.WarnThreshold {
		h.Status = StatusWarning
		h.Recommendations = append(h.Recommendations, "high memory usage")
	}
	if stats.Hits+stats.Misses >= c.cfg.MinHitSamples && stats.HitRate < c.cfg.MinHitRate {
		h.Status = StatusWarning
		h.Recommendations = append(h.Recommendations,
			"low hit rate, classification inputs may be churning")
	}
	if stats.Evictions > 0 && stats.Size > 0 &&
		float64(stats.Evictions) > float64(stats.Hits+1) {
		h.Recommendations = append(h.Recommendations, "high eviction rate")
	}
	if sizeUsage > c.cfg.CritThreshold || memUsage > c.cfg.CritThreshold {
		h.Status = StatusCritical
	}

	return h
}
