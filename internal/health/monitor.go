package health

import (
	"context"
	"sync"
	"time"

	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/core/domain"
)

// EngineStatus is the engine-side view the monitor reads.
type EngineStatus interface {
	CacheStats() cache.Stats
	CacheHealth() cache.Health
	Stats() domain.ClassificationStats
	Programs() []domain.FundingProgram
	ClassificationIndexSize() int
}

// Pinger checks backing-store connectivity. May be nil when running without
// a database.
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor aggregates health status from the engine, the cache, and the
// backing store.
type Monitor struct {
	eng        EngineStatus
	db         Pinger
	mu         sync.Mutex
	lastCheck  time.Time
	lastReport Report
}

// NewMonitor creates a new health monitor. db may be nil.
func NewMonitor(eng EngineStatus, db Pinger) *Monitor {
	return &Monitor{eng: eng, db: db}
}

// CheckHealth assembles the full report. Checks are rate limited to once per
// 10s to keep the endpoints cheap under polling.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && !m.lastCheck.IsZero() {
		return m.lastReport
	}

	report := Report{
		SystemStatus:   StatusHealthy,
		Database:       StatusHealthy,
		Cache:          m.eng.CacheHealth(),
		CacheStats:     m.eng.CacheStats(),
		Programs:       len(m.eng.Programs()),
		Indexed:        m.eng.ClassificationIndexSize(),
		Classification: m.eng.Stats(),
	}

	if m.db != nil {
		if err := m.db.Health(ctx); err != nil {
			report.Database = StatusCritical
		}
	}

	switch report.Cache.Status {
	case cache.StatusWarning:
		report.SystemStatus = StatusDegraded
	case cache.StatusCritical:
		report.SystemStatus = StatusCritical
	}
	if report.Database == StatusCritical {
		report.SystemStatus = StatusCritical
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
