package health

import (
	"context"
	"errors"
	"testing"

	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/core/domain"
)

// =============================================================================
// Mocks
// =============================================================================

type stubEngine struct {
	cacheHealth cache.Health
}

func (s *stubEngine) CacheStats() cache.Stats           { return cache.Stats{} }
func (s *stubEngine) CacheHealth() cache.Health         { return s.cacheHealth }
func (s *stubEngine) Stats() domain.ClassificationStats { return domain.ClassificationStats{} }
func (s *stubEngine) Programs() []domain.FundingProgram { return nil }
func (s *stubEngine) ClassificationIndexSize() int      { return 0 }

type stubPinger struct {
	err error
}

func (s *stubPinger) Health(ctx context.Context) error { return s.err }

// =============================================================================
// Tests
// =============================================================================

func TestMonitor_Healthy(t *testing.T) {
	monitor := NewMonitor(&stubEngine{cacheHealth: cache.Health{Status: cache.StatusHealthy}}, nil)

	report := monitor.CheckHealth(context.Background())
	if report.SystemStatus != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.SystemStatus)
	}
}

func TestMonitor_DegradedOnCacheWarning(t *testing.T) {
	monitor := NewMonitor(&stubEngine{cacheHealth: cache.Health{Status: cache.StatusWarning}}, nil)

	report := monitor.CheckHealth(context.Background())
	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.SystemStatus)
	}
}

func TestMonitor_CriticalOnDatabaseFailure(t *testing.T) {
	monitor := NewMonitor(
		&stubEngine{cacheHealth: cache.Health{Status: cache.StatusHealthy}},
		&stubPinger{err: errors.New("connection refused")},
	)

	report := monitor.CheckHealth(context.Background())
	if report.SystemStatus != StatusCritical {
		t.Errorf("expected critical, got %s", report.SystemStatus)
	}
	if report.Database != StatusCritical {
		t.Errorf("expected critical database, got %s", report.Database)
	}
}

func TestMonitor_RateLimitsChecks(t *testing.T) {
	pinger := &stubPinger{}
	monitor := NewMonitor(&stubEngine{cacheHealth: cache.Health{Status: cache.StatusHealthy}}, pinger)

	first := monitor.CheckHealth(context.Background())

	// A failure within the rate-limit window is not observed.
	pinger.err = errors.New("connection refused")
	second := monitor.CheckHealth(context.Background())

	if first.SystemStatus != second.SystemStatus {
		t.Errorf("expected cached report, got %s then %s", first.SystemStatus, second.SystemStatus)
	}
}
