package engine

import (
	"log/slog"
	"time"

	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/classify"
)

// MaintenanceOptions select which maintenance steps run.
type MaintenanceOptions struct {
	CleanExpired   bool
	OptimizeMemory bool
	DetectOrphans  bool
	RecacheIndexed bool
}

// DefaultMaintenanceOptions enables every step.
func DefaultMaintenanceOptions() MaintenanceOptions {
	return MaintenanceOptions{
		CleanExpired:   true,
		OptimizeMemory: true,
		DetectOrphans:  true,
		RecacheIndexed: true,
	}
}

// MaintenanceReport summarizes one maintenance pass.
type MaintenanceReport struct {
	ExpiredRemoved int           `json:"expiredRemoved"`
	MemoryEvicted  int           `json:"memoryEvicted"`
	OrphansRemoved int           `json:"orphansRemoved"`
	Recached       int           `json:"recached"`
	Duration       time.Duration `json:"duration"`
}

// PerformMaintenance composes expired-entry cleanup, memory optimization,
// orphan detection (cache entries whose program left the authoritative set),
// and re-caching of indexed programs that fell out of the cache.
func (e *Engine) PerformMaintenance(opts MaintenanceOptions) MaintenanceReport {
	start := time.Now()
	var report MaintenanceReport

	e.mu.Lock()
	defer func() {
		e.mu.Unlock()
		report.Duration = time.Since(start)
		slog.Debug("maintenance pass finished",
			"expired_removed", report.ExpiredRemoved,
			"memory_evicted", report.MemoryEvicted,
			"orphans_removed", report.OrphansRemoved,
			"recached", report.Recached)
	}()

	if opts.CleanExpired {
		report.ExpiredRemoved = e.store.InvalidateFunc(func(info cache.EntryInfo) bool {
			return info.Expired
		})
	}

	if opts.OptimizeMemory {
		report.MemoryEvicted = e.store.ReleaseMemory()
	}

	if opts.DetectOrphans {
		live := make(map[string]struct{}, len(e.programs))
		for i := range e.programs {
			live[cache.Key(&e.programs[i])] = struct{}{}
		}
		report.OrphansRemoved = e.store.InvalidateFunc(func(info cache.EntryInfo) bool {
			_, ok := live[info.Key]
			return !ok
		})
		// The index can hold orphans too when a delete raced a classify.
		for name := range e.index {
			if _, ok := e.byName[name]; !ok {
				delete(e.index, name)
			}
		}
	}

	if opts.RecacheIndexed {
		cached := make(map[string]struct{})
		for _, k := range e.store.Keys() {
			cached[k] = struct{}{}
		}
		for name := range e.index {
			pos, ok := e.byName[name]
			if !ok {
				continue
			}
			key := cache.Key(&e.programs[pos])
			if _, ok := cached[key]; ok {
				continue
			}
			fresh := classify.Metadata(&e.programs[pos])
			if err := e.store.Set(key, fresh, 0); err != nil {
				continue
			}
			e.index[name] = fresh
			report.Recached++
		}
	}

	return report
}
