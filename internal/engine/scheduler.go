package engine

import (
	"log/slog"
	"time"
)

// Schedule configures the recurring invalidation task.
type Schedule struct {
	Interval       time.Duration `yaml:"interval"`
	Criteria       *Criteria     `yaml:"-"` // nil = expired-only
	RunMaintenance bool          `yaml:"run_maintenance"`
}

// ScheduleInvalidation starts a recurring background task running
// criteria-based invalidation (expired-only by default) and, optionally, a
// maintenance pass. Scheduling again replaces the previous task.
func (e *Engine) ScheduleInvalidation(s Schedule) {
	if s.Interval <= 0 {
		s.Interval = 10 * time.Minute
	}
	criteria := Criteria{ExpiredOnly: true}
	if s.Criteria != nil {
		criteria = *s.Criteria
	}

	e.schedMu.Lock()
	if e.schedStop != nil {
		close(e.schedStop)
	}
	stop := make(chan struct{})
	e.schedStop = stop
	e.schedMu.Unlock()

	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				result := e.InvalidateByCriteria(criteria)
				if result.InvalidatedCount > 0 {
					slog.Debug("scheduled invalidation ran",
						"invalidated", result.InvalidatedCount)
				}
				if s.RunMaintenance {
					e.PerformMaintenance(DefaultMaintenanceOptions())
				}
			}
		}
	}()
}

// StopScheduledInvalidation stops the recurring task. Safe to call twice
// and safe without a prior schedule.
func (e *Engine) StopScheduledInvalidation() {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()

	if e.schedStop == nil {
		return
	}
	close(e.schedStop)
	e.schedStop = nil
}
