package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/classify"
	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/metrics"
)

// InvalidateOptions tune selective invalidation.
type InvalidateOptions struct {
	// InvalidateRelated additionally sweeps entries sharing a region or
	// project type with the named programs.
	InvalidateRelated bool
	// AutoRefresh re-classifies the affected programs right after the
	// invalidation, under the same lock.
	AutoRefresh bool
	// GracefulErrors continues past per-program failures instead of
	// aborting the operation.
	GracefulErrors bool
	// AttemptRecovery clears and re-versions the whole cache as a last
	// resort when the operation aborts.
	AttemptRecovery bool
}

// Invalidate drops cached classifications. A nil programNames means the
// complete strategy: the whole cache and the classification index go.
// Otherwise the named programs are invalidated selectively; unknown names
// are silently skipped. Failures never propagate: they are collected in the
// result, and the result is emitted to the event sink either way.
func (e *Engine) Invalidate(programNames []string, opts *InvalidateOptions) domain.InvalidationResult {
	if opts == nil {
		opts = &InvalidateOptions{}
	}

	e.mu.Lock()
	var result domain.InvalidationResult
	if programNames == nil {
		result = e.invalidateCompleteLocked(opts)
	} else {
		result = e.invalidateSelectiveLocked(programNames, opts)
	}
	e.mu.Unlock()

	e.finishInvalidation(&result)
	return result
}

func (e *Engine) invalidateCompleteLocked(opts *InvalidateOptions) domain.InvalidationResult {
	result := newResult(domain.StrategyComplete)

	e.guard(&result, "clear cache", func() {
		result.InvalidatedCount = e.store.Size()
		e.store.Clear()
	})
	e.index = make(map[string]domain.RelevanceMetadata, len(e.programs))

	if opts.AutoRefresh {
		names := make([]string, len(e.programs))
		for i := range e.programs {
			names[i] = e.programs[i].Name
		}
		result.RefreshedCount = e.refreshLocked(names, &result)
	}
	return result
}

func (e *Engine) invalidateSelectiveLocked(names []string, opts *InvalidateOptions) domain.InvalidationResult {
	result := newResult(domain.StrategySelective)

	for _, name := range names {
		pos, known := e.byName[name]
		if !known {
			continue // unknown names are a silent no-op
		}
		p := e.programs[pos]

		ok := e.guard(&result, fmt.Sprintf("invalidate %q", name), func() {
			if e.store.Delete(cache.Key(&p)) {
				result.InvalidatedCount++
			}
			delete(e.index, name)

			if opts.InvalidateRelated {
				result.InvalidatedCount += e.relatedSweepLocked(&p)
			}
		})
		if !ok && !opts.GracefulErrors {
			e.abortLocked(&result, opts)
			return result
		}
	}

	if opts.AutoRefresh {
		result.RefreshedCount = e.refreshLocked(names, &result)
	}
	return result
}

// relatedSweepLocked removes cache entries sharing a region or project type
// with the program, plus all cached classifications at the same tier.
func (e *Engine) relatedSweepLocked(p *domain.FundingProgram) int {
	count := 0
	for _, state := range p.FederalStates {
		if state == domain.AllStates {
			continue
		}
		count += e.store.InvalidateByPattern(cache.StatePattern(state))
	}
	for _, t := range p.Type {
		count += e.store.InvalidateByPattern(cache.TypePattern(t))
	}
	if md, ok := e.index[p.Name]; ok {
		count += e.levelSweepLocked(md.Level)
	}
	return count
}

// levelSweepLocked invalidates every indexed program at the given tier.
func (e *Engine) levelSweepLocked(level domain.RelevanceLevel) int {
	count := 0
	for name, md := range e.index {
		if md.Level != level {
			continue
		}
		pos, known := e.byName[name]
		if !known {
			delete(e.index, name)
			continue
		}
		if e.store.Delete(cache.Key(&e.programs[pos])) {
			count++
		}
		delete(e.index, name)
	}
	return count
}

// Criteria selects cache entries for criteria-based invalidation. Multiple
// set fields combine additively (union of invalidated entries).
type Criteria struct {
	FederalState   string
	ProgramType    string
	RelevanceLevel domain.RelevanceLevel // 0 = unset
	OlderThan      time.Time
	ExpiredOnly    bool
}

// InvalidateByCriteria invalidates cache entries matching any of the set
// criteria fields.
func (e *Engine) InvalidateByCriteria(criteria Criteria) domain.InvalidationResult {
	e.mu.Lock()
	result := newResult(domain.StrategyCriteriaBased)

	if criteria.FederalState != "" {
		e.guard(&result, "state sweep", func() {
			result.InvalidatedCount += e.store.InvalidateByPattern(cache.StatePattern(criteria.FederalState))
		})
	}
	if criteria.ProgramType != "" {
		e.guard(&result, "type sweep", func() {
			result.InvalidatedCount += e.store.InvalidateByPattern(cache.TypePattern(criteria.ProgramType))
		})
	}
	if criteria.RelevanceLevel != 0 {
		e.guard(&result, "level sweep", func() {
			result.InvalidatedCount += e.levelSweepLocked(criteria.RelevanceLevel)
		})
	}
	if !criteria.OlderThan.IsZero() {
		cutoff := criteria.OlderThan
		e.guard(&result, "age sweep", func() {
			result.InvalidatedCount += e.store.InvalidateFunc(func(info cache.EntryInfo) bool {
				return info.CachedAt.Before(cutoff)
			})
		})
	}
	if criteria.ExpiredOnly {
		e.guard(&result, "expired sweep", func() {
			result.InvalidatedCount += e.store.InvalidateFunc(func(info cache.EntryInfo) bool {
				return info.Expired
			})
		})
	}
	e.mu.Unlock()

	e.finishInvalidation(&result)
	return result
}

// refreshLocked re-classifies the named programs and repopulates cache and
// index. Cache write failures are recorded but do not stop the refresh.
func (e *Engine) refreshLocked(names []string, result *domain.InvalidationResult) int {
	refreshed := 0
	for _, name := range names {
		pos, known := e.byName[name]
		if !known {
			continue
		}
		p := e.programs[pos]
		md := classify.Metadata(&p)
		e.index[name] = md
		if err := e.store.Set(cache.Key(&p), md, 0); err != nil {
			result.AddError(fmt.Sprintf("refresh %q: %v", name, err))
			continue
		}
		refreshed++
	}
	return refreshed
}

// abortLocked handles a failed non-graceful selective invalidation:
// optionally recover by clearing and re-versioning the entire cache.
func (e *Engine) abortLocked(result *domain.InvalidationResult, opts *InvalidateOptions) {
	result.Success = false
	if !opts.AttemptRecovery {
		return
	}
	e.guard(result, "recovery clear", func() {
		e.store.Clear()
		e.index = make(map[string]domain.RelevanceMetadata, len(e.programs))
		result.Recovered = true
	})
}

// guard runs fn and converts a panic from a misbehaving cache backend into a
// recorded error. It reports whether fn completed.
func (e *Engine) guard(result *domain.InvalidationResult, op string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result.AddError(fmt.Sprintf("%s: %v", op, r))
			ok = false
		}
	}()
	fn()
	return true
}

func newResult(strategy domain.InvalidationStrategy) domain.InvalidationResult {
	return domain.InvalidationResult{
		Success:   true,
		Strategy:  strategy,
		Timestamp: time.Now(),
	}
}

// finishInvalidation records metrics and emits the invalidated event. Every
// invalidation emits, success or not.
func (e *Engine) finishInvalidation(result *domain.InvalidationResult) {
	metrics.InvalidationsTotal.WithLabelValues(string(result.Strategy)).Inc()
	metrics.InvalidationDuration.WithLabelValues(string(result.Strategy)).
		Observe(time.Since(result.Timestamp).Seconds())
	e.emitInvalidated(*result)

	if !result.Success {
		slog.Warn("cache invalidation reported errors",
			"strategy", result.Strategy,
			"errors", len(result.Errors),
			"recovered", result.Recovered)
	}
}
