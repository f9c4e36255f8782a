package engine

import (
	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/metrics"
)

// Database-change hooks. The update gateway invokes these when the
// persistence layer reports mutations; end-user code never calls them
// directly. Each hook mutates the authoritative program set, runs the
// matching invalidation, and emits the invalidated event regardless of
// success.

// ChangeContext carries the free-form flags of a change event.
type ChangeContext struct {
	AutoRefresh        bool
	InvalidateRelated  bool
	UpdateInternalData bool
}

// DefaultChangeContext returns the hook defaults: related invalidation and
// internal data updates on, auto-refresh off.
func DefaultChangeContext() ChangeContext {
	return ChangeContext{InvalidateRelated: true, UpdateInternalData: true}
}

// OnCreated registers a new program. Creation invalidates the complete
// cache: a new program can shift the relative ranking of everything.
func (e *Engine) OnCreated(p domain.FundingProgram, ctx ChangeContext) domain.InvalidationResult {
	metrics.ChangeEventsTotal.WithLabelValues(string(domain.ChangeCreated)).Inc()

	e.mu.Lock()
	e.upsertLocked(p)
	result := e.invalidateCompleteLocked(&InvalidateOptions{AutoRefresh: ctx.AutoRefresh})
	e.mu.Unlock()

	e.finishInvalidation(&result)
	return result
}

// OnUpdated applies program updates and selectively invalidates them,
// sweeping related entries when the context asks for it.
func (e *Engine) OnUpdated(programs []domain.FundingProgram, ctx ChangeContext) domain.InvalidationResult {
	metrics.ChangeEventsTotal.WithLabelValues(string(domain.ChangeUpdated)).Inc()

	names := make([]string, 0, len(programs))

	for i := range programs {
		names = append(names, programs[i].Name)
	}

	e.mu.Lock()
	// Invalidate before staging the new data: the cache keys derive from the
	// pre-update field values.
	result := e.invalidateSelectiveLocked(names, &InvalidateOptions{
		InvalidateRelated: ctx.InvalidateRelated,
		GracefulErrors:    true,
	})
	if ctx.UpdateInternalData {
		for i := range programs {
			e.upsertLocked(programs[i])
		}
	}
	if ctx.AutoRefresh {
		result.RefreshedCount = e.refreshLocked(names, &result)
	}
	e.mu.Unlock()

	e.finishInvalidation(&result)
	return result
}

// OnDeleted removes a program and its cached classification. Unknown names
// are a silent no-op.
func (e *Engine) OnDeleted(name string, ctx ChangeContext) domain.InvalidationResult {
	metrics.ChangeEventsTotal.WithLabelValues(string(domain.ChangeDeleted)).Inc()

	e.mu.Lock()
	result := e.deleteLocked([]string{name}, ctx)
	e.mu.Unlock()

	e.finishInvalidation(&result)
	return result
}

// OnBulk applies a batch of changes as one invalidation: one lock
// acquisition, one event emission. Bulk creation invalidates completely;
// bulk updates defer the auto-refresh until the whole batch is applied and
// then refresh once.
func (e *Engine) OnBulk(kind domain.ChangeKind, programs []domain.FundingProgram, ctx ChangeContext) domain.InvalidationResult {
	metrics.ChangeEventsTotal.WithLabelValues(string(kind)).Inc()

	var result domain.InvalidationResult

	e.mu.Lock()
	switch kind {
	case domain.ChangeBulkCreated:
		for i := range programs {
			e.upsertLocked(programs[i])
		}
		result = e.invalidateCompleteLocked(&InvalidateOptions{AutoRefresh: ctx.AutoRefresh})

	case domain.ChangeBulkUpdated:
		names := make([]string, 0, len(programs))
		for i := range programs {
			names = append(names, programs[i].Name)
		}
		// Invalidate the batch under pre-update keys, stage the new data,
		// then refresh in a single pass at the end.
		result = e.invalidateSelectiveLocked(names, &InvalidateOptions{
			InvalidateRelated: ctx.InvalidateRelated,
			GracefulErrors:    true,
		})
		if ctx.UpdateInternalData {
			for i := range programs {
				e.upsertLocked(programs[i])
			}
		}
		if ctx.AutoRefresh {
			result.RefreshedCount = e.refreshLocked(names, &result)
		}

	case domain.ChangeBulkDeleted:
		names := make([]string, 0, len(programs))
		for i := range programs {
			names = append(names, programs[i].Name)
		}
		result = e.deleteLocked(names, ctx)

	default:
		result = noopResult()
		result.AddError("unknown bulk change kind: " + string(kind))
	}
	e.mu.Unlock()

	e.finishInvalidation(&result)
	return result
}

// upsertLocked inserts or replaces a program in the authoritative set,
// preserving original order for existing entries.
func (e *Engine) upsertLocked(p domain.FundingProgram) {
	if pos, ok := e.byName[p.Name]; ok {
		e.programs[pos] = p
		return
	}
	e.programs = append(e.programs, p)
	e.byName[p.Name] = len(e.programs) - 1
}

// deleteLocked removes programs and their cache/index entries.
func (e *Engine) deleteLocked(names []string, ctx ChangeContext) domain.InvalidationResult {
	result := e.invalidateSelectiveLocked(names, &InvalidateOptions{
		InvalidateRelated: ctx.InvalidateRelated,
		GracefulErrors:    true,
	})

	for _, name := range names {
		pos, ok := e.byName[name]
		if !ok {
			continue
		}
		e.programs = append(e.programs[:pos], e.programs[pos+1:]...)
		delete(e.byName, name)
		delete(e.index, name)
		// Rebuild positions after the removal shifted the tail.
		for i := pos; i < len(e.programs); i++ {
			e.byName[e.programs[i].Name] = i
		}
	}
	return result
}
