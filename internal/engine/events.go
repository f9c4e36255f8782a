package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fundgrove/relevance/internal/core/domain"
)

// EventType identifies engine event kinds on the subscription seam.
type EventType string

const (
	// Outbound after every invalidation.
	EventCacheInvalidated EventType = "relevance_cache_invalidated"

	// Inbound direct requests.
	EventInvalidationRequested EventType = "cache_invalidation_requested"
	EventRefreshRequested      EventType = "cache_refresh_requested"
)

// InvalidationEvent is the outbound notification carrying an invalidation
// result.
type InvalidationEvent struct {
	ID        string                    `json:"id"`
	Type      EventType                 `json:"eventType"`
	Timestamp time.Time                 `json:"timestamp"`
	Result    domain.InvalidationResult `json:"result"`
}

// Sink receives outbound engine events. The Redis bus implements it for
// cross-instance propagation; in-process callers can register any callback
// wrapper. A nil sink drops events.
type Sink interface {
	Publish(ev InvalidationEvent) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev InvalidationEvent) error

// Publish calls f.
func (f SinkFunc) Publish(ev InvalidationEvent) error { return f(ev) }

// SetEventSink registers the outbound event sink, replacing any previous
// one. Pass nil to detach.
func (e *Engine) SetEventSink(s Sink) {
	e.sinkMu.Lock()
	e.sink = s
	e.sinkMu.Unlock()
}

func (e *Engine) emitInvalidated(result domain.InvalidationResult) {
	e.sinkMu.Lock()
	sink := e.sink
	e.sinkMu.Unlock()
	if sink == nil {
		return
	}

	ev := InvalidationEvent{
		ID:        uuid.New().String(),
		Type:      EventCacheInvalidated,
		Timestamp: time.Now(),
		Result:    result,
	}
	if err := sink.Publish(ev); err != nil {
		slog.Warn("publishing invalidation event failed", "event_id", ev.ID, "error", err)
	}
}

// Request is an inbound direct call on the event seam.
type Request struct {
	Type         EventType         `json:"type"`
	ProgramNames []string          `json:"programNames,omitempty"`
	Options      InvalidateOptions `json:"options"`
}

// HandleRequest dispatches an inbound cache request. Refresh requests force
// AutoRefresh on. Unknown request types are a no-op reported in the result.
func (e *Engine) HandleRequest(req Request) domain.InvalidationResult {
	switch req.Type {
	case EventInvalidationRequested:
		opts := req.Options
		return e.Invalidate(req.ProgramNames, &opts)
	case EventRefreshRequested:
		opts := req.Options
		opts.AutoRefresh = true
		return e.Invalidate(req.ProgramNames, &opts)
	default:
		result := newResult(domain.StrategySelective)
		result.AddError("unknown request type: " + string(req.Type))
		return result
	}
}

// HandleChange dispatches a persistence-layer change event to the matching
// hook. This is the entry point the update gateway uses.
func (e *Engine) HandleChange(ev domain.ChangeEvent) domain.InvalidationResult {
	ctx := ChangeContext{
		AutoRefresh:        ev.Flag("autoRefresh", false),
		InvalidateRelated:  ev.Flag("invalidateRelated", true),
		UpdateInternalData: ev.Flag("updateInternalData", true),
	}

	switch ev.Kind {
	case domain.ChangeCreated:
		if ev.Program == nil {
			return noopResult()
		}
		return e.OnCreated(*ev.Program, ctx)
	case domain.ChangeUpdated:
		programs := ev.Programs
		if ev.Program != nil {
			programs = append(programs, *ev.Program)
		}
		return e.OnUpdated(programs, ctx)
	case domain.ChangeDeleted:
		return e.OnDeleted(ev.Name, ctx)
	case domain.ChangeBulkCreated, domain.ChangeBulkUpdated, domain.ChangeBulkDeleted:
		return e.OnBulk(ev.Kind, ev.Programs, ctx)
	default:
		result := noopResult()
		result.AddError("unknown change kind: " + string(ev.Kind))
		return result
	}
}

func noopResult() domain.InvalidationResult {
	return newResult(domain.StrategySelective)
}
