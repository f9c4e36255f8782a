// Package engine orchestrates the classifier, the state prioritizer, and the
// relevance cache: cache-first classification of program sets, per-user
// relevance scoring, the three invalidation strategies, database-change
// hooks, and scheduled maintenance.
package engine

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/classify"
	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/metrics"
)

// Store is the cache backend the engine runs against. *cache.Cache is the
// production implementation; tests inject misbehaving stores to exercise the
// failure paths.
type Store interface {
	Get(key string) (domain.RelevanceMetadata, bool)
	Set(key string, value domain.RelevanceMetadata, ttl time.Duration) error
	Delete(key string) bool
	Clear()
	Size() int
	InvalidateByPattern(pattern string) int
	InvalidateFunc(pred func(cache.EntryInfo) bool) int
	Keys() []string
	ReleaseMemory() int
	GetStats() cache.Stats
	GetHealthStatus() cache.Health
	StopSweeper()
}

// Engine is the relevance classification engine. Construct with New, release
// with Destroy.
type Engine struct {
	store Store

	// mu guards the authoritative program set and the classification index.
	mu       sync.Mutex
	programs []domain.FundingProgram // authoritative set, original order
	byName   map[string]int
	index    map[string]domain.RelevanceMetadata

	group singleflight.Group

	sinkMu sync.Mutex
	sink   Sink

	schedMu   sync.Mutex
	schedStop chan struct{}

	destroyed sync.Once
}

// New creates an engine over the given program set and cache backend. The
// slice is copied; later mutations go through the change hooks only.
func New(programs []domain.FundingProgram, store Store) *Engine {
	e := &Engine{
		store:    store,
		programs: make([]domain.FundingProgram, len(programs)),
		byName:   make(map[string]int, len(programs)),
		index:    make(map[string]domain.RelevanceMetadata, len(programs)),
	}
	copy(e.programs, programs)
	for i := range e.programs {
		e.byName[e.programs[i].Name] = i
	}
	return e
}

// ClassifyAll returns the programs paired with their relevance metadata,
// cache-first. Misses are classified once even under concurrent callers and
// written back to the cache and the classification index.
func (e *Engine) ClassifyAll(programs []domain.FundingProgram) []domain.ClassifiedProgram {
	result := make([]domain.ClassifiedProgram, 0, len(programs))
	for i := range programs {
		p := programs[i]
		result = append(result, domain.ClassifiedProgram{
			Program:  p,
			Metadata: e.classify(&p),
		})
	}
	return result
}

// ClassifyOwn classifies the authoritative program set.
func (e *Engine) ClassifyOwn() []domain.ClassifiedProgram {
	return e.ClassifyAll(e.Programs())
}

// classify resolves metadata for one program: cache hit, or classify and
// populate. Concurrent misses for the same key collapse into one
// classification via singleflight.
func (e *Engine) classify(p *domain.FundingProgram) domain.RelevanceMetadata {
	key := cache.Key(p)
	if md, ok := e.store.Get(key); ok {
		e.mu.Lock()
		e.index[p.Name] = md
		e.mu.Unlock()
		return md
	}

	v, _, _ := e.group.Do(key, func() (any, error) {
		md := classify.Metadata(p)
		metrics.ClassificationsTotal.WithLabelValues(md.Level.String()).Inc()
		if err := e.store.Set(key, md, 0); err != nil {
			// Classification stands on its own; a cache write failure only
			// costs the next lookup a recompute.
			slog.Warn("caching classification failed", "program", p.Name, "error", err)
		}
		return md, nil
	})

	md := v.(domain.RelevanceMetadata)
	e.mu.Lock()
	e.index[p.Name] = md
	e.mu.Unlock()
	return md
}

// RelevanceLevel returns the tier for a program: index lookup first, else
// classify-and-cache on demand.
func (e *Engine) RelevanceLevel(p *domain.FundingProgram) domain.RelevanceLevel {
	if p == nil {
		return domain.LevelExcluded
	}
	e.mu.Lock()
	md, ok := e.index[p.Name]
	e.mu.Unlock()
	if ok {
		return md.Level
	}
	return e.classify(p).Level
}

// UserCriteria describes the applicant's project for relevance scoring.
type UserCriteria struct {
	FederalState string
	ProjectType  string
	Measures     []string
}

// Relevance score weights.
const (
	scoreBaseCore          = 50
	scoreBaseSupplementary = 40
	scoreBaseNational      = 30
	scoreRegionBonus       = 30
	scoreTypeBonus         = 25
	scoreHistoryBonus      = 20
	scoreMeasuresBonusMax  = 15
)

// RelevanceScore rates a program against the user's criteria on a 0..100
// scale. Excluded programs always score 0.
func (e *Engine) RelevanceScore(p *domain.FundingProgram, criteria UserCriteria) int {
	if p == nil {
		return 0
	}

	md := e.metadata(p)
	var score int
	switch md.Level {
	case domain.LevelCore:
		score = scoreBaseCore
	case domain.LevelSupplementary:
		score = scoreBaseSupplementary
	case domain.LevelNational:
		score = scoreBaseNational
	default:
		return 0
	}

	if criteria.FederalState != "" && p.CoversState(criteria.FederalState) {
		score += scoreRegionBonus
	}
	if criteria.ProjectType != "" && hasTag(p.Type, criteria.ProjectType) {
		score += scoreTypeBonus
	}
	if md.DomainFundingHistory {
		score += scoreHistoryBonus
	}
	if len(criteria.Measures) > 0 {
		overlap := 0
		for _, m := range criteria.Measures {
			if hasTag(p.Measures, m) {
				overlap++
			}
		}
		score += overlap * scoreMeasuresBonusMax / len(criteria.Measures)
	}

	if score > 100 {
		score = 100
	}
	return score
}

// SortByPriority orders classified programs for the user's home state.
func (e *Engine) SortByPriority(programs []domain.ClassifiedProgram, state string) {
	classify.SortByPriority(programs, state)
}

// metadata resolves full metadata, index-first.
func (e *Engine) metadata(p *domain.FundingProgram) domain.RelevanceMetadata {
	e.mu.Lock()
	md, ok := e.index[p.Name]
	e.mu.Unlock()
	if ok {
		return md
	}
	return e.classify(p)
}

// Programs returns a copy of the authoritative program set in original order.
func (e *Engine) Programs() []domain.FundingProgram {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.FundingProgram, len(e.programs))
	copy(out, e.programs)
	return out
}

// ClassificationIndexSize returns the number of indexed classifications.
func (e *Engine) ClassificationIndexSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.index)
}

// Stats returns classification statistics over the authoritative set.
func (e *Engine) Stats() domain.ClassificationStats {
	return classify.Stats(e.Programs())
}

// CacheStats returns the backend cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.store.GetStats()
}

// CacheHealth returns the backend cache health report.
func (e *Engine) CacheHealth() cache.Health {
	return e.store.GetHealthStatus()
}

// Destroy stops the scheduled invalidation task, releases the cache sweeper,
// and detaches the event sink. Safe to call more than once; never panics
// even when sub-resources are already released.
func (e *Engine) Destroy() {
	e.destroyed.Do(func() {
		e.StopScheduledInvalidation()
		func() {
			defer func() { _ = recover() }()
			e.store.StopSweeper()
		}()
		e.SetEventSink(nil)
	})
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
