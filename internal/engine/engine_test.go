package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/core/domain"
)

func testPrograms() []domain.FundingProgram {
	return []domain.FundingProgram{
		{
			Name:          "Bayern Spielplatzförderung",
			FederalStates: []string{"BY"},
			Type:          []string{"playground"},
			Measures:      []string{"Spielgeräte", "Fallschutz"},
			FundingRate:   "bis zu 80%",
		},
		{
			Name:          "EFRE Spielplatzmodernisierung",
			FederalStates: []string{"all"},
			Description:   "EU-Förderung über EFRE",
			FundingRate:   "50%",
		},
		{
			Name:          "Digitalisierung Hochschulen",
			FederalStates: []string{"all"},
			Type:          []string{"research"},
		},
	}
}

func newTestEngine() (*Engine, *cache.Cache) {
	c := cache.New(cache.Config{MaxSize: 100})
	return New(testPrograms(), c), c
}

func TestClassifyAll_PopulatesCacheAndIndex(t *testing.T) {
	e, c := newTestEngine()
	defer e.Destroy()

	results := e.ClassifyOwn()
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if c.Size() != 3 {
		t.Errorf("expected 3 cached entries, got %d", c.Size())
	}
	if e.ClassificationIndexSize() != 3 {
		t.Errorf("expected index size 3, got %d", e.ClassificationIndexSize())
	}

	byName := map[string]domain.RelevanceLevel{}
	for _, r := range results {
		byName[r.Program.Name] = r.Metadata.Level
	}
	if byName["Bayern Spielplatzförderung"] != domain.LevelCore {
		t.Errorf("expected core for Bayern program, got %d", byName["Bayern Spielplatzförderung"])
	}
	if byName["EFRE Spielplatzmodernisierung"] != domain.LevelSupplementary {
		t.Errorf("expected supplementary for EFRE program, got %d", byName["EFRE Spielplatzmodernisierung"])
	}
	if byName["Digitalisierung Hochschulen"] != domain.LevelExcluded {
		t.Errorf("expected excluded for Hochschulen program, got %d", byName["Digitalisierung Hochschulen"])
	}
}

func TestClassifyAll_SecondRunHitsCache(t *testing.T) {
	e, c := newTestEngine()
	defer e.Destroy()

	e.ClassifyOwn()
	before := c.GetStats().Misses
	e.ClassifyOwn()
	after := c.GetStats()

	if after.Misses != before {
		t.Errorf("expected no new misses on second run, got %d extra", after.Misses-before)
	}
	if after.Hits == 0 {
		t.Error("expected cache hits on second run")
	}
}

func TestRelevanceScore(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Destroy()

	p := e.Programs()[0] // Bayern, core, playground, Spielgeräte+Fallschutz

	criteria := UserCriteria{
		FederalState: "BY",
		ProjectType:  "playground",
		Measures:     []string{"Spielgeräte", "Fallschutz"},
	}
	got := e.RelevanceScore(&p, criteria)
	// 50 base + 30 region + 25 type + 20 history + 15 measures, capped.
	if got != 100 {
		t.Errorf("expected capped score 100, got %d", got)
	}

	weak := e.RelevanceScore(&p, UserCriteria{FederalState: "HE"})
	if weak >= got {
		t.Errorf("expected weaker criteria to score lower: %d vs %d", weak, got)
	}

	excluded := e.Programs()[2]
	if s := e.RelevanceScore(&excluded, criteria); s != 0 {
		t.Errorf("excluded program must score 0, got %d", s)
	}
}

func TestRelevanceScore_MeasuresProportional(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Destroy()

	p := e.Programs()[0]
	full := e.RelevanceScore(&p, UserCriteria{Measures: []string{"Spielgeräte", "Fallschutz"}})
	half := e.RelevanceScore(&p, UserCriteria{Measures: []string{"Spielgeräte", "Seilbahn"}})

	if full-half != 8 { // 15 - 15/2 (integer division: 15 vs 7)
		t.Errorf("expected proportional measures bonus, full=%d half=%d", full, half)
	}
}

func TestInvalidate_Complete(t *testing.T) {
	e, c := newTestEngine()
	defer e.Destroy()

	e.ClassifyOwn()
	priorSize := c.Size()

	result := e.Invalidate(nil, nil)

	if !result.Success {
		t.Fatalf("unexpected failure: %v", result.Errors)
	}
	if result.Strategy != domain.StrategyComplete {
		t.Errorf("expected complete strategy, got %s", result.Strategy)
	}
	if result.InvalidatedCount != priorSize {
		t.Errorf("expected count %d, got %d", priorSize, result.InvalidatedCount)
	}
	if c.Size() != 0 {
		t.Errorf("expected empty cache, got %d", c.Size())
	}
	if e.ClassificationIndexSize() != 0 {
		t.Errorf("expected empty index, got %d", e.ClassificationIndexSize())
	}
}

func TestInvalidate_SelectiveWithAutoRefresh(t *testing.T) {
	e, c := newTestEngine()
	defer e.Destroy()

	e.ClassifyOwn()
	sizeBefore := c.Size()

	result := e.Invalidate([]string{"Bayern Spielplatzförderung"}, &InvalidateOptions{AutoRefresh: true})

	if !result.Success {
		t.Fatalf("unexpected failure: %v", result.Errors)
	}
	if result.Strategy != domain.StrategySelective {
		t.Errorf("expected selective strategy, got %s", result.Strategy)
	}
	if result.InvalidatedCount != 1 || result.RefreshedCount != 1 {
		t.Errorf("expected 1 invalidated and 1 refreshed, got %d/%d",
			result.InvalidatedCount, result.RefreshedCount)
	}
	// Net effect of invalidate+refresh: the entry is replaced, not lost.
	if c.Size() != sizeBefore {
		t.Errorf("expected size %d after refresh, got %d", sizeBefore, c.Size())
	}

	p := e.Programs()[0]
	if level := e.RelevanceLevel(&p); level != domain.LevelCore {
		t.Errorf("expected original classification after refresh, got %d", level)
	}
}

func TestInvalidate_UnknownNamesNoOp(t *testing.T) {
	e, c := newTestEngine()
	defer e.Destroy()

	e.ClassifyOwn()
	result := e.Invalidate([]string{"does not exist"}, nil)

	if !result.Success {
		t.Errorf("unknown names must not fail: %v", result.Errors)
	}
	if result.InvalidatedCount != 0 {
		t.Errorf("expected 0 invalidated, got %d", result.InvalidatedCount)
	}
	if c.Size() != 3 {
		t.Errorf("cache must be untouched, got size %d", c.Size())
	}
}

func TestInvalidate_RelatedSweep(t *testing.T) {
	e, c := newTestEngine()
	defer e.Destroy()

	e.ClassifyOwn()
	result := e.Invalidate([]string{"Bayern Spielplatzförderung"},
		&InvalidateOptions{InvalidateRelated: true})

	if !result.Success {
		t.Fatalf("unexpected failure: %v", result.Errors)
	}
	if result.InvalidatedCount < 1 {
		t.Errorf("expected at least the named program invalidated, got %d", result.InvalidatedCount)
	}
	if _, ok := c.Get(cache.Key(&testPrograms()[0])); ok {
		t.Error("named program must be gone from the cache")
	}
}

func TestInvalidateByCriteria_ExpiredOnly(t *testing.T) {
	c := cache.New(cache.Config{MaxSize: 100, TTL: 5 * time.Millisecond})
	e := New(testPrograms(), c)
	defer e.Destroy()

	e.ClassifyOwn()
	initial := c.Size()
	time.Sleep(15 * time.Millisecond)

	result := e.InvalidateByCriteria(Criteria{ExpiredOnly: true})

	if result.InvalidatedCount != initial {
		t.Errorf("expected all %d expired entries invalidated, got %d",
			initial, result.InvalidatedCount)
	}
}

func TestInvalidateByCriteria_ByStateAndLevel(t *testing.T) {
	e, c := newTestEngine()
	defer e.Destroy()

	e.ClassifyOwn()

	byState := e.InvalidateByCriteria(Criteria{FederalState: "BY"})
	if byState.InvalidatedCount != 1 {
		t.Errorf("expected 1 entry for BY, got %d", byState.InvalidatedCount)
	}

	e.ClassifyOwn()
	byLevel := e.InvalidateByCriteria(Criteria{RelevanceLevel: domain.LevelSupplementary})
	if byLevel.InvalidatedCount != 1 {
		t.Errorf("expected 1 supplementary entry, got %d", byLevel.InvalidatedCount)
	}
	if c.Size() != 2 {
		t.Errorf("expected 2 entries left, got %d", c.Size())
	}
}

func TestInvalidateByCriteria_MultiStateProgram(t *testing.T) {
	c := cache.New(cache.Config{MaxSize: 100})
	e := New([]domain.FundingProgram{
		{
			Name:          "Spielplatzprogramm Süd",
			FederalStates: []string{"BY", "HE"},
			Type:          []string{"playground"},
		},
	}, c)
	defer e.Destroy()

	e.ClassifyOwn()

	// "HE" is not the first state in the key facet; the sweep must still
	// reach the entry.
	result := e.InvalidateByCriteria(Criteria{FederalState: "HE"})
	if result.InvalidatedCount != 1 {
		t.Errorf("expected 1 entry for HE, got %d", result.InvalidatedCount)
	}
	if c.Size() != 0 {
		t.Errorf("expected empty cache, got %d", c.Size())
	}
}

// failingStore wraps a real cache and fails on demand.
type failingStore struct {
	*cache.Cache
	failSet    bool
	panicOnDel bool
}

func (s *failingStore) Set(key string, value domain.RelevanceMetadata, ttl time.Duration) error {
	if s.failSet {
		return errors.New("backend unavailable")
	}
	return s.Cache.Set(key, value, ttl)
}

func (s *failingStore) Delete(key string) bool {
	if s.panicOnDel {
		panic("backend gone")
	}
	return s.Cache.Delete(key)
}

func TestInvalidate_BackendPanicIsCaught(t *testing.T) {
	store := &failingStore{Cache: cache.New(cache.Config{MaxSize: 100})}
	e := New(testPrograms(), store)
	defer e.Destroy()

	e.ClassifyOwn()
	store.panicOnDel = true

	result := e.Invalidate([]string{"Bayern Spielplatzförderung"},
		&InvalidateOptions{AttemptRecovery: true})

	if result.Success {
		t.Error("expected failure result")
	}
	if len(result.Errors) == 0 {
		t.Error("expected backend failure recorded in errors")
	}
	if !result.Recovered {
		t.Error("expected recovery to run")
	}
	if store.Cache.Size() != 0 {
		t.Errorf("recovery must clear the cache, size %d", store.Cache.Size())
	}
}

func TestInvalidate_GracefulErrorsContinue(t *testing.T) {
	store := &failingStore{Cache: cache.New(cache.Config{MaxSize: 100})}
	e := New(testPrograms(), store)
	defer e.Destroy()

	e.ClassifyOwn()
	store.panicOnDel = true

	result := e.Invalidate(
		[]string{"Bayern Spielplatzförderung", "EFRE Spielplatzmodernisierung"},
		&InvalidateOptions{GracefulErrors: true})

	if result.Success {
		t.Error("expected failure result")
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected one error per program, got %d", len(result.Errors))
	}
	if result.Recovered {
		t.Error("graceful mode must not trigger recovery")
	}
}

func TestInvalidate_RefreshErrorReported(t *testing.T) {
	store := &failingStore{Cache: cache.New(cache.Config{MaxSize: 100})}
	e := New(testPrograms(), store)
	defer e.Destroy()

	e.ClassifyOwn()
	store.failSet = true

	result := e.Invalidate([]string{"Bayern Spielplatzförderung"},
		&InvalidateOptions{AutoRefresh: true})

	if result.Success {
		t.Error("expected failure recorded for the refresh write")
	}
	// Classification still proceeds without the cache.
	p := e.Programs()[0]
	if level := e.RelevanceLevel(&p); level != domain.LevelCore {
		t.Errorf("expected classification to survive cache failure, got %d", level)
	}
}

func TestDestroy_Idempotent(t *testing.T) {
	e, c := newTestEngine()

	c.StartSweeper()
	e.ScheduleInvalidation(Schedule{Interval: 10 * time.Millisecond})

	e.Destroy()
	e.Destroy() // must not panic
}

func TestScheduler_StopIdempotent(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Destroy()

	e.StopScheduledInvalidation() // no schedule yet
	e.ScheduleInvalidation(Schedule{Interval: 10 * time.Millisecond})
	e.ScheduleInvalidation(Schedule{Interval: 10 * time.Millisecond}) // reschedule
	e.StopScheduledInvalidation()
	e.StopScheduledInvalidation()
}

func TestEvents_EmittedOnEveryInvalidation(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Destroy()

	var events []InvalidationEvent
	e.SetEventSink(SinkFunc(func(ev InvalidationEvent) error {
		events = append(events, ev)
		return nil
	}))

	e.ClassifyOwn()
	e.Invalidate(nil, nil)
	e.Invalidate([]string{"Bayern Spielplatzförderung"}, nil)
	e.InvalidateByCriteria(Criteria{ExpiredOnly: true})

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Type != EventCacheInvalidated {
			t.Errorf("unexpected event type %s", ev.Type)
		}
		if ev.ID == "" {
			t.Error("expected event id")
		}
	}
}

func TestConcurrentClassifyAndInvalidate(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Destroy()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			e.ClassifyOwn()
		}
	}()
	for i := 0; i < 50; i++ {
		e.Invalidate([]string{"Bayern Spielplatzförderung"}, &InvalidateOptions{AutoRefresh: true})
		e.InvalidateByCriteria(Criteria{ExpiredOnly: true})
	}
	<-done

	p := e.Programs()[0]
	if level := e.RelevanceLevel(&p); level != domain.LevelCore {
		t.Errorf("classification drifted under concurrency: %d", level)
	}
}

func TestHandleRequest_Refresh(t *testing.T) {
	e, c := newTestEngine()
	defer e.Destroy()

	e.ClassifyOwn()
	result := e.HandleRequest(Request{
		Type:         EventRefreshRequested,
		ProgramNames: []string{"Bayern Spielplatzförderung"},
	})

	if !result.Success || result.RefreshedCount != 1 {
		t.Errorf("expected one refreshed program, got %+v", result)
	}
	if c.Size() != 3 {
		t.Errorf("expected cache fully populated, got %d", c.Size())
	}
}
