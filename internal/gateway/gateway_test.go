package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/engine"
	"github.com/fundgrove/relevance/internal/infra/storage/memory"
)

func newTestEngine() *engine.Engine {
	c := cache.New(cache.Config{MaxSize: 100, TTL: time.Minute})
	return engine.New(nil, c)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestGatewayAppliesChangeFeed(t *testing.T) {
	eng := newTestEngine()
	defer eng.Destroy()
	store := memory.NewStore()
	gw := New(eng, store, nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		gw.Run(ctx)
		close(done)
	}()

	p := domain.FundingProgram{
		Name:          "Spielplatzförderung Bayern",
		Type:          []string{"Landesprogramm"},
		FederalStates: []string{"Bayern"},
	}
	if err := store.Upsert(context.Background(), &p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	waitFor(t, func() bool { return len(eng.Programs()) == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway did not stop on context cancel")
	}
}

type fakeRequests struct {
	req engine.Request
}

func (f *fakeRequests) Subscribe(ctx context.Context, handler func(engine.Request)) error {
	handler(f.req)
	<-ctx.Done()
	return ctx.Err()
}

func TestGatewayDispatchesRequests(t *testing.T) {
	p := domain.FundingProgram{Name: "Sportstättenbau", Type: []string{"Landesprogramm"}}
	eng := engine.New([]domain.FundingProgram{p}, cache.New(cache.Config{MaxSize: 10, TTL: time.Minute}))
	defer eng.Destroy()
	eng.ClassifyOwn()
	if eng.CacheStats().Size != 1 {
		t.Fatalf("expected primed cache, size %d", eng.CacheStats().Size)
	}

	src := &fakeRequests{req: engine.Request{Type: engine.EventInvalidationRequested}}
	gw := New(eng, nil, src, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		gw.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return eng.CacheStats().Size == 0 })

	cancel()
	<-done
}
