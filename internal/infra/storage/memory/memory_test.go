package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/infra/storage"
)

func TestStore_CRUD(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	go func() {
		_ = s.Listen(ctx, func(domain.ChangeEvent) {})
	}()

	p := domain.FundingProgram{Name: "Spielplatzförderung Bayern", FederalStates: []string{"Bayern"}}
	if err := s.Upsert(ctx, &p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Get(ctx, p.Name)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != p.Name {
		t.Errorf("unexpected program %q", got.Name)
	}

	if count, _ := s.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	if err := s.Delete(ctx, p.Name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, p.Name); !errors.Is(err, storage.ErrProgramNotFound) {
		t.Errorf("expected ErrProgramNotFound, got %v", err)
	}
	if err := s.Delete(ctx, p.Name); !errors.Is(err, storage.ErrProgramNotFound) {
		t.Errorf("expected ErrProgramNotFound on double delete, got %v", err)
	}
}

func TestStore_SeedEmitsNoEvents(t *testing.T) {
	s := NewStore()
	s.Seed([]domain.FundingProgram{{Name: "a"}, {Name: "b"}})

	select {
	case ev := <-s.feed:
		t.Errorf("seed must not emit events, got %v", ev.Kind)
	default:
	}
	if count, _ := s.Count(context.Background()); count != 2 {
		t.Errorf("expected 2 seeded programs, got %d", count)
	}
}

func TestStore_FeedDeliversEveryEvent(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const total = 100 // beyond the feed buffer capacity
	received := make(chan domain.ChangeEvent, total)
	go func() {
		_ = s.Listen(ctx, func(ev domain.ChangeEvent) { received <- ev })
	}()

	for i := 0; i < total; i++ {
		p := domain.FundingProgram{Name: fmt.Sprintf("Programm %03d", i)}
		if err := s.Upsert(ctx, &p); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	for i := 0; i < total; i++ {
		select {
		case ev := <-received:
			if ev.Kind != domain.ChangeCreated {
				t.Fatalf("event %d: expected created, got %s", i, ev.Kind)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d never delivered", i)
		}
	}
}
