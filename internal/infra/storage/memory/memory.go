package memory

import (
	"context"
	"sync"

	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/infra/storage"
)

// Store is the in-memory program repository used in DB-less mode and in
// tests. It doubles as a change feed: every mutation is pushed to
// subscribers, so the update gateway works identically with and without
// Postgres.
type Store struct {
	mu       sync.RWMutex
	programs []domain.FundingProgram
	byName   map[string]int

	feed chan domain.ChangeEvent
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		byName: make(map[string]int),
		feed:   make(chan domain.ChangeEvent, 64),
	}
}

// List returns all programs in insertion order.
func (s *Store) List(ctx context.Context) ([]domain.FundingProgram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FundingProgram, len(s.programs))
	copy(out, s.programs)
	return out, nil
}

// Get retrieves a program by name.
func (s *Store) Get(ctx context.Context, name string) (*domain.FundingProgram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.byName[name]
	if !ok {
		return nil, storage.ErrProgramNotFound
	}
	p := s.programs[pos]
	return &p, nil
}

// Upsert inserts or replaces a program and emits a change event.
func (s *Store) Upsert(ctx context.Context, p *domain.FundingProgram) error {
	s.mu.Lock()
	_, existed := s.byName[p.Name]
	s.upsertLocked(*p)
	s.mu.Unlock()

	kind := domain.ChangeCreated
	if existed {
		kind = domain.ChangeUpdated
	}
	s.publish(domain.ChangeEvent{Kind: kind, Program: p})
	return nil
}

// UpsertBatch inserts or replaces programs and emits one bulk event.
func (s *Store) UpsertBatch(ctx context.Context, programs []domain.FundingProgram) error {
	if len(programs) == 0 {
		return nil
	}
	s.mu.Lock()
	for i := range programs {
		s.upsertLocked(programs[i])
	}
	s.mu.Unlock()

	s.publish(domain.ChangeEvent{Kind: domain.ChangeBulkUpdated, Programs: programs})
	return nil
}

// Delete removes a program by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	pos, ok := s.byName[name]
	if !ok {
		s.mu.Unlock()
		return storage.ErrProgramNotFound
	}
	s.programs = append(s.programs[:pos], s.programs[pos+1:]...)
	delete(s.byName, name)
	for i := pos; i < len(s.programs); i++ {
		s.byName[s.programs[i].Name] = i
	}
	s.mu.Unlock()

	s.publish(domain.ChangeEvent{Kind: domain.ChangeDeleted, Name: name})
	return nil
}

// Count returns the number of stored programs.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.programs), nil
}

// Seed loads programs without emitting change events. Used for the initial
// dataset, which the engine receives directly at construction.
func (s *Store) Seed(programs []domain.FundingProgram) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range programs {
		s.upsertLocked(programs[i])
	}
}

// Listen delivers change events until the context is cancelled.
func (s *Store) Listen(ctx context.Context, handler func(domain.ChangeEvent)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.feed:
			handler(ev)
		}
	}
}

func (s *Store) upsertLocked(p domain.FundingProgram) {
	if pos, ok := s.byName[p.Name]; ok {
		s.programs[pos] = p
		return
	}
	s.programs = append(s.programs, p)
	s.byName[p.Name] = len(s.programs) - 1
}

// publish blocks when the feed buffer is full instead of dropping the
// event: a dropped event would leave consumers permanently out of sync with
// the store. The gateway consumes continuously, so back-pressure here is
// transient. Callers must not hold s.mu.
func (s *Store) publish(ev domain.ChangeEvent) {
	s.feed <- ev
}
