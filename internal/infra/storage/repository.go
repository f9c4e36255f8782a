package storage

import (
	"context"
	"errors"

	"github.com/fundgrove/relevance/internal/core/domain"
)

var (
	// ErrProgramNotFound is returned when a program doesn't exist
	ErrProgramNotFound = errors.New("program not found")
)

// ProgramRepository handles funding program persistence
type ProgramRepository interface {
	// List returns all programs in insertion order
	List(ctx context.Context) ([]domain.FundingProgram, error)

	// Get retrieves a program by name
	Get(ctx context.Context, name string) (*domain.FundingProgram, error)

	// Upsert inserts or replaces a program
	Upsert(ctx context.Context, p *domain.FundingProgram) error

	// UpsertBatch inserts or replaces multiple programs
	UpsertBatch(ctx context.Context, programs []domain.FundingProgram) error

	// Delete removes a program by name
	Delete(ctx context.Context, name string) error

	// Count returns the number of stored programs
	Count(ctx context.Context) (int, error)
}

// ChangeFeed delivers program change events from the persistence layer.
type ChangeFeed interface {
	// Listen blocks and invokes handler for every change event until the
	// context is cancelled.
	Listen(ctx context.Context, handler func(domain.ChangeEvent)) error
}
