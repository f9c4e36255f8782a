package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/infra/storage"
)

// stringSlice maps []string to a JSONB column.
type stringSlice []string

func (s stringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *stringSlice) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("unsupported source type %T", src)
	}
}

// programRow is the table representation of a funding program.
type programRow struct {
	Name          string      `db:"name"`
	Type          stringSlice `db:"type"`
	FederalStates stringSlice `db:"federal_states"`
	Measures      stringSlice `db:"measures"`
	FundingRate   string      `db:"funding_rate"`
	Description   string      `db:"description"`
	Source        string      `db:"source"`
}

func (r *programRow) toDomain() domain.FundingProgram {
	return domain.FundingProgram{
		Name:          r.Name,
		Type:          r.Type,
		FederalStates: r.FederalStates,
		Measures:      r.Measures,
		FundingRate:   r.FundingRate,
		Description:   r.Description,
		Source:        r.Source,
	}
}

func toRow(p *domain.FundingProgram) programRow {
	return programRow{
		Name:          p.Name,
		Type:          stringSlice(p.Type),
		FederalStates: stringSlice(p.FederalStates),
		Measures:      stringSlice(p.Measures),
		FundingRate:   p.FundingRate,
		Description:   p.Description,
		Source:        p.Source,
	}
}

// ProgramRepo implements storage.ProgramRepository using PostgreSQL.
type ProgramRepo struct {
	db *DB
}

// NewProgramRepo creates a new PostgreSQL program repository.
func NewProgramRepo(db *DB) *ProgramRepo {
	return &ProgramRepo{db: db}
}

const upsertQuery = `
	INSERT INTO programs (name, type, federal_states, measures, funding_rate, description, source, updated_at)
	VALUES (:name, :type, :federal_states, :measures, :funding_rate, :description, :source, now())
	ON CONFLICT (name) DO UPDATE SET
		type = EXCLUDED.type,
		federal_states = EXCLUDED.federal_states,
		measures = EXCLUDED.measures,
		funding_rate = EXCLUDED.funding_rate,
		description = EXCLUDED.description,
		source = EXCLUDED.source,
		updated_at = now()`

// List returns all programs ordered by insertion.
func (r *ProgramRepo) List(ctx context.Context) ([]domain.FundingProgram, error) {
	var rows []programRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT name, type, federal_states, measures, funding_rate, description, source
		 FROM programs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}

	programs := make([]domain.FundingProgram, 0, len(rows))
	for i := range rows {
		programs = append(programs, rows[i].toDomain())
	}
	return programs, nil
}

// Get retrieves a program by name.
func (r *ProgramRepo) Get(ctx context.Context, name string) (*domain.FundingProgram, error) {
	var row programRow
	err := r.db.GetContext(ctx, &row,
		`SELECT name, type, federal_states, measures, funding_rate, description, source
		 FROM programs WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}

	p := row.toDomain()
	return &p, nil
}

// Upsert inserts or replaces a program.
func (r *ProgramRepo) Upsert(ctx context.Context, p *domain.FundingProgram) error {
	row := toRow(p)
	if _, err := r.db.NamedExecContext(ctx, upsertQuery, row); err != nil {
		return fmt.Errorf("failed to upsert program: %w", err)
	}
	return nil
}

// UpsertBatch inserts or replaces programs in one transaction.
func (r *ProgramRepo) UpsertBatch(ctx context.Context, programs []domain.FundingProgram) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range programs {
		row := toRow(&programs[i])
		if _, err := tx.NamedExecContext(ctx, upsertQuery, row); err != nil {
			return fmt.Errorf("failed to upsert program %q: %w", programs[i].Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Delete removes a program by name.
func (r *ProgramRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrProgramNotFound
	}
	return nil
}

// Count returns the number of stored programs.
func (r *ProgramRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM programs`); err != nil {
		return 0, fmt.Errorf("failed to count programs: %w", err)
	}
	return count, nil
}
