// Package dataset loads funding-program datasets from JSON files.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fundgrove/relevance/internal/core/domain"
)

// Load reads a JSON array of funding programs from path. Programs without a
// name are rejected, as are duplicate names; the name is the identity every
// downstream lookup keys on.
func Load(path string) ([]domain.FundingProgram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON program array.
func Parse(data []byte) ([]domain.FundingProgram, error) {
	var programs []domain.FundingProgram
	if err := json.Unmarshal(data, &programs); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}

	seen := make(map[string]struct{}, len(programs))
	for i := range programs {
		name := programs[i].Name
		if name == "" {
			return nil, fmt.Errorf("program %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate program name %q", name)
		}
		seen[name] = struct{}{}
	}
	return programs, nil
}
