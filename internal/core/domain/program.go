package domain

import "strings"

// AllStates is the sentinel region code for programs open to every federal state.
const AllStates = "all"

// FundingProgram represents a single funding program from the dataset.
// Programs are read-mostly: the authoritative set is supplied at startup and
// mutated only through change events from the persistence layer.
type FundingProgram struct {
	Name          string   `json:"name"           db:"name"`
	Type          []string `json:"type"           db:"type"`
	FederalStates []string `json:"federalStates"  db:"federal_states"`
	Measures      []string `json:"measures"       db:"measures"`
	FundingRate   string   `json:"fundingRate"    db:"funding_rate"`
	Description   string   `json:"description"    db:"description"`
	Source        string   `json:"source"         db:"source"`
}

// IsNationwide reports whether the program is open to all federal states.
func (p *FundingProgram) IsNationwide() bool {
	for _, s := range p.FederalStates {
		if strings.EqualFold(s, AllStates) {
			return true
		}
	}
	return false
}

// CoversState reports whether the program is available in the given state,
// either explicitly or via the "all" sentinel.
func (p *FundingProgram) CoversState(state string) bool {
	for _, s := range p.FederalStates {
		if strings.EqualFold(s, state) || strings.EqualFold(s, AllStates) {
			return true
		}
	}
	return false
}

// SearchableText joins the textual fields used by keyword classification,
// lowercased for case-insensitive matching.
func (p *FundingProgram) SearchableText() string {
	parts := []string{
		p.Name,
		p.Description,
		p.Source,
		strings.Join(p.Type, " "),
		strings.Join(p.Measures, " "),
	}
	return strings.ToLower(strings.Join(parts, " "))
}
