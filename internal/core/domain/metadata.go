package domain

import "time"

// RelevanceLevel is the classification tier assigned to a program.
type RelevanceLevel int

const (
	LevelCore          RelevanceLevel = 1 // state-specific programs, highest priority
	LevelSupplementary RelevanceLevel = 2 // EU/federal programs implemented nationwide
	LevelNational      RelevanceLevel = 3 // remaining nationwide programs
	LevelExcluded      RelevanceLevel = 4 // out-of-domain, hidden from all results
)

// String returns the human-readable tier name.
func (l RelevanceLevel) String() string {
	switch l {
	case LevelCore:
		return "core"
	case LevelSupplementary:
		return "supplementary"
	case LevelNational:
		return "national"
	case LevelExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// ProgramOrigin identifies the funding source of a program.
type ProgramOrigin string

const (
	OriginFederal ProgramOrigin = "federal"
	OriginState   ProgramOrigin = "state"
	OriginEU      ProgramOrigin = "eu"
	OriginMixed   ProgramOrigin = "mixed"
)

// ImplementationLevel identifies the administrative level a program is run at.
type ImplementationLevel string

const (
	ImplementationNational ImplementationLevel = "national"
	ImplementationState    ImplementationLevel = "state"
	ImplementationRegional ImplementationLevel = "regional"
	ImplementationLocal    ImplementationLevel = "local"
)

// RelevanceMetadata is the derived classification attached to a program.
type RelevanceMetadata struct {
	Level                RelevanceLevel      `json:"relevanceLevel"`
	RegionSpecific       bool                `json:"isRegionSpecific"`
	DomainFundingHistory bool                `json:"domainFundingHistory"`
	Origin               ProgramOrigin       `json:"origin"`
	Implementation       ImplementationLevel `json:"implementationLevel"`
	SuccessRate          int                 `json:"successRate"` // always clamped to [0,100]
	LastUpdate           time.Time           `json:"lastUpdate"`
}

// ClassifiedProgram pairs a program with its relevance metadata.
type ClassifiedProgram struct {
	Program  FundingProgram    `json:"program"`
	Metadata RelevanceMetadata `json:"metadata"`
}

// ClassificationStats aggregates tier counts over a classified program set.
type ClassificationStats struct {
	Total          int                    `json:"total"`
	ByLevel        map[RelevanceLevel]int `json:"byLevel"`
	RegionSpecific int                    `json:"regionSpecific"`
	DomainRelevant int                    `json:"domainRelevant"`
}

// ClampSuccessRate bounds a success rate estimate into [0,100].
func ClampSuccessRate(rate int) int {
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}
