package classify

import (
	"sort"

	"github.com/fundgrove/relevance/internal/core/domain"
)

// State priority scoring. A program is ranked against the user's home state:
// exact state programs come first, multi-state programs next, nationwide
// programs by relevance tier, everything else last.

// Priority score bands.
const (
	ScoreSoleMatch     = 100 // state list is exactly the user's state
	ScoreExplicitMatch = 80  // user's state among several explicit states
	ScoreAllCore       = 60  // nationwide, Core tier
	ScoreAllSupp       = 40  // nationwide, Supplementary tier
	ScoreAllNational   = 20  // nationwide, National tier
	ScoreNoMatch       = 0
)

// Matches reports whether the program is available in the given state.
func Matches(p *domain.FundingProgram, state string) bool {
	if p == nil || state == "" {
		return false
	}
	return p.CoversState(state)
}

// PriorityScore computes the state priority of a program. Nationwide
// programs score by relevance tier, which can tie two structurally different
// programs; SortByPriority keeps their original relative order in that case.
func PriorityScore(p *domain.FundingProgram, state string, level domain.RelevanceLevel) int {
	if !Matches(p, state) {
		return ScoreNoMatch
	}
	if !p.IsNationwide() {
		if len(p.FederalStates) == 1 {
			return ScoreSoleMatch
		}
		return ScoreExplicitMatch
	}
	switch level {
	case domain.LevelCore:
		return ScoreAllCore
	case domain.LevelSupplementary:
		return ScoreAllSupp
	default:
		return ScoreAllNational
	}
}

// SortByPriority orders classified programs for a user's state: priority
// score descending, then relevance tier ascending, then parsed funding rate
// descending. The sort is stable so equal keys keep their input order.
func SortByPriority(programs []domain.ClassifiedProgram, state string) {
	type ranked struct {
		program domain.ClassifiedProgram
		score   int
		rate    float64
	}

	// Keys are computed once up front; the sort must not recompute them per
	// comparison or swapped elements would see stale keys.
	items := make([]ranked, len(programs))
	for i := range programs {
		items[i] = ranked{
			program: programs[i],
			score:   PriorityScore(&programs[i].Program, state, programs[i].Metadata.Level),
			rate:    ParseFundingRate(programs[i].Program.FundingRate),
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		if items[i].program.Metadata.Level != items[j].program.Metadata.Level {
			return items[i].program.Metadata.Level < items[j].program.Metadata.Level
		}
		return items[i].rate > items[j].rate
	})

	for i := range items {
		programs[i] = items[i].program
	}
}
