// Package classify implements the relevance rule engine and the state
// priority scoring for funding programs. Everything in this package is a pure
// function over program content: no state, no errors, deterministic output.
package classify

import (
	"strings"
	"time"

	"github.com/fundgrove/relevance/internal/core/domain"
)

// Classify assigns a relevance tier to a program. The rules apply in order,
// first match wins:
//
//  1. exclusion-domain hit without domain relevance → Excluded
//  2. region-specific → Core
//  3. supra-regional implementation (EU/federal, nationwide) → Supplementary
//  4. everything else → National
//
// A nil or empty program classifies as Excluded.
func Classify(p *domain.FundingProgram) domain.RelevanceLevel {
	if p == nil || p.Name == "" {
		return domain.LevelExcluded
	}
	if ShouldExclude(p) {
		return domain.LevelExcluded
	}
	if IsRegionSpecific(p) {
		return domain.LevelCore
	}
	if IsSupraRegionalImplementation(p) {
		return domain.LevelSupplementary
	}
	return domain.LevelNational
}

// ShouldExclude reports whether the program belongs to an out-of-scope
// funding domain. Domain-relevant programs are never excluded, even when
// their text mentions an exclusion keyword.
func ShouldExclude(p *domain.FundingProgram) bool {
	if p == nil || p.Name == "" {
		return true
	}
	if !containsAny(p.SearchableText(), exclusionKeywords) {
		return false
	}
	return !IsDomainRelevant(p)
}

// IsDomainRelevant reports whether the program funds playground projects,
// either by keyword, by project-category tag, or by typical measures.
func IsDomainRelevant(p *domain.FundingProgram) bool {
	if p == nil {
		return false
	}
	if containsAny(p.SearchableText(), domainKeywords) {
		return true
	}
	for _, t := range p.Type {
		if strings.EqualFold(t, domainTypeTag) {
			return true
		}
	}
	for _, m := range p.Measures {
		if containsAny(strings.ToLower(m), domainMeasures) {
			return true
		}
	}
	return false
}

// IsRegionSpecific reports whether eligibility is restricted to particular
// federal states. A program with an explicit non-"all" state list is always
// region-specific; so is one whose text names a state or a state program.
func IsRegionSpecific(p *domain.FundingProgram) bool {
	if p == nil {
		return false
	}
	if len(p.FederalStates) > 0 && !p.IsNationwide() {
		return true
	}
	return containsAny(p.SearchableText(), stateNames)
}

// IsSupraRegionalImplementation reports whether the program is an EU or
// federal program implemented nationwide.
func IsSupraRegionalImplementation(p *domain.FundingProgram) bool {
	if p == nil || !p.IsNationwide() || IsRegionSpecific(p) {
		return false
	}
	return containsAny(p.SearchableText(), supraRegionalKeywords)
}

// Origin derives the funding-source facet of a program.
func Origin(p *domain.FundingProgram) domain.ProgramOrigin {
	if p == nil {
		return domain.OriginMixed
	}
	text := p.SearchableText()
	eu := containsAny(text, euKeywords)
	federal := containsAny(text, federalKeywords)
	switch {
	case eu && federal:
		return domain.OriginMixed
	case eu:
		return domain.OriginEU
	case federal:
		return domain.OriginFederal
	case IsRegionSpecific(p):
		return domain.OriginState
	default:
		return domain.OriginMixed
	}
}

// Implementation derives the administrative level a program is run at.
func Implementation(p *domain.FundingProgram) domain.ImplementationLevel {
	if p == nil {
		return domain.ImplementationNational
	}
	switch {
	case containsAny(p.SearchableText(), []string{"kommunal", "gemeinde", "städtisch"}):
		return domain.ImplementationLocal
	case containsAny(p.SearchableText(), []string{"region", "landkreis"}):
		return domain.ImplementationRegional
	case IsRegionSpecific(p):
		return domain.ImplementationState
	default:
		return domain.ImplementationNational
	}
}

// successRateByLevel are rough application success estimates per tier,
// carried over from historical program data.
var successRateByLevel = map[domain.RelevanceLevel]int{
	domain.LevelCore:          65,
	domain.LevelSupplementary: 45,
	domain.LevelNational:      30,
	domain.LevelExcluded:      0,
}

// Metadata computes the full relevance metadata for a program. Like Classify
// it is total: malformed input degrades to the Excluded tier with false
// facets rather than failing.
func Metadata(p *domain.FundingProgram) domain.RelevanceMetadata {
	level := Classify(p)
	return domain.RelevanceMetadata{
		Level:                level,
		RegionSpecific:       level != domain.LevelExcluded && IsRegionSpecific(p),
		DomainFundingHistory: IsDomainRelevant(p),
		Origin:               Origin(p),
		Implementation:       Implementation(p),
		SuccessRate:          domain.ClampSuccessRate(successRateByLevel[level]),
		LastUpdate:           time.Now(),
	}
}

// Stats tallies classification counts over a program set.
func Stats(programs []domain.FundingProgram) domain.ClassificationStats {
	stats := domain.ClassificationStats{
		Total:   len(programs),
		ByLevel: make(map[domain.RelevanceLevel]int),
	}
	for i := range programs {
		p := &programs[i]
		stats.ByLevel[Classify(p)]++
		if IsRegionSpecific(p) {
			stats.RegionSpecific++
		}
		if IsDomainRelevant(p) {
			stats.DomainRelevant++
		}
	}
	return stats
}
