package classify

import (
	"testing"

	"github.com/fundgrove/relevance/internal/core/domain"
)

func TestClassify_RegionSpecificIsCore(t *testing.T) {
	p := &domain.FundingProgram{
		Name:          "Bayern Spielplatzförderung",
		FederalStates: []string{"BY"},
		Type:          []string{"playground"},
	}

	if got := Classify(p); got != domain.LevelCore {
		t.Errorf("expected level %d, got %d", domain.LevelCore, got)
	}
	if !IsRegionSpecific(p) {
		t.Error("expected program to be region-specific")
	}
}

func TestClassify_SupraRegionalIsSupplementary(t *testing.T) {
	p := &domain.FundingProgram{
		Name:          "EFRE Spielplatzmodernisierung",
		FederalStates: []string{"all"},
		Description:   "EU-Förderung über EFRE",
	}

	if got := Classify(p); got != domain.LevelSupplementary {
		t.Errorf("expected level %d, got %d", domain.LevelSupplementary, got)
	}
}

func TestClassify_OutOfDomainIsExcluded(t *testing.T) {
	p := &domain.FundingProgram{
		Name:          "Digitalisierung Hochschulen",
		FederalStates: []string{"all"},
		Type:          []string{"research"},
	}

	if got := Classify(p); got != domain.LevelExcluded {
		t.Errorf("expected level %d, got %d", domain.LevelExcluded, got)
	}
	if !ShouldExclude(p) {
		t.Error("expected program to be excluded")
	}
}

func TestClassify_NationwideDefaultIsNational(t *testing.T) {
	p := &domain.FundingProgram{
		Name:          "Spielplatzausbau Deutschland",
		FederalStates: []string{"all"},
		Type:          []string{"playground"},
	}

	if got := Classify(p); got != domain.LevelNational {
		t.Errorf("expected level %d, got %d", domain.LevelNational, got)
	}
}

func TestClassify_NilAndEmptyAreExcluded(t *testing.T) {
	if got := Classify(nil); got != domain.LevelExcluded {
		t.Errorf("nil program: expected level %d, got %d", domain.LevelExcluded, got)
	}
	if got := Classify(&domain.FundingProgram{}); got != domain.LevelExcluded {
		t.Errorf("empty program: expected level %d, got %d", domain.LevelExcluded, got)
	}
}

func TestClassify_ExclusionDominates(t *testing.T) {
	// Exclusion keyword, not domain-relevant, but region-specific. Exclusion
	// applies first, so the region rule never fires.
	p := &domain.FundingProgram{
		Name:          "Forschungsförderung Sachsen",
		FederalStates: []string{"SN"},
		Type:          []string{"research"},
	}

	if got := Classify(p); got != domain.LevelExcluded {
		t.Errorf("expected level %d, got %d", domain.LevelExcluded, got)
	}
}

func TestClassify_DomainRelevanceOverridesExclusion(t *testing.T) {
	// Mentions an exclusion domain but funds playgrounds too.
	p := &domain.FundingProgram{
		Name:          "Spielplätze an Hochschulen",
		FederalStates: []string{"all"},
		Measures:      []string{"Spielgeräte"},
	}

	if ShouldExclude(p) {
		t.Error("domain-relevant program must not be excluded")
	}
	if got := Classify(p); got == domain.LevelExcluded {
		t.Errorf("expected non-excluded level, got %d", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	p := &domain.FundingProgram{
		Name:          "Spielplatzprogramm Hessen",
		FederalStates: []string{"HE"},
	}

	first := Classify(p)
	for i := 0; i < 10; i++ {
		if got := Classify(p); got != first {
			t.Fatalf("classification changed between calls: %d vs %d", first, got)
		}
	}
}

func TestClassify_Totality(t *testing.T) {
	programs := []*domain.FundingProgram{
		nil,
		{},
		{Name: "x"},
		{Name: "Spielplatz", FederalStates: []string{"BY", "HE"}},
		{Name: "Forschung", FederalStates: []string{"all"}},
		{Name: "EFRE", FederalStates: []string{"all"}, Description: "europäisch"},
	}

	for i, p := range programs {
		level := Classify(p)
		if level < domain.LevelCore || level > domain.LevelExcluded {
			t.Errorf("program %d: level %d outside 1..4", i, level)
		}
	}
}

func TestMetadata_SuccessRateClamped(t *testing.T) {
	programs := []*domain.FundingProgram{
		nil,
		{Name: "Spielplatzförderung Bayern", FederalStates: []string{"BY"}},
		{Name: "Digitalisierung", FederalStates: []string{"all"}},
	}

	for i, p := range programs {
		md := Metadata(p)
		if md.SuccessRate < 0 || md.SuccessRate > 100 {
			t.Errorf("program %d: success rate %d outside [0,100]", i, md.SuccessRate)
		}
	}
}

func TestMetadata_Facets(t *testing.T) {
	p := &domain.FundingProgram{
		Name:          "EFRE Spielplatzmodernisierung",
		FederalStates: []string{"all"},
		Description:   "EU-Förderung über EFRE",
	}

	md := Metadata(p)
	if md.Origin != domain.OriginEU {
		t.Errorf("expected origin %q, got %q", domain.OriginEU, md.Origin)
	}
	if !md.DomainFundingHistory {
		t.Error("expected domain funding history to be set")
	}
	if md.RegionSpecific {
		t.Error("nationwide EFRE program must not be region-specific")
	}
}

func TestStats_Counts(t *testing.T) {
	programs := []domain.FundingProgram{
		{Name: "Bayern Spielplatzförderung", FederalStates: []string{"BY"}},
		{Name: "EFRE Spielplatzmodernisierung", FederalStates: []string{"all"}, Description: "EU-Förderung über EFRE"},
		{Name: "Digitalisierung Hochschulen", FederalStates: []string{"all"}, Type: []string{"research"}},
	}

	stats := Stats(programs)
	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.ByLevel[domain.LevelCore] != 1 {
		t.Errorf("expected 1 core program, got %d", stats.ByLevel[domain.LevelCore])
	}
	if stats.ByLevel[domain.LevelExcluded] != 1 {
		t.Errorf("expected 1 excluded program, got %d", stats.ByLevel[domain.LevelExcluded])
	}
	if stats.RegionSpecific != 1 {
		t.Errorf("expected 1 region-specific program, got %d", stats.RegionSpecific)
	}
	if stats.DomainRelevant != 2 {
		t.Errorf("expected 2 domain-relevant programs, got %d", stats.DomainRelevant)
	}
}
