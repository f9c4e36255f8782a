package classify

import (
	"testing"

	"github.com/fundgrove/relevance/internal/core/domain"
)

func classified(p domain.FundingProgram) domain.ClassifiedProgram {
	return domain.ClassifiedProgram{Program: p, Metadata: Metadata(&p)}
}

func TestPriorityScore_Bands(t *testing.T) {
	tests := []struct {
		name    string
		program domain.FundingProgram
		level   domain.RelevanceLevel
		state   string
		want    int
	}{
		{
			name:    "sole exact match",
			program: domain.FundingProgram{Name: "p", FederalStates: []string{"BY"}},
			level:   domain.LevelCore,
			state:   "BY",
			want:    ScoreSoleMatch,
		},
		{
			name:    "match among several states",
			program: domain.FundingProgram{Name: "p", FederalStates: []string{"BY", "HE", "SN"}},
			level:   domain.LevelCore,
			state:   "BY",
			want:    ScoreExplicitMatch,
		},
		{
			name:    "nationwide core",
			program: domain.FundingProgram{Name: "p", FederalStates: []string{"all"}},
			level:   domain.LevelCore,
			state:   "BY",
			want:    ScoreAllCore,
		},
		{
			name:    "nationwide supplementary",
			program: domain.FundingProgram{Name: "p", FederalStates: []string{"all"}},
			level:   domain.LevelSupplementary,
			state:   "BY",
			want:    ScoreAllSupp,
		},
		{
			name:    "nationwide national",
			program: domain.FundingProgram{Name: "p", FederalStates: []string{"all"}},
			level:   domain.LevelNational,
			state:   "BY",
			want:    ScoreAllNational,
		},
		{
			name:    "no match",
			program: domain.FundingProgram{Name: "p", FederalStates: []string{"HE"}},
			level:   domain.LevelCore,
			state:   "BY",
			want:    ScoreNoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriorityScore(&tt.program, tt.state, tt.level)
			if got != tt.want {
				t.Errorf("expected score %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSortByPriority_MatchingBeforeNonMatching(t *testing.T) {
	programs := []domain.ClassifiedProgram{
		classified(domain.FundingProgram{Name: "Hessen Spielplatz", FederalStates: []string{"HE"}}),
		classified(domain.FundingProgram{Name: "Bayern Spielplatz", FederalStates: []string{"BY"}}),
		classified(domain.FundingProgram{Name: "Spielplatz Bund", FederalStates: []string{"all"}}),
	}

	SortByPriority(programs, "BY")

	minMatching := -1
	maxNonMatching := -1
	for i := range programs {
		score := PriorityScore(&programs[i].Program, "BY", programs[i].Metadata.Level)
		if Matches(&programs[i].Program, "BY") {
			if minMatching == -1 || score < minMatching {
				minMatching = score
			}
		} else if score > maxNonMatching {
			maxNonMatching = score
		}
	}

	if minMatching < maxNonMatching {
		t.Errorf("matching program scored %d below non-matching %d", minMatching, maxNonMatching)
	}
	if programs[0].Program.Name != "Bayern Spielplatz" {
		t.Errorf("expected sole-match program first, got %q", programs[0].Program.Name)
	}
}

func TestSortByPriority_FundingRateBreaksTies(t *testing.T) {
	programs := []domain.ClassifiedProgram{
		classified(domain.FundingProgram{Name: "Spielplatz A Bayern", FederalStates: []string{"BY"}, FundingRate: "40%"}),
		classified(domain.FundingProgram{Name: "Spielplatz B Bayern", FederalStates: []string{"BY"}, FundingRate: "bis zu 80%"}),
	}

	SortByPriority(programs, "BY")

	if programs[0].Program.Name != "Spielplatz B Bayern" {
		t.Errorf("expected higher funding rate first, got %q", programs[0].Program.Name)
	}
}

func TestSortByPriority_StableOnFullTie(t *testing.T) {
	// Two nationwide programs at the same tier with identical rates. Their
	// relative order must survive the sort.
	programs := []domain.ClassifiedProgram{
		classified(domain.FundingProgram{Name: "Spielplatz Nord", FederalStates: []string{"all"}, FundingRate: "variabel"}),
		classified(domain.FundingProgram{Name: "Spielplatz Süd", FederalStates: []string{"all"}, FundingRate: "variabel"}),
	}

	SortByPriority(programs, "BY")

	if programs[0].Program.Name != "Spielplatz Nord" {
		t.Errorf("stable sort violated: got %q first", programs[0].Program.Name)
	}
}

func TestParseFundingRate(t *testing.T) {
	tests := []struct {
		rate string
		want float64
	}{
		{"", 0},
		{"50%", 50},
		{"30-70%", 70},
		{"bis zu 80 %", 80},
		{"max. 90%", 90},
		{"12,5%", 12.5},
		{"variabel", variableRateValue},
		{"je nach Projekt", variableRateValue},
	}

	for _, tt := range tests {
		if got := ParseFundingRate(tt.rate); got != tt.want {
			t.Errorf("ParseFundingRate(%q) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestParseFundingRate_EuroAmountsComparable(t *testing.T) {
	small := ParseFundingRate("10.000 €")
	large := ParseFundingRate("2 Mio €")

	if small <= 0 || large <= 0 {
		t.Fatalf("expected positive scaled values, got %v and %v", small, large)
	}
	if large <= small {
		t.Errorf("expected larger amount to score higher: %v vs %v", large, small)
	}
	if large > 100 {
		t.Errorf("scaled amount %v exceeds comparable range", large)
	}
}
