package classify

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Funding rates arrive as free-form strings ("50%", "30-70%", "bis zu 80 %",
// "max. 10.000 €"). ParseFundingRate reduces them to a single comparable
// number so the priority sort has a deterministic third key.

const variableRateValue = 50 // mid-value for "variabel" and unparseable rates

var (
	percentRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	euroRe    = regexp.MustCompile(`(\d+(?:[.,]\d+)*)\s*(mio\.?|tsd\.?)?\s*(?:€|euro|eur)`)
)

// ParseFundingRate maps a free-form funding-rate string to a comparable
// value. Percentage ranges take the upper bound; EUR amounts are log-scaled
// into the same band as percentages; "variabel" and unparseable rates map to
// a mid-value; empty maps to 0.
func ParseFundingRate(rate string) float64 {
	s := strings.ToLower(strings.TrimSpace(rate))
	if s == "" {
		return 0
	}

	// Percentages win: a range like "30-70%" yields both bounds, the upper
	// one is taken. "bis zu 80%" and "max. 80%" yield 80 the same way.
	if matches := percentRe.FindAllStringSubmatch(s, -1); len(matches) > 0 {
		best := 0.0
		for _, m := range matches {
			if v, err := parseDecimal(m[1]); err == nil && v > best {
				best = v
			}
		}
		return best
	}

	// EUR amounts: log10-scale so 10.000 € ≈ 40 and 1 Mio € ≈ 60, comparable
	// with percentage upper bounds without dominating them.
	if m := euroRe.FindStringSubmatch(s); m != nil {
		v, err := parseDecimal(strings.ReplaceAll(m[1], ".", ""))
		if err == nil && v > 0 {
			switch {
			case strings.HasPrefix(m[2], "mio"):
				v *= 1_000_000
			case strings.HasPrefix(m[2], "tsd"):
				v *= 1_000
			}
			scaled := math.Log10(v) * 10
			return math.Min(scaled, 100)
		}
	}

	return variableRateValue
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
