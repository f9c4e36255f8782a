package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/fundgrove/relevance/internal/core/domain"
)

// Cache keys are deterministic over the fields that affect classification.
// The readable facet segments (states, types) exist so pattern invalidation
// can target them with a substring match; each facet value gets its own
// prefixed, "|"-terminated segment so a pattern matches any position and
// never matches a longer value it is a prefix of. The trailing hash covers
// the free text so description edits produce a different key.

// Key builds the cache key for a program.
func Key(p *domain.FundingProgram) string {
	states := normalizeFacet(p.FederalStates)
	types := normalizeFacet(p.Type)

	h := xxhash.New()
	_, _ = h.WriteString(p.Name)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(p.Description)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(p.Source)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strings.Join(states, ";"))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strings.Join(types, ";"))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strings.Join(normalizeFacet(p.Measures), ";"))

	return fmt.Sprintf("prg|%s%s%s|%016x",
		facetSegment("st", states), facetSegment("ty", types),
		strings.ToLower(p.Name), h.Sum64())
}

// StatePattern returns the substring matching every key whose program covers
// the given federal state.
func StatePattern(state string) string {
	return "st=" + strings.ToLower(state) + "|"
}

// TypePattern returns the substring matching every key whose program carries
// the given project-category tag.
func TypePattern(programType string) string {
	return "ty=" + strings.ToLower(programType) + "|"
}

// normalizeFacet lowercases and sorts facet values for a canonical order.
func normalizeFacet(values []string) []string {
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}
	sort.Strings(lowered)
	return lowered
}

// facetSegment renders one "prefix=value|" segment per facet value, so every
// value is individually addressable by the pattern helpers.
func facetSegment(prefix string, values []string) string {
	if len(values) == 0 {
		return prefix + "=-|"
	}
	var b strings.Builder
	for _, v := range values {
		b.WriteString(prefix)
		b.WriteString("=")
		b.WriteString(v)
		b.WriteString("|")
	}
	return b.String()
}
