package discovery

import (
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
)

// PatternKind names the local-part pattern a candidate was built from.
type PatternKind string

const (
	PatternFirst          PatternKind = "first"
	PatternFirstDotLast   PatternKind = "first_dot_last"
	PatternFirstLast      PatternKind = "first_last"
	PatternFirstUnderLast PatternKind = "first_underscore_last"
	PatternLastDotFirst   PatternKind = "last_dot_first"
	PatternFirstDashLast  PatternKind = "first_dash_last"
	PatternInitialDotLast PatternKind = "initial_dot_last"
	PatternInitialLast    PatternKind = "initial_last"
)

// Candidate is one plausible mailbox for a person at a domain.
// Prior reflects the empirical frequency of the pattern and is independent
// of any verification outcome.
type Candidate struct {
	LocalPart string      `json:"local_part"`
	Domain    string      `json:"domain"`
	Pattern   PatternKind `json:"pattern"`
	Prior     float64     `json:"prior"`
}

// Address returns the full mailbox address.
func (c Candidate) Address() string {
	return c.LocalPart + "@" + c.Domain
}

// patternTable is the hand-ranked list of local-part formats. The order
// encodes likelihood: under first-match selection it decides which address
// wins when a server would accept several of them.
var patternTable = []struct {
	kind  PatternKind
	prior float64
	build func(first, last string) string
}{
	{PatternFirst, 0.95, func(f, l string) string { return f }},
	{PatternFirstDotLast, 0.90, func(f, l string) string { return f + "." + l }},
	{PatternFirstLast, 0.85, func(f, l string) string { return f + l }},
	{PatternFirstUnderLast, 0.80, func(f, l string) string { return f + "_" + l }},
	{PatternLastDotFirst, 0.75, func(f, l string) string { return l + "." + f }},
	{PatternFirstDashLast, 0.70, func(f, l string) string { return f + "-" + l }},
	{PatternInitialDotLast, 0.65, func(f, l string) string { return f[:1] + "." + l }},
	{PatternInitialLast, 0.60, func(f, l string) string { return f[:1] + l }},
}

// Generate produces the ordered candidate list for a person at a domain.
// Inputs are case-insensitive; local parts are composed lower-cased and the
// domain is returned unchanged apart from lower-casing. The function is
// pure: no network access, deterministic output.
func Generate(firstName, lastName, domain string) ([]Candidate, error) {
	first := strings.ToLower(strings.TrimSpace(firstName))
	last := strings.ToLower(strings.TrimSpace(lastName))
	domain = strings.ToLower(strings.TrimSpace(domain))

	if first == "" || last == "" || domain == "" {
		return nil, ErrInvalidInput
	}
	if err := checkmail.ValidateFormat("probe@" + domain); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}

	candidates := make([]Candidate, 0, len(patternTable))
	seen := make(map[string]bool, len(patternTable))
	for _, p := range patternTable {
		local := p.build(first, last)
		// Single-letter names can collapse patterns into duplicates.
		if seen[local] {
			continue
		}
		seen[local] = true
		candidates = append(candidates, Candidate{
			LocalPart: local,
			Domain:    domain,
			Pattern:   p.kind,
			Prior:     p.prior,
		})
	}
	return candidates, nil
}
