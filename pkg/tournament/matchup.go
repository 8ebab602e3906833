package tournament

import (
	"slices"
	"strings"
)

// Matchup is the canonical record of one match: the three competitor names in
// ascending order, so equal triads compare equal whatever the seating order.
type Matchup [TeamsInMatch]string

// NewMatchup creates the canonical matchup of three competitors
func NewMatchup(a, b, c *Competitor) Matchup {
	m := Matchup{a.Name(), b.Name(), c.Name()}
	slices.Sort(m[:])
	return m
}

func (m Matchup) String() string {
	return strings.Join(m[:], " vs ")
}

// Contains reports whether the named competitor took part in the matchup
func (m Matchup) Contains(name string) bool {
	return slices.Contains(m[:], name)
}

// matchupSet builds a lookup of the distinct matchups in history
func matchupSet(history []Matchup) map[Matchup]struct{} {
	set := make(map[Matchup]struct{}, len(history))
	for _, m := range history {
		set[m] = struct{}{}
	}
	return set
}

// CountDuplicates returns how many history entries repeat an earlier matchup
func CountDuplicates(history []Matchup) int {
	return len(history) - len(matchupSet(history))
}
