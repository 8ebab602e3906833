// Package tournament simulates three-way tournaments. It resolves single matches
// through nested rounds and cycles, schedules them according to one of four
// formats and derives the final ranking from the accumulated outcome counters.
package tournament

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/pashagolub/tourneysim/pkg/skill"
)

// Counters holds the outcome counts of a competitor. Every match, cycle and
// round a competitor takes part in counts as played; defenses are counted for
// every round regardless of who defends.
type Counters struct {
	MatchWins      int
	MatchesPlayed  int
	CycleWins      int
	CyclesPlayed   int
	RoundWins      int
	RoundsPlayed   int
	DefenseWins    int
	DefensesPlayed int
}

// Competitor is an entity taking part in a tournament
type Competitor struct {
	name     string
	rating   skill.Rating
	counters Counters
}

// NewCompetitor creates a competitor with zero counters
func NewCompetitor(name string, rating skill.Rating) *Competitor {
	return &Competitor{name: name, rating: rating}
}

// Name returns the unique identity of the competitor
func (c *Competitor) Name() string {
	return c.name
}

// Rating returns the skill rating handed to the predictor
func (c *Competitor) Rating() skill.Rating {
	return c.rating
}

// Counters returns a snapshot of the outcome counters
func (c *Competitor) Counters() Counters {
	return c.counters
}

// Score returns the ranking tuple derived from the current counters
func (c *Competitor) Score() Score {
	return Score{
		MatchWins:   c.counters.MatchWins,
		CycleRate:   rate(c.counters.CycleWins, c.counters.CyclesPlayed),
		RoundRate:   rate(c.counters.RoundWins, c.counters.RoundsPlayed),
		DefenseRate: rate(c.counters.DefenseWins, c.counters.DefensesPlayed),
	}
}

func (c *Competitor) String() string {
	return fmt.Sprintf("%s (%s ; %s)", c.name, c.rating, c.Score())
}

// rate is wins over opportunities, 1.0 before the first opportunity
func rate(wins, played int) float64 {
	if played == 0 {
		return 1.0
	}
	return float64(wins) / float64(played)
}

// Score is the ranking tuple of a competitor, compared lexicographically
type Score struct {
	MatchWins   int     `json:"match_wins"`
	CycleRate   float64 `json:"cycle_rate"`
	RoundRate   float64 `json:"round_rate"`
	DefenseRate float64 `json:"defense_rate"`
}

// Compare returns -1, 0 or +1 when s ranks below, equal to or above other
func (s Score) Compare(other Score) int {
	if c := cmp.Compare(s.MatchWins, other.MatchWins); c != 0 {
		return c
	}
	if c := cmp.Compare(s.CycleRate, other.CycleRate); c != 0 {
		return c
	}
	if c := cmp.Compare(s.RoundRate, other.RoundRate); c != 0 {
		return c
	}
	return cmp.Compare(s.DefenseRate, other.DefenseRate)
}

// Less reports whether s ranks strictly below other
func (s Score) Less(other Score) bool {
	return s.Compare(other) < 0
}

func (s Score) String() string {
	return fmt.Sprintf("match/cycle/round/defense: %d/%.3f/%.3f/%.3f",
		s.MatchWins, s.CycleRate, s.RoundRate, s.DefenseRate)
}

// RankByScore returns a copy of competitors sorted by score, best first.
// The sort is stable so tied competitors keep their relative order.
func RankByScore(competitors []*Competitor) []*Competitor {
	ranked := slices.Clone(competitors)
	slices.SortStableFunc(ranked, func(a, b *Competitor) int {
		return b.Score().Compare(a.Score())
	})
	return ranked
}

// RankByRating returns a copy of competitors sorted by skill mean, best first.
// This is the ranking a perfect format would reproduce.
func RankByRating(competitors []*Competitor) []*Competitor {
	ranked := slices.Clone(competitors)
	slices.SortStableFunc(ranked, func(a, b *Competitor) int {
		return cmp.Compare(b.rating.Mu, a.rating.Mu)
	})
	return ranked
}

// Names returns the identities of competitors in order
func Names(competitors []*Competitor) []string {
	names := make([]string, len(competitors))
	for i, c := range competitors {
		names[i] = c.name
	}
	return names
}
