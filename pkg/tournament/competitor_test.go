package tournament

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pashagolub/tourneysim/pkg/skill"
)

func TestCompetitorScore(t *testing.T) {
	t.Run("fresh competitor has perfect rates", func(t *testing.T) {
		c := NewCompetitor("Alpha", skill.Rating{Mu: 25, Sigma: 1})
		assert.Equal(t, Score{MatchWins: 0, CycleRate: 1, RoundRate: 1, DefenseRate: 1}, c.Score())
	})

	t.Run("rates are wins over played", func(t *testing.T) {
		c := NewCompetitor("Alpha", skill.Rating{})
		c.counters = Counters{
			MatchWins: 2, MatchesPlayed: 3,
			CycleWins: 1, CyclesPlayed: 4,
			RoundWins: 3, RoundsPlayed: 6,
			DefenseWins: 0, DefensesPlayed: 6,
		}
		assert.Equal(t, Score{MatchWins: 2, CycleRate: 0.25, RoundRate: 0.5, DefenseRate: 0}, c.Score())
	})
}

func TestScoreCompare(t *testing.T) {
	base := Score{MatchWins: 2, CycleRate: 0.5, RoundRate: 0.5, DefenseRate: 0.5}

	testCases := []struct {
		name     string
		other    Score
		expected int
	}{
		{"equal", base, 0},
		{"match wins dominate", Score{MatchWins: 1, CycleRate: 1, RoundRate: 1, DefenseRate: 1}, 1},
		{"cycle rate breaks ties", Score{MatchWins: 2, CycleRate: 0.6}, -1},
		{"round rate breaks ties", Score{MatchWins: 2, CycleRate: 0.5, RoundRate: 0.4, DefenseRate: 1}, 1},
		{"defense rate is last", Score{MatchWins: 2, CycleRate: 0.5, RoundRate: 0.5, DefenseRate: 0.75}, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, base.Compare(tc.other))
			assert.Equal(t, -tc.expected, tc.other.Compare(base))
			assert.Equal(t, tc.expected < 0, base.Less(tc.other))
		})
	}
}

func TestRankByScoreIsStable(t *testing.T) {
	competitors := createCompetitors(4)
	competitors[2].counters = Counters{MatchWins: 1, MatchesPlayed: 1}

	ranked := RankByScore(competitors)

	assert.Equal(t, []string{"Team   3", "Team   1", "Team   2", "Team   4"}, Names(ranked))
	assert.Equal(t, "Team   1", competitors[0].Name(), "input order must not change")
}

func TestRankByRating(t *testing.T) {
	competitors := []*Competitor{
		NewCompetitor("low", skill.Rating{Mu: 10}),
		NewCompetitor("high", skill.Rating{Mu: 30}),
		NewCompetitor("mid", skill.Rating{Mu: 20}),
	}
	assert.Equal(t, []string{"high", "mid", "low"}, Names(RankByRating(competitors)))
}

func TestMatchup(t *testing.T) {
	c := createCompetitors(3)

	t.Run("canonical regardless of seating", func(t *testing.T) {
		m := NewMatchup(c[2], c[0], c[1])
		assert.Equal(t, NewMatchup(c[0], c[1], c[2]), m)
		assert.Equal(t, Matchup{"Team   1", "Team   2", "Team   3"}, m)
		assert.True(t, m.Contains("Team   2"))
		assert.False(t, m.Contains("Team   9"))
	})

	t.Run("duplicates counted after first occurrence", func(t *testing.T) {
		a := NewMatchup(c[0], c[1], c[2])
		assert.Equal(t, 0, CountDuplicates(nil))
		assert.Equal(t, 0, CountDuplicates([]Matchup{a}))
		assert.Equal(t, 2, CountDuplicates([]Matchup{a, NewMatchup(c[1], c[2], c[0]), a}))
	})
}
