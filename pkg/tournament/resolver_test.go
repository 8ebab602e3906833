package tournament

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triadOf(c []*Competitor) [TeamsInMatch]*Competitor {
	return [TeamsInMatch]*Competitor{c[0], c[1], c[2]}
}

func TestResolverDominantCompetitor(t *testing.T) {
	c := createCompetitors(3)
	resolver := createScriptedResolver(t, &fixedPredictor{probs: []float64{1, 0, 0}}, 0.5)

	winner, err := resolver.Resolve(triadOf(c), 0)
	require.NoError(t, err)
	assert.Same(t, c[0], winner)
	assert.Equal(t, 4, resolver.Rounds())

	// defender rotates 0,1,2,0 so the winner defends in rounds one and four
	assert.Equal(t, Counters{
		MatchWins: 1, MatchesPlayed: 1,
		CycleWins: 2, CyclesPlayed: 2,
		RoundWins: 4, RoundsPlayed: 4,
		DefenseWins: 2, DefensesPlayed: 4,
	}, c[0].Counters())
	assert.Equal(t, Counters{
		MatchesPlayed: 1, CyclesPlayed: 2, RoundsPlayed: 4, DefensesPlayed: 4,
	}, c[1].Counters())
}

func TestResolverWinnerSelection(t *testing.T) {
	probs := []float64{0.2, 0.3, 0.5}

	testCases := []struct {
		name     string
		draw     float64
		expected int
	}{
		{"below first bucket", 0.1, 0},
		{"first boundary goes to second", 0.2, 1},
		{"inside second bucket", 0.49, 1},
		{"second boundary goes to third", 0.5, 2},
		{"top of the range", 0.999, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := createCompetitors(3)
			resolver := createScriptedResolver(t, &fixedPredictor{probs: probs}, tc.draw)

			winner, err := resolver.Resolve(triadOf(c), 0)
			require.NoError(t, err)
			assert.Same(t, c[tc.expected], winner)
		})
	}
}

func TestResolverCycleTally(t *testing.T) {
	c := createCompetitors(3)
	// rounds won by 0,1,2,0 take the first cycle for 0, then 1,1 take the second
	// for 1 and 2,0,2 the third for 2, then 0,0 decide the match
	draws := []float64{0.1, 0.5, 0.9, 0.1, 0.5, 0.5, 0.9, 0.1, 0.9, 0.1, 0.1}
	resolver := createScriptedResolver(t, evenPredictor(), draws...)

	winner, err := resolver.Resolve(triadOf(c), 0)
	require.NoError(t, err)
	assert.Same(t, c[0], winner)
	assert.Equal(t, len(draws), resolver.Rounds())

	for _, comp := range c {
		k := comp.Counters()
		assert.Equal(t, 4, k.CyclesPlayed)
		assert.Equal(t, len(draws), k.RoundsPlayed)
		assert.Equal(t, 1, k.MatchesPlayed)
	}
	assert.Equal(t, 2, c[0].Counters().CycleWins)
	assert.Equal(t, 1, c[1].Counters().CycleWins)
	assert.Equal(t, 1, c[2].Counters().CycleWins)
	assert.Equal(t, 5, c[0].Counters().RoundWins)

	sum := totals(c)
	assert.Equal(t, len(draws), sum.RoundWins)
	assert.Equal(t, 4, sum.CycleWins)
	assert.Equal(t, 1, sum.MatchWins)
}

func TestResolverDefenderCarriesAcrossCycles(t *testing.T) {
	c := createCompetitors(3)
	// seat 1 wins all four rounds; defenders run 2,0,1,2 so it defends once, in the second cycle
	resolver := createScriptedResolver(t, &fixedPredictor{probs: []float64{0, 1, 0}}, 0.3)

	_, err := resolver.Resolve(triadOf(c), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, c[1].Counters().DefenseWins)
}

func TestResolverFailures(t *testing.T) {
	testCases := []struct {
		name      string
		predictor *fixedPredictor
		draw      float64
		wantErr   error
	}{
		{"wrong length", &fixedPredictor{probs: []float64{0.5, 0.5}}, 0.1, ErrDependencyFailure},
		{"negative probability", &fixedPredictor{probs: []float64{1.2, -0.2, 0}}, 0.1, ErrDependencyFailure},
		{"NaN probability", &fixedPredictor{probs: []float64{math.NaN(), 0.5, 0.5}}, 0.1, ErrDependencyFailure},
		{"sum below one", &fixedPredictor{probs: []float64{0.3, 0.3, 0.3}}, 0.1, ErrDependencyFailure},
		{"predictor error", &fixedPredictor{err: errPredictorDown}, 0.1, ErrDependencyFailure},
		{"draw of one", evenPredictor(), 1.0, ErrDependencyFailure},
		{"negative draw", evenPredictor(), -0.1, ErrDependencyFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := createCompetitors(3)
			resolver := createScriptedResolver(t, tc.predictor, tc.draw)

			winner, err := resolver.Resolve(triadOf(c), 0)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, winner)
			assert.Equal(t, Counters{}, c[0].Counters(), "failed round must not touch counters")
		})
	}

	t.Run("sum within tolerance is accepted", func(t *testing.T) {
		c := createCompetitors(3)
		resolver := createScriptedResolver(t, &fixedPredictor{probs: []float64{0.5, 0.25, 0.2500000001}}, 0.1)
		_, err := resolver.Resolve(triadOf(c), 0)
		assert.NoError(t, err)
	})
}

func TestResolverInvalidMatch(t *testing.T) {
	c := createCompetitors(3)
	resolver := createScriptedResolver(t, evenPredictor(), 0.1)

	_, err := resolver.Resolve([TeamsInMatch]*Competitor{c[0], c[1], c[0]}, 0)
	assert.ErrorIs(t, err, ErrInvalidMatch)

	_, err = resolver.Resolve([TeamsInMatch]*Competitor{c[0], nil, c[2]}, 0)
	assert.ErrorIs(t, err, ErrInvalidMatch)

	_, err = resolver.Resolve(triadOf(c), TeamsInMatch)
	assert.ErrorIs(t, err, ErrInvalidMatch)
}

func TestNewResolver(t *testing.T) {
	_, err := NewResolver(nil, rand.New(rand.NewPCG(1, 1)), 0, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewResolver(evenPredictor(), nil, 0, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
