package tournament

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pashagolub/tourneysim/pkg/skill"
)

// fixedPredictor returns the same probabilities for every round
type fixedPredictor struct {
	probs []float64
	err   error
	calls int
}

func (p *fixedPredictor) Predict(ratings []skill.Rating) ([]float64, error) {
	p.calls++
	return p.probs, p.err
}

// scriptedStream replays draws in order and wraps around at the end
type scriptedStream struct {
	draws []float64
	next  int
}

func (s *scriptedStream) Float64() float64 {
	u := s.draws[s.next%len(s.draws)]
	s.next++
	return u
}

func (s *scriptedStream) Shuffle(n int, swap func(i, j int)) {}

var errPredictorDown = errors.New("predictor down")

func evenPredictor() *fixedPredictor {
	return &fixedPredictor{probs: []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}}
}

// createCompetitors builds n competitors with strictly decreasing ratings
func createCompetitors(n int) []*Competitor {
	competitors := make([]*Competitor, n)
	for i := range competitors {
		competitors[i] = NewCompetitor(fmt.Sprintf("Team %3d", i+1),
			skill.Rating{Mu: 1500 - 10*float64(i), Sigma: 0.1})
	}
	return competitors
}

// createResolver builds a resolver with an Elo predictor and a seeded stream
func createResolver(t *testing.T, seed uint64) *Resolver {
	t.Helper()
	predictor, err := skill.NewElo(0)
	require.NoError(t, err)
	resolver, err := NewResolver(predictor, rand.New(rand.NewPCG(seed, 1)), 1, nil)
	require.NoError(t, err)
	return resolver
}

func createScriptedResolver(t *testing.T, predictor Predictor, draws ...float64) *Resolver {
	t.Helper()
	resolver, err := NewResolver(predictor, &scriptedStream{draws: draws}, 1, nil)
	require.NoError(t, err)
	return resolver
}

func totals(competitors []*Competitor) Counters {
	var sum Counters
	for _, c := range competitors {
		k := c.Counters()
		sum.MatchWins += k.MatchWins
		sum.MatchesPlayed += k.MatchesPlayed
		sum.CycleWins += k.CycleWins
		sum.CyclesPlayed += k.CyclesPlayed
		sum.RoundWins += k.RoundWins
		sum.RoundsPlayed += k.RoundsPlayed
		sum.DefenseWins += k.DefenseWins
		sum.DefensesPlayed += k.DefensesPlayed
	}
	return sum
}
