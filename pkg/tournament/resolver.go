package tournament

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pashagolub/tourneysim/pkg/logger"
	"github.com/pashagolub/tourneysim/pkg/skill"
)

const (
	// TeamsInMatch is the number of competitors in every match
	TeamsInMatch = 3
	// RoundsToWinCycle is the number of round wins that takes a cycle
	RoundsToWinCycle = 2
	// CyclesToWinMatch is the number of cycle wins that takes a match
	CyclesToWinMatch = 2

	probabilityTolerance = 1e-6
)

// Predictor returns the win probability of each rating in a single round
type Predictor interface {
	Predict(ratings []skill.Rating) ([]float64, error)
}

// RandomStream is the run-private source of randomness.
// *rand.Rand from math/rand/v2 satisfies it.
type RandomStream interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// Resolver plays matches between three competitors. A resolver belongs to a
// single run and must not be shared between goroutines.
type Resolver struct {
	predictor Predictor
	stream    RandomStream
	sequence  int
	logger    *slog.Logger
	rounds    int
}

// NewResolver creates a resolver for the run identified by sequence.
// A nil logger discards log output.
func NewResolver(predictor Predictor, stream RandomStream, sequence int, log *slog.Logger) (*Resolver, error) {
	if predictor == nil {
		return nil, fmt.Errorf("%w: predictor is required", ErrConfiguration)
	}
	if stream == nil {
		return nil, fmt.Errorf("%w: random stream is required", ErrConfiguration)
	}
	return &Resolver{
		predictor: predictor,
		stream:    stream,
		sequence:  sequence,
		logger:    logger.OrDiscard(log),
	}, nil
}

// Rounds returns the number of rounds played through this resolver
func (r *Resolver) Rounds() int {
	return r.rounds
}

// Resolve plays a match between the triad and returns its winner. The defender
// index rotates after every round and is carried across cycles.
func (r *Resolver) Resolve(triad [TeamsInMatch]*Competitor, defender int) (*Competitor, error) {
	if err := validateTriad(triad); err != nil {
		return nil, err
	}
	if defender < 0 || defender >= TeamsInMatch {
		return nil, fmt.Errorf("%w: defender index %d out of range", ErrInvalidMatch, defender)
	}

	ratings := make([]skill.Rating, TeamsInMatch)
	for i, c := range triad {
		ratings[i] = c.rating
	}

	var matchTally [TeamsInMatch]int
	for {
		var cycleTally [TeamsInMatch]int
		cycleWinner := -1
		for cycleWinner < 0 {
			winner, err := r.playRound(triad, ratings, defender)
			if err != nil {
				return nil, err
			}
			defender = (defender + 1) % TeamsInMatch
			cycleTally[winner]++
			if cycleTally[winner] == RoundsToWinCycle {
				cycleWinner = winner
			}
		}

		for _, c := range triad {
			c.counters.CyclesPlayed++
		}
		triad[cycleWinner].counters.CycleWins++

		matchTally[cycleWinner]++
		if matchTally[cycleWinner] == CyclesToWinMatch {
			for _, c := range triad {
				c.counters.MatchesPlayed++
			}
			winner := triad[cycleWinner]
			winner.counters.MatchWins++
			r.logger.Debug("match resolved",
				slog.Int("run", r.sequence),
				slog.String("matchup", NewMatchup(triad[0], triad[1], triad[2]).String()),
				slog.String("winner", winner.name))
			return winner, nil
		}
	}
}

func (r *Resolver) playRound(triad [TeamsInMatch]*Competitor, ratings []skill.Rating, defender int) (int, error) {
	probs, err := r.predictor.Predict(ratings)
	if err != nil {
		return 0, fmt.Errorf("%w: predictor: %v", ErrDependencyFailure, err)
	}
	if err := validateProbabilities(probs); err != nil {
		return 0, err
	}

	u := r.stream.Float64()
	if math.IsNaN(u) || u < 0 || u >= 1 {
		return 0, fmt.Errorf("%w: random draw %v outside [0,1)", ErrDependencyFailure, u)
	}

	winner := TeamsInMatch - 1
	cumulative := 0.0
	for i := 0; i < TeamsInMatch-1; i++ {
		cumulative += probs[i]
		if u < cumulative {
			winner = i
			break
		}
	}

	for _, c := range triad {
		c.counters.RoundsPlayed++
		c.counters.DefensesPlayed++
	}
	triad[winner].counters.RoundWins++
	if winner == defender {
		triad[winner].counters.DefenseWins++
	}
	r.rounds++

	r.logger.Debug("round played",
		slog.Int("run", r.sequence),
		slog.Int("round", r.rounds),
		slog.String("defender", triad[defender].name),
		slog.String("winner", triad[winner].name),
		slog.Float64("draw", u))
	return winner, nil
}

func validateTriad(triad [TeamsInMatch]*Competitor) error {
	for i, c := range triad {
		if c == nil {
			return fmt.Errorf("%w: competitor %d is missing", ErrInvalidMatch, i)
		}
		for _, other := range triad[:i] {
			if other == c || other.name == c.name {
				return fmt.Errorf("%w: %s appears twice", ErrInvalidMatch, c.name)
			}
		}
	}
	return nil
}

func validateProbabilities(probs []float64) error {
	if len(probs) != TeamsInMatch {
		return fmt.Errorf("%w: predictor returned %d probabilities, want %d",
			ErrDependencyFailure, len(probs), TeamsInMatch)
	}
	sum := 0.0
	for _, p := range probs {
		if math.IsNaN(p) || p < 0 {
			return fmt.Errorf("%w: invalid probability %v", ErrDependencyFailure, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return fmt.Errorf("%w: probabilities sum to %v", ErrDependencyFailure, sum)
	}
	return nil
}
