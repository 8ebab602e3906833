package skill

import (
	"math"
)

// DefaultEloScale is the classic chess logistic scale
const DefaultEloScale = 400.0

// Elo predicts outcomes with the logistic Elo expectation generalized to a
// multi-way contest: each competitor's strength is 10^(mu/scale) and its win
// probability is its share of the total strength.
type Elo struct {
	Scale float64 // Rating difference giving 10:1 odds
}

// NewElo creates an Elo predictor; a zero scale selects DefaultEloScale
func NewElo(scale float64) (*Elo, error) {
	if scale == 0 {
		scale = DefaultEloScale
	}
	if scale < 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, ErrInvalidScale
	}
	return &Elo{Scale: scale}, nil
}

// ExpectedScore computes the expected score for player A vs player B
func (e *Elo) ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, (ratingB-ratingA)/e.Scale))
}

// Predict returns the win probability of each rating. For two ratings it
// reduces to ExpectedScore.
func (e *Elo) Predict(ratings []Rating) ([]float64, error) {
	if err := validateRatings(ratings); err != nil {
		return nil, err
	}

	// Shift by the strongest rating so the exponent never overflows
	top := ratings[0].Mu
	for _, r := range ratings[1:] {
		top = math.Max(top, r.Mu)
	}

	probs := make([]float64, len(ratings))
	total := 0.0
	for i, r := range ratings {
		probs[i] = math.Pow(10.0, (r.Mu-top)/e.Scale)
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs, nil
}
