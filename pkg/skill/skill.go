// Package skill provides the rating models used to turn competitor strengths into
// win probabilities. It implements an OpenSkill predictor, an Elo predictor and a
// generator for the initial ratings of a simulated field.
package skill

import (
	"errors"
	"fmt"
	"math"
)

// Error types for rating validation
var (
	ErrInvalidRating = errors.New("rating value is invalid")
	ErrNoRatings     = errors.New("prediction requires at least one rating")
	ErrInvalidScale  = errors.New("elo scale must be positive")
	ErrUnknownModel  = errors.New("unknown skill model")
)

// Model names a rating model
type Model string

// Supported rating models
const (
	ModelOpenSkill Model = "openskill" // Weng-Lin Bayesian rating (default)
	ModelElo       Model = "elo"       // Logistic Elo expectation
)

// Rating is the skill estimate of a single competitor
type Rating struct {
	Mu    float64 // Mean skill
	Sigma float64 // Uncertainty of the mean
}

func (r Rating) String() string {
	return fmt.Sprintf("mu=%.3f sigma=%.3f", r.Mu, r.Sigma)
}

// Predictor turns up to three ratings into win probabilities summing to 1
type Predictor interface {
	Predict(ratings []Rating) ([]float64, error)
}

// Config selects and parameterizes a predictor
type Config struct {
	Model    Model   // Rating model to use
	EloScale float64 // Logistic scale for the Elo model (default 400)
}

// NewPredictor creates the predictor named by config
func NewPredictor(config Config) (Predictor, error) {
	switch config.Model {
	case ModelOpenSkill, "":
		return NewOpenSkill(), nil
	case ModelElo:
		return NewElo(config.EloScale)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, config.Model)
	}
}

// validateRatings checks every rating value before prediction
func validateRatings(ratings []Rating) error {
	if len(ratings) == 0 {
		return ErrNoRatings
	}
	for i, r := range ratings {
		if math.IsNaN(r.Mu) || math.IsInf(r.Mu, 0) || math.IsNaN(r.Sigma) || math.IsInf(r.Sigma, 0) {
			return fmt.Errorf("%w: position %d (%s)", ErrInvalidRating, i, r)
		}
	}
	return nil
}
