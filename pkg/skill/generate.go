package skill

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGenerator is returned for unusable generator parameters
var ErrInvalidGenerator = errors.New("invalid rating generator configuration")

// GeneratorConfig describes the distribution of a simulated field.
// Mean is the average skill, Spread the standard deviation of skill across
// competitors and Uncertainty the sigma carried by every individual rating.
type GeneratorConfig struct {
	Mean        float64
	Spread      float64
	Uncertainty float64
}

// DefaultGeneratorConfig matches the OpenSkill default scale
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Mean:        25.0,
		Spread:      25.0 / 3.0,
		Uncertainty: 0.1,
	}
}

// Validate checks that the generator parameters are usable
func (g GeneratorConfig) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"mean", g.Mean},
		{"spread", g.Spread},
		{"uncertainty", g.Uncertainty},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidGenerator, f.name)
		}
	}
	if g.Spread < 0 {
		return fmt.Errorf("%w: spread must not be negative", ErrInvalidGenerator)
	}
	if g.Uncertainty < 0 {
		return fmt.Errorf("%w: uncertainty must not be negative", ErrInvalidGenerator)
	}
	return nil
}

// NormalSource draws standard normal variates
type NormalSource interface {
	NormFloat64() float64
}

// Generate draws n ratings. All means are drawn before any rating is built so the
// draw order only depends on n.
func (g GeneratorConfig) Generate(n int, src NormalSource) []Rating {
	mus := make([]float64, n)
	for i := range mus {
		mus[i] = g.Mean + g.Spread*src.NormFloat64()
	}

	ratings := make([]Rating, n)
	for i, mu := range mus {
		ratings[i] = Rating{Mu: mu, Sigma: g.Uncertainty}
	}
	return ratings
}
