// Package ranking measures the distance between two orderings of the same
// competitors with Kendall style correlation scores.
package ranking

import (
	"errors"
	"fmt"
)

// ErrInputMismatch is returned when two rankings cannot be compared
var ErrInputMismatch = errors.New("rankings do not match")

// KendallCorrelation compares the predicted ranking with the actual one. It
// returns the number of discordant pairs d and the score 1-4d/(N(N-1)), which is
// 1 for identical orderings and -1 for reversed ones. Both rankings must hold
// the same distinct names.
func KendallCorrelation(predicted, actual []string) (float64, int, error) {
	if len(predicted) != len(actual) {
		return 0, 0, fmt.Errorf("%w: %d predicted against %d actual entries",
			ErrInputMismatch, len(predicted), len(actual))
	}
	position, err := positions(predicted)
	if err != nil {
		return 0, 0, err
	}
	seen := make(map[string]struct{}, len(actual))
	for _, name := range actual {
		if _, ok := position[name]; !ok {
			return 0, 0, fmt.Errorf("%w: %q is missing from the prediction", ErrInputMismatch, name)
		}
		if _, dup := seen[name]; dup {
			return 0, 0, fmt.Errorf("%w: %q appears twice", ErrInputMismatch, name)
		}
		seen[name] = struct{}{}
	}

	n := len(actual)
	if n < 2 {
		return 1.0, 0, nil
	}
	discordant := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if position[actual[i]] > position[actual[j]] {
				discordant++
			}
		}
	}
	return score(float64(discordant), n), discordant, nil
}

// WeightedKendall weighs every discordant pair of expected positions i < j:
// weights[j] when expected places the first name ahead and predicted behind,
// weights[i] in the opposite case. Positions are first occurrences, so only
// the first rule fires for rankings without repeated names.
func WeightedKendall(expected, predicted []string, weights []float64) (float64, float64, error) {
	if len(expected) != len(predicted) || len(expected) != len(weights) {
		return 0, 0, fmt.Errorf("%w: lengths %d, %d and %d weights",
			ErrInputMismatch, len(expected), len(predicted), len(weights))
	}
	exp := firstPositions(expected)
	pred := firstPositions(predicted)
	for _, name := range expected {
		if _, ok := pred[name]; !ok {
			return 0, 0, fmt.Errorf("%w: %q is missing from the prediction", ErrInputMismatch, name)
		}
	}

	n := len(expected)
	if n < 2 {
		return 1.0, 0, nil
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		a := expected[i]
		for j := i + 1; j < n; j++ {
			b := expected[j]
			switch {
			case exp[a] < exp[b] && pred[a] > pred[b]:
				sum += weights[j]
			case exp[a] > exp[b] && pred[a] < pred[b]:
				sum += weights[i]
			}
		}
	}
	return score(sum, n), sum, nil
}

func score(discordant float64, n int) float64 {
	return 1 - 4*discordant/float64(n*(n-1))
}

// positions maps names to their index and rejects repeated names
func positions(names []string) (map[string]int, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %q appears twice", ErrInputMismatch, name)
		}
		index[name] = i
	}
	return index, nil
}

func firstPositions(names []string) map[string]int {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return index
}
