package ranking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPreset is returned for a weight preset name that is not defined
var ErrUnknownPreset = errors.New("unknown weight preset")

// Preset names a family of position weights
type Preset string

// Weight presets
const (
	PresetUniform        Preset = "uniform"
	PresetTop3           Preset = "top3"
	PresetTopHalf        Preset = "top-half"
	PresetTop3Normalized Preset = "top3-normalized"
)

// Presets lists the known presets
func Presets() []Preset {
	return []Preset{PresetUniform, PresetTop3, PresetTopHalf, PresetTop3Normalized}
}

// Uniform weighs every position 1
func Uniform(n int) []float64 {
	return TopHeavy(n, 0, 1)
}

// TopHeavy weighs the first k positions w and the rest 1
func TopHeavy(n, k int, w float64) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
		if i < k {
			weights[i] = w
		}
	}
	return weights
}

// Normalize scales weights so they sum to their count, keeping scores of
// differently weighted rankings comparable. All-zero weights are returned as is.
func Normalize(weights []float64) []float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	normalized := make([]float64, len(weights))
	if sum == 0 {
		copy(normalized, weights)
		return normalized
	}
	for i, w := range weights {
		normalized[i] = float64(len(weights)) * w / sum
	}
	return normalized
}

// Weights builds the n position weights of a preset
func (p Preset) Weights(n int) ([]float64, error) {
	switch Preset(strings.ToLower(string(p))) {
	case PresetUniform, "":
		return Uniform(n), nil
	case PresetTop3:
		return TopHeavy(n, 3, 2), nil
	case PresetTopHalf:
		return TopHeavy(n, n/2, 2), nil
	case PresetTop3Normalized:
		return Normalize(TopHeavy(n, 3, 2)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
}
