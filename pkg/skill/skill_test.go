package skill

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Floating point comparison tolerance
const tolerance = 0.0001

func createTestElo(t *testing.T) *Elo {
	t.Helper()
	engine, err := NewElo(0)
	require.NoError(t, err)
	return engine
}

func TestNewElo(t *testing.T) {
	t.Run("zero scale selects default", func(t *testing.T) {
		engine, err := NewElo(0)
		require.NoError(t, err)
		assert.Equal(t, DefaultEloScale, engine.Scale)
	})

	t.Run("negative scale returns error", func(t *testing.T) {
		engine, err := NewElo(-10)
		assert.ErrorIs(t, err, ErrInvalidScale)
		assert.Nil(t, engine)
	})

	t.Run("NaN scale returns error", func(t *testing.T) {
		_, err := NewElo(math.NaN())
		assert.ErrorIs(t, err, ErrInvalidScale)
	})
}

func TestEloExpectedScore(t *testing.T) {
	engine := createTestElo(t)

	testCases := []struct {
		name     string
		ratingA  float64
		ratingB  float64
		expected float64
	}{
		{"equal ratings", 1200.0, 1200.0, 0.5},
		{"A higher than B by 400", 1600.0, 1200.0, 0.9090909090909091},
		{"A lower than B by 400", 800.0, 1200.0, 0.09090909090909091},
		{"A higher than B by 200", 1400.0, 1200.0, 0.7597469733656174},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.ExpectedScore(tc.ratingA, tc.ratingB)
			assert.InDelta(t, tc.expected, result, tolerance)

			probs, err := engine.Predict([]Rating{{Mu: tc.ratingA}, {Mu: tc.ratingB}})
			require.NoError(t, err)
			assert.InDelta(t, result, probs[0], tolerance, "two-way prediction should match expected score")
		})
	}
}

func TestEloPredictTrio(t *testing.T) {
	engine := createTestElo(t)

	t.Run("equal ratings split evenly", func(t *testing.T) {
		probs, err := engine.Predict([]Rating{{Mu: 1500}, {Mu: 1500}, {Mu: 1500}})
		require.NoError(t, err)
		for _, p := range probs {
			assert.InDelta(t, 1.0/3.0, p, tolerance)
		}
	})

	t.Run("stronger rating is favoured and probabilities sum to one", func(t *testing.T) {
		probs, err := engine.Predict([]Rating{{Mu: 1900}, {Mu: 1500}, {Mu: 1100}})
		require.NoError(t, err)
		assert.Greater(t, probs[0], probs[1])
		assert.Greater(t, probs[1], probs[2])
		assert.InDelta(t, 1.0, probs[0]+probs[1]+probs[2], 1e-12)
	})

	t.Run("huge ratings do not overflow", func(t *testing.T) {
		probs, err := engine.Predict([]Rating{{Mu: 1e6}, {Mu: 1e6}, {Mu: 0}})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, probs[0], tolerance)
		assert.InDelta(t, 0.0, probs[2], tolerance)
	})

	t.Run("invalid rating returns error", func(t *testing.T) {
		_, err := engine.Predict([]Rating{{Mu: math.NaN()}, {Mu: 1500}, {Mu: 1500}})
		assert.ErrorIs(t, err, ErrInvalidRating)
	})

	t.Run("empty input returns error", func(t *testing.T) {
		_, err := engine.Predict(nil)
		assert.ErrorIs(t, err, ErrNoRatings)
	})
}

func TestOpenSkillPredict(t *testing.T) {
	predictor := NewOpenSkill()

	t.Run("equal ratings split evenly", func(t *testing.T) {
		probs, err := predictor.Predict([]Rating{{25, 8.333}, {25, 8.333}, {25, 8.333}})
		require.NoError(t, err)
		require.Len(t, probs, 3)
		for _, p := range probs {
			assert.InDelta(t, 1.0/3.0, p, tolerance)
		}
	})

	t.Run("stronger rating is favoured", func(t *testing.T) {
		probs, err := predictor.Predict([]Rating{{35, 0.1}, {25, 0.1}, {15, 0.1}})
		require.NoError(t, err)
		require.Len(t, probs, 3)
		assert.Greater(t, probs[0], probs[1])
		assert.Greater(t, probs[1], probs[2])
		assert.InDelta(t, 1.0, probs[0]+probs[1]+probs[2], 1e-9)
	})

	t.Run("single rating always wins", func(t *testing.T) {
		probs, err := predictor.Predict([]Rating{{25, 1}})
		require.NoError(t, err)
		assert.Equal(t, []float64{1.0}, probs)
	})
}

func TestNewPredictor(t *testing.T) {
	testCases := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{"default model", Config{}, nil},
		{"openskill", Config{Model: ModelOpenSkill}, nil},
		{"elo", Config{Model: ModelElo, EloScale: 400}, nil},
		{"elo with bad scale", Config{Model: ModelElo, EloScale: -1}, ErrInvalidScale},
		{"unknown", Config{Model: "glicko"}, ErrUnknownModel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			predictor, err := NewPredictor(tc.config)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, predictor)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, predictor)
		})
	}
}

func TestGenerate(t *testing.T) {
	config := DefaultGeneratorConfig()

	t.Run("same seed gives same field", func(t *testing.T) {
		a := config.Generate(12, rand.New(rand.NewPCG(7, 1)))
		b := config.Generate(12, rand.New(rand.NewPCG(7, 1)))
		assert.Equal(t, a, b)
	})

	t.Run("uncertainty is carried by every rating", func(t *testing.T) {
		ratings := config.Generate(9, rand.New(rand.NewPCG(1, 2)))
		require.Len(t, ratings, 9)
		for _, r := range ratings {
			assert.Equal(t, config.Uncertainty, r.Sigma)
		}
	})

	t.Run("zero spread gives constant means", func(t *testing.T) {
		flat := GeneratorConfig{Mean: 1500, Spread: 0, Uncertainty: 0}
		for _, r := range flat.Generate(5, rand.New(rand.NewPCG(3, 3))) {
			assert.Equal(t, 1500.0, r.Mu)
		}
	})
}

func TestGeneratorValidate(t *testing.T) {
	assert.NoError(t, DefaultGeneratorConfig().Validate())
	assert.ErrorIs(t, GeneratorConfig{Spread: -1}.Validate(), ErrInvalidGenerator)
	assert.ErrorIs(t, GeneratorConfig{Uncertainty: -1}.Validate(), ErrInvalidGenerator)
	assert.ErrorIs(t, GeneratorConfig{Mean: math.Inf(1)}.Validate(), ErrInvalidGenerator)
}
