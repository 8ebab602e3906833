package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashagolub/tourneysim/pkg/tournament"
)

// writeConfig writes YAML content into a temporary config file
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tourneysim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 100, config.Simulation.Runs)
	assert.Equal(t, 27, config.Simulation.Teams)
	assert.Equal(t, "knockout", config.Simulation.Format)
	assert.Equal(t, uint64(42), config.Simulation.Seed)
	assert.Equal(t, "openskill", config.Skill.Model)
	assert.InDelta(t, 25.0/3.0, config.Skill.Spread, 1e-9)
	assert.Equal(t, []string{OutputCSV}, config.Output.Formats)
	assert.Empty(t, config.Metrics.Addr)

	assert.NoError(t, config.Validate())
}

func TestSimulationConfigValidation(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*SimulationConfig)
		valid  bool
	}{
		{"defaults", func(*SimulationConfig) {}, true},
		{"zero runs", func(s *SimulationConfig) { s.Runs = 0 }, false},
		{"zero workers", func(s *SimulationConfig) { s.Workers = 0 }, false},
		{"unknown format", func(s *SimulationConfig) { s.Format = "ladder" }, false},
		{"knockout needs power of three", func(s *SimulationConfig) { s.Teams = 12 }, false},
		{"swiss by display name", func(s *SimulationConfig) { s.Format = "Swiss System"; s.Teams = 12 }, true},
		{"swiss without rounds", func(s *SimulationConfig) { s.Format = "swiss"; s.SwissRounds = 0 }, false},
		{"round robin small field", func(s *SimulationConfig) { s.Format = "round-robin"; s.Teams = 4 }, true},
		{"custom too small", func(s *SimulationConfig) { s.Format = "custom"; s.Teams = 6 }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultSimulationConfig()
			tc.modify(&config)
			err := config.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSimulationConfig)
			}
		})
	}
}

func TestSkillConfigValidation(t *testing.T) {
	config := DefaultSkillConfig()
	assert.NoError(t, config.Validate())

	config.Model = "ELO"
	assert.NoError(t, config.Validate())

	config.EloScale = -1
	assert.ErrorIs(t, config.Validate(), ErrInvalidSkillConfig)

	config = DefaultSkillConfig()
	config.Model = "trueskill"
	assert.ErrorIs(t, config.Validate(), ErrInvalidSkillConfig)

	config = DefaultSkillConfig()
	config.Spread = -2
	assert.ErrorIs(t, config.Validate(), ErrInvalidSkillConfig)
}

func TestRankingWeights(t *testing.T) {
	t.Run("preset", func(t *testing.T) {
		config := RankingConfig{Preset: "top3"}
		weights, err := config.WeightsFor(5)
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 2, 2, 1, 1}, weights)
	})

	t.Run("explicit weights win over preset", func(t *testing.T) {
		config := RankingConfig{Preset: "top3", Weights: []float64{3, 2, 1}}
		weights, err := config.WeightsFor(3)
		require.NoError(t, err)
		assert.Equal(t, []float64{3, 2, 1}, weights)
	})

	t.Run("explicit weights must match the field", func(t *testing.T) {
		config := RankingConfig{Weights: []float64{3, 2, 1}}
		_, err := config.WeightsFor(9)
		assert.ErrorIs(t, err, ErrInvalidRankingConfig)
	})

	t.Run("negative weight", func(t *testing.T) {
		config := RankingConfig{Weights: []float64{1, -1, 1}}
		assert.ErrorIs(t, config.Validate(3), ErrInvalidRankingConfig)
	})

	t.Run("unknown preset", func(t *testing.T) {
		config := RankingConfig{Preset: "bottom-heavy"}
		assert.ErrorIs(t, config.Validate(3), ErrInvalidRankingConfig)
	})
}

func TestOutputAndLogValidation(t *testing.T) {
	output := DefaultOutputConfig()
	assert.NoError(t, output.Validate())
	assert.True(t, output.Has(OutputCSV))
	assert.False(t, output.Has(OutputSQLite))

	output.Formats = []string{OutputText, OutputRunLog}
	assert.NoError(t, output.Validate())

	output.Formats = []string{OutputCSV, "xlsx"}
	assert.ErrorIs(t, output.Validate(), ErrInvalidOutputConfig)

	output = OutputConfig{Directory: "out", Formats: []string{OutputSQLite}}
	assert.ErrorIs(t, output.Validate(), ErrInvalidOutputConfig)

	logConfig := LogConfig{Level: "debug", Format: "json"}
	assert.NoError(t, logConfig.Validate())
	logConfig.Level = "loud"
	assert.ErrorIs(t, logConfig.Validate(), ErrInvalidLogConfig)
	logConfig = LogConfig{Level: "info", Format: "xml"}
	assert.ErrorIs(t, logConfig.Validate(), ErrInvalidLogConfig)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("partial file is merged with defaults", func(t *testing.T) {
		path := writeConfig(t, `
simulation:
  runs: 10
  teams: 9
  format: custom
skill:
  model: elo
  mean: 1500
  spread: 200
output:
  formats: [csv, json, sqlite]
`)
		config, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 10, config.Simulation.Runs)
		assert.Equal(t, tournament.FormatCustom, config.Simulation.TournamentFormat())
		assert.Equal(t, 3, config.Simulation.GroupSwissRounds)
		assert.Equal(t, 1500.0, config.Skill.Mean)
		assert.Equal(t, 0.1, config.Skill.Uncertainty)
		assert.Equal(t, 400.0, config.Skill.EloScale)
		assert.Equal(t, "results.db", config.Output.SQLitePath)
		assert.True(t, config.Output.Has(OutputSQLite))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("malformed YAML", func(t *testing.T) {
		_, err := LoadFromFile(writeConfig(t, "simulation: [runs"))
		assert.ErrorIs(t, err, ErrConfigParseError)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := LoadFromFile(writeConfig(t, "simulation:\n  teams: 10\n"))
		assert.ErrorIs(t, err, ErrInvalidSimulationConfig)
	})
}

func TestLoadWithEnvironment(t *testing.T) {
	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "simulation:\n  runs: 5\n  format: swiss\n  teams: 12\n")
		t.Setenv("TOURNEYSIM_RUNS", "7")
		t.Setenv("TOURNEYSIM_SEED", "1234")
		t.Setenv("TOURNEYSIM_OUTPUT_FORMATS", "json, sqlite")
		t.Setenv("TOURNEYSIM_LOG_LEVEL", "debug")
		t.Setenv("TOURNEYSIM_METRICS_ADDR", ":9100")
		t.Setenv("TOURNEYSIM_WORKERS", "not-a-number")

		config, err := LoadWithEnvironment(path)
		require.NoError(t, err)
		assert.Equal(t, 7, config.Simulation.Runs)
		assert.Equal(t, uint64(1234), config.Simulation.Seed)
		assert.Equal(t, "swiss", config.Simulation.Format)
		assert.Equal(t, []string{"json", "sqlite"}, config.Output.Formats)
		assert.Equal(t, "debug", config.Log.Level)
		assert.Equal(t, ":9100", config.Metrics.Addr)
		assert.Equal(t, DefaultSimulationConfig().Workers, config.Simulation.Workers, "unparsable values are ignored")
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		config, err := LoadWithEnvironment(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Simulation.Runs, config.Simulation.Runs)
	})

	t.Run("invalid override is rejected", func(t *testing.T) {
		t.Setenv("TOURNEYSIM_FORMAT", "ladder")
		_, err := LoadWithEnvironment("")
		assert.ErrorIs(t, err, ErrInvalidSimulationConfig)
	})
}

func TestSaveToFile(t *testing.T) {
	config := DefaultConfig()
	config.Simulation.Format = "round-robin"
	config.Simulation.Teams = 6
	config.Ranking.Weights = []float64{6, 5, 4, 3, 2, 1}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, config.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config, *loaded)
}
