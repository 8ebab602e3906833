// Package config provides configuration management for tourneysim. It loads
// simulation, skill, ranking, output, logging and metrics settings from YAML,
// fills in defaults, applies environment variable overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pashagolub/tourneysim/pkg/logger"
	"github.com/pashagolub/tourneysim/pkg/ranking"
	"github.com/pashagolub/tourneysim/pkg/skill"
	"github.com/pashagolub/tourneysim/pkg/tournament"
)

// Error types for configuration validation
var (
	ErrInvalidSimulationConfig = errors.New("invalid simulation configuration")
	ErrInvalidSkillConfig      = errors.New("invalid skill configuration")
	ErrInvalidRankingConfig    = errors.New("invalid ranking configuration")
	ErrInvalidOutputConfig     = errors.New("invalid output configuration")
	ErrInvalidLogConfig        = errors.New("invalid log configuration")
	ErrConfigNotFound          = errors.New("configuration file not found")
	ErrConfigParseError        = errors.New("failed to parse configuration file")
)

// EnvPrefix prefixes every environment variable override
const EnvPrefix = "TOURNEYSIM_"

// Output formats
const (
	OutputCSV    = "csv"
	OutputJSON   = "json"
	OutputSQLite = "sqlite"
	OutputText   = "text"
	OutputRunLog = "jsonl"
)

// Config is the top-level configuration of a simulation batch
type Config struct {
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Skill      SkillConfig      `yaml:"skill" json:"skill"`
	Ranking    RankingConfig    `yaml:"ranking" json:"ranking"`
	Output     OutputConfig     `yaml:"output" json:"output"`
	Log        LogConfig        `yaml:"log" json:"log"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
}

// SimulationConfig describes the batch of runs
type SimulationConfig struct {
	Runs             int    `yaml:"runs" json:"runs"`                             // Number of simulated tournaments
	Workers          int    `yaml:"workers" json:"workers"`                       // Runs played in parallel (default: CPU count)
	Seed             uint64 `yaml:"seed" json:"seed"`                             // Master seed every run stream derives from
	Teams            int    `yaml:"teams" json:"teams"`                           // Competitors per tournament
	Format           string `yaml:"format" json:"format"`                         // knockout, round-robin, swiss or custom
	SwissRounds      int    `yaml:"swiss_rounds" json:"swiss_rounds"`             // Rounds of a Swiss tournament
	GroupSwissRounds int    `yaml:"group_swiss_rounds" json:"group_swiss_rounds"` // Rounds of the custom group phase
}

// SkillConfig describes how competitors are generated and matches predicted
type SkillConfig struct {
	Model       string  `yaml:"model" json:"model"`             // openskill or elo
	Mean        float64 `yaml:"mean" json:"mean"`               // Average skill of the field
	Spread      float64 `yaml:"spread" json:"spread"`           // Standard deviation of skill across the field
	Uncertainty float64 `yaml:"uncertainty" json:"uncertainty"` // Sigma of every individual rating
	EloScale    float64 `yaml:"elo_scale" json:"elo_scale"`     // Logistic scale of the Elo model
}

// RankingConfig selects the weights of the weighted correlation
type RankingConfig struct {
	Preset  string    `yaml:"preset" json:"preset"`   // uniform, top3, top-half or top3-normalized
	Weights []float64 `yaml:"weights" json:"weights"` // Explicit weights, one per team; overrides the preset
}

// OutputConfig describes where results are written
type OutputConfig struct {
	Directory  string   `yaml:"directory" json:"directory"`     // Directory for exported files
	Formats    []string `yaml:"formats" json:"formats"`         // Any of csv, json, sqlite, text and jsonl
	SQLitePath string   `yaml:"sqlite_path" json:"sqlite_path"` // Database file, relative to directory unless absolute
}

// LogConfig selects log level and handler
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn or error
	Format string `yaml:"format" json:"format"` // text or json
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"` // Listen address, empty disables the endpoint
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Simulation: DefaultSimulationConfig(),
		Skill:      DefaultSkillConfig(),
		Ranking:    RankingConfig{Preset: string(ranking.PresetUniform)},
		Output:     DefaultOutputConfig(),
		Log:        LogConfig{Level: "info", Format: logger.FormatText},
	}
}

// DefaultSimulationConfig returns batch defaults
func DefaultSimulationConfig() SimulationConfig {
	opts := tournament.DefaultOptions()
	return SimulationConfig{
		Runs:             100,
		Workers:          runtime.NumCPU(),
		Seed:             42,
		Teams:            27,
		Format:           string(tournament.FormatKnockout),
		SwissRounds:      opts.SwissRounds,
		GroupSwissRounds: opts.GroupSwissRounds,
	}
}

// DefaultSkillConfig returns the OpenSkill scale
func DefaultSkillConfig() SkillConfig {
	gen := skill.DefaultGeneratorConfig()
	return SkillConfig{
		Model:       string(skill.ModelOpenSkill),
		Mean:        gen.Mean,
		Spread:      gen.Spread,
		Uncertainty: gen.Uncertainty,
		EloScale:    skill.DefaultEloScale,
	}
}

// DefaultOutputConfig returns export defaults
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Directory:  "results",
		Formats:    []string{OutputCSV},
		SQLitePath: "results.db",
	}
}

// Validate checks that the whole configuration is valid
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation config validation failed: %w", err)
	}
	if err := c.Skill.Validate(); err != nil {
		return fmt.Errorf("skill config validation failed: %w", err)
	}
	if err := c.Ranking.Validate(c.Simulation.Teams); err != nil {
		return fmt.Errorf("ranking config validation failed: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config validation failed: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	return nil
}

// Validate checks the batch settings and the field size against the format
func (s *SimulationConfig) Validate() error {
	if s.Runs < 1 {
		return fmt.Errorf("%w: runs must be positive, got %d", ErrInvalidSimulationConfig, s.Runs)
	}
	if s.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidSimulationConfig, s.Workers)
	}
	format, err := tournament.ParseFormat(s.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSimulationConfig, err)
	}
	if err := format.CheckParticipants(s.Teams, s.TournamentOptions()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSimulationConfig, err)
	}
	return nil
}

// TournamentFormat returns the parsed format, assuming a validated config
func (s *SimulationConfig) TournamentFormat() tournament.Format {
	format, _ := tournament.ParseFormat(s.Format)
	return format
}

// TournamentOptions returns the scheduler options
func (s *SimulationConfig) TournamentOptions() tournament.Options {
	return tournament.Options{
		SwissRounds:      s.SwissRounds,
		GroupSwissRounds: s.GroupSwissRounds,
	}
}

// Validate checks the predictor and generator settings
func (s *SkillConfig) Validate() error {
	if _, err := skill.NewPredictor(s.PredictorConfig()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSkillConfig, err)
	}
	if err := s.GeneratorConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSkillConfig, err)
	}
	return nil
}

// PredictorConfig returns the predictor settings
func (s *SkillConfig) PredictorConfig() skill.Config {
	return skill.Config{Model: skill.Model(strings.ToLower(s.Model)), EloScale: s.EloScale}
}

// GeneratorConfig returns the rating generator settings
func (s *SkillConfig) GeneratorConfig() skill.GeneratorConfig {
	return skill.GeneratorConfig{Mean: s.Mean, Spread: s.Spread, Uncertainty: s.Uncertainty}
}

// Validate checks that the weights can be built for a field of n teams
func (r *RankingConfig) Validate(n int) error {
	_, err := r.WeightsFor(n)
	return err
}

// WeightsFor returns the position weights for a field of n teams
func (r *RankingConfig) WeightsFor(n int) ([]float64, error) {
	if len(r.Weights) > 0 {
		if len(r.Weights) != n {
			return nil, fmt.Errorf("%w: %d weights for %d teams", ErrInvalidRankingConfig, len(r.Weights), n)
		}
		for i, w := range r.Weights {
			if w < 0 {
				return nil, fmt.Errorf("%w: weight %d is negative", ErrInvalidRankingConfig, i+1)
			}
		}
		return r.Weights, nil
	}
	weights, err := ranking.Preset(r.Preset).Weights(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRankingConfig, err)
	}
	return weights, nil
}

// Validate checks the output formats
func (o *OutputConfig) Validate() error {
	valid := map[string]bool{
		OutputCSV: true, OutputJSON: true, OutputSQLite: true, OutputText: true, OutputRunLog: true,
	}
	for _, f := range o.Formats {
		if !valid[f] {
			return fmt.Errorf("%w: format '%s' must be one of: csv, json, sqlite, text, jsonl", ErrInvalidOutputConfig, f)
		}
		if f == OutputSQLite && strings.TrimSpace(o.SQLitePath) == "" {
			return fmt.Errorf("%w: sqlite_path is required for sqlite output", ErrInvalidOutputConfig)
		}
	}
	if len(o.Formats) > 0 && strings.TrimSpace(o.Directory) == "" {
		return fmt.Errorf("%w: directory is required", ErrInvalidOutputConfig)
	}
	return nil
}

// Has reports whether the output format is enabled
func (o *OutputConfig) Has(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Validate checks level and handler names
func (l *LogConfig) Validate() error {
	if _, err := logger.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLogConfig, err)
	}
	switch strings.ToLower(l.Format) {
	case logger.FormatText, logger.FormatJSON, "":
		return nil
	default:
		return fmt.Errorf("%w: format '%s' must be text or json", ErrInvalidLogConfig, l.Format)
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, filename, err)
	}

	config = mergeWithDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filename, err)
	}
	return &config, nil
}

// LoadWithEnvironment loads configuration from file, when given and present,
// and applies environment variable overrides
func LoadWithEnvironment(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		fileConfig, err := LoadFromFile(filename)
		if err != nil && !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		if err == nil {
			config = *fileConfig
		}
	}

	applyEnvironmentOverrides(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid final configuration: %w", err)
	}
	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}

// mergeWithDefaults fills in missing values with defaults
func mergeWithDefaults(config Config) Config {
	defaults := DefaultConfig()

	if config.Simulation.Runs == 0 {
		config.Simulation.Runs = defaults.Simulation.Runs
	}
	if config.Simulation.Workers == 0 {
		config.Simulation.Workers = defaults.Simulation.Workers
	}
	if config.Simulation.Teams == 0 {
		config.Simulation.Teams = defaults.Simulation.Teams
	}
	if config.Simulation.Format == "" {
		config.Simulation.Format = defaults.Simulation.Format
	}
	if config.Simulation.SwissRounds == 0 {
		config.Simulation.SwissRounds = defaults.Simulation.SwissRounds
	}
	if config.Simulation.GroupSwissRounds == 0 {
		config.Simulation.GroupSwissRounds = defaults.Simulation.GroupSwissRounds
	}

	if config.Skill.Model == "" {
		config.Skill.Model = defaults.Skill.Model
	}
	if config.Skill.Mean == 0 && config.Skill.Spread == 0 {
		config.Skill.Mean = defaults.Skill.Mean
		config.Skill.Spread = defaults.Skill.Spread
	}
	if config.Skill.Uncertainty == 0 {
		config.Skill.Uncertainty = defaults.Skill.Uncertainty
	}
	if config.Skill.EloScale == 0 {
		config.Skill.EloScale = defaults.Skill.EloScale
	}

	if config.Ranking.Preset == "" {
		config.Ranking.Preset = defaults.Ranking.Preset
	}

	if config.Output.Directory == "" {
		config.Output.Directory = defaults.Output.Directory
	}
	if config.Output.Formats == nil {
		config.Output.Formats = defaults.Output.Formats
	}
	if config.Output.SQLitePath == "" {
		config.Output.SQLitePath = defaults.Output.SQLitePath
	}

	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = defaults.Log.Format
	}
	return config
}

func envKey(name string) string {
	return EnvPrefix + name
}

// applyEnvironmentOverrides applies environment variable overrides
func applyEnvironmentOverrides(config *Config) {
	// Simulation overrides
	if val := os.Getenv(envKey("RUNS")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Simulation.Runs = parsed
		}
	}
	if val := os.Getenv(envKey("WORKERS")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Simulation.Workers = parsed
		}
	}
	if val := os.Getenv(envKey("SEED")); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			config.Simulation.Seed = parsed
		}
	}
	if val := os.Getenv(envKey("TEAMS")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Simulation.Teams = parsed
		}
	}
	if val := os.Getenv(envKey("FORMAT")); val != "" {
		config.Simulation.Format = val
	}
	if val := os.Getenv(envKey("SWISS_ROUNDS")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Simulation.SwissRounds = parsed
		}
	}
	if val := os.Getenv(envKey("GROUP_SWISS_ROUNDS")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Simulation.GroupSwissRounds = parsed
		}
	}

	// Skill overrides
	if val := os.Getenv(envKey("SKILL_MODEL")); val != "" {
		config.Skill.Model = val
	}
	if val := os.Getenv(envKey("SKILL_MEAN")); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Skill.Mean = parsed
		}
	}
	if val := os.Getenv(envKey("SKILL_SPREAD")); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Skill.Spread = parsed
		}
	}
	if val := os.Getenv(envKey("SKILL_UNCERTAINTY")); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Skill.Uncertainty = parsed
		}
	}
	if val := os.Getenv(envKey("ELO_SCALE")); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Skill.EloScale = parsed
		}
	}

	// Ranking, output, log and metrics overrides
	if val := os.Getenv(envKey("RANKING_PRESET")); val != "" {
		config.Ranking.Preset = val
		config.Ranking.Weights = nil
	}
	if val := os.Getenv(envKey("OUTPUT_DIR")); val != "" {
		config.Output.Directory = val
	}
	if val := os.Getenv(envKey("OUTPUT_FORMATS")); val != "" {
		config.Output.Formats = splitList(val)
	}
	if val := os.Getenv(envKey("SQLITE_PATH")); val != "" {
		config.Output.SQLitePath = val
	}
	if val := os.Getenv(envKey("LOG_LEVEL")); val != "" {
		config.Log.Level = val
	}
	if val := os.Getenv(envKey("LOG_FORMAT")); val != "" {
		config.Log.Format = val
	}
	if val := os.Getenv(envKey("METRICS_ADDR")); val != "" {
		config.Metrics.Addr = val
	}
}

// splitList splits a comma separated list, dropping blanks
func splitList(val string) []string {
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
