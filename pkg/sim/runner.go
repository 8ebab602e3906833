// Package sim drives batches of simulated tournaments. Every run owns a random
// stream derived from the batch seed and its index, so a batch is reproducible
// whatever the number of workers.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pashagolub/tourneysim/pkg/config"
	"github.com/pashagolub/tourneysim/pkg/logger"
	"github.com/pashagolub/tourneysim/pkg/ranking"
	"github.com/pashagolub/tourneysim/pkg/skill"
	"github.com/pashagolub/tourneysim/pkg/tournament"
)

// ErrInvalidSettings is returned for settings a runner cannot start with
var ErrInvalidSettings = errors.New("invalid simulation settings")

// Settings fully describe a batch
type Settings struct {
	Runs      int
	Workers   int
	Seed      uint64
	Teams     int
	Format    tournament.Format
	Options   tournament.Options
	Predictor skill.Config
	Generator skill.GeneratorConfig
	Weights   []float64 // one per team, for the weighted correlation
}

// SettingsFromConfig converts a validated configuration
func SettingsFromConfig(c *config.Config) (Settings, error) {
	weights, err := c.Ranking.WeightsFor(c.Simulation.Teams)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Runs:      c.Simulation.Runs,
		Workers:   c.Simulation.Workers,
		Seed:      c.Simulation.Seed,
		Teams:     c.Simulation.Teams,
		Format:    c.Simulation.TournamentFormat(),
		Options:   c.Simulation.TournamentOptions(),
		Predictor: c.Skill.PredictorConfig(),
		Generator: c.Skill.GeneratorConfig(),
		Weights:   weights,
	}, nil
}

// Validate checks that every run of the batch can be started
func (s Settings) Validate() error {
	if s.Runs < 1 {
		return fmt.Errorf("%w: runs must be positive, got %d", ErrInvalidSettings, s.Runs)
	}
	if s.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidSettings, s.Workers)
	}
	if err := s.Format.CheckParticipants(s.Teams, s.Options); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if len(s.Weights) != s.Teams {
		return fmt.Errorf("%w: %d weights for %d teams", ErrInvalidSettings, len(s.Weights), s.Teams)
	}
	if _, err := skill.NewPredictor(s.Predictor); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.Generator.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// Runner plays the runs of a batch
type Runner struct {
	id        uuid.UUID
	settings  Settings
	logger    *slog.Logger
	metrics   *Metrics
	observers []func(Result)
}

// NewRunner validates settings and assigns the batch identity. Nil logger and
// metrics are allowed.
func NewRunner(settings Settings, log *slog.Logger, metrics *Metrics) (*Runner, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		id:       uuid.New(),
		settings: settings,
		logger:   logger.OrDiscard(log),
		metrics:  metrics,
	}, nil
}

// TeamName returns the name of the i-th generated competitor
func TeamName(i int) string {
	return fmt.Sprintf("Team %3d", i)
}

// Stream returns the random stream of run index within a batch seeded with seed
func Stream(seed uint64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(index)))
}

// Run plays run index of the batch. Errors end up in Result.Err.
func (r *Runner) Run(index int) Result {
	start := time.Now()
	result, err := r.play(index)
	result.Duration = time.Since(start)
	if err != nil {
		result = Result{
			Run:      index,
			Format:   string(r.settings.Format),
			Teams:    r.settings.Teams,
			Duration: result.Duration,
			Err:      err,
		}
		r.logger.Warn("run failed", slog.Int("run", index), slog.Any("error", err))
	} else {
		r.logger.Info("run finished",
			slog.Int("run", index),
			slog.String("winner", result.ActualWinner),
			slog.Float64("kendall", result.Kendall),
			slog.Int("matches", result.Matches),
			slog.Duration("duration", result.Duration))
	}
	r.metrics.observe(result)
	for _, observe := range r.observers {
		observe(result)
	}
	return result
}

// Observe registers fn to receive every finished run. Observers are called from
// the worker goroutines and must be safe for concurrent use. Register them
// before RunBatch.
func (r *Runner) Observe(fn func(Result)) {
	r.observers = append(r.observers, fn)
}

// BatchID identifies the batch played by this runner
func (r *Runner) BatchID() uuid.UUID {
	return r.id
}

// Settings returns the batch settings
func (r *Runner) Settings() Settings {
	return r.settings
}

func (r *Runner) play(index int) (Result, error) {
	s := r.settings
	stream := Stream(s.Seed, index)

	ratings := s.Generator.Generate(s.Teams, stream)
	competitors := make([]*tournament.Competitor, s.Teams)
	for i, rating := range ratings {
		competitors[i] = tournament.NewCompetitor(TeamName(i), rating)
	}
	predicted := tournament.Names(tournament.RankByRating(competitors))

	predictor, err := skill.NewPredictor(s.Predictor)
	if err != nil {
		return Result{}, err
	}
	resolver, err := tournament.NewResolver(predictor, stream, index, r.logger)
	if err != nil {
		return Result{}, err
	}
	tour, err := tournament.New(s.Format, competitors, resolver, s.Options)
	if err != nil {
		return Result{}, err
	}
	final, err := tour.Play()
	if err != nil {
		return Result{}, err
	}
	actual := tournament.Names(final)

	kendall, discordant, err := ranking.KendallCorrelation(predicted, actual)
	if err != nil {
		return Result{}, err
	}
	weighted, weightedSum, err := ranking.WeightedKendall(predicted, actual, s.Weights)
	if err != nil {
		return Result{}, err
	}

	standings := make([]Standing, len(final))
	for i, c := range final {
		standings[i] = Standing{
			Rank:  i + 1,
			Name:  c.Name(),
			Mu:    c.Rating().Mu,
			Sigma: c.Rating().Sigma,
			Score: c.Score(),
		}
	}
	r.logRanking(index, final)

	return Result{
		Run:                index,
		Format:             string(s.Format),
		Teams:              s.Teams,
		Ranking:            standings,
		Predicted:          predicted,
		Matches:            tour.MatchCount(),
		Ties:               tour.TieCount(),
		DuplicateMatchups:  tour.DuplicateMatchupCount(),
		Kendall:            kendall,
		Discordant:         discordant,
		WeightedKendall:    weighted,
		WeightedDiscordant: weightedSum,
		PredictedWinner:    predicted[0],
		ActualWinner:       actual[0],
		Rounds:             resolver.Rounds(),
	}, nil
}

func (r *Runner) logRanking(index int, final []*tournament.Competitor) {
	if !r.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for i, c := range final {
		r.logger.Debug("final ranking",
			slog.Int("run", index),
			slog.Int("rank", i+1),
			slog.String("name", c.Name()),
			slog.String("rating", c.Rating().String()),
			slog.String("score", c.Score().String()))
	}
}

// RunBatch plays every run on a pool of Workers goroutines. A failed run never
// stops its siblings; cancelling ctx stops dispatching and returns the runs
// dispatched so far together with the context error.
func (r *Runner) RunBatch(ctx context.Context) (*Batch, error) {
	s := r.settings
	batch := &Batch{
		ID:        r.id,
		Format:    string(s.Format),
		Teams:     s.Teams,
		Seed:      s.Seed,
		StartedAt: time.Now(),
	}
	results := make([]Result, s.Runs)

	var g errgroup.Group
	g.SetLimit(s.Workers)

	dispatched := 0
	for i := range results {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = r.Run(i)
			return nil
		})
		dispatched++
	}
	_ = g.Wait()

	batch.Results = results[:dispatched]
	batch.Duration = time.Since(batch.StartedAt)

	summary := batch.Summary()
	r.logger.Info("batch finished",
		slog.String("batch", batch.ID.String()),
		slog.String("format", s.Format.DisplayName()),
		slog.Int("runs", summary.Runs),
		slog.Int("failed", summary.Failed),
		slog.Float64("mean_kendall", summary.MeanKendall),
		slog.Float64("winner_accuracy_pct", summary.WinnerAccuracyPct),
		slog.Duration("duration", batch.Duration))

	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}
