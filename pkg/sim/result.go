package sim

import (
	"time"

	"github.com/google/uuid"

	"github.com/pashagolub/tourneysim/pkg/tournament"
)

// Standing is one line of a final ranking
type Standing struct {
	Rank  int              `json:"rank"`
	Name  string           `json:"name"`
	Mu    float64          `json:"mu"`
	Sigma float64          `json:"sigma"`
	Score tournament.Score `json:"score"`
}

// Result is the outcome of a single simulated tournament. A failed run only
// carries its identity and Err.
type Result struct {
	Run                int           `json:"run"`
	Format             string        `json:"format"`
	Teams              int           `json:"teams"`
	Ranking            []Standing    `json:"ranking,omitempty"`
	Predicted          []string      `json:"predicted,omitempty"`
	Matches            int           `json:"matches"`
	Ties               int           `json:"ties"`
	DuplicateMatchups  int           `json:"duplicate_matchups"`
	Kendall            float64       `json:"kendall"`
	Discordant         int           `json:"discordant"`
	WeightedKendall    float64       `json:"weighted_kendall"`
	WeightedDiscordant float64       `json:"weighted_discordant"`
	PredictedWinner    string        `json:"predicted_winner,omitempty"`
	ActualWinner       string        `json:"actual_winner,omitempty"`
	Rounds             int           `json:"rounds"`
	Duration           time.Duration `json:"duration"`
	Err                error         `json:"-"`
}

// Failed reports whether the run was discarded
func (r Result) Failed() bool {
	return r.Err != nil
}

// WinnerPredicted reports whether the highest rated competitor won
func (r Result) WinnerPredicted() bool {
	return !r.Failed() && r.ActualWinner != "" && r.ActualWinner == r.PredictedWinner
}

// Batch holds every run of one invocation
type Batch struct {
	ID        uuid.UUID     `json:"id"`
	Format    string        `json:"format"`
	Teams     int           `json:"teams"`
	Seed      uint64        `json:"seed"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Results   []Result      `json:"results"`
}

// Summary aggregates the successful runs of a batch
type Summary struct {
	Runs              int
	Failed            int
	MeanKendall       float64
	MeanWeighted      float64
	MeanMatches       float64
	MeanTies          float64
	MeanDuplicates    float64
	MeanRounds        float64
	WinnersPredicted  int
	WinnerAccuracyPct float64
}

// Summary computes the batch aggregates. Failed runs are counted but excluded
// from every mean.
func (b *Batch) Summary() Summary {
	s := Summary{Runs: len(b.Results)}
	ok := 0
	for _, r := range b.Results {
		if r.Failed() {
			s.Failed++
			continue
		}
		ok++
		s.MeanKendall += r.Kendall
		s.MeanWeighted += r.WeightedKendall
		s.MeanMatches += float64(r.Matches)
		s.MeanTies += float64(r.Ties)
		s.MeanDuplicates += float64(r.DuplicateMatchups)
		s.MeanRounds += float64(r.Rounds)
		if r.WinnerPredicted() {
			s.WinnersPredicted++
		}
	}
	if ok == 0 {
		return s
	}
	n := float64(ok)
	s.MeanKendall /= n
	s.MeanWeighted /= n
	s.MeanMatches /= n
	s.MeanTies /= n
	s.MeanDuplicates /= n
	s.MeanRounds /= n
	s.WinnerAccuracyPct = float64(s.WinnersPredicted) / n * 100
	return s
}
