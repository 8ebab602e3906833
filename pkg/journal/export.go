// Package journal persists simulation batches. It exports results as CSV, JSON
// or a text report, streams run records to an append-only JSON Lines log and
// stores batches in SQLite.
package journal

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	texttemplate "text/template"
	"time"

	"github.com/pashagolub/tourneysim/pkg/sim"
	"github.com/pashagolub/tourneysim/pkg/tournament"
)

// Error types for export operations
var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrEmptyBatch        = errors.New("batch has no runs to export")
	ErrMalformedTable    = errors.New("malformed results table")
)

// ExportFormat represents the format for exporting results
type ExportFormat string

const (
	FormatCSV       ExportFormat = "csv"
	FormatStandings ExportFormat = "standings"
	FormatJSON      ExportFormat = "json"
	FormatText      ExportFormat = "text"
)

// Default file names inside the output directory
const (
	ResultsFile   = "final_results.csv"
	StandingsFile = "standings.csv"
	BatchFile     = "batch.json"
	ReportFile    = "report.txt"
	RunLogFile    = "runs.jsonl"
)

// ResultHeaders are the columns of the per-run results table
var ResultHeaders = []string{
	"batch_id", "run", "format", "teams", "matches", "ties", "duplicate_matchups",
	"kendall", "discordant", "weighted_kendall", "weighted_discordant",
	"predicted_winner", "actual_winner", "winner_predicted", "rounds", "duration_ms", "error",
}

// StandingHeaders are the columns of the final ranking table
var StandingHeaders = []string{
	"batch_id", "run", "rank", "name", "mu", "sigma",
	"match_wins", "cycle_rate", "round_rate", "defense_rate",
}

// BatchExport is the JSON document of a batch
type BatchExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Batch      *sim.Batch      `json:"batch"`
	Summary    sim.Summary     `json:"summary"`
	Errors     []ExportedError `json:"errors,omitempty"`
}

// ExportedError records the failure of a run
type ExportedError struct {
	Run   int    `json:"run"`
	Error string `json:"error"`
}

// Exporter writes batches in the supported formats
type Exporter struct {
	now func() time.Time
}

// NewExporter creates a new exporter instance
func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// ExportToFile writes the batch to filePath atomically through a temporary file
func (e *Exporter) ExportToFile(batch *sim.Batch, filePath string, format ExportFormat) (err error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tempFile := filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tempFile)
		}
	}()

	if err = e.Export(batch, file, format); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err = os.Rename(tempFile, filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace target file: %w", err)
	}
	return nil
}

// Export writes the batch to writer in the given format
func (e *Exporter) Export(batch *sim.Batch, writer io.Writer, format ExportFormat) error {
	switch format {
	case FormatCSV:
		return e.ExportCSV(batch, writer)
	case FormatStandings:
		return e.ExportStandingsCSV(batch, writer)
	case FormatJSON:
		return e.ExportJSON(batch, writer)
	case FormatText:
		return e.ExportReport(batch, writer)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ExportCSV writes one row per run
func (e *Exporter) ExportCSV(batch *sim.Batch, writer io.Writer) error {
	if len(batch.Results) == 0 {
		return ErrEmptyBatch
	}
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(ResultHeaders); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range batch.Results {
		if err := csvWriter.Write(resultRecord(batch, r)); err != nil {
			return fmt.Errorf("failed to write CSV record for run %d: %w", r.Run, err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// ExportStandingsCSV writes one row per competitor and successful run
func (e *Exporter) ExportStandingsCSV(batch *sim.Batch, writer io.Writer) error {
	if len(batch.Results) == 0 {
		return ErrEmptyBatch
	}
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(StandingHeaders); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	id := batch.ID.String()
	for _, r := range batch.Results {
		for _, s := range r.Ranking {
			record := []string{
				id,
				strconv.Itoa(r.Run),
				strconv.Itoa(s.Rank),
				s.Name,
				formatFloat(s.Mu),
				formatFloat(s.Sigma),
				strconv.Itoa(s.Score.MatchWins),
				formatFloat(s.Score.CycleRate),
				formatFloat(s.Score.RoundRate),
				formatFloat(s.Score.DefenseRate),
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write standing of %s in run %d: %w", s.Name, r.Run, err)
			}
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// ExportJSON writes the whole batch with its summary
func (e *Exporter) ExportJSON(batch *sim.Batch, writer io.Writer) error {
	export := &BatchExport{
		ExportedAt: e.now(),
		Batch:      batch,
		Summary:    batch.Summary(),
	}
	for _, r := range batch.Results {
		if r.Failed() {
			export.Errors = append(export.Errors, ExportedError{Run: r.Run, Error: r.Err.Error()})
		}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

var reportTemplate = texttemplate.Must(texttemplate.New("report").Parse(
	`Tournament Simulation Report
============================

Batch: {{ .Batch.ID }}
Format: {{ .Format }}
Teams: {{ .Batch.Teams }}
Seed: {{ .Batch.Seed }}
Generated: {{ .Generated }}

Runs: {{ .Summary.Runs }} ({{ .Summary.Failed }} failed)
Mean Kendall: {{ printf "%.4f" .Summary.MeanKendall }}
Mean weighted Kendall: {{ printf "%.4f" .Summary.MeanWeighted }}
Mean matches: {{ printf "%.1f" .Summary.MeanMatches }}
Mean rounds: {{ printf "%.1f" .Summary.MeanRounds }}
Mean ties: {{ printf "%.2f" .Summary.MeanTies }}
Mean duplicate matchups: {{ printf "%.2f" .Summary.MeanDuplicates }}
Winner predicted: {{ .Summary.WinnersPredicted }} ({{ printf "%.2f" .Summary.WinnerAccuracyPct }}%)
`))

// ExportReport writes a human-readable summary of the batch
func (e *Exporter) ExportReport(batch *sim.Batch, writer io.Writer) error {
	data := struct {
		Batch     *sim.Batch
		Format    string
		Generated string
		Summary   sim.Summary
	}{
		Batch:     batch,
		Format:    tournament.Format(batch.Format).DisplayName(),
		Generated: e.now().Format("2006-01-02 15:04:05"),
		Summary:   batch.Summary(),
	}
	if err := reportTemplate.Execute(writer, data); err != nil {
		return fmt.Errorf("failed to execute report template: %w", err)
	}
	return nil
}

func resultRecord(batch *sim.Batch, r sim.Result) []string {
	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	return []string{
		batch.ID.String(),
		strconv.Itoa(r.Run),
		r.Format,
		strconv.Itoa(r.Teams),
		strconv.Itoa(r.Matches),
		strconv.Itoa(r.Ties),
		strconv.Itoa(r.DuplicateMatchups),
		formatFloat(r.Kendall),
		strconv.Itoa(r.Discordant),
		formatFloat(r.WeightedKendall),
		formatFloat(r.WeightedDiscordant),
		r.PredictedWinner,
		r.ActualWinner,
		strconv.FormatBool(r.WinnerPredicted()),
		strconv.Itoa(r.Rounds),
		strconv.FormatInt(r.Duration.Milliseconds(), 10),
		errText,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
