// Package main provides the command-line interface for tourneysim. It runs
// batches of simulated tournaments, validates configuration files, lists stored
// batches and shows exported results in the terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/pashagolub/tourneysim/pkg/config"
	"github.com/pashagolub/tourneysim/pkg/journal"
	"github.com/pashagolub/tourneysim/pkg/tournament"
	"github.com/pashagolub/tourneysim/pkg/tui"
)

// Version information - set by build process
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// stdout receives command output; tests replace it
var stdout io.Writer = os.Stdout

// GlobalOptions defines flags shared by every command
type GlobalOptions struct {
	Config  string `long:"config" short:"c" description:"Configuration file path" default:"tourneysim.yaml"`
	Verbose bool   `long:"verbose" short:"v" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version information"`
}

// SimulateCommand handles 'tourneysim simulate'
type SimulateCommand struct {
	Runs             int      `long:"runs" short:"n" description:"Number of simulated tournaments"`
	Workers          int      `long:"workers" short:"w" description:"Runs played in parallel"`
	Seed             *uint64  `long:"seed" description:"Master seed of the batch"`
	Teams            int      `long:"teams" short:"t" description:"Competitors per tournament"`
	Format           string   `long:"format" short:"f" description:"Tournament format (knockout/round-robin/swiss/custom)"`
	SwissRounds      int      `long:"swiss-rounds" description:"Rounds of a Swiss tournament"`
	GroupSwissRounds int      `long:"group-swiss-rounds" description:"Swiss rounds of the custom group phase"`
	Model            string   `long:"model" description:"Win probability model (openskill/elo)"`
	Preset           string   `long:"weights" description:"Weighted correlation preset (uniform/top3/top-half/top3-normalized)"`
	OutputDir        string   `long:"output-dir" short:"o" description:"Directory for result files"`
	Outputs          []string `long:"format-out" description:"Output format, repeatable (csv/json/sqlite/text/jsonl)"`
	MetricsAddr      string   `long:"metrics-addr" description:"Serve prometheus metrics on this address"`
	Quiet            bool     `long:"quiet" short:"q" description:"Do not print the batch report"`

	Global *GlobalOptions
}

// ValidateCommand handles 'tourneysim validate'
type ValidateCommand struct {
	Global *GlobalOptions
}

// ShowCommand handles 'tourneysim show'
type ShowCommand struct {
	Input string `long:"input" short:"i" description:"Results CSV to display" required:"true"`
	Plain bool   `long:"plain" description:"Print a plain table even on a terminal"`

	Global *GlobalOptions
}

// ListCommand handles 'tourneysim list'
type ListCommand struct {
	Database string `long:"db" description:"SQLite results database (default: from configuration)"`
	Format   string `long:"format" description:"Output format (table/json)" default:"table"`
	Batch    string `long:"batch" description:"Show the winners of one batch"`

	Global *GlobalOptions
}

// ErrorCode represents CLI exit codes
type ErrorCode int

const (
	ExitSuccess ErrorCode = iota
	ExitFileError
	ExitConfigError
	ExitSimulationError
	ExitExportError
	ExitValidationError
)

// CLIError represents a CLI error with exit code
type CLIError struct {
	Code        ErrorCode
	Message     string
	Details     map[string]interface{}
	Suggestions []string
}

func (e *CLIError) Error() string {
	return e.Message
}

// formatErrorJSON formats error as JSON for structured output
func formatErrorJSON(err *CLIError) string {
	body := map[string]interface{}{
		"code":    err.Code,
		"message": err.Message,
	}
	if err.Details != nil {
		body["details"] = err.Details
	}
	if err.Suggestions != nil {
		body["suggestions"] = err.Suggestions
	}

	jsonBytes, _ := json.MarshalIndent(map[string]interface{}{"error": body}, "", "  ")
	return string(jsonBytes)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		var cliErr *CLIError
		if errors.As(err, &cliErr) {
			fmt.Fprintln(os.Stderr, formatErrorJSON(cliErr))
			os.Exit(int(cliErr.Code))
		}
		log.Fatal(err)
	}
}

func newParser() *flags.Parser {
	parser := flags.NewParser(nil, flags.Default)
	parser.Usage = "[OPTIONS] COMMAND [COMMAND-OPTIONS]"

	parser.AddCommand("simulate", "Run a batch of simulated tournaments", "", &SimulateCommand{})
	parser.AddCommand("validate", "Validate a configuration file", "", &ValidateCommand{})
	parser.AddCommand("show", "Show a results file", "", &ShowCommand{})
	parser.AddCommand("list", "List batches stored in SQLite", "", &ListCommand{})
	return parser
}

func run(args []string) error {
	parser := newParser()

	_, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			switch flagsErr.Type {
			case flags.ErrHelp:
				return nil
			case flags.ErrCommandRequired:
				parser.WriteHelp(os.Stderr)
				return &CLIError{
					Code:    ExitConfigError,
					Message: "No command specified",
					Suggestions: []string{
						"Use 'tourneysim simulate --runs 100' to run a batch",
						"Use 'tourneysim --help' to see all available commands",
					},
				}
			default:
				return &CLIError{
					Code:    ExitConfigError,
					Message: fmt.Sprintf("Invalid arguments: %v", err),
				}
			}
		}
		return err
	}
	return nil
}

// Execute implements the Command interface for ValidateCommand
func (c *ValidateCommand) Execute(args []string) error {
	global := globalOptions(c.Global)
	if global.Version {
		return showVersion()
	}

	cfg, err := config.LoadFromFile(global.Config)
	if err != nil {
		code := ExitValidationError
		if errors.Is(err, config.ErrConfigNotFound) {
			code = ExitFileError
		}
		return &CLIError{
			Code:    code,
			Message: fmt.Sprintf("Configuration validation failed: %v", err),
			Details: map[string]interface{}{
				"file": global.Config,
			},
			Suggestions: []string{
				"Check configuration file syntax",
				"Use --config flag to specify different config file",
			},
		}
	}

	format := cfg.Simulation.TournamentFormat()
	fmt.Fprintf(stdout, "Validation Results for: %s\n", global.Config)
	fmt.Fprintf(stdout, "===========================================\n\n")
	fmt.Fprintf(stdout, "✅ VALID configuration\n\n")
	fmt.Fprintf(stdout, "  Format: %s\n", format.DisplayName())
	fmt.Fprintf(stdout, "  Teams: %d\n", cfg.Simulation.Teams)
	fmt.Fprintf(stdout, "  Runs: %d on %d workers\n", cfg.Simulation.Runs, cfg.Simulation.Workers)
	fmt.Fprintf(stdout, "  Seed: %d\n", cfg.Simulation.Seed)
	fmt.Fprintf(stdout, "  Model: %s\n", cfg.Skill.Model)
	fmt.Fprintf(stdout, "  Outputs: %v in %s\n", cfg.Output.Formats, cfg.Output.Directory)
	return nil
}

// Execute implements the Command interface for ShowCommand
func (c *ShowCommand) Execute(args []string) error {
	if globalOptions(c.Global).Version {
		return showVersion()
	}

	table, err := journal.ReadTableFile(c.Input)
	if err != nil {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Failed to read results: %v", err),
			Details: map[string]interface{}{
				"file": c.Input,
			},
			Suggestions: []string{
				"Run 'tourneysim simulate' with csv output first",
				"Check file path and name",
			},
		}
	}

	if c.Plain || !isTerminal(os.Stdout) {
		return tui.RenderPlain(stdout, table)
	}

	app, err := tui.NewApp(table, c.Input)
	if err != nil {
		return err
	}
	return app.Run()
}

// Execute implements the Command interface for ListCommand
func (c *ListCommand) Execute(args []string) error {
	global := globalOptions(c.Global)
	if global.Version {
		return showVersion()
	}

	dbPath := c.Database
	if dbPath == "" {
		cfg, err := loadConfiguration(global.Config)
		if err != nil {
			return err
		}
		dbPath = sqlitePath(cfg)
	}
	if _, err := os.Stat(dbPath); err != nil {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Results database not found: %s", dbPath),
			Details: map[string]interface{}{
				"file": dbPath,
			},
			Suggestions: []string{
				"Run 'tourneysim simulate --format-out sqlite' first",
				"Use --db to point at an existing database",
			},
		}
	}

	store, err := journal.NewSQLiteStore(dbPath)
	if err != nil {
		return &CLIError{Code: ExitFileError, Message: fmt.Sprintf("Failed to open database: %v", err)}
	}
	defer store.Close()

	ctx := context.Background()
	if c.Batch != "" {
		return c.outputWinners(ctx, store)
	}

	batches, err := store.ListBatches(ctx)
	if err != nil {
		return &CLIError{Code: ExitFileError, Message: fmt.Sprintf("Failed to list batches: %v", err)}
	}
	if c.Format == "json" {
		return outputBatchesJSON(batches)
	}
	return outputBatchesTable(batches)
}

func (c *ListCommand) outputWinners(ctx context.Context, store *journal.SQLiteStore) error {
	wins, err := store.WinCounts(ctx, c.Batch)
	if err != nil {
		return &CLIError{Code: ExitFileError, Message: fmt.Sprintf("Failed to read batch: %v", err)}
	}
	if len(wins) == 0 {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Batch not found or without successful runs: %s", c.Batch),
			Details: map[string]interface{}{"batch": c.Batch},
		}
	}
	mean, err := store.MeanKendall(ctx, c.Batch)
	if err != nil {
		return &CLIError{Code: ExitFileError, Message: fmt.Sprintf("Failed to read batch: %v", err)}
	}

	names := make([]string, 0, len(wins))
	for name := range wins {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if wins[names[i]] != wins[names[j]] {
			return wins[names[i]] > wins[names[j]]
		}
		return names[i] < names[j]
	})

	if c.Format == "json" {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]interface{}{
			"batch":        c.Batch,
			"mean_kendall": mean,
			"wins":         wins,
		})
	}

	fmt.Fprintf(stdout, "Batch %s (mean Kendall %.4f)\n", c.Batch, mean)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WINNER\tTOURNAMENTS")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%d\n", name, wins[name])
	}
	return tw.Flush()
}

// Helper functions

func globalOptions(g *GlobalOptions) *GlobalOptions {
	if g == nil {
		return &GlobalOptions{}
	}
	return g
}

func showVersion() error {
	fmt.Fprintf(stdout, "tourneysim version %s\n", Version)
	fmt.Fprintf(stdout, "Build date: %s\n", BuildDate)
	fmt.Fprintf(stdout, "Git commit: %s\n", GitCommit)
	return nil
}

// loadConfiguration reads the file when present, then the environment
func loadConfiguration(configPath string) (*config.Config, error) {
	cfg, err := config.LoadWithEnvironment(configPath)
	if err != nil {
		return nil, &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Failed to load configuration: %v", err),
			Details: map[string]interface{}{
				"file": configPath,
			},
			Suggestions: []string{
				"Check configuration file syntax",
				"Run 'tourneysim validate --config " + configPath + "'",
				"Check TOURNEYSIM_* environment variables",
			},
		}
	}
	return cfg, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type batchSummary struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Teams     int       `json:"teams"`
	Seed      uint64    `json:"seed"`
	Runs      int       `json:"runs"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

func outputBatchesJSON(batches []journal.BatchInfo) error {
	summaries := make([]batchSummary, 0, len(batches))
	for _, b := range batches {
		summaries = append(summaries, batchSummary{
			ID:        b.ID,
			Format:    b.Format,
			Teams:     b.Teams,
			Seed:      b.Seed,
			Runs:      b.Runs,
			Failed:    b.Failed,
			StartedAt: b.StartedAt,
			Duration:  b.Duration.String(),
		})
	}
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summaries)
}

func outputBatchesTable(batches []journal.BatchInfo) error {
	if len(batches) == 0 {
		fmt.Fprintln(stdout, "No batches found")
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFORMAT\tTEAMS\tRUNS\tFAILED\tSTARTED")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			b.ID, tournament.Format(b.Format).DisplayName(), b.Teams, b.Runs, b.Failed,
			b.StartedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
