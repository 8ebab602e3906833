package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pashagolub/tourneysim/pkg/sim"
)

// SQLiteStore keeps batches, runs and final standings in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// BatchInfo is the stored header of a batch
type BatchInfo struct {
	ID        string
	Format    string
	Teams     int
	Seed      uint64
	StartedAt time.Time
	Duration  time.Duration
	Runs      int
	Failed    int
}

// NewSQLiteStore opens the database at dbPath and creates the schema
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		teams INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		batch_id TEXT NOT NULL,
		run INTEGER NOT NULL,
		matches INTEGER NOT NULL,
		ties INTEGER NOT NULL,
		duplicate_matchups INTEGER NOT NULL,
		kendall REAL NOT NULL,
		discordant INTEGER NOT NULL,
		weighted_kendall REAL NOT NULL,
		weighted_discordant REAL NOT NULL,
		predicted_winner TEXT,
		actual_winner TEXT,
		rounds INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT,
		PRIMARY KEY (batch_id, run),
		FOREIGN KEY (batch_id) REFERENCES batches(id)
	);

	CREATE TABLE IF NOT EXISTS standings (
		batch_id TEXT NOT NULL,
		run INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		name TEXT NOT NULL,
		mu REAL NOT NULL,
		sigma REAL NOT NULL,
		match_wins INTEGER NOT NULL,
		cycle_rate REAL NOT NULL,
		round_rate REAL NOT NULL,
		defense_rate REAL NOT NULL,
		PRIMARY KEY (batch_id, run, rank),
		FOREIGN KEY (batch_id, run) REFERENCES runs(batch_id, run)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveBatch stores the batch with all of its runs in one transaction
func (s *SQLiteStore) SaveBatch(ctx context.Context, batch *sim.Batch) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id := batch.ID.String()
	// seeds are stored bit for bit; SQLite integers are signed
	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, format, teams, seed, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		id, batch.Format, batch.Teams, int64(batch.Seed), batch.StartedAt.UnixMilli(), batch.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	runStmt, err := tx.PrepareContext(ctx, `INSERT INTO runs (batch_id, run, matches, ties, duplicate_matchups,
		kendall, discordant, weighted_kendall, weighted_discordant, predicted_winner, actual_winner,
		rounds, duration_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer runStmt.Close()

	standingStmt, err := tx.PrepareContext(ctx, `INSERT INTO standings (batch_id, run, rank, name, mu, sigma,
		match_wins, cycle_rate, round_rate, defense_rate) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer standingStmt.Close()

	for _, r := range batch.Results {
		var errText sql.NullString
		if r.Err != nil {
			errText = sql.NullString{String: r.Err.Error(), Valid: true}
		}
		if _, err = runStmt.ExecContext(ctx, id, r.Run, r.Matches, r.Ties, r.DuplicateMatchups,
			r.Kendall, r.Discordant, r.WeightedKendall, r.WeightedDiscordant, r.PredictedWinner,
			r.ActualWinner, r.Rounds, r.Duration.Milliseconds(), errText); err != nil {
			return fmt.Errorf("failed to insert run %d: %w", r.Run, err)
		}
		for _, st := range r.Ranking {
			if _, err = standingStmt.ExecContext(ctx, id, r.Run, st.Rank, st.Name, st.Mu, st.Sigma,
				st.Score.MatchWins, st.Score.CycleRate, st.Score.RoundRate, st.Score.DefenseRate); err != nil {
				return fmt.Errorf("failed to insert standing of %s in run %d: %w", st.Name, r.Run, err)
			}
		}
	}
	return tx.Commit()
}

// ListBatches returns the stored batches, newest first
func (s *SQLiteStore) ListBatches(ctx context.Context) ([]BatchInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.format, b.teams, b.seed, b.started_at, b.duration_ms,
			COUNT(r.run), COUNT(r.error)
		FROM batches b LEFT JOIN runs r ON r.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.started_at DESC, b.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []BatchInfo
	for rows.Next() {
		var (
			info              BatchInfo
			seed              int64
			started, duration int64
		)
		if err := rows.Scan(&info.ID, &info.Format, &info.Teams, &seed, &started, &duration,
			&info.Runs, &info.Failed); err != nil {
			return nil, err
		}
		info.Seed = uint64(seed)
		info.StartedAt = time.UnixMilli(started)
		info.Duration = time.Duration(duration) * time.Millisecond
		batches = append(batches, info)
	}
	return batches, rows.Err()
}

// MeanKendall returns the mean correlation of the successful runs of a batch
func (s *SQLiteStore) MeanKendall(ctx context.Context, batchID string) (float64, error) {
	var mean sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT AVG(kendall) FROM runs WHERE batch_id = ? AND error IS NULL`, batchID).Scan(&mean)
	if err != nil {
		return 0, err
	}
	return mean.Float64, nil
}

// WinCounts returns how many runs each competitor of a batch won
func (s *SQLiteStore) WinCounts(ctx context.Context, batchID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT actual_winner, COUNT(*) FROM runs
		WHERE batch_id = ? AND error IS NULL
		GROUP BY actual_winner`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wins := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		wins[name] = count
	}
	return wins, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
