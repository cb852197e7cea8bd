package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRunNotFound is returned when a run lookup yields no results.
var ErrRunNotFound = errors.New("run not found")

// Run is one completed dungeon run as persisted to the database.
type Run struct {
	ID            int64
	Seed          int64
	PlayerName    string
	Victory       bool
	Cause         string
	Level         int
	Turns         int
	RoomsExplored int
	Kills         int
	SilverLooted  int
	Duration      time.Duration
	FinishedAt    time.Time
}

// Summary aggregates all recorded runs.
type Summary struct {
	Runs      int64
	Victories int64
	AvgTurns  float64
	AvgRooms  float64
	BestLevel int
}

// VictoryRate returns the fraction of runs won, or 0 when no runs exist.
func (s Summary) VictoryRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Victories) / float64(s.Runs)
}

// RunRepository provides run persistence operations.
type RunRepository struct {
	db *pgxpool.Pool
}

// NewRunRepository creates a RunRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// Record inserts a completed run.
//
// Precondition: run.PlayerName must be non-empty; run.Level >= 1.
// Postcondition: Returns the run with ID and FinishedAt set.
func (r *RunRepository) Record(ctx context.Context, run Run) (Run, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO runs
			(seed, player_name, victory, cause, level, turns,
			 rooms_explored, kills, silver_looted, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, finished_at`,
		run.Seed, run.PlayerName, run.Victory, run.Cause, run.Level, run.Turns,
		run.RoomsExplored, run.Kills, run.SilverLooted, run.Duration.Milliseconds(),
	).Scan(&run.ID, &run.FinishedAt)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// Get fetches one run by ID.
//
// Postcondition: Returns the run, or ErrRunNotFound.
func (r *RunRepository) Get(ctx context.Context, id int64) (Run, error) {
	run, err := scanRun(r.db.QueryRow(ctx, `
		SELECT id, seed, player_name, victory, cause, level, turns,
		       rooms_explored, kills, silver_looted, duration_ms, finished_at
		FROM runs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("selecting run %d: %w", id, err)
	}
	return run, nil
}

// ListRecent returns up to limit runs, most recent first.
//
// Precondition: limit >= 1.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, seed, player_name, victory, cause, level, turns,
		       rooms_explored, kills, silver_looted, duration_ms, finished_at
		FROM runs ORDER BY finished_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Summarize aggregates every recorded run.
//
// Postcondition: Returns a zero Summary when no runs exist.
func (r *RunRepository) Summarize(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE victory),
		       COALESCE(AVG(turns), 0),
		       COALESCE(AVG(rooms_explored), 0),
		       COALESCE(MAX(level), 0)
		FROM runs`,
	).Scan(&s.Runs, &s.Victories, &s.AvgTurns, &s.AvgRooms, &s.BestLevel)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing runs: %w", err)
	}
	return s, nil
}

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	var durationMS int64
	err := row.Scan(&run.ID, &run.Seed, &run.PlayerName, &run.Victory, &run.Cause,
		&run.Level, &run.Turns, &run.RoomsExplored, &run.Kills, &run.SilverLooted,
		&durationMS, &run.FinishedAt)
	if err != nil {
		return Run{}, err
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}
