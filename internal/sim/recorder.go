package sim

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	storage "github.com/cory-johannsen/delve/internal/storage/postgres"
)

// DBRecorder persists runs to PostgreSQL and folds each one into the
// player's lifetime stats.
type DBRecorder struct {
	runs      *storage.RunRepository
	lifetimes *storage.LifetimeRepository
}

// NewDBRecorder creates a DBRecorder backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with migrations applied.
func NewDBRecorder(db *pgxpool.Pool) *DBRecorder {
	return &DBRecorder{
		runs:      storage.NewRunRepository(db),
		lifetimes: storage.NewLifetimeRepository(db),
	}
}

// Record inserts the run and accumulates lifetime stats.
//
// Postcondition: Both the runs and lifetime_stats tables reflect the run,
// or an error is returned.
func (r *DBRecorder) Record(ctx context.Context, run storage.Run) error {
	if _, err := r.runs.Record(ctx, run); err != nil {
		return fmt.Errorf("sim: recording run: %w", err)
	}
	if _, err := r.lifetimes.Accumulate(ctx, run); err != nil {
		return fmt.Errorf("sim: accumulating lifetime stats: %w", err)
	}
	return nil
}
