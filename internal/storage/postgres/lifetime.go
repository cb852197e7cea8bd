package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLifetimeNotFound is returned when no stats exist for a player name.
var ErrLifetimeNotFound = errors.New("lifetime stats not found")

// Lifetime is the accumulated career record for a player name across runs.
type Lifetime struct {
	PlayerName    string
	Runs          int64
	Victories     int64
	RoomsExplored int64
	Kills         int64
	SilverLooted  int64
	BestLevel     int
	UpdatedAt     time.Time
}

// LifetimeRepository provides lifetime stats persistence operations.
type LifetimeRepository struct {
	db *pgxpool.Pool
}

// NewLifetimeRepository creates a LifetimeRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewLifetimeRepository(db *pgxpool.Pool) *LifetimeRepository {
	return &LifetimeRepository{db: db}
}

// Accumulate folds a completed run into the player's career record,
// creating it on first sight.
//
// Precondition: run.PlayerName must be non-empty.
// Postcondition: Returns the updated Lifetime.
func (r *LifetimeRepository) Accumulate(ctx context.Context, run Run) (Lifetime, error) {
	victories := 0
	if run.Victory {
		victories = 1
	}

	var lt Lifetime
	err := r.db.QueryRow(ctx, `
		INSERT INTO lifetime_stats
			(player_name, runs, victories, rooms_explored, kills, silver_looted, best_level)
		VALUES ($1, 1, $2, $3, $4, $5, $6)
		ON CONFLICT (player_name) DO UPDATE SET
			runs           = lifetime_stats.runs + 1,
			victories      = lifetime_stats.victories + EXCLUDED.victories,
			rooms_explored = lifetime_stats.rooms_explored + EXCLUDED.rooms_explored,
			kills          = lifetime_stats.kills + EXCLUDED.kills,
			silver_looted  = lifetime_stats.silver_looted + EXCLUDED.silver_looted,
			best_level     = GREATEST(lifetime_stats.best_level, EXCLUDED.best_level),
			updated_at     = NOW()
		RETURNING player_name, runs, victories, rooms_explored, kills,
		          silver_looted, best_level, updated_at`,
		run.PlayerName, victories, run.RoomsExplored, run.Kills, run.SilverLooted, run.Level,
	).Scan(&lt.PlayerName, &lt.Runs, &lt.Victories, &lt.RoomsExplored, &lt.Kills,
		&lt.SilverLooted, &lt.BestLevel, &lt.UpdatedAt)
	if err != nil {
		return Lifetime{}, fmt.Errorf("accumulating lifetime stats: %w", err)
	}
	return lt, nil
}

// Get fetches the career record for a player name.
//
// Postcondition: Returns the Lifetime, or ErrLifetimeNotFound.
func (r *LifetimeRepository) Get(ctx context.Context, playerName string) (Lifetime, error) {
	var lt Lifetime
	err := r.db.QueryRow(ctx, `
		SELECT player_name, runs, victories, rooms_explored, kills,
		       silver_looted, best_level, updated_at
		FROM lifetime_stats WHERE player_name = $1`, playerName,
	).Scan(&lt.PlayerName, &lt.Runs, &lt.Victories, &lt.RoomsExplored, &lt.Kills,
		&lt.SilverLooted, &lt.BestLevel, &lt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lifetime{}, ErrLifetimeNotFound
	}
	if err != nil {
		return Lifetime{}, fmt.Errorf("selecting lifetime stats for %q: %w", playerName, err)
	}
	return lt, nil
}
