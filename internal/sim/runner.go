package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/monster"
	"github.com/cory-johannsen/delve/internal/game/session"
	storage "github.com/cory-johannsen/delve/internal/storage/postgres"
)

// Result is the outcome of one completed (or aborted) run.
type Result struct {
	Seed     int64
	Victory  bool
	Cause    string
	Level    int
	Turns    int
	Rooms    int
	Kills    int
	Silver   int
	Steps    int
	Duration time.Duration
	Err      error
}

// Stats aggregates a sweep's results.
type Stats struct {
	Runs      int
	Victories int
	Errors    int
	BestLevel int
	AvgTurns  float64
	AvgRooms  float64
	AvgKills  float64
	AvgLevel  float64
}

// VictoryRate returns the fraction of clean runs won, or 0 for an empty sweep.
func (s Stats) VictoryRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Victories) / float64(s.Runs)
}

// Recorder persists completed runs.
type Recorder interface {
	Record(ctx context.Context, run storage.Run) error
}

// Config tunes a sweep.
type Config struct {
	// Runs is the number of sessions to play.
	Runs int
	// Workers is the number of sessions played concurrently.
	Workers int
	// MaxSteps aborts a session that has not finished after this many commands.
	MaxSteps int
	// BaseSeed seeds run i with BaseSeed+i. Zero picks the current time.
	BaseSeed int64
}

// Runner plays Config.Runs sessions through a Policy on a worker pool.
// It implements the server.Service lifecycle: Start blocks until the sweep
// finishes or Stop is called.
type Runner struct {
	cfg      Config
	game     session.Config
	monsters *monster.Registry
	items    *catalog.Registry
	policy   Policy
	recorder Recorder
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	results []Result
}

// NewRunner creates a Runner. recorder may be nil to skip persistence.
//
// Precondition: cfg.Runs >= 1, cfg.Workers >= 1, cfg.MaxSteps >= 1;
// monsters, items, policy, and logger must be non-nil.
func NewRunner(cfg Config, game session.Config, monsters *monster.Registry,
	items *catalog.Registry, policy Policy, recorder Recorder, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		game:     game,
		monsters: monsters,
		items:    items,
		policy:   policy,
		recorder: recorder,
		logger:   logger.Named("sim"),
	}
}

// Start plays the full sweep and returns when every run has finished or the
// Runner is stopped. Runs are seeded BaseSeed..BaseSeed+Runs-1 so a sweep is
// reproducible regardless of worker count.
//
// Postcondition: Results holds one entry per finished run.
func (r *Runner) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel = cancel
	r.results = nil
	r.mu.Unlock()
	defer cancel()

	baseSeed := r.cfg.BaseSeed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	start := time.Now()
	r.logger.Info("sweep starting",
		zap.Int("runs", r.cfg.Runs),
		zap.Int("workers", r.cfg.Workers),
		zap.Int64("base_seed", baseSeed),
		zap.String("policy", r.policy.Name()),
	)

	seeds := make(chan int64)
	go func() {
		defer close(seeds)
		for i := 0; i < r.cfg.Runs; i++ {
			select {
			case seeds <- baseSeed + int64(i):
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range seeds {
				res := r.playOne(ctx, seed)
				r.mu.Lock()
				r.results = append(r.results, res)
				r.mu.Unlock()
				if r.recorder != nil && res.Err == nil {
					if err := r.recorder.Record(ctx, r.toRecord(res)); err != nil {
						r.logger.Warn("recording run failed",
							zap.Int64("seed", seed),
							zap.Error(err),
						)
					}
				}
			}
		}()
	}
	wg.Wait()

	stats := r.Stats()
	r.logger.Info("sweep finished",
		zap.Int("runs", stats.Runs),
		zap.Int("victories", stats.Victories),
		zap.Int("errors", stats.Errors),
		zap.Float64("victory_rate", stats.VictoryRate()),
		zap.Float64("avg_turns", stats.AvgTurns),
		zap.Int("best_level", stats.BestLevel),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Stop cancels the sweep. In-flight runs finish their current step.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Runner) playOne(ctx context.Context, seed int64) Result {
	start := time.Now()
	res := Result{Seed: seed}

	cfg := r.game
	cfg.Seed = seed
	s, err := session.New(cfg, r.monsters, r.items, r.logger)
	if err != nil {
		res.Err = fmt.Errorf("sim: building session for seed %d: %w", seed, err)
		res.Duration = time.Since(start)
		return res
	}

	// The policy gets its own stream so its decisions never perturb the
	// session's dice.
	policySrc := dice.NewSeeded(seed)

	for s.State() != session.StateOver {
		if res.Steps >= r.cfg.MaxSteps {
			res.Cause = "abandoned in the depths"
			break
		}
		select {
		case <-ctx.Done():
			res.Cause = "sweep cancelled"
			res.Err = ctx.Err()
			res.Duration = time.Since(start)
			return res
		default:
		}
		if err := r.policy.Step(s, policySrc); err != nil {
			res.Err = fmt.Errorf("sim: seed %d step %d: %w", seed, res.Steps, err)
			res.Duration = time.Since(start)
			return res
		}
		res.Steps++
	}

	p := s.Player()
	totals := p.LifetimeTotals()
	res.Victory = s.Victory()
	if s.State() == session.StateOver {
		res.Cause = s.OverCause()
	}
	res.Level = p.Level()
	res.Turns = s.Turns()
	res.Rooms = totals.Rooms
	res.Kills = totals.Kills
	res.Silver = totals.Silver
	res.Duration = time.Since(start)
	return res
}

func (r *Runner) toRecord(res Result) storage.Run {
	return storage.Run{
		Seed:          res.Seed,
		PlayerName:    r.game.PlayerName,
		Victory:       res.Victory,
		Cause:         res.Cause,
		Level:         res.Level,
		Turns:         res.Turns,
		RoomsExplored: res.Rooms,
		Kills:         res.Kills,
		SilverLooted:  res.Silver,
		Duration:      res.Duration,
	}
}

// Results returns a copy of the finished runs so far.
func (r *Runner) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Stats aggregates the finished runs so far. Errored runs count toward
// Errors but are excluded from the averages.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Stats
	var turns, rooms, kills, levels int
	for _, res := range r.results {
		if res.Err != nil {
			s.Errors++
			continue
		}
		s.Runs++
		if res.Victory {
			s.Victories++
		}
		if res.Level > s.BestLevel {
			s.BestLevel = res.Level
		}
		turns += res.Turns
		rooms += res.Rooms
		kills += res.Kills
		levels += res.Level
	}
	if s.Runs > 0 {
		s.AvgTurns = float64(turns) / float64(s.Runs)
		s.AvgRooms = float64(rooms) / float64(s.Runs)
		s.AvgKills = float64(kills) / float64(s.Runs)
		s.AvgLevel = float64(levels) / float64(s.Runs)
	}
	return s
}
