// Package main provides the batch dungeon simulation runner. It wires
// together configuration, content, scripting, optional persistence, and the
// sweep runner.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/config"
	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/effect"
	"github.com/cory-johannsen/delve/internal/game/monster"
	"github.com/cory-johannsen/delve/internal/observability"
	"github.com/cory-johannsen/delve/internal/scripting"
	"github.com/cory-johannsen/delve/internal/server"
	"github.com/cory-johannsen/delve/internal/sim"
	"github.com/cory-johannsen/delve/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	runs := flag.Int("runs", 0, "override sim.runs")
	workers := flag.Int("workers", 0, "override sim.workers")
	seed := flag.Int64("seed", 0, "override game.seed (base seed for the sweep)")
	record := flag.Bool("record", false, "record runs to the database")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *runs > 0 {
		cfg.Sim.Runs = *runs
	}
	if *workers > 0 {
		cfg.Sim.Workers = *workers
	}
	if *seed != 0 {
		cfg.Game.Seed = *seed
	}
	if *record {
		cfg.Sim.Record = true
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting dungeon simulation",
		zap.Int("runs", cfg.Sim.Runs),
		zap.Int("workers", cfg.Sim.Workers),
		zap.Int64("base_seed", cfg.Game.Seed),
		zap.Bool("record", cfg.Sim.Record),
	)

	// Load content
	contentStart := time.Now()
	items, err := catalog.Load(cfg.Content.WeaponsDir, cfg.Content.ItemsDir)
	if err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}

	scripts := scripting.NewManager(logger)
	factory := &effect.Factory{}
	if _, err := os.Stat(cfg.Content.ScriptsDir); err == nil {
		if err := scripts.Load(cfg.Content.ScriptsDir, 0); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		defer scripts.Close()
		factory.Scripts = scripts
	} else {
		logger.Info("no script directory, scripted effects disabled",
			zap.String("dir", cfg.Content.ScriptsDir),
		)
	}

	monsters := monster.NewRegistry(factory)
	if err := monsters.LoadDirectory(cfg.Content.MonstersDir); err != nil {
		logger.Fatal("loading monsters", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("weapons", items.WeaponCount()),
		zap.Int("items", items.ItemCount()),
		zap.Int("monsters", monsters.Count()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	// Optional persistence
	ctx := context.Background()
	var recorder sim.Recorder
	if cfg.Sim.Record {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		recorder = sim.NewDBRecorder(pool.DB())
	}

	// Build the sweep and wire lifecycle
	runner := sim.NewRunner(sim.Config{
		Runs:     cfg.Sim.Runs,
		Workers:  cfg.Sim.Workers,
		MaxSteps: cfg.Sim.MaxSteps,
		BaseSeed: cfg.Game.Seed,
	}, cfg.Game, monsters, items, sim.RandomWalk{}, recorder, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("simulation", runner)

	logger.Info("simulation initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("simulation error", zap.Error(err))
	}

	stats := runner.Stats()
	fmt.Fprintf(os.Stdout,
		"runs=%d victories=%d errors=%d victory_rate=%.3f avg_turns=%.1f avg_rooms=%.1f avg_level=%.2f best_level=%d [%s]\n",
		stats.Runs, stats.Victories, stats.Errors, stats.VictoryRate(),
		stats.AvgTurns, stats.AvgRooms, stats.AvgLevel, stats.BestLevel,
		time.Since(start),
	)
}
