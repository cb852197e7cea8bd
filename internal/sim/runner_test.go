package sim_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/effect"
	"github.com/cory-johannsen/delve/internal/game/monster"
	"github.com/cory-johannsen/delve/internal/game/session"
	"github.com/cory-johannsen/delve/internal/sim"
	storage "github.com/cory-johannsen/delve/internal/storage/postgres"
)

func testRegistries(t testing.TB) (*monster.Registry, *catalog.Registry) {
	t.Helper()
	items := catalog.NewRegistry()
	require.NoError(t, items.RegisterItem(&catalog.ItemDef{
		ID: "healing_potion", Name: "Healing Potion", Kind: catalog.KindHeal,
		EffectDice: "1d6", Uses: 1, BuyPrice: 20, SellPrice: 10, Loot: true, Shop: true,
	}))
	require.NoError(t, items.RegisterItem(&catalog.ItemDef{
		ID: "rope", Name: "Rope", Kind: catalog.KindRope,
		Uses: catalog.UsesUnlimited, BuyPrice: 15, SellPrice: 7, Shop: true,
	}))
	require.NoError(t, items.RegisterWeapon(&catalog.WeaponDef{
		ID: "shortsword", Name: "Shortsword", Tier: catalog.TierCommon,
		DamageDice: "1d6", Shop: true,
	}))
	require.NoError(t, items.RegisterWeapon(&catalog.WeaponDef{
		ID: "runed_blade", Name: "Runed Blade", Tier: catalog.TierStrong,
		DamageDice: "2d6", HitBonus: 1,
	}))

	monsters := monster.NewRegistry(&effect.Factory{})
	require.NoError(t, monsters.Register(&monster.Template{
		ID: "cave_rat", Name: "Cave Rat", Tier: monster.TierWeak,
		HitThreshold: 3, MaxHP: 5, DamageDice: "1d4", XP: 2,
	}))
	require.NoError(t, monsters.Register(&monster.Template{
		ID: "ogre", Name: "Ogre", Tier: monster.TierTough,
		HitThreshold: 5, MaxHP: 12, DamageDice: "2d4", XP: 6,
	}))
	return monsters, items
}

func newRunner(t *testing.T, cfg sim.Config, rec sim.Recorder) *sim.Runner {
	t.Helper()
	monsters, items := testRegistries(t)
	return sim.NewRunner(cfg, session.DefaultConfig(), monsters, items,
		sim.RandomWalk{}, rec, zaptest.NewLogger(t))
}

func TestSweepPlaysEveryRun(t *testing.T) {
	r := newRunner(t, sim.Config{Runs: 8, Workers: 3, MaxSteps: 500, BaseSeed: 100}, nil)
	require.NoError(t, r.Start())

	results := r.Results()
	require.Len(t, results, 8)

	seen := make(map[int64]bool)
	for _, res := range results {
		require.NoError(t, res.Err, "seed %d", res.Seed)
		seen[res.Seed] = true
		assert.Greater(t, res.Steps, 0)
		assert.GreaterOrEqual(t, res.Level, 1)
		if res.Cause == "" {
			t.Errorf("seed %d finished without a cause", res.Seed)
		}
	}
	for seed := int64(100); seed < 108; seed++ {
		assert.True(t, seen[seed], "seed %d never played", seed)
	}
}

func TestSweepIsReproducible(t *testing.T) {
	cfg := sim.Config{Runs: 5, Workers: 2, MaxSteps: 500, BaseSeed: 7}

	resultsBySeed := func() map[int64]sim.Result {
		r := newRunner(t, cfg, nil)
		require.NoError(t, r.Start())
		out := make(map[int64]sim.Result)
		for _, res := range r.Results() {
			res.Duration = 0
			out[res.Seed] = res
		}
		return out
	}

	first := resultsBySeed()
	second := resultsBySeed()
	assert.Equal(t, first, second)
}

func TestStatsAggregation(t *testing.T) {
	r := newRunner(t, sim.Config{Runs: 6, Workers: 2, MaxSteps: 500, BaseSeed: 1}, nil)
	require.NoError(t, r.Start())

	stats := r.Stats()
	assert.Equal(t, 6, stats.Runs+stats.Errors)
	assert.GreaterOrEqual(t, stats.BestLevel, 1)
	assert.LessOrEqual(t, stats.Victories, stats.Runs)
	assert.GreaterOrEqual(t, stats.VictoryRate(), 0.0)
	assert.LessOrEqual(t, stats.VictoryRate(), 1.0)
	if stats.Runs > 0 {
		assert.Greater(t, stats.AvgLevel, 0.0)
	}
}

type memRecorder struct {
	mu   sync.Mutex
	runs []storage.Run
}

func (m *memRecorder) Record(_ context.Context, run storage.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func TestSweepRecordsRuns(t *testing.T) {
	rec := &memRecorder{}
	r := newRunner(t, sim.Config{Runs: 4, Workers: 1, MaxSteps: 500, BaseSeed: 42}, rec)
	require.NoError(t, r.Start())

	require.Len(t, rec.runs, 4)
	for _, run := range rec.runs {
		assert.Equal(t, "Delver", run.PlayerName)
		assert.GreaterOrEqual(t, run.Level, 1)
	}
}

func TestMaxStepsAbortsRun(t *testing.T) {
	r := newRunner(t, sim.Config{Runs: 1, Workers: 1, MaxSteps: 3, BaseSeed: 42}, nil)
	require.NoError(t, r.Start())

	results := r.Results()
	require.Len(t, results, 1)
	res := results[0]
	require.NoError(t, res.Err)
	assert.LessOrEqual(t, res.Steps, 3)
	if res.Cause != "abandoned in the depths" {
		// The run may legitimately end inside three steps.
		assert.NotEmpty(t, res.Cause)
	}
}

func TestRandomWalkName(t *testing.T) {
	assert.Equal(t, "random_walk", sim.RandomWalk{}.Name())
}
