package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/delve/internal/storage/postgres"
	"github.com/cory-johannsen/delve/internal/testutil"
)

func TestLifetimeRepository_AccumulateCreates(t *testing.T) {
	repo := postgres.NewLifetimeRepository(testutil.NewPool(t))
	ctx := context.Background()

	name := uniqueName("delver")
	lt, err := repo.Accumulate(ctx, sampleRun(name))
	require.NoError(t, err)

	assert.Equal(t, name, lt.PlayerName)
	assert.Equal(t, int64(1), lt.Runs)
	assert.Equal(t, int64(0), lt.Victories)
	assert.Equal(t, int64(12), lt.RoomsExplored)
	assert.Equal(t, int64(4), lt.Kills)
	assert.Equal(t, int64(31), lt.SilverLooted)
	assert.Equal(t, 3, lt.BestLevel)
}

func TestLifetimeRepository_AccumulateFolds(t *testing.T) {
	repo := postgres.NewLifetimeRepository(testutil.NewPool(t))
	ctx := context.Background()

	name := uniqueName("delver")
	_, err := repo.Accumulate(ctx, sampleRun(name))
	require.NoError(t, err)

	win := sampleRun(name)
	win.Victory = true
	win.Level = 10
	win.Kills = 9
	lt, err := repo.Accumulate(ctx, win)
	require.NoError(t, err)

	assert.Equal(t, int64(2), lt.Runs)
	assert.Equal(t, int64(1), lt.Victories)
	assert.Equal(t, int64(24), lt.RoomsExplored)
	assert.Equal(t, int64(13), lt.Kills)
	assert.Equal(t, 10, lt.BestLevel)
}

func TestLifetimeRepository_BestLevelNeverRegresses(t *testing.T) {
	repo := postgres.NewLifetimeRepository(testutil.NewPool(t))
	ctx := context.Background()

	name := uniqueName("delver")
	high := sampleRun(name)
	high.Level = 8
	_, err := repo.Accumulate(ctx, high)
	require.NoError(t, err)

	low := sampleRun(name)
	low.Level = 2
	lt, err := repo.Accumulate(ctx, low)
	require.NoError(t, err)

	assert.Equal(t, 8, lt.BestLevel)
}

func TestLifetimeRepository_GetMatchesAccumulate(t *testing.T) {
	repo := postgres.NewLifetimeRepository(testutil.NewPool(t))
	ctx := context.Background()

	name := uniqueName("delver")
	want, err := repo.Accumulate(ctx, sampleRun(name))
	require.NoError(t, err)

	got, err := repo.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, want.Runs, got.Runs)
	assert.Equal(t, want.SilverLooted, got.SilverLooted)
}

func TestLifetimeRepository_GetNotFound(t *testing.T) {
	repo := postgres.NewLifetimeRepository(testutil.NewPool(t))

	_, err := repo.Get(context.Background(), uniqueName("ghost"))
	assert.ErrorIs(t, err, postgres.ErrLifetimeNotFound)
}
