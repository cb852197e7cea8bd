package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/dungeon"
	"github.com/cory-johannsen/delve/internal/game/effect"
	"github.com/cory-johannsen/delve/internal/game/monster"
	"github.com/cory-johannsen/delve/internal/game/session"
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
	require.NoError(t, items.RegisterItem(&catalog.ItemDef{
		ID: "scroll_of_allies", Name: "Scroll of Allies",
		Kind: catalog.KindScrollAlly, Charges: 3, Uses: 1, Loot: true,
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

func newSession(t testing.TB, seed int64) *session.Session {
	t.Helper()
	monsters, items := testRegistries(t)
	cfg := session.DefaultConfig()
	cfg.Seed = seed
	s, err := session.New(cfg, monsters, items, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestFreshSessionEntranceShape(t *testing.T) {
	s := newSession(t, 42)

	entrance := s.Layout().Entrance()
	assert.Same(t, entrance, s.CurrentRoom())
	assert.True(t, entrance.Explored)
	assert.True(t, entrance.Visible)
	assert.True(t, entrance.ExitsRolled)
	assert.GreaterOrEqual(t, entrance.MaxExits, 1)
	assert.LessOrEqual(t, entrance.MaxExits, 4)
	assert.GreaterOrEqual(t, entrance.ConnectionCount(), 1)

	for _, next := range entrance.Neighbors() {
		assert.False(t, next.Explored, "new neighbors start unexplored")
		assert.True(t, next.Visible, "new neighbors start visible")
	}

	_, rolled := entrance.EncounterCode()
	assert.True(t, rolled, "entrance encounter rolls at setup")
	state := s.State()
	assert.Contains(t, []session.GameState{session.StateExploring, session.StateInCombat}, state)
}

func TestSameSeedSameRun(t *testing.T) {
	a := newSession(t, 1234)
	b := newSession(t, 1234)

	assert.Equal(t, a.Seed(), b.Seed())
	assert.Equal(t, a.State(), b.State())
	require.Equal(t, a.Layout().RoomCount(), b.Layout().RoomCount())

	codeA, _ := a.Layout().Entrance().EncounterCode()
	codeB, _ := b.Layout().Entrance().EncounterCode()
	assert.Equal(t, codeA, codeB)

	for _, room := range a.Layout().Rooms() {
		twin, ok := b.Layout().Room(room.ID)
		require.True(t, ok, "room %s missing from twin run", room.ID)
		assert.Equal(t, room.Coord, twin.Coord)
		assert.Equal(t, room.ConnectionCount(), twin.ConnectionCount())
	}
}

func TestZeroSeedReplaysFromRecordedSeed(t *testing.T) {
	a := newSession(t, 0)
	require.NotZero(t, a.Seed(), "a zero seed resolves to a concrete value")

	b := newSession(t, a.Seed())
	assert.Equal(t, a.Seed(), b.Seed())

	// The recorded seed drives the dice stream and the layout alike, so
	// the replay matches beyond dungeon shape: the entrance encounter and
	// the opening game state came from dice rolls.
	codeA, okA := a.Layout().Entrance().EncounterCode()
	codeB, okB := b.Layout().Entrance().EncounterCode()
	assert.Equal(t, okA, okB)
	assert.Equal(t, codeA, codeB)
	assert.Equal(t, a.State(), b.State())
	require.Equal(t, a.Layout().RoomCount(), b.Layout().RoomCount())

	driveSession(t, a, 50)
	driveSession(t, b, 50)
	assert.Equal(t, a.State(), b.State())
	assert.Equal(t, a.Turns(), b.Turns())
	hpA, _ := a.Player().Health()
	hpB, _ := b.Player().Health()
	assert.Equal(t, hpA, hpB)
	assert.Equal(t, a.Layout().RoomCount(), b.Layout().RoomCount())
}

func TestMoveWithoutExitIsRejected(t *testing.T) {
	s := newSession(t, 42)
	if s.State() != session.StateExploring {
		t.Skip("seed opened with combat")
	}
	room := s.CurrentRoom()
	for _, dir := range dungeon.Cardinals {
		if _, ok := room.Neighbor(dir); !ok {
			err := s.Move(dir)
			assert.ErrorIs(t, err, session.ErrNoExit)
			assert.Same(t, room, s.CurrentRoom())
			return
		}
	}
	t.Skip("entrance used all four exits")
}

func TestCombatCommandsRequireCombat(t *testing.T) {
	s := newSession(t, 42)
	if s.State() != session.StateExploring {
		t.Skip("seed opened with combat")
	}
	assert.ErrorIs(t, s.Attack(), session.ErrNotInCombat)
	assert.ErrorIs(t, s.Flee(), session.ErrNotInCombat)
	_, err := s.TryReroll()
	assert.ErrorIs(t, err, session.ErrNotInCombat)
}

func TestMerchantCommandsRequireMerchant(t *testing.T) {
	s := newSession(t, 42)
	if s.State() != session.StateExploring {
		t.Skip("seed opened with combat")
	}
	assert.ErrorIs(t, s.BuyItem("healing_potion"), session.ErrNotAtMerchant)
	assert.ErrorIs(t, s.BuyWeapon("shortsword"), session.ErrNotAtMerchant)
	_, err := s.SellItem(0)
	assert.ErrorIs(t, err, session.ErrNotAtMerchant)
}

func TestRespondWithoutPendingChoice(t *testing.T) {
	s := newSession(t, 42)
	assert.ErrorIs(t, s.RespondToChoice(0), session.ErrNoChoice)
}

func TestGameOverLocksCommands(t *testing.T) {
	s := newSession(t, 42)
	s.Player().Kill("test harness")

	assert.Equal(t, session.StateOver, s.State())
	assert.False(t, s.Victory())
	assert.NotEmpty(t, s.OverCause())
	assert.ErrorIs(t, s.Move(dungeon.North), session.ErrGameOver)
	assert.ErrorIs(t, s.Attack(), session.ErrGameOver)
	assert.ErrorIs(t, s.UseItem(0), session.ErrGameOver)
	assert.ErrorIs(t, s.RespondToChoice(0), session.ErrGameOver)
}

func TestUseHealItemConsumesCharge(t *testing.T) {
	s := newSession(t, 42)
	_, items := testRegistries(t)
	potion, ok := items.Item("healing_potion")
	require.True(t, ok)
	require.NoError(t, s.Inventory().AddItem(potion))

	idx, before := findStack(s, "healing_potion")
	require.GreaterOrEqual(t, idx, 0)
	require.NoError(t, s.UseItem(idx))

	_, after := findStack(s, "healing_potion")
	assert.Equal(t, before-1, after, "single-use potion unit destroyed")
}

// findStack returns the slot index and unit count of the given item ID.
func findStack(s *session.Session, id string) (index, quantity int) {
	index = -1
	for i, st := range s.Inventory().Stacks() {
		if st.Def.ID == id {
			index = i
			quantity += st.Quantity
		}
	}
	return index, quantity
}

// driveSession plays one session with a trivial policy until it ends or the
// step budget runs out, checking state machine sanity at every step.
func driveSession(t require.TestingT, s *session.Session, steps int) {
	for i := 0; i < steps && s.State() != session.StateOver; i++ {
		switch s.State() {
		case session.StateExploring, session.StateMerchant:
			moved := false
			for _, dir := range dungeon.Cardinals {
				if _, ok := s.CurrentRoom().Neighbor(dir); ok {
					require.NoError(t, s.Move(dir))
					moved = true
					break
				}
			}
			require.True(t, moved, "a live room always has at least one exit")
		case session.StateInCombat:
			require.NoError(t, s.Attack())
		case session.StateChoicePending:
			require.NoError(t, s.RespondToChoice(0))
		}
	}
}

func TestRandomWalkMaintainsInvariants(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 99, 1234} {
		s := newSession(t, seed)
		driveSession(t, s, 400)

		coords := make(map[dungeon.Coord]string)
		for _, room := range s.Layout().Rooms() {
			if prev, dup := coords[room.Coord]; dup {
				t.Fatalf("rooms %s and %s share %v", prev, room.ID, room.Coord)
			}
			coords[room.Coord] = room.ID
			if room.ExitsRolled {
				assert.LessOrEqual(t, room.ConnectionCount(), room.MaxExits,
					"room %s exceeded its exit budget", room.ID)
			}
		}
		if s.State() == session.StateOver {
			assert.NotEmpty(t, s.OverCause())
		}
	}
}

func TestRandomWalkProperty(t *testing.T) {
	monsters, items := testRegistries(t)
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64Range(1, 1<<30).Draw(t, "seed")
		cfg := session.DefaultConfig()
		cfg.Seed = seed
		s, err := session.New(cfg, monsters, items, zap.NewNop())
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		driveSession(t, s, 200)
		for _, room := range s.Layout().Rooms() {
			if room.ExitsRolled && room.ConnectionCount() > room.MaxExits {
				t.Fatalf("room %s exceeded its exit budget", room.ID)
			}
		}
	})
}
