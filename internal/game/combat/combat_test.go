package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/combat"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/effect"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/inventory"
	"github.com/cory-johannsen/delve/internal/game/monster"
	"github.com/cory-johannsen/delve/internal/game/player"
)

// script is a Source returning a fixed sequence of draws.
type script struct {
	vals []int
	i    int
}

func (s *script) Intn(n int) int {
	if s.i >= len(s.vals) {
		return 0
	}
	v := s.vals[s.i] % n
	s.i++
	return v
}

// deathRecorder captures the player's kill count at death-hook time.
type deathRecorder struct {
	effect.Base
	player *player.Player
	deaths int
	kills  int
}

func (h *deathRecorder) OnDeath(*effect.Context) {
	h.deaths++
	h.kills = h.player.Kills()
}

type fixture struct {
	resolver *combat.Resolver
	player   *player.Player
	inv      *inventory.Inventory
	bus      *event.Bus
	events   []event.Event
}

// newFixture wires a resolver with scripted randomness. Each raw draw v
// yields a die face of v%sides+1.
func newFixture(t *testing.T, rolls ...int) *fixture {
	t.Helper()
	reg := catalog.NewRegistry()
	require.NoError(t, reg.RegisterItem(&catalog.ItemDef{
		ID: "healing_potion", Name: "Healing Potion", Kind: catalog.KindHeal,
		EffectDice: "1d6", Uses: 1,
	}))
	require.NoError(t, reg.RegisterWeapon(&catalog.WeaponDef{
		ID: "runed_blade", Name: "Runed Blade", Tier: catalog.TierStrong, DamageDice: "2d6",
	}))

	f := &fixture{bus: event.NewBus()}
	f.bus.SubscribeAll(func(e event.Event) { f.events = append(f.events, e) })
	src := &script{vals: rolls}
	f.inv = inventory.New(10, 2, f.bus)
	f.player = player.New("tester", player.DefaultConfig(), f.inv, reg, src, f.bus, zap.NewNop())
	roller := dice.NewRoller(src, zap.NewNop())
	f.resolver = combat.NewResolver(f.player, f.inv, roller, f.bus, zap.NewNop())
	return f
}

func (f *fixture) sawKind(k event.Kind) bool {
	for _, e := range f.events {
		if e.EventKind() == k {
			return true
		}
	}
	return false
}

func testMonster(hooks ...effect.Hook) *monster.Instance {
	return &monster.Instance{
		TemplateID:   "cave_rat",
		DisplayName:  "Cave Rat",
		Tier:         "weak",
		HitThreshold: 3,
		CurrentHP:    5,
		MaxHP:        5,
		BaseDamage:   dice.MustParse("1d4"),
		XP:           2,
		Hooks:        hooks,
	}
}

func TestAttackOutsideCombatIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.resolver.PlayerAttack()
	assert.Equal(t, combat.StateIdle, f.resolver.State())
	assert.Empty(t, f.events)
}

func TestDoubleStartIsNoOp(t *testing.T) {
	f := newFixture(t)
	m := testMonster()
	f.resolver.Start(m)
	f.resolver.Start(testMonster())
	assert.Same(t, m, f.resolver.Monster())
}

func TestUnarmedHitAndVictory(t *testing.T) {
	// Round 1: d6=6 hit, unarmed d4-1 with d4=4 -> 3 damage.
	// Round 2: d6=6 hit, d4=4 -> 3 damage, monster dies at 5 HP.
	f := newFixture(t, 5, 3, 5, 3)
	m := testMonster()
	f.resolver.Start(m)

	f.resolver.PlayerAttack()
	assert.Equal(t, 2, m.CurrentHP)
	cur, max := f.player.Health()
	assert.Equal(t, max, cur, "a hit round never damages the player")

	f.resolver.PlayerAttack()
	assert.True(t, m.IsDead())
	assert.Equal(t, combat.StateVictory, f.resolver.State())
	assert.True(t, f.sawKind(event.KindXPChanged))
	assert.True(t, f.sawKind(event.KindCombatEnded))
	assert.Equal(t, 1, f.player.Kills())
}

func TestUnarmedDamageFloorsAtOne(t *testing.T) {
	// d6=6 hit, unarmed d4-1 with d4=1 clamps to 1.
	f := newFixture(t, 5, 0)
	m := testMonster()
	f.resolver.Start(m)
	f.resolver.PlayerAttack()
	assert.Equal(t, 4, m.CurrentHP)
}

func TestMissLetsMonsterCounterattack(t *testing.T) {
	// d6=1 vs threshold 3 misses; monster d4=3 wounds the player.
	f := newFixture(t, 0, 2)
	m := testMonster()
	f.resolver.Start(m)
	f.resolver.PlayerAttack()

	assert.Equal(t, 5, m.CurrentHP, "a miss round never damages the monster")
	cur, max := f.player.Health()
	assert.Equal(t, max-3, cur)
	assert.Equal(t, combat.StateInCombat, f.resolver.State())
	assert.Equal(t, 1, f.resolver.Round())
}

func TestTiesFavorTheAttacker(t *testing.T) {
	// d6=3 equals the threshold: hit.
	f := newFixture(t, 2, 3)
	m := testMonster()
	f.resolver.Start(m)
	f.resolver.PlayerAttack()
	assert.Equal(t, 2, m.CurrentHP)
}

func TestArmorAbsorbsMonsterDamage(t *testing.T) {
	// Miss d6=1; monster d4=4; armor absorb d4=3 -> 1 damage through.
	f := newFixture(t, 0, 3, 2)
	require.NoError(t, f.inv.AddItem(&catalog.ItemDef{
		ID: "leather_armor", Name: "Leather Armor", Kind: catalog.KindArmor,
		Uses: catalog.UsesUnlimited,
	}))
	f.resolver.Start(testMonster())
	f.resolver.PlayerAttack()

	cur, max := f.player.Health()
	assert.Equal(t, max-1, cur)
}

func TestShieldChargeAbsorbsWholeHit(t *testing.T) {
	// Miss d6=1; monster d4=4 fully absorbed by the shield charge.
	f := newFixture(t, 0, 3)
	f.player.ConsumeScroll(&catalog.ItemDef{Kind: catalog.KindScrollShield, Charges: 1})
	f.resolver.Start(testMonster())
	f.resolver.PlayerAttack()

	cur, max := f.player.Health()
	assert.Equal(t, max, cur)
	assert.Zero(t, f.player.ShieldCharges())
}

func TestAllyCharmAddsDamageAndDecrementsOnVictory(t *testing.T) {
	// d6=6 hit; unarmed d4=4 -> 3; ally d6=6 -> total 9 kills the rat.
	f := newFixture(t, 5, 3, 5)
	f.player.ConsumeScroll(&catalog.ItemDef{Kind: catalog.KindScrollAlly, Charges: 2})
	f.resolver.Start(testMonster())
	f.resolver.PlayerAttack()

	assert.Equal(t, combat.StateVictory, f.resolver.State())
	assert.Equal(t, 1, f.player.AllyAttacks(), "one charge spent on the kill")
}

func TestFleeCostsUnmitigatedDamageAndRoomCredit(t *testing.T) {
	// Flee d4=3; armor must not reduce it.
	f := newFixture(t, 2)
	require.NoError(t, f.inv.AddItem(&catalog.ItemDef{
		ID: "leather_armor", Name: "Leather Armor", Kind: catalog.KindArmor,
		Uses: catalog.UsesUnlimited,
	}))
	f.player.CreditRoom()
	rec := &deathRecorder{player: f.player}
	f.resolver.Start(testMonster(rec))
	f.resolver.PlayerFlee()

	cur, max := f.player.Health()
	assert.Equal(t, max-3, cur)
	rooms, _ := f.player.RoomsExplored()
	assert.Zero(t, rooms, "fleeing voids the room credit")
	assert.Equal(t, combat.StateFled, f.resolver.State())
	assert.True(t, f.sawKind(event.KindPlayerFled))
	assert.Zero(t, rec.deaths, "fleeing never fires death hooks")
}

func TestFleeDeathIsDefeatWithoutDeathHooks(t *testing.T) {
	// Player at 1 HP; flee d4=4 kills.
	f := newFixture(t, 3)
	f.player.Wound(14)
	rec := &deathRecorder{player: f.player}
	f.resolver.Start(testMonster(rec))
	f.resolver.PlayerFlee()

	assert.False(t, f.player.Alive())
	assert.Equal(t, combat.StateDefeat, f.resolver.State())
	assert.True(t, f.sawKind(event.KindGameOver))
	assert.Zero(t, rec.deaths)
}

func TestVictoryOrderingDeathHooksSeeKillCredit(t *testing.T) {
	f := newFixture(t, 5, 3, 5, 3)
	rec := &deathRecorder{player: f.player}
	f.resolver.Start(testMonster(rec))
	f.resolver.PlayerAttack()
	f.resolver.PlayerAttack()

	require.Equal(t, 1, rec.deaths)
	assert.Equal(t, 1, rec.kills, "death hook observes the updated kill count")
}

func TestDirectDamageBypassesAttackRoll(t *testing.T) {
	f := newFixture(t)
	m := testMonster()
	f.resolver.Start(m)
	f.resolver.DirectDamage(3)
	assert.Equal(t, 2, m.CurrentHP)

	f.resolver.DirectDamage(10)
	assert.True(t, m.IsDead())
	assert.Equal(t, combat.StateVictory, f.resolver.State())
}

func TestRerollRestoresAndReplays(t *testing.T) {
	// Attack 1: d6=1 miss, monster d4=4 -> player 11/15.
	// Reroll: restore to 15/15, replay: d6=6 hit, d4=4 -> 3 damage.
	f := newFixture(t, 0, 3, 5, 3)
	f.player.ConsumeScroll(&catalog.ItemDef{Kind: catalog.KindScrollFalseOmen})
	m := testMonster()
	f.resolver.Start(m)

	f.resolver.PlayerAttack()
	cur, _ := f.player.Health()
	require.Equal(t, 11, cur)
	require.Equal(t, 5, m.CurrentHP)

	require.True(t, f.resolver.TryReroll())
	cur, max := f.player.Health()
	assert.Equal(t, max, cur, "pre-roll HP restored")
	assert.Equal(t, 2, m.CurrentHP, "replayed attack landed")
	assert.Equal(t, 1, f.resolver.Round(), "round counter rewound before replay")
	assert.False(t, f.player.HasRerollCharge())
}

func TestRerollWithoutChargeIsRejected(t *testing.T) {
	f := newFixture(t, 0, 3)
	m := testMonster()
	f.resolver.Start(m)
	f.resolver.PlayerAttack()

	assert.False(t, f.resolver.TryReroll())
	assert.Equal(t, 5, m.CurrentHP)
}

func TestRerollWithoutSnapshotIsRejected(t *testing.T) {
	f := newFixture(t)
	f.player.ConsumeScroll(&catalog.ItemDef{Kind: catalog.KindScrollFalseOmen})
	f.resolver.Start(testMonster())
	assert.False(t, f.resolver.TryReroll())
	assert.True(t, f.player.HasRerollCharge(), "charge kept when nothing to reroll")
}

func TestHalvedDamageAppliesAfterEffectPipeline(t *testing.T) {
	// Reward face 6 (drawn with d6=6) halves Cave Rat damage via the
	// choice continuation. Then: miss d6=1; monster d4=3 halves to 1.
	f := newFixture(t, 5, 0, 2)
	f.player.SetChoiceHandler(func(c *player.MonsterChoice) {
		c.Resume("Cave Rat", "Ogre")
	})
	f.player.ForceLevelUp()
	require.True(t, f.player.DamageHalved("Cave Rat"))

	f.resolver.Start(testMonster())
	f.resolver.PlayerAttack()
	cur, max := f.player.Health()
	assert.Equal(t, max-1, cur, "3 damage halved to 1")
}
