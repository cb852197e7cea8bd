// Package combat implements the turn-based combat resolver: the round loop
// between the player and a single monster, the damage pipelines on both
// sides, flee handling, and the one-shot reroll snapshot.
package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/effect"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/inventory"
	"github.com/cory-johannsen/delve/internal/game/monster"
	"github.com/cory-johannsen/delve/internal/game/player"
)

// State is the resolver's position in the combat state machine.
type State string

const (
	StateIdle     State = "idle"
	StateInCombat State = "in_combat"
	StateVictory  State = "victory"
	StateDefeat   State = "defeat"
	StateFled     State = "fled"
)

// unarmedDamage is the fallback damage formula with no weapon equipped.
// The roll clamp keeps the result at 1 minimum.
var unarmedDamage = dice.Formula{Count: 1, Sides: 4, Modifier: -1}

// allyDamage is the bonus damage added per hit while a daemon ally charm
// is active.
var allyDamage = dice.Formula{Count: 1, Sides: 6}

// actionKind tags a snapshot with the operation its replay re-executes.
type actionKind int

const actionAttack actionKind = iota

// snapshot captures the pre-roll state of the most recent roll-bearing
// action so the one-shot reroll can restore and replay it.
type snapshot struct {
	description string
	playerHP    int
	monsterHP   int
	round       int
	kind        actionKind
	consumed    bool
}

// Resolver runs one combat at a time between the player and a monster
// instance it owns for the duration of the encounter.
// Not safe for concurrent use; the session serializes access.
type Resolver struct {
	player *player.Player
	inv    *inventory.Inventory
	roller *dice.Roller
	bus    *event.Bus
	logger *zap.Logger

	state State
	mon   *monster.Instance
	round int
	turns int
	snap  *snapshot
}

// NewResolver creates an idle Resolver.
//
// Precondition: all arguments must be non-nil.
func NewResolver(p *player.Player, inv *inventory.Inventory, roller *dice.Roller, bus *event.Bus, logger *zap.Logger) *Resolver {
	return &Resolver{
		player: p,
		inv:    inv,
		roller: roller,
		bus:    bus,
		logger: logger.Named("combat"),
		state:  StateIdle,
	}
}

// State returns the resolver's state machine position.
func (r *Resolver) State() State { return r.state }

// InCombat reports whether a combat is currently running.
func (r *Resolver) InCombat() bool { return r.state == StateInCombat }

// Round returns the current round number, 0 before the first attack.
func (r *Resolver) Round() int { return r.round }

// Turns returns the global turn counter across all combats this run.
func (r *Resolver) Turns() int { return r.turns }

// Monster returns the instance being fought, nil outside combat.
func (r *Resolver) Monster() *monster.Instance {
	if r.state != StateInCombat {
		return nil
	}
	return r.mon
}

func (r *Resolver) ctx() *effect.Context {
	return &effect.Context{
		Monster: r.mon,
		Player:  r.player,
		Round:   r.round,
		Roller:  r.roller,
		Logger:  r.logger,
	}
}

// Start begins combat against m.
//
// Precondition: no combat in progress; violation is a logged no-op.
// Postcondition: round counter is zero and the monster's combat-start
// hooks have fired.
func (r *Resolver) Start(m *monster.Instance) {
	if r.state == StateInCombat {
		r.logger.Warn("combat start while already in combat", zap.String("monster", m.Name()))
		return
	}
	r.state = StateInCombat
	r.mon = m
	r.round = 0
	r.snap = nil

	cur, max := m.Health()
	r.logger.Info("combat started", zap.String("monster", m.Name()), zap.Int("hp", cur))
	r.bus.Publish(event.CombatStarted{MonsterName: m.Name(), MonsterHP: cur, MonsterMax: max})

	ctx := r.ctx()
	for _, h := range m.Hooks {
		h.OnCombatStart(ctx)
	}
}

// PlayerAttack resolves one full combat round: the player's attack roll,
// and on a miss the monster's counterattack. Exactly one side loses hit
// points per resolved round.
//
// Precondition: combat in progress and player alive; violation is a
// logged no-op.
func (r *Resolver) PlayerAttack() {
	if r.state != StateInCombat {
		r.logger.Warn("attack while not in combat")
		return
	}
	if !r.player.Alive() {
		r.logger.Warn("attack by incapacitated player")
		return
	}

	playerHP, _ := r.player.Health()
	monsterHP, _ := r.mon.Health()
	r.snap = &snapshot{
		description: fmt.Sprintf("attack on %s, round %d", r.mon.Name(), r.round+1),
		playerHP:    playerHP,
		monsterHP:   monsterHP,
		round:       r.round,
		kind:        actionAttack,
	}

	r.round++
	r.bus.Publish(event.RoundStarted{Round: r.round})
	ctx := r.ctx()
	for _, h := range r.mon.Hooks {
		h.OnRoundStart(ctx)
	}

	roll := r.roller.Die(6) + r.weaponHitBonus() + r.player.HitBonus()
	hit := roll >= r.mon.HitThreshold

	if hit {
		dmg := r.attackDamage()
		applied := r.mon.ApplyDamage(dmg)
		remaining, _ := r.mon.Health()
		r.bus.Publish(event.AttackResolved{Roll: roll, Threshold: r.mon.HitThreshold, Hit: true, Damage: applied})
		r.bus.Publish(event.MonsterDamaged{MonsterName: r.mon.Name(), Damage: applied, RemainingHP: remaining})
		for _, h := range r.mon.Hooks {
			h.OnDamageTaken(ctx, applied)
		}
		if r.mon.IsDead() {
			r.endVictory()
			return
		}
	} else {
		r.bus.Publish(event.AttackResolved{Roll: roll, Threshold: r.mon.HitThreshold, Hit: false, Damage: 0})
		dmg := r.monsterDamage(ctx)
		applied := r.player.Wound(dmg)
		for _, h := range r.mon.Hooks {
			h.OnDamageDealt(ctx, applied)
		}
		if !r.player.Alive() {
			r.end(StateDefeat, event.CombatEnded{})
			return
		}
	}

	r.bus.Publish(event.RoundEnded{Round: r.round})
	for _, h := range r.mon.Hooks {
		h.OnRoundEnd(ctx)
	}
	r.turns++
}

// weaponHitBonus returns the equipped weapon's bonus, zero when unarmed.
func (r *Resolver) weaponHitBonus() int {
	if w := r.inv.Equipped(); w != nil {
		return w.HitBonus
	}
	return 0
}

// attackDamage rolls the player's damage: equipped weapon dice or the
// unarmed fallback, plus ally damage while an ally charm is active.
func (r *Resolver) attackDamage() int {
	f := unarmedDamage
	if w := r.inv.Equipped(); w != nil {
		f = w.Damage()
	}
	dmg := r.roller.Roll(f)
	if r.player.AllyAttacks() > 0 {
		dmg += r.roller.Roll(allyDamage)
	}
	return dmg
}

// monsterDamage rolls the monster's counterattack after the full damage
// pipeline: effect-dice modification chain, the halved-damage charm, a
// shield charge if one is held, then armor absorption. Never negative.
func (r *Resolver) monsterDamage(ctx *effect.Context) int {
	f := r.mon.RoundDamage(ctx)
	dmg := r.roller.Roll(f)
	if r.player.DamageHalved(r.mon.Name()) {
		dmg /= 2
	}
	if dmg > 0 && r.player.ConsumeShieldCharge() {
		r.logger.Debug("shield charge absorbed hit", zap.Int("damage", dmg))
		return 0
	}
	if dmg > 0 && r.inv.HasKind(catalog.KindArmor) {
		dmg -= r.roller.Die(4)
		if dmg < 0 {
			dmg = 0
		}
	}
	return dmg
}

// PlayerFlee abandons the combat. Flee damage is a d4 applied directly,
// with no armor or shield mitigation, and the room's exploration credit is
// voided. The monster's death hooks never fire.
//
// Precondition: combat in progress; violation is a logged no-op.
func (r *Resolver) PlayerFlee() {
	if r.state != StateInCombat {
		r.logger.Warn("flee while not in combat")
		return
	}
	dmg := r.roller.Die(4)
	r.player.Wound(dmg)
	if !r.player.Alive() {
		r.end(StateDefeat, event.CombatEnded{})
		return
	}
	r.player.UncreditRoom()
	r.turns++
	r.bus.Publish(event.PlayerFled{})
	r.end(StateFled, event.CombatEnded{Fled: true})
}

// DirectDamage applies n damage to the monster, bypassing the attack roll.
// Used by consumable item effects.
//
// Precondition: combat in progress; violation is a logged no-op.
func (r *Resolver) DirectDamage(n int) {
	if r.state != StateInCombat {
		r.logger.Warn("direct damage while not in combat")
		return
	}
	applied := r.mon.ApplyDamage(n)
	remaining, _ := r.mon.Health()
	r.bus.Publish(event.MonsterDamaged{MonsterName: r.mon.Name(), Damage: applied, RemainingHP: remaining})
	ctx := r.ctx()
	for _, h := range r.mon.Hooks {
		h.OnDamageTaken(ctx, applied)
	}
	if r.mon.IsDead() {
		r.endVictory()
	}
}

// TryReroll consumes the player's one-shot reroll charge to restore the
// most recent attack's pre-roll state and replay it. The replayed attack
// records its own snapshot, so a reroll can chain into either branch.
//
// Postcondition: returns false, with no state change, when no combat is
// running, no unconsumed snapshot exists, or the player holds no charge.
func (r *Resolver) TryReroll() bool {
	if r.state != StateInCombat {
		r.logger.Warn("reroll while not in combat")
		return false
	}
	if r.snap == nil || r.snap.consumed {
		r.logger.Warn("reroll with no pending snapshot")
		return false
	}
	if !r.player.ConsumeRerollCharge() {
		r.logger.Warn("reroll with no charge")
		return false
	}
	snap := r.snap
	snap.consumed = true
	r.logger.Info("rerolling", zap.String("action", snap.description))

	r.restore(snap)
	switch snap.kind {
	case actionAttack:
		r.PlayerAttack()
	}
	return true
}

// restore rewinds player HP, monster HP, and the round counter to snap.
func (r *Resolver) restore(snap *snapshot) {
	cur, _ := r.player.Health()
	switch {
	case cur < snap.playerHP:
		r.player.Heal(snap.playerHP - cur)
	case cur > snap.playerHP:
		r.player.Wound(cur - snap.playerHP)
	}
	mcur, _ := r.mon.Health()
	if mcur < snap.monsterHP {
		r.mon.Heal(snap.monsterHP - mcur)
	} else if mcur > snap.monsterHP {
		r.mon.ApplyDamage(mcur - snap.monsterHP)
	}
	r.round = snap.round
}

// endVictory runs the victory bookkeeping in its contracted order: XP and
// kill credit first, then the ally-charge decrement, then the monster's
// death hooks, so forced-levelup death effects observe updated totals.
func (r *Resolver) endVictory() {
	r.logger.Info("combat won", zap.String("monster", r.mon.Name()), zap.Int("xp", r.mon.XP))
	r.player.CreditKill()
	r.player.GainXP(r.mon.XP)
	if r.player.AllyAttacks() > 0 {
		r.player.ConsumeAllyCharge()
	}
	ctx := r.ctx()
	for _, h := range r.mon.Hooks {
		h.OnDeath(ctx)
	}
	r.turns++
	r.end(StateVictory, event.CombatEnded{Victory: true})
}

// end transitions to a terminal state and publishes the combat-ended event.
func (r *Resolver) end(s State, e event.CombatEnded) {
	r.state = s
	r.snap = nil
	r.bus.Publish(e)
}
