// Package effect implements the composable monster effect pipeline. Every
// monster carries an ordered list of hooks that observe and modify combat
// lifecycle events. Hooks are constructed fresh for every monster instance;
// any per-encounter state (an enrage trigger, for example) lives on the hook
// itself and never leaks across encounters.
package effect

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// Monster is the view of the owning monster exposed to hooks.
type Monster interface {
	// Name returns the monster's display name.
	Name() string
	// Health returns current and maximum hit points.
	Health() (current, max int)
	// Heal restores up to n hit points, capped at maximum.
	// Postcondition: returns the amount actually restored (>= 0).
	Heal(n int) int
}

// Player is the view of the player exposed to hooks. All methods route
// through the progression model so event-notification invariants hold.
type Player interface {
	// Wound applies n direct, unmitigated damage.
	// Postcondition: returns the amount actually applied (>= 0).
	Wound(n int) int
	// StealSilver removes up to n silver.
	// Postcondition: returns the amount actually taken (>= 0).
	StealSilver(n int) int
	// GainSilver adds n silver.
	GainSilver(n int)
	// Kill incapacitates the player immediately.
	Kill(cause string)
	// ForceLevelUp triggers the forced leveling path.
	ForceLevelUp()
	// GrantItem adds the catalog item with the given ID to the inventory.
	GrantItem(defID string)
	// GrantRandomWeapon adds a random weapon of the given tier.
	GrantRandomWeapon(tier string)
}

// Context carries the combat state a hook may observe or act on.
// A fresh Context is built by the combat resolver for each dispatch.
type Context struct {
	Monster Monster
	Player  Player
	Round   int
	Roller  *dice.Roller
	Logger  *zap.Logger
}

// Hook is the capability set of a monster effect. Implementations embed Base
// and override only the events they care about; every default is a no-op.
type Hook interface {
	// OnCombatStart fires once when combat begins.
	OnCombatStart(ctx *Context)
	// OnRoundStart fires at the top of every round.
	OnRoundStart(ctx *Context)
	// ModifyDamage transforms the monster's damage formula for this round.
	// Hooks chain: each receives the previous hook's output.
	ModifyDamage(ctx *Context, f dice.Formula) dice.Formula
	// OnDamageDealt fires after the monster damages the player.
	OnDamageDealt(ctx *Context, damage int)
	// OnDamageTaken fires after the monster takes damage.
	OnDamageTaken(ctx *Context, damage int)
	// OnDeath fires when the monster dies in combat (not on flee).
	OnDeath(ctx *Context)
	// OnRoundEnd fires at the bottom of every non-terminal round.
	OnRoundEnd(ctx *Context)
}

// Base is the no-op Hook implementation for embedding.
type Base struct{}

func (Base) OnCombatStart(*Context)      {}
func (Base) OnRoundStart(*Context)       {}
func (Base) OnDamageDealt(*Context, int) {}
func (Base) OnDamageTaken(*Context, int) {}
func (Base) OnDeath(*Context)            {}
func (Base) OnRoundEnd(*Context)         {}

// ModifyDamage passes the formula through unchanged.
func (Base) ModifyDamage(_ *Context, f dice.Formula) dice.Formula { return f }
