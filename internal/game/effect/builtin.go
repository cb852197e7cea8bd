package effect

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// alternatingDamage swaps the monster's damage dice on even-numbered rounds.
type alternatingDamage struct {
	Base
	even dice.Formula
}

func (a *alternatingDamage) ModifyDamage(ctx *Context, f dice.Formula) dice.Formula {
	if ctx.Round%2 == 0 {
		return a.even
	}
	return f
}

// regeneration heals the monster at the end of every round, capped at max HP.
type regeneration struct {
	Base
	amount dice.Formula
}

func (r *regeneration) OnRoundEnd(ctx *Context) {
	healed := ctx.Monster.Heal(ctx.Roller.Roll(r.amount))
	if healed > 0 {
		ctx.Logger.Debug("monster regenerated",
			zap.String("monster", ctx.Monster.Name()),
			zap.Int("healed", healed),
		)
	}
}

// poison is a stub: it logs the envenomed hit but applies no persistent
// debuff to the player.
type poison struct {
	Base
}

func (poison) OnDamageDealt(ctx *Context, damage int) {
	if damage > 0 {
		ctx.Logger.Debug("poisonous hit landed",
			zap.String("monster", ctx.Monster.Name()),
			zap.Int("damage", damage),
		)
	}
}

// stealSilver takes silver from the player whenever the monster lands a hit.
type stealSilver struct {
	Base
	amount dice.Formula
}

func (s *stealSilver) OnDamageDealt(ctx *Context, damage int) {
	if damage <= 0 {
		return
	}
	stolen := ctx.Player.StealSilver(ctx.Roller.Roll(s.amount))
	if stolen > 0 {
		ctx.Logger.Debug("silver stolen",
			zap.String("monster", ctx.Monster.Name()),
			zap.Int("stolen", stolen),
		)
	}
}

// lifeDrain heals the monster by a percentage of the damage it deals.
type lifeDrain struct {
	Base
	percent int
}

func (l *lifeDrain) OnDamageDealt(ctx *Context, damage int) {
	if damage <= 0 {
		return
	}
	healed := ctx.Monster.Heal(damage * l.percent / 100)
	if healed > 0 {
		ctx.Logger.Debug("life drained",
			zap.String("monster", ctx.Monster.Name()),
			zap.Int("healed", healed),
		)
	}
}

// explode deals direct damage to the player when the monster dies.
type explode struct {
	Base
	amount dice.Formula
}

func (e *explode) OnDeath(ctx *Context) {
	dealt := ctx.Player.Wound(ctx.Roller.Roll(e.amount))
	ctx.Logger.Debug("monster exploded",
		zap.String("monster", ctx.Monster.Name()),
		zap.Int("damage", dealt),
	)
}

// enrage permanently raises the monster's damage once its HP falls below a
// percentage threshold. The trigger fires at most once per instance; the
// fired flag is per-hook state, which is why hooks are never shared between
// monster instances.
type enrage struct {
	Base
	thresholdPct int
	replace      *dice.Formula // nil = keep incoming dice
	bonus        int
	fired        bool
}

func (e *enrage) ModifyDamage(ctx *Context, f dice.Formula) dice.Formula {
	if !e.fired {
		cur, max := ctx.Monster.Health()
		if max > 0 && cur*100 < e.thresholdPct*max {
			e.fired = true
			ctx.Logger.Debug("monster enraged", zap.String("monster", ctx.Monster.Name()))
		}
	}
	if !e.fired {
		return f
	}
	if e.replace != nil {
		f.Count = e.replace.Count
		f.Sides = e.replace.Sides
	}
	f.Modifier += e.bonus
	return f
}

// dropItem grants a specific catalog item on death when a d6 rolls at or
// under the threshold.
type dropItem struct {
	Base
	threshold int
	itemID    string
}

func (d *dropItem) OnDeath(ctx *Context) {
	if ctx.Roller.Die(6) <= d.threshold {
		ctx.Player.GrantItem(d.itemID)
	}
}

// dropWeapon grants a random weapon of a tier on death when a d6 rolls at or
// under the threshold.
type dropWeapon struct {
	Base
	threshold int
	tier      string
}

func (d *dropWeapon) OnDeath(ctx *Context) {
	if ctx.Roller.Die(6) <= d.threshold {
		ctx.Player.GrantRandomWeapon(d.tier)
	}
}

// dropSilver grants silver on death, rolled from a formula (a flat amount is
// a degenerate formula with a large modifier).
type dropSilver struct {
	Base
	amount dice.Formula
}

func (d *dropSilver) OnDeath(ctx *Context) {
	ctx.Player.GainSilver(ctx.Roller.Roll(d.amount))
}

// deathCurse has a percent chance to incapacitate the player when the
// monster dies.
type deathCurse struct {
	Base
	chancePct int
}

func (d *deathCurse) OnDeath(ctx *Context) {
	if ctx.Roller.Die(100) <= d.chancePct {
		ctx.Player.Kill("death curse of " + ctx.Monster.Name())
	}
}

// forcedLevelUp has a percent chance to trigger the forced leveling path
// when the monster dies. It fires after XP and kill bookkeeping by the
// resolver's ordering contract.
type forcedLevelUp struct {
	Base
	chancePct int
}

func (f *forcedLevelUp) OnDeath(ctx *Context) {
	if ctx.Roller.Die(100) <= f.chancePct {
		ctx.Player.ForceLevelUp()
	}
}
