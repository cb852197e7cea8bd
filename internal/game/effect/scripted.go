package effect

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// Lifecycle event names passed to scripted effect functions.
const (
	EventCombatStart = "combat_start"
	EventRoundStart  = "round_start"
	EventDamageDealt = "damage_dealt"
	EventDamageTaken = "damage_taken"
	EventDeath       = "death"
	EventRoundEnd    = "round_end"
)

// scripted dispatches its lifecycle hooks to a named Lua function through a
// ScriptRunner. ModifyDamage is not scriptable; scripts observe and act via
// the effect API, they do not rewrite the damage pipeline.
type scripted struct {
	Base
	runner ScriptRunner
	fn     string
}

func (s *scripted) call(ctx *Context, event string, damage int) {
	if err := s.runner.CallEffect(s.fn, event, ctx, damage); err != nil {
		ctx.Logger.Warn("scripted effect failed",
			zap.String("function", s.fn),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func (s *scripted) OnCombatStart(ctx *Context)          { s.call(ctx, EventCombatStart, 0) }
func (s *scripted) OnRoundStart(ctx *Context)           { s.call(ctx, EventRoundStart, 0) }
func (s *scripted) OnDamageDealt(ctx *Context, dmg int) { s.call(ctx, EventDamageDealt, dmg) }
func (s *scripted) OnDamageTaken(ctx *Context, dmg int) { s.call(ctx, EventDamageTaken, dmg) }
func (s *scripted) OnDeath(ctx *Context)                { s.call(ctx, EventDeath, 0) }
func (s *scripted) OnRoundEnd(ctx *Context)             { s.call(ctx, EventRoundEnd, 0) }

// ModifyDamage passes the formula through; scripted effects never alter dice.
func (s *scripted) ModifyDamage(_ *Context, f dice.Formula) dice.Formula { return f }
