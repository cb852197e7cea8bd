package monster

import (
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/effect"
)

// Instance is a live monster owned by the combat resolver for the duration
// of one encounter. It satisfies effect.Monster.
type Instance struct {
	// TemplateID is the source template's ID.
	TemplateID string
	// DisplayName is copied from the template.
	DisplayName string
	// Tier is the difficulty tier copied from the template.
	Tier string
	// HitThreshold is the attack roll the player must meet or beat.
	HitThreshold int
	// CurrentHP is the instance's current hit points.
	CurrentHP int
	// MaxHP is the instance's maximum hit points.
	MaxHP int
	// BaseDamage is the unmodified per-round damage formula.
	BaseDamage dice.Formula
	// XP is the experience reward for killing this instance.
	XP int
	// Hooks is the ordered effect pipeline, freshly built for this instance.
	Hooks []effect.Hook
}

// newInstance clones a live Instance from tmpl with the given fresh hooks.
//
// Postcondition: CurrentHP == tmpl.MaxHP.
func newInstance(tmpl *Template, hooks []effect.Hook) *Instance {
	return &Instance{
		TemplateID:   tmpl.ID,
		DisplayName:  tmpl.Name,
		Tier:         tmpl.Tier,
		HitThreshold: tmpl.HitThreshold,
		CurrentHP:    tmpl.MaxHP,
		MaxHP:        tmpl.MaxHP,
		BaseDamage:   tmpl.Damage(),
		XP:           tmpl.XP,
		Hooks:        hooks,
	}
}

// Name returns the monster's display name.
func (i *Instance) Name() string { return i.DisplayName }

// Health returns current and maximum hit points.
func (i *Instance) Health() (current, max int) { return i.CurrentHP, i.MaxHP }

// Heal restores up to n hit points, capped at MaxHP.
//
// Precondition: n >= 0.
// Postcondition: returns the amount actually restored; CurrentHP <= MaxHP.
func (i *Instance) Heal(n int) int {
	if n <= 0 {
		return 0
	}
	before := i.CurrentHP
	i.CurrentHP += n
	if i.CurrentHP > i.MaxHP {
		i.CurrentHP = i.MaxHP
	}
	return i.CurrentHP - before
}

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP >= 0; returns the amount actually applied.
func (i *Instance) ApplyDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := i.CurrentHP
	i.CurrentHP -= amount
	if i.CurrentHP < 0 {
		i.CurrentHP = 0
	}
	return before - i.CurrentHP
}

// IsDead reports whether the instance has zero hit points.
func (i *Instance) IsDead() bool { return i.CurrentHP <= 0 }

// RoundDamage runs the formula modification chain over the base damage.
// Each hook receives the previous hook's output, in registration order.
func (i *Instance) RoundDamage(ctx *effect.Context) dice.Formula {
	f := i.BaseDamage
	for _, h := range i.Hooks {
		f = h.ModifyDamage(ctx, f)
	}
	return f
}

// HealthDescription returns a visible health state string for room output.
//
// Postcondition: Returns a non-empty string.
func (i *Instance) HealthDescription() string {
	if i.CurrentHP <= 0 {
		return "dead"
	}
	pct := float64(i.CurrentHP) / float64(i.MaxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.30:
		return "badly wounded"
	default:
		return "near death"
	}
}
