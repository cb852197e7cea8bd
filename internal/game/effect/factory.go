package effect

import (
	"fmt"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// Effect kind constants for Spec.Kind.
const (
	KindAlternatingDamage = "alternating_damage"
	KindRegeneration      = "regeneration"
	KindPoison            = "poison"
	KindStealSilver       = "steal_silver"
	KindLifeDrain         = "life_drain"
	KindExplode           = "explode"
	KindEnrage            = "enrage"
	KindDropItem          = "drop_item"
	KindDropWeapon        = "drop_weapon"
	KindDropSilver        = "drop_silver"
	KindDeathCurse        = "death_curse"
	KindForcedLevelUp     = "forced_levelup"
	KindScripted          = "scripted"
)

// Spec is the declarative effect description attached to a monster template
// in YAML. Which fields are required depends on Kind; Validate enforces the
// per-kind rules.
type Spec struct {
	Kind      string `yaml:"kind"`
	Dice      string `yaml:"dice"`      // roll formula (regen amount, alt dice, drops, ...)
	Percent   int    `yaml:"percent"`   // life-drain share, enrage HP threshold
	Threshold int    `yaml:"threshold"` // drop succeeds when d6 <= threshold
	Amount    int    `yaml:"amount"`    // flat amounts (enrage bonus, flat silver)
	Chance    int    `yaml:"chance"`    // percent chance (curse, forced level-up)
	Item      string `yaml:"item"`      // drop_item catalog ID
	Tier      string `yaml:"tier"`      // drop_weapon tier
	Function  string `yaml:"function"`  // scripted Lua function name
}

// Validate checks the per-kind required fields.
//
// Postcondition: returns nil iff Build would succeed for this spec.
func (s Spec) Validate() error {
	check := func(cond bool, format string, args ...any) error {
		if !cond {
			return fmt.Errorf("effect %q: "+format, append([]any{s.Kind}, args...)...)
		}
		return nil
	}

	var dieErr error
	if s.Dice != "" {
		_, dieErr = dice.Parse(s.Dice)
	}
	if dieErr != nil {
		return fmt.Errorf("effect %q: dice: %w", s.Kind, dieErr)
	}

	switch s.Kind {
	case KindAlternatingDamage, KindRegeneration, KindStealSilver, KindExplode:
		return check(s.Dice != "", "dice is required")
	case KindLifeDrain:
		return check(s.Percent >= 1 && s.Percent <= 100, "percent must be in [1,100]; got %d", s.Percent)
	case KindEnrage:
		if err := check(s.Percent >= 1 && s.Percent <= 99, "percent must be in [1,99]; got %d", s.Percent); err != nil {
			return err
		}
		return check(s.Dice != "" || s.Amount > 0, "dice or amount is required")
	case KindDropItem:
		if err := check(s.Threshold >= 1 && s.Threshold <= 6, "threshold must be in [1,6]; got %d", s.Threshold); err != nil {
			return err
		}
		return check(s.Item != "", "item is required")
	case KindDropWeapon:
		if err := check(s.Threshold >= 1 && s.Threshold <= 6, "threshold must be in [1,6]; got %d", s.Threshold); err != nil {
			return err
		}
		return check(s.Tier != "", "tier is required")
	case KindDropSilver:
		return check(s.Dice != "" || s.Amount > 0, "dice or amount is required")
	case KindDeathCurse, KindForcedLevelUp:
		return check(s.Chance >= 1 && s.Chance <= 100, "chance must be in [1,100]; got %d", s.Chance)
	case KindPoison:
		return nil
	case KindScripted:
		return check(s.Function != "", "function is required")
	default:
		return fmt.Errorf("effect: unknown kind %q", s.Kind)
	}
}

// ScriptRunner dispatches a scripted effect hook to a named Lua function.
type ScriptRunner interface {
	// CallEffect invokes fn for the given lifecycle event. damage is the
	// resolved damage for dealt/taken events and 0 otherwise. Errors are
	// the caller's to log; scripted effects never abort combat.
	CallEffect(fn, event string, ctx *Context, damage int) error
}

// Factory builds fresh Hook instances from Specs. A nil-Scripts factory
// rejects scripted specs at build time.
type Factory struct {
	Scripts ScriptRunner
}

// Build constructs a new Hook for s. Every call returns a distinct instance;
// hooks with mutable state (enrage) must never be shared between monsters.
//
// Precondition: s has passed Validate.
// Postcondition: Returns a non-nil Hook, or an error for unknown kinds,
// malformed parameters, or scripted specs without a runner.
func (f *Factory) Build(s Spec) (Hook, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	// Validate guarantees s.Dice parses when present.
	var formula dice.Formula
	if s.Dice != "" {
		formula = dice.MustParse(s.Dice)
	}

	switch s.Kind {
	case KindAlternatingDamage:
		return &alternatingDamage{even: formula}, nil
	case KindRegeneration:
		return &regeneration{amount: formula}, nil
	case KindPoison:
		return poison{}, nil
	case KindStealSilver:
		return &stealSilver{amount: formula}, nil
	case KindLifeDrain:
		return &lifeDrain{percent: s.Percent}, nil
	case KindExplode:
		return &explode{amount: formula}, nil
	case KindEnrage:
		e := &enrage{thresholdPct: s.Percent, bonus: s.Amount}
		if s.Dice != "" {
			e.replace = &formula
		}
		return e, nil
	case KindDropItem:
		return &dropItem{threshold: s.Threshold, itemID: s.Item}, nil
	case KindDropWeapon:
		return &dropWeapon{threshold: s.Threshold, tier: s.Tier}, nil
	case KindDropSilver:
		if s.Dice == "" {
			formula = dice.Formula{Count: 1, Sides: 1, Modifier: s.Amount - 1}
		}
		return &dropSilver{amount: formula}, nil
	case KindDeathCurse:
		return &deathCurse{chancePct: s.Chance}, nil
	case KindForcedLevelUp:
		return &forcedLevelUp{chancePct: s.Chance}, nil
	case KindScripted:
		if f.Scripts == nil {
			return nil, fmt.Errorf("effect: scripted effect %q requires a script runner", s.Function)
		}
		return &scripted{runner: f.Scripts, fn: s.Function}, nil
	default:
		return nil, fmt.Errorf("effect: unknown kind %q", s.Kind)
	}
}

// BuildAll constructs fresh hooks for all specs, preserving order.
//
// Postcondition: len(result) == len(specs) on success.
func (f *Factory) BuildAll(specs []Spec) ([]Hook, error) {
	hooks := make([]Hook, 0, len(specs))
	for _, s := range specs {
		h, err := f.Build(s)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, h)
	}
	return hooks, nil
}
