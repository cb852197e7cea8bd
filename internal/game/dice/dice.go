// Package dice provides the roll primitive and randomness abstraction for
// the Delve simulation core. Every randomized decision in the engine draws
// from a dice.Source so that a whole run is reproducible from one seed.
package dice

import "fmt"

// Formula is a parameterized "NdS+M" roll specification.
// Formulas are immutable value types and may be copied freely.
//
// Invariant: Count >= 1 and Sides >= 1 once constructed via Parse or NewFormula.
type Formula struct {
	Count    int // number of dice
	Sides    int // faces per die
	Modifier int // flat modifier, may be negative
}

// NewFormula constructs a Formula directly.
//
// Precondition: count >= 1 and sides >= 1; the caller validates.
func NewFormula(count, sides, modifier int) Formula {
	return Formula{Count: count, Sides: sides, Modifier: modifier}
}

// String renders the display form: "2d6", "2d6+3", "1d4-1".
// A zero modifier is omitted; a negative modifier carries its own sign.
func (f Formula) String() string {
	switch {
	case f.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", f.Count, f.Sides, f.Modifier)
	case f.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", f.Count, f.Sides, f.Modifier)
	default:
		return fmt.Sprintf("%dd%d", f.Count, f.Sides)
	}
}

// Average returns the expected value count*(sides+1)/2 + modifier.
// No minimum clamp is applied; the result may be fractional or below 1.
// Used for price heuristics, never for resolved rolls.
func (f Formula) Average() float64 {
	return float64(f.Count)*float64(f.Sides+1)/2.0 + float64(f.Modifier)
}

// Result holds the audit trail for a single formula evaluation.
//
// Postcondition: Total() == max(1, sum(Dice)+Modifier).
type Result struct {
	Formula  Formula
	Dice     []int // individual die results before modifier
	Modifier int
}

// Total returns the clamped roll value.
//
// Postcondition: return value >= 1.
func (r Result) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	if total < 1 {
		return 1
	}
	return total
}

// String returns a human-readable audit string, e.g. "1d4-1 → [3] -1 = 2".
func (r Result) String() string {
	return fmt.Sprintf("%s → %v %+d = %d", r.Formula, r.Dice, r.Modifier, r.Total())
}

// Roll evaluates f against src and returns the clamped total.
//
// Precondition: f.Count >= 1, f.Sides >= 1; src must be non-nil.
// Postcondition: return value >= 1.
func Roll(f Formula, src Source) int {
	return RollDetail(f, src).Total()
}

// RollDetail evaluates f against src and returns the full audit trail.
//
// Precondition: f.Count >= 1, f.Sides >= 1; src must be non-nil.
func RollDetail(f Formula, src Source) Result {
	rolled := make([]int, f.Count)
	for i := range rolled {
		rolled[i] = src.Intn(f.Sides) + 1
	}
	return Result{Formula: f, Dice: rolled, Modifier: f.Modifier}
}
