package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses a dice formula string into a Formula.
// Supported forms: "d6", "2d6", "2d6+3", "1d4-1".
//
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a Formula with Count >= 1 and Sides >= 1, or a
// descriptive error.
func Parse(expr string) (Formula, error) {
	if expr == "" {
		return Formula{}, fmt.Errorf("dice: empty formula")
	}

	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		return Formula{}, fmt.Errorf("dice: missing 'd' in formula %q", raw)
	}

	// Count before the 'd'; defaults to 1 when omitted.
	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return Formula{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if count < 1 {
			return Formula{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", raw)
		}
	}

	// Sides and optional modifier after the 'd'. Find the first '+' or '-'
	// past position 0 so a leading sign is never split off.
	rest := s[dIdx+1:]
	modOffset := -1
	for i := 1; i < len(rest); i++ {
		if rest[i] == '+' || rest[i] == '-' {
			modOffset = i
			break
		}
	}

	sidesStr, modStr := rest, ""
	if modOffset >= 0 {
		sidesStr, modStr = rest[:modOffset], rest[modOffset:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Formula{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 1 {
		return Formula{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 1", raw)
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Formula{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	return Formula{Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice formula.
func MustParse(expr string) Formula {
	f, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for formula " + expr + ": " + err.Error())
	}
	return f
}
