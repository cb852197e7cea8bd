package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with formula, dice values, modifier,
// and clamped total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source, for callers that need
// raw draws (shuffles, coin flips) on the same stream.
func (r *Roller) Source() Source {
	return r.src
}

// Roll evaluates f and logs the result at debug level.
//
// Postcondition: result logged; returns the clamped total (>= 1).
func (r *Roller) Roll(f Formula) int {
	result := RollDetail(f, r.src)
	r.logger.Debug("dice roll",
		zap.String("formula", f.String()),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result.Total()
}

// RollExpr parses expr and rolls it, logging the result.
//
// Precondition: expr must be a valid dice formula string.
func (r *Roller) RollExpr(expr string) (int, error) {
	f, err := Parse(expr)
	if err != nil {
		return 0, err
	}
	return r.Roll(f), nil
}

// Die rolls a single unmodified die with the given number of sides.
//
// Precondition: sides >= 1.
// Postcondition: return value in [1, sides].
func (r *Roller) Die(sides int) int {
	return r.Roll(Formula{Count: 1, Sides: sides})
}
