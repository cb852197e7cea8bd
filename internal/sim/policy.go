// Package sim plays whole dungeon runs without a human at the keyboard. A
// Runner sweeps a batch of seeded sessions through a Policy and aggregates
// the outcomes, optionally persisting them for later analysis.
package sim

import (
	"fmt"

	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/dungeon"
	"github.com/cory-johannsen/delve/internal/game/session"
)

// Policy decides the next command for a session. Implementations must be
// deterministic for a given source so sweeps are reproducible.
type Policy interface {
	// Name identifies the policy in logs and run records.
	Name() string
	// Step issues exactly one command to the session.
	// Precondition: s.State() != StateOver.
	Step(s *session.Session, src dice.Source) error
}

// RandomWalk is the baseline policy: wander through random exits, always
// attack in combat, answer choices at random, and cash in silver level-ups
// whenever the threshold is met.
type RandomWalk struct{}

// Name returns "random_walk".
func (RandomWalk) Name() string { return "random_walk" }

// Step issues one command based on the current session state.
func (RandomWalk) Step(s *session.Session, src dice.Source) error {
	switch s.State() {
	case session.StateExploring, session.StateMerchant:
		if s.Player().CanLevelUpBySilver() {
			return s.LevelUpBySilver()
		}
		return moveRandom(s, src)
	case session.StateInCombat:
		return s.Attack()
	case session.StateChoicePending:
		pending := s.Pending()
		if pending == nil {
			return session.ErrNoChoice
		}
		return s.RespondToChoice(src.Intn(len(pending.Options)))
	default:
		return fmt.Errorf("sim: no move for state %q", s.State())
	}
}

func moveRandom(s *session.Session, src dice.Source) error {
	var open []dungeon.Direction
	for _, dir := range dungeon.Cardinals {
		if _, ok := s.CurrentRoom().Neighbor(dir); ok {
			open = append(open, dir)
		}
	}
	if len(open) == 0 {
		return session.ErrNoExit
	}
	return s.Move(open[src.Intn(len(open))])
}
