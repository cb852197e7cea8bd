package session

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/encounter"
	"github.com/cory-johannsen/delve/internal/game/monster"
	"github.com/cory-johannsen/delve/internal/game/player"
)

// ChoiceKind identifies what a pending choice decides.
type ChoiceKind string

const (
	// ChoiceWeakMonster picks the weak-tier name for the halved-damage set.
	ChoiceWeakMonster ChoiceKind = "weak_monster"
	// ChoiceToughMonster picks the tough-tier name for the halved-damage set.
	ChoiceToughMonster ChoiceKind = "tough_monster"
	// ChoiceRiddleReward picks silver or experience after a solved riddle.
	ChoiceRiddleReward ChoiceKind = "riddle_reward"
	// ChoiceNextRoom picks the encounter of the next unexplored room entered.
	ChoiceNextRoom ChoiceKind = "next_room"
)

// PendingChoice is a decision point waiting on external input. Gameplay
// commands are rejected with ErrChoicePending until RespondToChoice
// resolves it. While one choice is outstanding, operations that would
// raise another are rejected rather than displacing it.
type PendingChoice struct {
	Kind    ChoiceKind
	Options []string

	monsterChoice *player.MonsterChoice
	riddleChoice  *encounter.RewardChoice
}

// nextRoomCodes are the selectable encounters for the choose-next-room
// charm, mirroring the ordinary room table.
var nextRoomCodes = []encounter.Code{
	encounter.CodeEmpty,
	encounter.CodeTrap,
	encounter.CodeRiddle,
	encounter.CodeWeakMonster,
	encounter.CodeToughMonster,
	encounter.CodeMerchant,
}

// Pending returns the outstanding choice, nil when gameplay may proceed.
func (s *Session) Pending() *PendingChoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// beginMonsterChoice surfaces the halved-damage reward's two-stage pick.
// Runs inside a bus-driven callback; the session mutex is already held.
func (s *Session) beginMonsterChoice(mc *player.MonsterChoice) {
	if s.pending != nil {
		s.logger.Warn("reward choice rejected, another choice pending",
			zap.String("pending", string(s.pending.Kind)))
		return
	}
	s.pending = &PendingChoice{
		Kind:          ChoiceWeakMonster,
		Options:       s.monsters.Names(monster.TierWeak),
		monsterChoice: mc,
	}
	s.setState(StateChoicePending)
}

// beginRiddleChoice surfaces the solved riddle's reward pick.
func (s *Session) beginRiddleChoice(rc *encounter.RewardChoice) {
	if s.pending != nil {
		s.logger.Warn("riddle choice rejected, another choice pending",
			zap.String("pending", string(s.pending.Kind)))
		return
	}
	s.pending = &PendingChoice{
		Kind:         ChoiceRiddleReward,
		Options:      rc.Options(),
		riddleChoice: rc,
	}
	s.setState(StateChoicePending)
}

// beginNextRoomChoice surfaces the choose-next-room charm's encounter pick.
func (s *Session) beginNextRoomChoice() {
	if s.pending != nil {
		s.logger.Warn("next-room choice rejected, another choice pending",
			zap.String("pending", string(s.pending.Kind)))
		return
	}
	options := make([]string, len(nextRoomCodes))
	for i, c := range nextRoomCodes {
		options[i] = c.String()
	}
	s.pending = &PendingChoice{Kind: ChoiceNextRoom, Options: options}
	s.setState(StateChoicePending)
}

// RespondToChoice resolves the outstanding choice with the selected option
// index. An out-of-range index is a logged no-op that leaves the choice
// pending.
func (s *Session) RespondToChoice(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateOver {
		return ErrGameOver
	}
	if s.pending == nil {
		return ErrNoChoice
	}
	p := s.pending
	if index < 0 || index >= len(p.Options) {
		s.logger.Warn("choice index out of range",
			zap.Int("index", index), zap.Int("options", len(p.Options)))
		return nil
	}

	switch p.Kind {
	case ChoiceWeakMonster:
		s.weakPick = p.Options[index]
		s.pending = &PendingChoice{
			Kind:          ChoiceToughMonster,
			Options:       s.monsters.Names(monster.TierTough),
			monsterChoice: p.monsterChoice,
		}
		return nil

	case ChoiceToughMonster:
		p.monsterChoice.Resume(s.weakPick, p.Options[index])
		s.weakPick = ""

	case ChoiceRiddleReward:
		p.riddleChoice.Resume(index)

	case ChoiceNextRoom:
		code := nextRoomCodes[index]
		s.chosenCode = &code
	}

	s.pending = nil
	s.resumeAfterChoice()
	return nil
}

// resumeAfterChoice restores the gameplay state a resolved choice
// interrupted.
func (s *Session) resumeAfterChoice() {
	if s.state == StateOver {
		return
	}
	switch {
	case s.combat.InCombat():
		s.setState(StateInCombat)
	case s.inv.SellMode():
		s.setState(StateMerchant)
	default:
		s.setState(StateExploring)
	}
}
