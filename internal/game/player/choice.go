package player

import "go.uber.org/zap"

// MonsterChoice is the two-phase continuation for the reward face that lets
// the player name one weak-tier and one tough-tier monster whose damage is
// permanently halved. The dependent state mutates only when Resume runs;
// a second Resume is rejected silently as already consumed.
type MonsterChoice struct {
	// Face is the reward face that demanded the choice.
	Face int

	player *Player
	done   bool
}

// Resume completes the choice with the two selected monster names.
//
// Postcondition: returns false when the choice was already consumed;
// otherwise both names join the halved-damage set and the reward-applied
// event fires.
func (c *MonsterChoice) Resume(weakName, toughName string) bool {
	if c.done {
		c.player.logger.Warn("reward choice resumed twice", zap.Int("face", c.Face))
		return false
	}
	c.done = true
	c.player.completeMonsterChoice(c.Face, weakName, toughName)
	return true
}

// Consumed reports whether Resume has already run.
func (c *MonsterChoice) Consumed() bool { return c.done }
