// Package encounter maps a room's rolled encounter code to its concrete
// effect: combat hand-off, trap damage, the riddle event, merchant mode, or
// a direct inventory grant.
package encounter

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/combat"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/dungeon"
	"github.com/cory-johannsen/delve/internal/game/inventory"
	"github.com/cory-johannsen/delve/internal/game/monster"
	"github.com/cory-johannsen/delve/internal/game/player"
)

// Code identifies a room's rolled encounter. Codes are cached on the room
// as plain ints.
type Code int

const (
	CodeEmpty Code = iota
	CodeItem
	CodeScroll
	CodeWeakMonster
	CodeToughMonster
	CodeTrap
	CodeRiddle
	CodeMerchant
)

// String returns a human-readable code label.
func (c Code) String() string {
	switch c {
	case CodeEmpty:
		return "empty"
	case CodeItem:
		return "item"
	case CodeScroll:
		return "scroll"
	case CodeWeakMonster:
		return "weak monster"
	case CodeToughMonster:
		return "tough monster"
	case CodeTrap:
		return "trap"
	case CodeRiddle:
		return "riddle"
	case CodeMerchant:
		return "merchant"
	default:
		return "unknown"
	}
}

// entranceTable maps a d4 roll to the entrance room's encounter.
var entranceTable = [4]Code{CodeItem, CodeWeakMonster, CodeScroll, CodeEmpty}

// normalTable maps a d6 roll to an ordinary room's encounter.
var normalTable = [6]Code{CodeEmpty, CodeTrap, CodeRiddle, CodeWeakMonster, CodeToughMonster, CodeMerchant}

// Outcome tells the caller what state the resolution left the session in.
type Outcome int

const (
	// OutcomeResolved means the encounter completed and the room is cleared.
	OutcomeResolved Outcome = iota
	// OutcomeCombat means combat started; clearing waits on its result.
	OutcomeCombat
	// OutcomeMerchant means sell-mode stays active until the player leaves.
	OutcomeMerchant
)

// Config holds the encounter tuning knobs.
type Config struct {
	TrapBase     int `yaml:"trap_base" mapstructure:"trap_base"`
	RiddleSilver int `yaml:"riddle_silver" mapstructure:"riddle_silver"`
	RiddleXP     int `yaml:"riddle_xp" mapstructure:"riddle_xp"`
}

// DefaultConfig returns the baseline tuning.
func DefaultConfig() Config {
	return Config{TrapBase: 4, RiddleSilver: 10, RiddleXP: 5}
}

// Resolver rolls encounter codes and resolves them against the session's
// subsystems. Not safe for concurrent use; the session serializes access.
type Resolver struct {
	cfg      Config
	player   *player.Player
	inv      *inventory.Inventory
	combat   *combat.Resolver
	monsters *monster.Registry
	items    *catalog.Registry
	roller   *dice.Roller
	logger   *zap.Logger
	onChoice func(*RewardChoice)
}

// NewResolver creates a Resolver over the session's subsystems.
//
// Precondition: all arguments must be non-nil.
func NewResolver(cfg Config, p *player.Player, inv *inventory.Inventory, cr *combat.Resolver, monsters *monster.Registry, items *catalog.Registry, roller *dice.Roller, logger *zap.Logger) *Resolver {
	return &Resolver{
		cfg:      cfg,
		player:   p,
		inv:      inv,
		combat:   cr,
		monsters: monsters,
		items:    items,
		roller:   roller,
		logger:   logger.Named("encounter"),
	}
}

// SetChoiceHandler registers the callback invoked when a riddle reward
// needs external input. The session installs its pending-choice slot here.
func (r *Resolver) SetChoiceHandler(fn func(*RewardChoice)) { r.onChoice = fn }

// RollCode determines and caches the room's encounter code. The entrance
// rolls on its 4-outcome table and ordinary rooms on the 6-outcome table,
// unless chosen carries an active choose-next-room override, which is
// consumed here.
//
// Postcondition: the room's cached code is returned unchanged on re-entry.
func (r *Resolver) RollCode(room *dungeon.Room, chosen *Code) Code {
	if cached, ok := room.EncounterCode(); ok {
		return Code(cached)
	}
	var code Code
	switch {
	case chosen != nil && r.player.ConsumeRoomOmen():
		code = *chosen
	case room.Kind == dungeon.KindEntrance:
		code = entranceTable[r.roller.Die(4)-1]
	default:
		code = normalTable[r.roller.Die(6)-1]
	}
	room.SetEncounter(int(code))
	r.logger.Debug("encounter rolled",
		zap.String("room", room.ID),
		zap.String("code", code.String()))
	return code
}

// Resolve executes the room's encounter. Non-combat encounters mark the
// room cleared immediately; combat defers clearing to the combat result.
func (r *Resolver) Resolve(room *dungeon.Room, code Code) Outcome {
	switch code {
	case CodeEmpty:
		room.Cleared = true
		return OutcomeResolved

	case CodeItem:
		r.grantItem(func() (*catalog.ItemDef, error) { return r.items.RandomItem(r.roller.Source()) })
		room.Cleared = true
		return OutcomeResolved

	case CodeScroll:
		r.grantItem(func() (*catalog.ItemDef, error) { return r.items.RandomScroll(r.roller.Source()) })
		room.Cleared = true
		return OutcomeResolved

	case CodeTrap:
		r.resolveTrap()
		room.Cleared = true
		return OutcomeResolved

	case CodeRiddle:
		r.resolveRiddle()
		room.Cleared = true
		return OutcomeResolved

	case CodeWeakMonster:
		return r.resolveMonster(room, monster.TierWeak)

	case CodeToughMonster:
		return r.resolveMonster(room, monster.TierTough)

	case CodeMerchant:
		r.inv.SetSellMode(true)
		room.Cleared = true
		return OutcomeMerchant

	default:
		r.logger.Warn("unknown encounter code", zap.Int("code", int(code)))
		room.Cleared = true
		return OutcomeResolved
	}
}

// grantItem draws an item and adds it to the inventory; an empty pool or a
// full inventory drops the grant with a log line.
func (r *Resolver) grantItem(draw func() (*catalog.ItemDef, error)) {
	def, err := draw()
	if err != nil {
		r.logger.Warn("loot draw failed", zap.Error(err))
		return
	}
	if err := r.inv.AddItem(def); err != nil {
		r.logger.Info("loot dropped", zap.String("id", def.ID), zap.Error(err))
	}
}

// resolveTrap deals pit damage: max(0, base - (d6 + 1 if a rope is held)).
// Rope shifts the distribution but never guarantees a clean escape.
func (r *Resolver) resolveTrap() {
	roll := r.roller.Die(6)
	if r.inv.HasKind(catalog.KindRope) {
		roll++
	}
	dmg := r.cfg.TrapBase - roll
	if dmg < 0 {
		dmg = 0
	}
	r.logger.Info("pit trap", zap.Int("damage", dmg))
	if dmg > 0 {
		r.player.Wound(dmg)
	}
}

// resolveRiddle flips a coin: success exposes a two-phase reward choice,
// failure deals flat d4 damage that bypasses armor entirely.
func (r *Resolver) resolveRiddle() {
	if r.roller.Source().Intn(2) == 0 {
		dmg := r.roller.Die(4)
		r.logger.Info("riddle failed", zap.Int("damage", dmg))
		r.player.Wound(dmg)
		return
	}
	choice := &RewardChoice{resolver: r}
	if r.onChoice == nil {
		r.logger.Warn("no choice handler installed; riddle reward skipped")
		return
	}
	r.onChoice(choice)
}

// resolveMonster spawns a random monster of the tier and hands off to
// combat, unless an invisibility charge bypasses it for full XP and no loot.
func (r *Resolver) resolveMonster(room *dungeon.Room, tier string) Outcome {
	m, err := r.monsters.SpawnRandom(tier, r.roller.Source())
	if err != nil {
		r.logger.Warn("monster spawn failed", zap.String("tier", tier), zap.Error(err))
		room.Cleared = true
		return OutcomeResolved
	}
	if r.player.ConsumeInvisibilityCharge() {
		r.logger.Info("slipped past unseen", zap.String("monster", m.Name()))
		r.player.GainXP(m.XP)
		room.Cleared = true
		return OutcomeResolved
	}
	r.combat.Start(m)
	return OutcomeCombat
}

// RewardChoice is the two-phase continuation for a successful riddle:
// option 0 grants flat silver, option 1 flat experience. Nothing mutates
// until Resume runs with a valid index.
type RewardChoice struct {
	resolver *Resolver
	done     bool
}

// Options returns the selectable reward labels, indexed for Resume.
func (c *RewardChoice) Options() []string {
	return []string{"silver", "experience"}
}

// Resume completes the choice.
//
// Postcondition: returns false, with no state change, on an out-of-range
// index or a second resume.
func (c *RewardChoice) Resume(index int) bool {
	if c.done {
		c.resolver.logger.Warn("riddle reward resumed twice")
		return false
	}
	switch index {
	case 0:
		c.resolver.player.GainSilver(c.resolver.cfg.RiddleSilver)
	case 1:
		c.resolver.player.GainXP(c.resolver.cfg.RiddleXP)
	default:
		c.resolver.logger.Warn("riddle reward index out of range", zap.Int("index", index))
		return false
	}
	c.done = true
	return true
}

// Consumed reports whether Resume has already succeeded.
func (c *RewardChoice) Consumed() bool { return c.done }
