// Package player implements the progression model: hit points, experience,
// the three leveling paths, the non-repeating level-up reward draw, and the
// transient charm counters granted by scrolls. Every mutation goes through a
// method on Player so the bus sees a complete, ordered account of state
// changes.
package player

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/inventory"
)

// faceRetryLimit bounds the reward draw's reroll-until-unused loop.
const faceRetryLimit = 100

// Config holds the progression tuning knobs.
type Config struct {
	MaxHP           int    `yaml:"max_hp" mapstructure:"max_hp"`
	XPRequired      int    `yaml:"xp_required" mapstructure:"xp_required"`
	RoomsRequired   int    `yaml:"rooms_required" mapstructure:"rooms_required"`
	SilverThreshold int    `yaml:"silver_threshold" mapstructure:"silver_threshold"`
	VictoryLevel    int    `yaml:"victory_level" mapstructure:"victory_level"`
	HealItemID      string `yaml:"heal_item_id" mapstructure:"heal_item_id"`
	HealItemCount   int    `yaml:"heal_item_count" mapstructure:"heal_item_count"`
}

// DefaultConfig returns the baseline tuning.
func DefaultConfig() Config {
	return Config{
		MaxHP:           15,
		XPRequired:      10,
		RoomsRequired:   8,
		SilverThreshold: 40,
		VictoryLevel:    10,
		HealItemID:      "healing_potion",
		HealItemCount:   5,
	}
}

// Lifetime holds the cross-run totals, kept separate from the run-scoped
// counters the leveling gates consume.
type Lifetime struct {
	Rooms  int
	Silver int
	Kills  int
}

// Player is the progression state machine for one run.
// Not safe for concurrent use; the session serializes access.
type Player struct {
	name string
	cfg  Config

	hp, maxHP    int
	level        int
	xp           int
	rooms        int
	hitBonus     int
	kills        int
	alive        bool
	victorious   bool
	title        string
	grantedFaces map[int]bool
	halved       map[string]bool

	// Transient scroll-effect counters.
	allyAttacks   int
	shieldCharges int
	invisCharges  int
	rerollCharge  bool
	roomOmen      bool

	lifetime Lifetime

	inv      *inventory.Inventory
	reg      *catalog.Registry
	src      dice.Source
	bus      *event.Bus
	logger   *zap.Logger
	onChoice func(*MonsterChoice)
}

// New creates a live level-1 Player at full health.
//
// Precondition: inv, reg, src, bus, and logger must be non-nil.
func New(name string, cfg Config, inv *inventory.Inventory, reg *catalog.Registry, src dice.Source, bus *event.Bus, logger *zap.Logger) *Player {
	return &Player{
		name:         name,
		cfg:          cfg,
		hp:           cfg.MaxHP,
		maxHP:        cfg.MaxHP,
		level:        1,
		alive:        true,
		grantedFaces: make(map[int]bool),
		halved:       make(map[string]bool),
		inv:          inv,
		reg:          reg,
		src:          src,
		bus:          bus,
		logger:       logger.Named("player"),
	}
}

// SetChoiceHandler registers the callback invoked when a reward face needs
// external input. The session installs its pending-choice slot here.
func (p *Player) SetChoiceHandler(fn func(*MonsterChoice)) { p.onChoice = fn }

// Name returns the player's identity.
func (p *Player) Name() string { return p.name }

// Health returns current and maximum hit points.
func (p *Player) Health() (current, max int) { return p.hp, p.maxHP }

// Level returns the current level.
func (p *Player) Level() int { return p.level }

// XP returns the run-scoped experience and the exploration-gate quota.
func (p *Player) XP() (current, required int) { return p.xp, p.cfg.XPRequired }

// RoomsExplored returns the run-scoped room count and its quota.
func (p *Player) RoomsExplored() (current, required int) { return p.rooms, p.cfg.RoomsRequired }

// Kills returns the run-scoped kill count.
func (p *Player) Kills() int { return p.kills }

// HitBonus returns the cumulative level-up attack bonus.
func (p *Player) HitBonus() int { return p.hitBonus }

// Alive reports whether the player can still act.
func (p *Player) Alive() bool { return p.alive }

// Victorious reports whether the run ended by reaching the victory level.
func (p *Player) Victorious() bool { return p.victorious }

// Title returns the cosmetic title, empty until the title face is granted.
func (p *Player) Title() string { return p.title }

// GrantedFaces returns a copy of the reward faces granted this run.
func (p *Player) GrantedFaces() []int {
	out := make([]int, 0, len(p.grantedFaces))
	for f := 1; f <= 6; f++ {
		if p.grantedFaces[f] {
			out = append(out, f)
		}
	}
	return out
}

// DamageHalved reports whether the named monster's damage is halved.
func (p *Player) DamageHalved(monsterName string) bool { return p.halved[monsterName] }

// LifetimeTotals returns the cross-run totals including this run.
func (p *Player) LifetimeTotals() Lifetime { return p.lifetime }

// SeedLifetime installs totals loaded from storage at session start.
//
// Precondition: called before any run-scoped mutation.
func (p *Player) SeedLifetime(l Lifetime) { p.lifetime = l }

// Heal restores up to n hit points, capped at maximum.
//
// Postcondition: returns the amount actually restored (>= 0).
func (p *Player) Heal(n int) int {
	if !p.alive || n <= 0 {
		return 0
	}
	healed := n
	if p.hp+healed > p.maxHP {
		healed = p.maxHP - p.hp
	}
	if healed > 0 {
		p.hp += healed
		p.bus.Publish(event.HealthChanged{Current: p.hp, Max: p.maxHP})
	}
	return healed
}

// Wound applies n direct, unmitigated damage.
//
// Postcondition: returns the amount actually applied; HP never drops below
// zero; reaching zero incapacitates the player exactly once.
func (p *Player) Wound(n int) int {
	if !p.alive || n <= 0 {
		return 0
	}
	applied := n
	if applied > p.hp {
		applied = p.hp
	}
	p.hp -= applied
	p.bus.Publish(event.HealthChanged{Current: p.hp, Max: p.maxHP})
	if p.hp == 0 {
		p.die("wounds")
	}
	return applied
}

// Kill incapacitates the player immediately, bypassing hit points.
func (p *Player) Kill(cause string) {
	if !p.alive {
		return
	}
	if p.hp != 0 {
		p.hp = 0
		p.bus.Publish(event.HealthChanged{Current: 0, Max: p.maxHP})
	}
	p.die(cause)
}

func (p *Player) die(cause string) {
	p.alive = false
	p.logger.Info("player died", zap.String("cause", cause), zap.Int("level", p.level))
	p.bus.Publish(event.PlayerDied{Cause: cause})
	p.bus.Publish(event.GameOver{Victory: false, Cause: cause})
}

// GainSilver credits n silver and the lifetime total.
func (p *Player) GainSilver(n int) {
	if n <= 0 {
		return
	}
	p.inv.GainSilver(n)
	p.lifetime.Silver += n
}

// StealSilver removes up to n silver from the inventory.
//
// Postcondition: returns the amount actually taken.
func (p *Player) StealSilver(n int) int {
	return p.inv.StealSilver(n)
}

// GrantItem adds the catalog item with the given ID to the inventory.
// A full inventory drops the grant with a log line, never an error.
func (p *Player) GrantItem(defID string) {
	def, ok := p.reg.Item(defID)
	if !ok {
		p.logger.Warn("grant for unknown item", zap.String("id", defID))
		return
	}
	if err := p.inv.AddItem(def); err != nil {
		p.logger.Info("granted item dropped", zap.String("id", defID), zap.Error(err))
	}
}

// GrantRandomWeapon adds a random weapon of the given tier, equipping it
// directly when the player is unarmed.
func (p *Player) GrantRandomWeapon(tier string) {
	w, err := p.reg.RandomWeapon(tier, p.src)
	if err != nil {
		p.logger.Warn("grant for empty weapon tier", zap.String("tier", tier), zap.Error(err))
		return
	}
	if p.inv.Equipped() == nil {
		p.inv.EquipDirect(w)
		return
	}
	if err := p.inv.AddWeapon(w); err != nil {
		p.logger.Info("granted weapon dropped", zap.String("id", w.ID), zap.Error(err))
	}
}

// CreditKill records a monster kill on both counters.
func (p *Player) CreditKill() {
	p.kills++
	p.lifetime.Kills++
}

// GainXP credits n experience and checks the exploration gate.
func (p *Player) GainXP(n int) {
	if !p.alive || n <= 0 {
		return
	}
	p.xp += n
	p.bus.Publish(event.XPChanged{Current: p.xp, Required: p.cfg.XPRequired})
	p.checkExplorationGate()
}

// CreditRoom records a first-visit room on both counters and checks the
// exploration gate.
func (p *Player) CreditRoom() {
	if !p.alive {
		return
	}
	p.rooms++
	p.lifetime.Rooms++
	p.bus.Publish(event.RoomsExploredChanged{Current: p.rooms, Required: p.cfg.RoomsRequired})
	p.checkExplorationGate()
}

// UncreditRoom voids the run-scoped credit for the current room after a
// flee, never dropping below zero. The lifetime total keeps the visit.
func (p *Player) UncreditRoom() {
	if p.rooms == 0 {
		return
	}
	p.rooms--
	p.bus.Publish(event.RoomsExploredChanged{Current: p.rooms, Required: p.cfg.RoomsRequired})
}

// checkExplorationGate levels up when both run-scoped quotas are met,
// resetting both counters.
func (p *Player) checkExplorationGate() {
	if p.rooms < p.cfg.RoomsRequired || p.xp < p.cfg.XPRequired {
		return
	}
	p.rooms = 0
	p.xp = 0
	p.bus.Publish(event.RoomsExploredChanged{Current: 0, Required: p.cfg.RoomsRequired})
	p.bus.Publish(event.XPChanged{Current: 0, Required: p.cfg.XPRequired})
	p.levelUp()
}

// CanLevelUpBySilver reports whether the currency gate is payable.
func (p *Player) CanLevelUpBySilver() bool {
	return p.alive && p.inv.Silver() >= p.cfg.SilverThreshold
}

// LevelUpBySilver spends the currency threshold to level up. XP and room
// counters are untouched.
//
// Postcondition: on ErrInsufficientSilver nothing changes.
func (p *Player) LevelUpBySilver() error {
	if !p.alive {
		return inventory.ErrInsufficientSilver
	}
	if err := p.inv.SpendSilver(p.cfg.SilverThreshold); err != nil {
		return err
	}
	p.levelUp()
	return nil
}

// ForceLevelUp runs the forced leveling path: XP resets, the room counter
// and silver are untouched, and the reward roll proceeds as usual.
func (p *Player) ForceLevelUp() {
	if !p.alive {
		return
	}
	if p.xp != 0 {
		p.xp = 0
		p.bus.Publish(event.XPChanged{Current: 0, Required: p.cfg.XPRequired})
	}
	p.levelUp()
}

// levelUp increments the level, short-circuits into victory at the victory
// level, and otherwise rolls a reward face.
func (p *Player) levelUp() {
	p.level++
	p.logger.Info("leveled up", zap.Int("level", p.level))
	p.bus.Publish(event.LeveledUp{NewLevel: p.level})

	if p.level >= p.cfg.VictoryLevel {
		p.victorious = true
		p.bus.Publish(event.GameOver{Victory: true, Cause: "victory level reached"})
		return
	}
	p.rollRewardFace()
}

// rollRewardFace draws an unused d6 face, bounded at faceRetryLimit
// attempts. With all six faces granted the level-up yields nothing.
func (p *Player) rollRewardFace() {
	if len(p.grantedFaces) >= 6 {
		p.logger.Debug("all reward faces exhausted")
		return
	}
	face := 0
	for attempt := 0; attempt < faceRetryLimit; attempt++ {
		f := p.src.Intn(6) + 1
		if !p.grantedFaces[f] {
			face = f
			break
		}
	}
	if face == 0 {
		p.logger.Warn("reward draw exhausted retries")
		return
	}
	p.grantedFaces[face] = true
	p.applyFace(face)
}

func (p *Player) applyFace(face int) {
	switch face {
	case 1:
		p.title = "Hero of the Depths"
	case 2:
		p.hitBonus++
	case 3:
		p.maxHP += 5
		p.hp += 5
		p.bus.Publish(event.HealthChanged{Current: p.hp, Max: p.maxHP})
	case 4:
		def, ok := p.reg.Item(p.cfg.HealItemID)
		if !ok {
			p.logger.Warn("heal reward item missing from catalog", zap.String("id", p.cfg.HealItemID))
			break
		}
		for i := 0; i < p.cfg.HealItemCount; i++ {
			if err := p.inv.AddItem(def.Clone()); err != nil {
				p.logger.Info("heal reward overflowed inventory", zap.Error(err))
				break
			}
		}
	case 5:
		p.GrantRandomWeapon(catalog.TierStrong)
	case 6:
		p.bus.Publish(event.LevelChoiceRequired{Face: face})
		choice := &MonsterChoice{player: p, Face: face}
		if p.onChoice == nil {
			p.logger.Warn("no choice handler installed; reward face skipped", zap.Int("face", face))
			return
		}
		p.onChoice(choice)
		return
	}
	p.bus.Publish(event.LevelRewardApplied{Face: face})
}

// completeMonsterChoice applies a resumed reward-face choice.
func (p *Player) completeMonsterChoice(face int, weakName, toughName string) {
	p.halved[weakName] = true
	p.halved[toughName] = true
	p.logger.Info("damage halved",
		zap.String("weak", weakName),
		zap.String("tough", toughName))
	p.bus.Publish(event.LevelRewardApplied{Face: face})
}

// ConsumeScroll applies a scroll item's charm to the player.
//
// Precondition: def.IsScroll() is true.
func (p *Player) ConsumeScroll(def *catalog.ItemDef) {
	switch def.Kind {
	case catalog.KindScrollAlly:
		p.allyAttacks += def.Charges
	case catalog.KindScrollShield:
		p.shieldCharges += def.Charges
	case catalog.KindScrollInvisibility:
		p.invisCharges += def.Charges
	case catalog.KindScrollFalseOmen:
		p.rerollCharge = true
	case catalog.KindScrollRoomOmen:
		p.roomOmen = true
	default:
		p.logger.Warn("consume of non-scroll item", zap.String("kind", def.Kind))
	}
}

// AllyAttacks returns the remaining daemon-ally attack charges.
func (p *Player) AllyAttacks() int { return p.allyAttacks }

// ConsumeAllyCharge spends one ally charge after a victorious combat.
func (p *Player) ConsumeAllyCharge() {
	if p.allyAttacks > 0 {
		p.allyAttacks--
	}
}

// ConsumeShieldCharge spends a damage-shield charge.
//
// Postcondition: returns false when no charge was available.
func (p *Player) ConsumeShieldCharge() bool {
	if p.shieldCharges == 0 {
		return false
	}
	p.shieldCharges--
	return true
}

// ShieldCharges returns the remaining damage-shield charges.
func (p *Player) ShieldCharges() int { return p.shieldCharges }

// ConsumeInvisibilityCharge spends a combat-bypass charge.
//
// Postcondition: returns false when no charge was available.
func (p *Player) ConsumeInvisibilityCharge() bool {
	if p.invisCharges == 0 {
		return false
	}
	p.invisCharges--
	return true
}

// InvisibilityCharges returns the remaining combat-bypass charges.
func (p *Player) InvisibilityCharges() int { return p.invisCharges }

// HasRerollCharge reports whether the one-shot reroll is available.
func (p *Player) HasRerollCharge() bool { return p.rerollCharge }

// ConsumeRerollCharge spends the one-shot reroll.
//
// Postcondition: returns false when no charge was available.
func (p *Player) ConsumeRerollCharge() bool {
	if !p.rerollCharge {
		return false
	}
	p.rerollCharge = false
	return true
}

// HasRoomOmen reports whether the choose-next-room charm is active.
func (p *Player) HasRoomOmen() bool { return p.roomOmen }

// ConsumeRoomOmen spends the choose-next-room charm.
//
// Postcondition: returns false when no charm was active.
func (p *Player) ConsumeRoomOmen() bool {
	if !p.roomOmen {
		return false
	}
	p.roomOmen = false
	return true
}
