// Package session owns one complete game run: the player, inventory,
// dungeon, combat and encounter resolvers, and the event bus they share.
// It is the command surface the outside world talks to, and the single
// owner of all run-scoped mutable state.
package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/combat"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/dungeon"
	"github.com/cory-johannsen/delve/internal/game/encounter"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/inventory"
	"github.com/cory-johannsen/delve/internal/game/monster"
	"github.com/cory-johannsen/delve/internal/game/player"
)

// GameState is the session's position in the run state machine.
type GameState string

const (
	StateExploring     GameState = "exploring"
	StateInCombat      GameState = "in_combat"
	StateMerchant      GameState = "merchant"
	StateChoicePending GameState = "choice_pending"
	StateOver          GameState = "over"
)

// Command rejection reasons. Callers match these with errors.Is.
var (
	ErrGameOver      = errors.New("session: the run is over")
	ErrNotExploring  = errors.New("session: not in an exploring state")
	ErrNoExit        = errors.New("session: no exit in that direction")
	ErrNotInCombat   = errors.New("session: no combat in progress")
	ErrChoicePending = errors.New("session: a choice is pending")
	ErrNoChoice      = errors.New("session: no choice is pending")
	ErrNotAtMerchant = errors.New("session: no merchant here")
	ErrNotInCatalog  = errors.New("session: not sold by the merchant")
)

// Config bundles the per-run tuning.
type Config struct {
	Seed        int64            `yaml:"seed" mapstructure:"seed"`
	PlayerName  string           `yaml:"player_name" mapstructure:"player_name"`
	ItemSlots   int              `yaml:"item_slots" mapstructure:"item_slots"`
	WeaponSlots int              `yaml:"weapon_slots" mapstructure:"weapon_slots"`
	Player      player.Config    `yaml:"player" mapstructure:"player"`
	Encounter   encounter.Config `yaml:"encounter" mapstructure:"encounter"`
}

// DefaultConfig returns the baseline run tuning with a fresh random seed.
func DefaultConfig() Config {
	return Config{
		PlayerName:  "Delver",
		ItemSlots:   10,
		WeaponSlots: 2,
		Player:      player.DefaultConfig(),
		Encounter:   encounter.DefaultConfig(),
	}
}

// Session aggregates one run's subsystems behind a mutex-guarded command
// surface, so a host may drive many sessions from many goroutines as long
// as each command call targets one session at a time.
type Session struct {
	mu     sync.Mutex
	logger *zap.Logger

	cfg       Config
	bus       *event.Bus
	src       dice.Source
	roller    *dice.Roller
	inv       *inventory.Inventory
	player    *player.Player
	generator *dungeon.Generator
	layout    *dungeon.Layout
	combat    *combat.Resolver
	encounter *encounter.Resolver
	monsters  *monster.Registry
	items     *catalog.Registry

	state      GameState
	current    *dungeon.Room
	pending    *PendingChoice
	weakPick   string
	chosenCode *encounter.Code
	overCause  string
	victory    bool
}

// New builds and starts a run: the dungeon is generated, the player placed
// at the entrance, and the entrance encounter rolled and resolved.
//
// Precondition: monsters, items, and logger must be non-nil and loaded.
func New(cfg Config, monsters *monster.Registry, items *catalog.Registry, logger *zap.Logger) (*Session, error) {
	s := &Session{
		cfg:      cfg,
		logger:   logger.Named("session"),
		bus:      event.NewBus(),
		monsters: monsters,
		items:    items,
		state:    StateExploring,
	}

	src := dice.NewSeeded(cfg.Seed)
	s.src = src
	s.roller = dice.NewRoller(src, s.logger)
	s.inv = inventory.New(cfg.ItemSlots, cfg.WeaponSlots, s.bus)
	s.player = player.New(cfg.PlayerName, cfg.Player, s.inv, items, src, s.bus, logger)
	s.combat = combat.NewResolver(s.player, s.inv, s.roller, s.bus, logger)
	s.encounter = encounter.NewResolver(cfg.Encounter, s.player, s.inv, s.combat, monsters, items, s.roller, logger)

	// The dungeon shares the dice stream's effective seed so that a
	// zero-seed run can be replayed in full from Seed().
	generator, layout, err := dungeon.Generate(src.Seed(), logger)
	if err != nil {
		return nil, err
	}
	s.generator = generator
	s.layout = layout
	s.current = layout.Entrance()

	s.player.SetChoiceHandler(s.beginMonsterChoice)
	s.encounter.SetChoiceHandler(s.beginRiddleChoice)
	s.bus.Subscribe(event.KindGameOver, func(e event.Event) {
		over := e.(event.GameOver)
		s.endRun(over.Victory, over.Cause)
	})

	// The entrance rolls on its own 4-outcome table as part of setup.
	code := s.encounter.RollCode(s.current, nil)
	s.bus.Publish(event.RoomEntered{
		RoomID: s.current.ID, X: s.current.Coord.X, Y: s.current.Coord.Y, FirstVisit: true,
	})
	s.resolveEncounter(s.current, code)
	return s, nil
}

// Bus returns the session's event bus for observers.
func (s *Session) Bus() *event.Bus { return s.bus }

// Player returns the run's progression model.
func (s *Session) Player() *player.Player { return s.player }

// Inventory returns the run's inventory.
func (s *Session) Inventory() *inventory.Inventory { return s.inv }

// Layout returns the dungeon graph.
func (s *Session) Layout() *dungeon.Layout { return s.layout }

// Seed returns the seed the run was generated from.
func (s *Session) Seed() int64 { return s.layout.Seed() }

// State returns the session state.
func (s *Session) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentRoom returns the room the player occupies.
func (s *Session) CurrentRoom() *dungeon.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Victory reports whether a finished run ended in victory.
func (s *Session) Victory() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.victory
}

// OverCause returns the terminal cause of a finished run, empty while the
// run is live.
func (s *Session) OverCause() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overCause
}

// Turns returns the global combat turn counter.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.combat.Turns()
}

// endRun transitions to the terminal state exactly once. Runs inside a bus
// handler, so it must not take the session mutex.
func (s *Session) endRun(victory bool, cause string) {
	if s.state == StateOver {
		return
	}
	s.state = StateOver
	s.victory = victory
	s.overCause = cause
	s.pending = nil
	s.logger.Info("run over", zap.Bool("victory", victory), zap.String("cause", cause))
	s.bus.Publish(event.GameStateChanged{State: string(StateOver)})
}

func (s *Session) setState(st GameState) {
	if s.state == StateOver || s.state == st {
		return
	}
	s.state = st
	s.bus.Publish(event.GameStateChanged{State: string(st)})
}

// guard rejects commands in terminal or choice-pending states.
func (s *Session) guard() error {
	if s.state == StateOver {
		return ErrGameOver
	}
	if s.pending != nil {
		return ErrChoicePending
	}
	return nil
}

// Move walks the player through a connected exit. First entry marks the
// room explored, rolls its exits, checks for the trapped condition, and
// rolls its encounter before the room-entered event fires; the encounter
// resolves after it.
func (s *Session) Move(dir dungeon.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.state != StateExploring && s.state != StateMerchant {
		s.logger.Warn("move outside exploration", zap.String("state", string(s.state)))
		return ErrNotExploring
	}
	next, ok := s.current.Neighbor(dir)
	if !ok {
		s.logger.Warn("move with no exit", zap.String("direction", string(dir)))
		return ErrNoExit
	}

	if s.state == StateMerchant {
		s.inv.SetSellMode(false)
		s.setState(StateExploring)
	}

	from := s.current
	s.bus.Publish(event.RoomExited{RoomID: from.ID})
	s.current = next
	s.bus.Publish(event.PlayerMoved{FromRoomID: from.ID, ToRoomID: next.ID, Direction: string(dir)})

	first := !next.Explored
	if first {
		next.Explored = true
		s.player.CreditRoom()
		if s.state == StateOver {
			return nil
		}
	}
	next.Visible = true

	if !next.ExitsRolled {
		revealed, err := s.generator.RollExits(next)
		if err != nil {
			return err
		}
		for _, r := range revealed {
			s.bus.Publish(event.RoomRevealed{RoomID: r.ID, X: r.Coord.X, Y: r.Coord.Y})
		}
	}

	if s.layout.Trapped(next) {
		s.bus.Publish(event.GameOver{Victory: false, Cause: "trapped with no way forward"})
		return nil
	}

	code := s.encounter.RollCode(next, s.chosenCode)
	if !s.player.HasRoomOmen() {
		// Either no charm was held or the roll just consumed it.
		s.chosenCode = nil
	}
	s.bus.Publish(event.RoomEntered{RoomID: next.ID, X: next.Coord.X, Y: next.Coord.Y, FirstVisit: first})

	if !next.Cleared {
		s.resolveEncounter(next, code)
	}
	return nil
}

// resolveEncounter dispatches the encounter and applies the resulting
// session state, respecting any game-over or pending choice raised along
// the way.
func (s *Session) resolveEncounter(room *dungeon.Room, code encounter.Code) {
	outcome := s.encounter.Resolve(room, code)
	if s.state == StateOver {
		return
	}
	switch outcome {
	case encounter.OutcomeCombat:
		s.setState(StateInCombat)
	case encounter.OutcomeMerchant:
		s.setState(StateMerchant)
	default:
		if s.pending == nil {
			s.setState(StateExploring)
		}
	}
}

// Attack resolves one combat round.
func (s *Session) Attack() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.state != StateInCombat {
		return ErrNotInCombat
	}
	s.combat.PlayerAttack()
	s.afterCombat()
	return nil
}

// Flee abandons the combat at the cost of a d4 of unmitigated damage and
// the room's exploration credit.
func (s *Session) Flee() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.state != StateInCombat {
		return ErrNotInCombat
	}
	s.combat.PlayerFlee()
	s.afterCombat()
	return nil
}

// TryReroll spends the player's one-shot reroll charge on the most recent
// attack.
func (s *Session) TryReroll() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return false, err
	}
	if s.state != StateInCombat {
		return false, ErrNotInCombat
	}
	ok := s.combat.TryReroll()
	s.afterCombat()
	return ok, nil
}

// afterCombat applies the combat resolver's terminal state to the session.
func (s *Session) afterCombat() {
	if s.state == StateOver {
		return
	}
	switch s.combat.State() {
	case combat.StateVictory:
		s.current.Cleared = true
		if s.pending == nil {
			s.setState(StateExploring)
		}
	case combat.StateFled:
		s.setState(StateExploring)
	}
}

// UseItem consumes one charge of the stack at index, or sells one unit
// while merchant sell-mode is active.
func (s *Session) UseItem(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.state == StateMerchant {
		_, err := s.inv.SellStack(index)
		return err
	}
	if s.state != StateExploring && s.state != StateInCombat {
		return ErrNotExploring
	}

	stacks := s.inv.Stacks()
	if index < 0 || index >= len(stacks) {
		return inventory.ErrNoSuchStack
	}
	def := stacks[index].Def

	switch def.Kind {
	case catalog.KindDamage:
		if s.state != StateInCombat {
			s.logger.Warn("attack item used outside combat", zap.String("id", def.ID))
			return ErrNotInCombat
		}
	case catalog.KindRope, catalog.KindArmor:
		// Passive gear works by being carried.
		s.logger.Debug("passive item has no use action", zap.String("id", def.ID))
		return nil
	}

	used, err := s.inv.ConsumeCharge(index)
	if err != nil {
		return err
	}
	s.applyItem(used)
	return nil
}

// applyItem dispatches a consumed item's effect.
func (s *Session) applyItem(def *catalog.ItemDef) {
	switch def.Kind {
	case catalog.KindHeal:
		if f, ok := def.Effect(); ok {
			s.player.Heal(s.roller.Roll(f))
		}
	case catalog.KindDamage:
		if f, ok := def.Effect(); ok {
			s.combat.DirectDamage(s.roller.Roll(f))
			s.afterCombat()
		}
	default:
		if def.IsScroll() {
			s.player.ConsumeScroll(def)
			if def.Kind == catalog.KindScrollRoomOmen {
				s.beginNextRoomChoice()
			}
		}
	}
}

// EquipWeapon swaps the spare weapon at index into the equipped slot, or
// sells it while merchant sell-mode is active.
func (s *Session) EquipWeapon(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.state == StateMerchant {
		_, err := s.inv.SellWeapon(index)
		return err
	}
	if s.state != StateExploring {
		return ErrNotExploring
	}
	return s.inv.Equip(index)
}

// SellItem sells one unit of the stack at index to the merchant.
func (s *Session) SellItem(index int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return 0, err
	}
	if s.state != StateMerchant {
		return 0, ErrNotAtMerchant
	}
	return s.inv.SellStack(index)
}

// SellWeapon sells the spare weapon at index to the merchant.
func (s *Session) SellWeapon(index int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return 0, err
	}
	if s.state != StateMerchant {
		return 0, ErrNotAtMerchant
	}
	return s.inv.SellWeapon(index)
}

// BuyItem purchases the shop item with the given catalog ID.
func (s *Session) BuyItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.state != StateMerchant {
		return ErrNotAtMerchant
	}
	def, ok := s.items.Item(id)
	if !ok || !def.Shop {
		return ErrNotInCatalog
	}
	return s.inv.BuyItem(def)
}

// BuyWeapon purchases the shop weapon with the given catalog ID.
func (s *Session) BuyWeapon(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.state != StateMerchant {
		return ErrNotAtMerchant
	}
	def, ok := s.items.Weapon(id)
	if !ok || !def.Shop {
		return ErrNotInCatalog
	}
	return s.inv.BuyWeapon(def)
}

// ShopCatalog returns the merchant's fixed stock.
func (s *Session) ShopCatalog() ([]*catalog.WeaponDef, []*catalog.ItemDef) {
	return s.items.ShopWeapons(), s.items.ShopItems()
}

// LevelUpBySilver triggers the currency leveling gate.
func (s *Session) LevelUpBySilver() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.state != StateExploring && s.state != StateMerchant {
		return ErrNotExploring
	}
	return s.player.LevelUpBySilver()
}
