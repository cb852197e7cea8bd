// Package inventory provides the player's item stacks, spare weapons,
// silver, and the equip/buy/sell operations of the economic loop.
package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/event"
)

// Capacity limits and sentinel errors form the closed rejection-reason set
// callers probe before acting.
var (
	ErrInventoryFull      = errors.New("inventory: no free item slot")
	ErrWeaponSlotsFull    = errors.New("inventory: no free weapon slot")
	ErrNoSuchStack        = errors.New("inventory: stack not found")
	ErrNoSuchWeapon       = errors.New("inventory: weapon not found")
	ErrInsufficientSilver = errors.New("inventory: not enough silver")
)

// ItemStack is a run-scoped item holding. Quantity units share identical
// use-count semantics; a unit whose remaining uses diverge is split into
// its own stack.
type ItemStack struct {
	// InstanceID uniquely identifies this stack within the run.
	InstanceID string
	// Def is the stack's cloned catalog definition.
	Def *catalog.ItemDef
	// Uses is the remaining charges per unit: -1 unlimited, N > 0 charges.
	Uses int
	// Quantity is the number of units in the stack, always >= 1.
	Quantity int
}

// CanMerge reports whether a unit with the given def and uses may join this
// stack: same item and exactly agreeing use-count semantics (both
// unlimited, or equal finite counts). Differing finite counts never merge.
func (s *ItemStack) CanMerge(def *catalog.ItemDef, uses int) bool {
	return s.Def.ID == def.ID && s.Uses == uses
}

// Inventory owns the player's stacks, spare weapons, and silver. All
// mutation publishes events on the session bus.
// Not safe for concurrent use; the session serializes access.
type Inventory struct {
	maxSlots       int
	maxWeaponSlots int
	stacks         []*ItemStack
	weapons        []*catalog.WeaponDef
	equipped       *catalog.WeaponDef
	silver         int
	sellMode       bool
	bus            *event.Bus
}

// New creates an empty Inventory publishing to bus.
//
// Precondition: maxSlots >= 1, maxWeaponSlots >= 1, bus must be non-nil.
func New(maxSlots, maxWeaponSlots int, bus *event.Bus) *Inventory {
	return &Inventory{
		maxSlots:       maxSlots,
		maxWeaponSlots: maxWeaponSlots,
		bus:            bus,
	}
}

// Silver returns the current silver balance.
func (inv *Inventory) Silver() int { return inv.silver }

// GainSilver adds n silver.
//
// Precondition: n >= 0.
// Postcondition: balance increased by n; SilverChanged published.
func (inv *Inventory) GainSilver(n int) {
	if n <= 0 {
		return
	}
	inv.silver += n
	inv.bus.Publish(event.SilverChanged{Amount: inv.silver})
}

// SpendSilver removes exactly n silver.
//
// Postcondition: returns ErrInsufficientSilver and leaves the balance
// untouched when the balance is below n.
func (inv *Inventory) SpendSilver(n int) error {
	if n > inv.silver {
		return ErrInsufficientSilver
	}
	inv.silver -= n
	inv.bus.Publish(event.SilverChanged{Amount: inv.silver})
	return nil
}

// StealSilver removes up to n silver.
//
// Postcondition: returns the amount actually taken, in [0, n].
func (inv *Inventory) StealSilver(n int) int {
	if n <= 0 {
		return 0
	}
	taken := n
	if taken > inv.silver {
		taken = inv.silver
	}
	if taken > 0 {
		inv.silver -= taken
		inv.bus.Publish(event.SilverChanged{Amount: inv.silver})
	}
	return taken
}

// AddItem places one unit of def into the inventory, merging into an
// existing stack when the use-count semantics agree exactly.
//
// Postcondition: on success one unit is added and InventoryChanged is
// published; on ErrInventoryFull the inventory is unchanged.
func (inv *Inventory) AddItem(def *catalog.ItemDef) error {
	for _, s := range inv.stacks {
		if s.CanMerge(def, def.Uses) {
			s.Quantity++
			inv.bus.Publish(event.InventoryChanged{})
			return nil
		}
	}
	if len(inv.stacks) >= inv.maxSlots {
		return ErrInventoryFull
	}
	inv.stacks = append(inv.stacks, &ItemStack{
		InstanceID: uuid.New().String(),
		Def:        def,
		Uses:       def.Uses,
		Quantity:   1,
	})
	inv.bus.Publish(event.InventoryChanged{})
	return nil
}

// ConsumeCharge spends one charge of one unit of the stack at index.
// An unlimited-use stack never depletes. A finite-use unit whose last
// charge is spent is destroyed; a unit left with fewer charges than its
// stack siblings splits into its own stack (differing finite counts never
// share a stack).
//
// Postcondition: returns the stack's def for effect dispatch, or
// ErrNoSuchStack; InventoryChanged published on any mutation.
func (inv *Inventory) ConsumeCharge(index int) (*catalog.ItemDef, error) {
	if index < 0 || index >= len(inv.stacks) {
		return nil, ErrNoSuchStack
	}
	s := inv.stacks[index]
	def := s.Def

	switch {
	case s.Uses == catalog.UsesUnlimited:
		// Unlimited items never deplete.
	case s.Uses == 1:
		// Last charge of one unit: the unit is destroyed.
		s.Quantity--
		if s.Quantity <= 0 {
			inv.stacks = append(inv.stacks[:index], inv.stacks[index+1:]...)
		}
	default:
		if s.Quantity == 1 {
			s.Uses--
		} else {
			// Split the spent unit off; its remaining count now differs.
			s.Quantity--
			inv.stacks = append(inv.stacks, &ItemStack{
				InstanceID: uuid.New().String(),
				Def:        s.Def.Clone(),
				Uses:       s.Uses - 1,
				Quantity:   1,
			})
		}
	}
	inv.bus.Publish(event.InventoryChanged{})
	return def, nil
}

// RemoveStack removes one whole unit from the stack at index, destroying
// the stack when its last unit goes.
//
// Postcondition: returns the removed unit's def, or ErrNoSuchStack.
func (inv *Inventory) RemoveStack(index int) (*catalog.ItemDef, error) {
	if index < 0 || index >= len(inv.stacks) {
		return nil, ErrNoSuchStack
	}
	s := inv.stacks[index]
	def := s.Def
	s.Quantity--
	if s.Quantity <= 0 {
		inv.stacks = append(inv.stacks[:index], inv.stacks[index+1:]...)
	}
	inv.bus.Publish(event.InventoryChanged{})
	return def, nil
}

// Stacks returns a snapshot of the item stacks in slot order.
func (inv *Inventory) Stacks() []*ItemStack {
	out := make([]*ItemStack, len(inv.stacks))
	copy(out, inv.stacks)
	return out
}

// UsedSlots returns the number of occupied item slots.
func (inv *Inventory) UsedSlots() int { return len(inv.stacks) }

// HasKind reports whether any stack holds an item of the given kind.
// Used for the rope and armor ownership checks.
func (inv *Inventory) HasKind(kind string) bool {
	for _, s := range inv.stacks {
		if s.Def.Kind == kind {
			return true
		}
	}
	return false
}

// Equipped returns the currently equipped weapon, nil when unarmed.
func (inv *Inventory) Equipped() *catalog.WeaponDef { return inv.equipped }

// Weapons returns a snapshot of the spare (unequipped) weapons.
func (inv *Inventory) Weapons() []*catalog.WeaponDef {
	out := make([]*catalog.WeaponDef, len(inv.weapons))
	copy(out, inv.weapons)
	return out
}

// AddWeapon stores w as a spare weapon.
//
// Postcondition: ErrWeaponSlotsFull when no slot is free; otherwise the
// weapon is stored and InventoryChanged published.
func (inv *Inventory) AddWeapon(w *catalog.WeaponDef) error {
	if len(inv.weapons) >= inv.maxWeaponSlots {
		return ErrWeaponSlotsFull
	}
	inv.weapons = append(inv.weapons, w)
	inv.bus.Publish(event.InventoryChanged{})
	return nil
}

// Equip swaps the spare weapon at index into the equipped slot. A
// previously equipped weapon returns to the freed spare slot.
//
// Postcondition: Equipped() is the chosen weapon; WeaponChanged published.
func (inv *Inventory) Equip(index int) error {
	if index < 0 || index >= len(inv.weapons) {
		return ErrNoSuchWeapon
	}
	chosen := inv.weapons[index]
	if inv.equipped != nil {
		inv.weapons[index] = inv.equipped
	} else {
		inv.weapons = append(inv.weapons[:index], inv.weapons[index+1:]...)
	}
	inv.equipped = chosen
	inv.bus.Publish(event.WeaponChanged{Name: chosen.Name})
	inv.bus.Publish(event.InventoryChanged{})
	return nil
}

// EquipDirect equips w immediately, returning any previously equipped
// weapon to the spare slots (dropped with a false return when full).
//
// Postcondition: Equipped() == w; returns true iff no weapon was lost.
func (inv *Inventory) EquipDirect(w *catalog.WeaponDef) bool {
	kept := true
	if inv.equipped != nil {
		if err := inv.AddWeapon(inv.equipped); err != nil {
			kept = false
		}
	}
	inv.equipped = w
	inv.bus.Publish(event.WeaponChanged{Name: w.Name})
	return kept
}

// Unequip moves the equipped weapon to a spare slot, leaving the player
// unarmed. Unequipping while unarmed is a no-op.
//
// Postcondition: Equipped() is nil on success; ErrWeaponSlotsFull leaves
// the weapon equipped.
func (inv *Inventory) Unequip() error {
	if inv.equipped == nil {
		return nil
	}
	if err := inv.AddWeapon(inv.equipped); err != nil {
		return err
	}
	inv.equipped = nil
	inv.bus.Publish(event.WeaponChanged{Name: ""})
	return nil
}

// SellMode reports whether merchant sell-mode is active.
func (inv *Inventory) SellMode() bool { return inv.sellMode }

// SetSellMode toggles merchant sell-mode; while active, item and weapon
// interactions sell instead of use/equip.
func (inv *Inventory) SetSellMode(on bool) { inv.sellMode = on }

// SellStack sells one unit of the stack at index for its sell price.
//
// Postcondition: the unit is removed and the silver credited.
func (inv *Inventory) SellStack(index int) (int, error) {
	def, err := inv.RemoveStack(index)
	if err != nil {
		return 0, err
	}
	inv.GainSilver(def.SellPrice)
	return def.SellPrice, nil
}

// SellWeapon sells the spare weapon at index for its sell price. The
// equipped weapon cannot be sold without unequipping first.
//
// Postcondition: the weapon is removed and the silver credited.
func (inv *Inventory) SellWeapon(index int) (int, error) {
	if index < 0 || index >= len(inv.weapons) {
		return 0, ErrNoSuchWeapon
	}
	w := inv.weapons[index]
	inv.weapons = append(inv.weapons[:index], inv.weapons[index+1:]...)
	inv.GainSilver(w.SellPrice)
	inv.bus.Publish(event.InventoryChanged{})
	return w.SellPrice, nil
}

// BuyItem purchases one unit of def at its buy price.
//
// Postcondition: on any failure the silver and stacks are unchanged.
func (inv *Inventory) BuyItem(def *catalog.ItemDef) error {
	if inv.silver < def.BuyPrice {
		return ErrInsufficientSilver
	}
	canMerge := false
	for _, s := range inv.stacks {
		if s.CanMerge(def, def.Uses) {
			canMerge = true
			break
		}
	}
	if !canMerge && len(inv.stacks) >= inv.maxSlots {
		return ErrInventoryFull
	}
	if err := inv.SpendSilver(def.BuyPrice); err != nil {
		return err
	}
	return inv.AddItem(def)
}

// BuyWeapon purchases w at its buy price into a spare slot.
//
// Postcondition: on any failure the silver and weapons are unchanged.
func (inv *Inventory) BuyWeapon(w *catalog.WeaponDef) error {
	if inv.silver < w.BuyPrice {
		return ErrInsufficientSilver
	}
	if len(inv.weapons) >= inv.maxWeaponSlots {
		return ErrWeaponSlotsFull
	}
	if err := inv.SpendSilver(w.BuyPrice); err != nil {
		return err
	}
	return inv.AddWeapon(w)
}

// String summarizes the inventory for logs.
func (inv *Inventory) String() string {
	return fmt.Sprintf("inventory{stacks=%d weapons=%d silver=%d}", len(inv.stacks), len(inv.weapons), inv.silver)
}
