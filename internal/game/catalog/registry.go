package catalog

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// Registry holds all loaded weapon and item definitions indexed by ID.
// Random draws iterate sorted ID order so the same seed always produces the
// same pick regardless of map iteration order.
type Registry struct {
	weapons map[string]*WeaponDef
	items   map[string]*ItemDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		weapons: make(map[string]*WeaponDef),
		items:   make(map[string]*ItemDef),
	}
}

// Load reads the weapon and item content dirs into a fresh Registry.
//
// Precondition: weaponDir and itemDir are readable directories.
// Postcondition: Returns a populated Registry or the first load error.
func Load(weaponDir, itemDir string) (*Registry, error) {
	r := NewRegistry()

	weapons, err := LoadWeapons(weaponDir)
	if err != nil {
		return nil, err
	}
	for _, w := range weapons {
		if err := r.RegisterWeapon(w); err != nil {
			return nil, err
		}
	}

	items, err := LoadItems(itemDir)
	if err != nil {
		return nil, err
	}
	for _, d := range items {
		if err := r.RegisterItem(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterWeapon adds w to the registry.
//
// Precondition:  w must not be nil and must have passed Validate.
// Postcondition: Weapon(w.ID) returns a clone of w; returns error if w.ID
// is already registered.
func (r *Registry) RegisterWeapon(w *WeaponDef) error {
	if _, exists := r.weapons[w.ID]; exists {
		return fmt.Errorf("catalog: weapon ID %q already registered", w.ID)
	}
	r.weapons[w.ID] = w
	return nil
}

// RegisterItem adds d to the registry.
//
// Precondition:  d must not be nil and must have passed Validate.
// Postcondition: Item(d.ID) returns a clone of d; returns error if d.ID
// is already registered.
func (r *Registry) RegisterItem(d *ItemDef) error {
	if _, exists := r.items[d.ID]; exists {
		return fmt.Errorf("catalog: item ID %q already registered", d.ID)
	}
	r.items[d.ID] = d
	return nil
}

// Weapon returns a fresh clone of the weapon def for id.
//
// Postcondition: ok is true iff id is registered; the clone is independent
// of the registered def.
func (r *Registry) Weapon(id string) (*WeaponDef, bool) {
	w, ok := r.weapons[id]
	if !ok {
		return nil, false
	}
	return w.Clone(), true
}

// Item returns a fresh clone of the item def for id.
//
// Postcondition: ok is true iff id is registered.
func (r *Registry) Item(id string) (*ItemDef, bool) {
	d, ok := r.items[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// RandomWeapon draws a uniform random weapon of the given tier.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a fresh clone, or an error if the tier is empty.
func (r *Registry) RandomWeapon(tier string, src dice.Source) (*WeaponDef, error) {
	var ids []string
	for id, w := range r.weapons {
		if w.Tier == tier {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("catalog: no weapons of tier %q", tier)
	}
	sort.Strings(ids)
	return r.weapons[ids[src.Intn(len(ids))]].Clone(), nil
}

// RandomItem draws a uniform random non-scroll loot item.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a fresh clone, or an error if no loot items exist.
func (r *Registry) RandomItem(src dice.Source) (*ItemDef, error) {
	return r.randomItem(src, func(d *ItemDef) bool { return d.Loot && !d.IsScroll() })
}

// RandomScroll draws a uniform random scroll loot item.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a fresh clone, or an error if no loot scrolls exist.
func (r *Registry) RandomScroll(src dice.Source) (*ItemDef, error) {
	return r.randomItem(src, func(d *ItemDef) bool { return d.Loot && d.IsScroll() })
}

func (r *Registry) randomItem(src dice.Source, keep func(*ItemDef) bool) (*ItemDef, error) {
	var ids []string
	for id, d := range r.items {
		if keep(d) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("catalog: no matching loot items")
	}
	sort.Strings(ids)
	return r.items[ids[src.Intn(len(ids))]].Clone(), nil
}

// ShopWeapons returns clones of the fixed merchant weapon catalog, sorted by ID.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (r *Registry) ShopWeapons() []*WeaponDef {
	var ids []string
	for id, w := range r.weapons {
		if w.Shop {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]*WeaponDef, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.weapons[id].Clone())
	}
	return out
}

// ShopItems returns clones of the fixed merchant item catalog, sorted by ID.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (r *Registry) ShopItems() []*ItemDef {
	var ids []string
	for id, d := range r.items {
		if d.Shop {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]*ItemDef, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id].Clone())
	}
	return out
}

// WeaponCount returns the number of registered weapons.
func (r *Registry) WeaponCount() int { return len(r.weapons) }

// ItemCount returns the number of registered items.
func (r *Registry) ItemCount() int { return len(r.items) }
