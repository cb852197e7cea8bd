// Package catalog provides the immutable template definitions for weapons
// and items, loaded from YAML content files. Catalog lookups always return
// fresh clones; run-scoped mutation happens on the clones, never on the
// registered defs.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// Weapon tiers. TierStrong weapons are the pool the level-up reward draws from.
const (
	TierCommon = "common"
	TierStrong = "strong"
)

// validWeaponTiers is the set of valid WeaponDef tiers.
var validWeaponTiers = map[string]bool{
	TierCommon: true,
	TierStrong: true,
}

// WeaponDef defines the static properties of a weapon loaded from YAML.
type WeaponDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Tier        string `yaml:"tier"`
	DamageDice  string `yaml:"damage_dice"`
	HitBonus    int    `yaml:"hit_bonus"`
	BuyPrice    int    `yaml:"buy_price"`  // 0 = derive from damage average
	SellPrice   int    `yaml:"sell_price"` // 0 = derive from buy price
	Shop        bool   `yaml:"shop"`       // part of the fixed merchant catalog

	damage dice.Formula
}

// Damage returns the parsed damage formula.
//
// Precondition: the def has passed Validate.
func (w *WeaponDef) Damage() dice.Formula {
	return w.damage
}

// Validate checks the def's invariants and parses the damage formula.
// Zero prices are filled in from the damage average heuristic: buy price is
// five times the expected damage (rounded up, minimum 1), sell price half
// the buy price.
//
// Precondition: w is non-nil.
// Postcondition: returns nil iff all fields are valid; on success BuyPrice
// and SellPrice are nonzero and Damage() is usable.
func (w *WeaponDef) Validate() error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if w.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validWeaponTiers[w.Tier] {
		errs = append(errs, fmt.Errorf("Tier must be one of common, strong; got %q", w.Tier))
	}
	f, err := dice.Parse(w.DamageDice)
	if err != nil {
		errs = append(errs, fmt.Errorf("DamageDice: %w", err))
	}
	if w.BuyPrice < 0 || w.SellPrice < 0 {
		errs = append(errs, errors.New("prices must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon validation failed: %v", errs)
	}

	w.damage = f
	if w.BuyPrice == 0 {
		w.BuyPrice = suggestedPrice(f)
	}
	if w.SellPrice == 0 {
		w.SellPrice = w.BuyPrice / 2
		if w.SellPrice < 1 {
			w.SellPrice = 1
		}
	}
	return nil
}

// Clone returns a copy of the def for run-scoped use.
func (w *WeaponDef) Clone() *WeaponDef {
	c := *w
	return &c
}

// suggestedPrice derives a buy price from the expected damage of f.
//
// Postcondition: return value >= 1.
func suggestedPrice(f dice.Formula) int {
	p := int(math.Ceil(f.Average() * 5))
	if p < 1 {
		p = 1
	}
	return p
}

// LoadWeapons reads all *.yaml files from dir, parses each as a WeaponDef,
// validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid WeaponDefs or the first encountered error.
func LoadWeapons(dir string) ([]*WeaponDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadWeapons: cannot read directory %q: %w", dir, err)
	}

	var weapons []*WeaponDef
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadWeapons: cannot read file %q: %w", path, err)
		}
		var w WeaponDef
		if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("LoadWeapons: cannot parse file %q: %w", path, err)
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("LoadWeapons: invalid weapon in %q: %w", path, err)
		}
		weapons = append(weapons, &w)
	}
	return weapons, nil
}
