package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// Kind constants for ItemDef.Kind.
const (
	KindHeal   = "heal"   // restores HP when used
	KindDamage = "damage" // deals direct damage to the monster in combat
	KindRope   = "rope"   // shifts the pit-trap damage distribution
	KindArmor  = "armor"  // owning one grants the d4 absorption roll

	// Scroll kinds set transient charm counters on the player.
	KindScrollAlly         = "scroll_ally"
	KindScrollShield       = "scroll_shield"
	KindScrollInvisibility = "scroll_invisibility"
	KindScrollFalseOmen    = "scroll_false_omen"
	KindScrollRoomOmen     = "scroll_room_omen"
)

// UsesUnlimited marks an item that never depletes. A positive Uses value is
// the number of remaining charges; 0 means depleted.
const UsesUnlimited = -1

// validItemKinds is the set of valid ItemDef kinds.
var validItemKinds = map[string]bool{
	KindHeal:               true,
	KindDamage:             true,
	KindRope:               true,
	KindArmor:              true,
	KindScrollAlly:         true,
	KindScrollShield:       true,
	KindScrollInvisibility: true,
	KindScrollFalseOmen:    true,
	KindScrollRoomOmen:     true,
}

// ItemDef defines the static properties of an item loaded from YAML.
type ItemDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	EffectDice  string `yaml:"effect_dice"` // heal/damage amount; empty for flag items
	Charges     int    `yaml:"charges"`     // counter granted by charm scrolls
	Uses        int    `yaml:"uses"`        // -1 unlimited, N>0 charges per instance
	BuyPrice    int    `yaml:"buy_price"`
	SellPrice   int    `yaml:"sell_price"`
	Shop        bool   `yaml:"shop"` // part of the fixed merchant catalog
	Loot        bool   `yaml:"loot"` // eligible for random room/entrance grants

	effect dice.Formula
	hasFX  bool
}

// IsScroll reports whether the item is one of the charm scroll kinds.
func (d *ItemDef) IsScroll() bool {
	return strings.HasPrefix(d.Kind, "scroll_")
}

// Effect returns the parsed effect formula.
//
// Precondition: the def has passed Validate and declared an effect_dice.
// Postcondition: ok is false when the item has no effect formula.
func (d *ItemDef) Effect() (f dice.Formula, ok bool) {
	return d.effect, d.hasFX
}

// Validate checks the def's invariants and parses the effect formula.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validItemKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("unknown kind %q", d.Kind))
	}
	if d.Uses < UsesUnlimited || d.Uses == 0 {
		errs = append(errs, fmt.Errorf("Uses must be -1 (unlimited) or > 0; got %d", d.Uses))
	}
	if d.EffectDice != "" {
		f, err := dice.Parse(d.EffectDice)
		if err != nil {
			errs = append(errs, fmt.Errorf("EffectDice: %w", err))
		} else {
			d.effect = f
			d.hasFX = true
		}
	}
	if (d.Kind == KindHeal || d.Kind == KindDamage) && d.EffectDice == "" {
		errs = append(errs, fmt.Errorf("kind %q requires effect_dice", d.Kind))
	}
	if d.IsScroll() && d.Kind != KindScrollFalseOmen && d.Kind != KindScrollRoomOmen && d.Charges < 1 {
		errs = append(errs, fmt.Errorf("kind %q requires charges >= 1", d.Kind))
	}
	if d.BuyPrice < 0 || d.SellPrice < 0 {
		errs = append(errs, errors.New("prices must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// Clone returns a copy of the def for run-scoped use.
func (d *ItemDef) Clone() *ItemDef {
	c := *d
	return &c
}

// LoadItems reads all *.yaml files from dir, parses each as an ItemDef,
// validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var d ItemDef
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
		}
		items = append(items, &d)
	}
	return items, nil
}
