// Package monster provides monster template definitions and per-encounter
// instance cloning.
package monster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/effect"
)

// Monster difficulty tiers.
const (
	TierWeak  = "weak"
	TierTough = "tough"
)

// validTiers is the set of valid Template tiers.
var validTiers = map[string]bool{
	TierWeak:  true,
	TierTough: true,
}

// Template defines a reusable monster archetype loaded from YAML.
// Templates are immutable after load; combat always runs against an
// Instance cloned from a template.
type Template struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	Tier         string        `yaml:"tier"`
	HitThreshold int           `yaml:"hit_threshold"` // attacker hits when d6+bonus >= this
	MaxHP        int           `yaml:"max_hp"`
	DamageDice   string        `yaml:"damage_dice"`
	XP           int           `yaml:"xp"`
	Effects      []effect.Spec `yaml:"effects"`

	damage dice.Formula
}

// Damage returns the parsed base damage formula.
//
// Precondition: the template has passed Validate.
func (t *Template) Damage() dice.Formula {
	return t.damage
}

// Validate checks that the template satisfies basic invariants and that
// every effect spec is well formed.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff the template is usable; Damage() is parsed.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if !validTiers[t.Tier] {
		return fmt.Errorf("monster template %q: tier must be weak or tough; got %q", t.ID, t.Tier)
	}
	if t.HitThreshold < 1 {
		return fmt.Errorf("monster template %q: hit_threshold must be >= 1", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("monster template %q: max_hp must be >= 1", t.ID)
	}
	if t.XP < 0 {
		return fmt.Errorf("monster template %q: xp must be >= 0", t.ID)
	}
	f, err := dice.Parse(t.DamageDice)
	if err != nil {
		return fmt.Errorf("monster template %q: damage_dice: %w", t.ID, err)
	}
	t.damage = f
	for i, spec := range t.Effects {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("monster template %q: effects[%d]: %w", t.ID, i, err)
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single monster template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing monster YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", entry.Name(), err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", entry.Name(), err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// Registry holds all known monster templates keyed by ID and exposes
// seeded random draws per tier.
type Registry struct {
	templates map[string]*Template
	factory   *effect.Factory
}

// NewRegistry creates a Registry whose instances build effect hooks with
// the given factory.
//
// Precondition: factory must not be nil.
func NewRegistry(factory *effect.Factory) *Registry {
	return &Registry{
		templates: make(map[string]*Template),
		factory:   factory,
	}
}

// Register adds tmpl to the registry.
//
// Precondition: tmpl must have passed Validate.
// Postcondition: returns error if tmpl.ID is already registered.
func (r *Registry) Register(tmpl *Template) error {
	if _, exists := r.templates[tmpl.ID]; exists {
		return fmt.Errorf("monster: template ID %q already registered", tmpl.ID)
	}
	r.templates[tmpl.ID] = tmpl
	return nil
}

// LoadDirectory reads every template in dir into the registry.
//
// Precondition: dir must be a readable directory.
func (r *Registry) LoadDirectory(dir string) error {
	templates, err := LoadTemplates(dir)
	if err != nil {
		return err
	}
	for _, tmpl := range templates {
		if err := r.Register(tmpl); err != nil {
			return err
		}
	}
	return nil
}

// Template returns the registered template for id.
//
// Postcondition: ok is true iff id is registered.
func (r *Registry) Template(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// Spawn clones a fresh Instance of the template with the given ID.
// Effect hooks are constructed fresh for the instance; no hook state is
// shared with previous encounters against the same template.
//
// Postcondition: Instance HP equals the template max HP.
func (r *Registry) Spawn(id string) (*Instance, error) {
	tmpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("monster: unknown template %q", id)
	}
	hooks, err := r.factory.BuildAll(tmpl.Effects)
	if err != nil {
		return nil, fmt.Errorf("monster: building effects for %q: %w", id, err)
	}
	return newInstance(tmpl, hooks), nil
}

// SpawnRandom clones an Instance of a uniform random template of the tier.
//
// Precondition: src must be non-nil.
// Postcondition: Returns an Instance, or an error if the tier is empty.
func (r *Registry) SpawnRandom(tier string, src dice.Source) (*Instance, error) {
	ids := r.tierIDs(tier)
	if len(ids) == 0 {
		return nil, fmt.Errorf("monster: no templates of tier %q", tier)
	}
	return r.Spawn(ids[src.Intn(len(ids))])
}

// Names returns the sorted display names of all templates of the tier.
// Used by the level-up halved-damage choice.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (r *Registry) Names(tier string) []string {
	ids := r.tierIDs(tier)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, r.templates[id].Name)
	}
	return names
}

// tierIDs returns sorted template IDs of the tier; sorting keeps seeded
// draws independent of map iteration order.
func (r *Registry) tierIDs(tier string) []string {
	var ids []string
	for id, t := range r.templates {
		if t.Tier == tier {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of registered templates.
func (r *Registry) Count() int { return len(r.templates) }
