package dungeon

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// Seeded is the randomness a Generator consumes: raw draws plus the
// effective seed for reproducibility records.
type Seeded interface {
	dice.Source
	Seed() int64
}

// Generator builds and lazily expands one dungeon Layout. All randomness
// flows through a single seeded source, so a layout is fully reproducible
// from its recorded seed.
type Generator struct {
	layout *Layout
	src    Seeded
	logger *zap.Logger
}

// Generate creates a new layout for the given seed and returns its
// generator. A zero seed picks a fresh time-derived value; the effective
// seed is recorded on the layout either way.
//
// Precondition: logger must be non-nil.
// Postcondition: the layout contains exactly one entrance room at the grid
// origin, pre-marked explored, cleared, and visible, with its exits already
// rolled (the game always starts with at least one reachable room).
func Generate(seed int64, logger *zap.Logger) (*Generator, *Layout, error) {
	src := dice.NewSeeded(seed)
	layout := newLayout(src.Seed())
	g := &Generator{layout: layout, src: src, logger: logger}

	entrance := newRoom(Coord{X: 0, Y: 0}, KindEntrance)
	entrance.Explored = true
	entrance.Cleared = true
	entrance.Visible = true
	if err := layout.addRoom(entrance); err != nil {
		return nil, nil, err
	}
	layout.entrance = entrance

	if _, err := g.RollExits(entrance); err != nil {
		return nil, nil, err
	}

	logger.Debug("dungeon generated",
		zap.Int64("seed", layout.Seed()),
		zap.Int("entrance_max_exits", entrance.MaxExits),
		zap.Int("rooms", layout.RoomCount()),
	)
	return g, layout, nil
}

// Layout returns the generator's layout.
func (g *Generator) Layout() *Layout { return g.layout }

// RollExits determines the room's total connection budget and materializes
// its new exits. Called exactly once per room, on first entry.
//
// The exit count comes from a d4: 1 = dead end (no exits beyond the one
// entered from), 2/3/4 = one/two/three additional exits. A dead-end roll is
// rejected and re-rolled on {2,3,4} when no other room in the layout is
// unexplored, so the player is never stranded by the roll itself.
//
// For each new exit slot, taken in shuffled direction order: an already
// occupied adjacent cell is merged (connected directly, made visible, no
// new room); an empty cell gets a fresh Normal room, visible but
// unexplored. Connections are always established bidirectionally in the
// same operation.
//
// Precondition: room must belong to this generator's layout.
// Postcondition: room.ExitsRolled is true; room.ConnectionCount() <=
// room.MaxExits; returns the rooms newly revealed by this roll.
func (g *Generator) RollExits(room *Room) ([]*Room, error) {
	if room.ExitsRolled {
		return nil, fmt.Errorf("dungeon: exits already rolled for %q", room.ID)
	}

	roll := g.src.Intn(4) + 1
	if roll == 1 && !g.layout.hasOtherUnexplored(room) {
		roll = g.src.Intn(3) + 2
		g.logger.Debug("dead-end suppressed", zap.String("room", room.ID), zap.Int("reroll", roll))
	}

	// The budget counts every link the room already carries (merges may have
	// connected more than one entry link before this roll) plus the rolled
	// additional exits, so realized connections never exceed MaxExits.
	entryLinks := room.ConnectionCount()
	if entryLinks < 1 {
		entryLinks = 1 // the entrance has no entry link but budgets as if it had one
	}
	room.MaxExits = entryLinks + (roll - 1)
	room.ExitsRolled = true

	var revealed []*Room
	needed := room.MaxExits - room.ConnectionCount()
	for _, dir := range g.shuffledDirections(room.OpenDirections()) {
		if needed <= 0 {
			break
		}
		cell := room.Coord.Offset(dir)
		if existing, occupied := g.layout.RoomAt(cell); occupied {
			// Merge into the existing room instead of creating a new one,
			// unless its own rolled budget is already spent.
			if existing.ExitsRolled && !existing.CanAddExit() {
				continue
			}
			if err := g.layout.connect(room, existing, dir); err != nil {
				return nil, err
			}
			if !existing.Visible {
				existing.Visible = true
				revealed = append(revealed, existing)
			}
		} else {
			fresh := newRoom(cell, KindNormal)
			fresh.Visible = true
			if err := g.layout.addRoom(fresh); err != nil {
				return nil, err
			}
			if err := g.layout.connect(room, fresh, dir); err != nil {
				return nil, err
			}
			revealed = append(revealed, fresh)
		}
		needed--
	}

	g.logger.Debug("exits rolled",
		zap.String("room", room.ID),
		zap.Int("max_exits", room.MaxExits),
		zap.Int("connections", room.ConnectionCount()),
		zap.Int("revealed", len(revealed)),
	)
	return revealed, nil
}

// shuffledDirections Fisher-Yates shuffles dirs in place using the seeded
// source and returns it.
func (g *Generator) shuffledDirections(dirs []Direction) []Direction {
	for i := len(dirs) - 1; i > 0; i-- {
		j := g.src.Intn(i + 1)
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs
}
