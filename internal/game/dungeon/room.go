// Package dungeon implements the incremental, seeded dungeon graph builder.
// Rooms live on a 2D integer grid; a room's exit count is rolled lazily on
// first entry, and new rooms are only materialized when an exit roll needs
// them.
package dungeon

import "fmt"

// Direction is one of the four cardinal directions.
type Direction string

// The four cardinal directions.
const (
	North Direction = "north"
	East  Direction = "east"
	South Direction = "south"
	West  Direction = "west"
)

// Cardinals lists all four directions in a fixed order. Generation code
// iterates this slice (never a map) so seeded runs stay deterministic.
var Cardinals = []Direction{North, East, South, West}

// Opposite returns the opposite cardinal direction.
//
// Precondition: d must be one of the four cardinals; returns "" otherwise.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return ""
	}
}

// IsCardinal reports whether d is one of the four cardinal directions.
func (d Direction) IsCardinal() bool {
	return d == North || d == East || d == South || d == West
}

// Coord is a position on the dungeon grid. North decreases Y, East
// increases X.
type Coord struct {
	X int
	Y int
}

// Offset returns the coordinate one step in the given direction.
//
// Precondition: dir must be a cardinal direction.
func (c Coord) Offset(dir Direction) Coord {
	switch dir {
	case North:
		return Coord{X: c.X, Y: c.Y - 1}
	case South:
		return Coord{X: c.X, Y: c.Y + 1}
	case East:
		return Coord{X: c.X + 1, Y: c.Y}
	case West:
		return Coord{X: c.X - 1, Y: c.Y}
	default:
		return c
	}
}

// String returns the "(x,y)" form.
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Kind distinguishes the entrance from ordinary rooms.
type Kind int

const (
	KindEntrance Kind = iota
	KindNormal
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case KindEntrance:
		return "entrance"
	case KindNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// Room is one node of the dungeon graph.
//
// Invariant: connections are bidirectional — neighbors[dir] == other implies
// other.neighbors[dir.Opposite()] == the room; both entries are set in the
// same Layout.connect call.
type Room struct {
	// ID is derived from the grid coordinate and unique within a layout.
	ID string
	// Coord is the room's grid cell; no two rooms in a layout share one.
	Coord Coord
	// Kind is Entrance for the origin room and Normal otherwise.
	Kind Kind

	// Explored is true once the player has entered the room.
	Explored bool
	// Cleared is true once the room's encounter has been resolved.
	Cleared bool
	// Visible is true once the room has been revealed to the player.
	Visible bool
	// ExitsRolled is true once MaxExits is authoritative.
	ExitsRolled bool
	// MaxExits is the rolled total connection budget; meaningless until
	// ExitsRolled is true.
	MaxExits int
	// Encounter is the rolled encounter code, nil until rolled.
	Encounter *int

	neighbors map[Direction]*Room
}

// newRoom creates an unconnected room at the given cell.
func newRoom(coord Coord, kind Kind) *Room {
	return &Room{
		ID:        fmt.Sprintf("room_%d_%d", coord.X, coord.Y),
		Coord:     coord,
		Kind:      kind,
		neighbors: make(map[Direction]*Room),
	}
}

// Neighbor returns the connected room in the given direction.
//
// Postcondition: ok is true iff a connection exists.
func (r *Room) Neighbor(dir Direction) (*Room, bool) {
	n, ok := r.neighbors[dir]
	return n, ok
}

// ConnectionCount returns the number of established connections.
//
// Postcondition: result is in [0, 4].
func (r *Room) ConnectionCount() int {
	return len(r.neighbors)
}

// OpenDirections returns the cardinal directions without a connection, in
// fixed cardinal order.
func (r *Room) OpenDirections() []Direction {
	var open []Direction
	for _, dir := range Cardinals {
		if _, taken := r.neighbors[dir]; !taken {
			open = append(open, dir)
		}
	}
	return open
}

// CanAddExit reports whether the room has connection budget remaining.
// Before the exit roll, the budget is unknown and CanAddExit is false by
// definition.
func (r *Room) CanAddExit() bool {
	return r.ExitsRolled && len(r.neighbors) < r.MaxExits
}

// Neighbors returns a snapshot of the direction-to-room map, in fixed
// cardinal order.
func (r *Room) Neighbors() map[Direction]*Room {
	out := make(map[Direction]*Room, len(r.neighbors))
	for _, dir := range Cardinals {
		if n, ok := r.neighbors[dir]; ok {
			out[dir] = n
		}
	}
	return out
}

// EncounterCode returns the rolled encounter code.
//
// Postcondition: ok is false until SetEncounter has been called.
func (r *Room) EncounterCode() (code int, ok bool) {
	if r.Encounter == nil {
		return 0, false
	}
	return *r.Encounter, true
}

// SetEncounter caches the rolled encounter code. Rolled once per room.
func (r *Room) SetEncounter(code int) {
	r.Encounter = &code
}
