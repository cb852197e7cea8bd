package dungeon

import "fmt"

// Corridor records one bidirectional connection. The corridor list is the
// edge set redundant with the rooms' adjacency maps; both are written by
// Layout.connect and never mutated independently.
type Corridor struct {
	From      *Room
	To        *Room
	Direction Direction // direction of travel From -> To
}

// Layout is the dungeon graph: rooms keyed by ID and by coordinate, the
// corridor edge list, the designated entrance, and the generation seed.
//
// Invariant: coordinate uniqueness — no two rooms share a grid cell.
type Layout struct {
	rooms     map[string]*Room
	byCoord   map[Coord]*Room
	corridors []Corridor
	entrance  *Room
	seed      int64
}

// newLayout creates an empty layout recording the effective seed.
func newLayout(seed int64) *Layout {
	return &Layout{
		rooms:   make(map[string]*Room),
		byCoord: make(map[Coord]*Room),
		seed:    seed,
	}
}

// Seed returns the effective generation seed. Always nonzero.
func (l *Layout) Seed() int64 { return l.seed }

// Entrance returns the designated entrance room.
func (l *Layout) Entrance() *Room { return l.entrance }

// Room returns the room with the given ID.
//
// Postcondition: ok is true iff the ID exists in the layout.
func (l *Layout) Room(id string) (*Room, bool) {
	r, ok := l.rooms[id]
	return r, ok
}

// RoomAt returns the room occupying the given grid cell.
//
// Postcondition: ok is true iff the cell is occupied.
func (l *Layout) RoomAt(coord Coord) (*Room, bool) {
	r, ok := l.byCoord[coord]
	return r, ok
}

// RoomCount returns the number of rooms in the layout.
func (l *Layout) RoomCount() int { return len(l.rooms) }

// Corridors returns a snapshot of the corridor edge list.
func (l *Layout) Corridors() []Corridor {
	out := make([]Corridor, len(l.corridors))
	copy(out, l.corridors)
	return out
}

// Rooms returns all rooms in unspecified order. Callers that feed seeded
// randomness must not iterate this for draws.
func (l *Layout) Rooms() []*Room {
	out := make([]*Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		out = append(out, r)
	}
	return out
}

// addRoom inserts a room into both indexes.
//
// Precondition: the room's cell must be unoccupied.
func (l *Layout) addRoom(r *Room) error {
	if existing, taken := l.byCoord[r.Coord]; taken {
		return fmt.Errorf("dungeon: cell %s already occupied by %q", r.Coord, existing.ID)
	}
	l.rooms[r.ID] = r
	l.byCoord[r.Coord] = r
	return nil
}

// connect establishes the bidirectional connection a -[dir]-> b and appends
// the corridor, all in one operation.
//
// Precondition: b must occupy the cell adjacent to a in dir; neither side
// may already be connected in that direction.
// Postcondition: a.Neighbor(dir) == b and b.Neighbor(dir.Opposite()) == a.
func (l *Layout) connect(a, b *Room, dir Direction) error {
	opp := dir.Opposite()
	if opp == "" {
		return fmt.Errorf("dungeon: invalid direction %q", dir)
	}
	if a.Coord.Offset(dir) != b.Coord {
		return fmt.Errorf("dungeon: %q is not %s of %q", b.ID, dir, a.ID)
	}
	if _, taken := a.neighbors[dir]; taken {
		return fmt.Errorf("dungeon: %q already connected %s", a.ID, dir)
	}
	if _, taken := b.neighbors[opp]; taken {
		return fmt.Errorf("dungeon: %q already connected %s", b.ID, opp)
	}
	a.neighbors[dir] = b
	b.neighbors[opp] = a
	l.corridors = append(l.corridors, Corridor{From: a, To: b, Direction: dir})
	return nil
}

// hasOtherUnexplored reports whether any room other than exclude is
// currently unexplored. Drives the dead-end suppression rule.
func (l *Layout) hasOtherUnexplored(exclude *Room) bool {
	for _, r := range l.rooms {
		if r != exclude && !r.Explored {
			return true
		}
	}
	return false
}

// UnexploredCount returns the number of unexplored rooms.
func (l *Layout) UnexploredCount() int {
	n := 0
	for _, r := range l.rooms {
		if !r.Explored {
			n++
		}
	}
	return n
}

// Trapped reports whether no unexplored room is reachable from the given
// room over explored territory. A true result is a hard terminal defeat.
//
// Precondition: from must be a room of this layout, already marked explored.
func (l *Layout) Trapped(from *Room) bool {
	visited := map[*Room]bool{from: true}
	queue := []*Room{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dir := range Cardinals {
			next, ok := cur.neighbors[dir]
			if !ok || visited[next] {
				continue
			}
			if !next.Explored {
				return false
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return true
}
