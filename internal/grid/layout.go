package grid

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zyedidia/generic/mapset"
)

// Errors returned by Layout edits. Callers test them with errors.Is.
var (
	ErrOutOfBounds    = errors.New("cell out of bounds")
	ErrBlockedCell    = errors.New("cell is blocked")
	ErrRoadExists     = errors.New("road already exists")
	ErrNoRoad         = errors.New("no road at cell")
	ErrBudgetExceeded = errors.New("road budget exceeded")
)

// Road is a player-built cell. With no directions it is open to every orthogonal
// neighbour; otherwise traversal out of it follows the directions in the order added.
type Road struct {
	Cell       Cell        `json:"cell"`
	Directions []Direction `json:"directions,omitempty"`
}

// Open reports whether the road carries no direction annotations.
func (r Road) Open() bool { return len(r.Directions) == 0 }

// Exits returns the orthogonal directions a vehicle may leave the road by.
func (r Road) Exits() []Direction {
	if r.Open() {
		return Orthogonal
	}
	exits := make([]Direction, 0, len(r.Directions))
	for _, d := range r.Directions {
		for _, s := range d.Steps() {
			if !slices.Contains(exits, s) {
				exits = append(exits, s)
			}
		}
	}
	return exits
}

// Layout is the mutable road network of a level: blocked cells are fixed, roads are
// edited by the player between runs. Version increments on every successful edit.
type Layout struct {
	Dims
	Budget int // maximum number of roads; 0 means unlimited

	blocked mapset.Set[Cell]
	roads   map[Cell]*Road
	order   []Cell
	version uint64
}

// NewLayout creates an empty layout.
func NewLayout(dims Dims, blocked []Cell, budget int) *Layout {
	l := &Layout{
		Dims:    dims,
		Budget:  budget,
		blocked: mapset.New[Cell](),
		roads:   make(map[Cell]*Road),
	}
	for _, c := range blocked {
		l.blocked.Put(c)
	}
	return l
}

// Version returns the edit counter.
func (l *Layout) Version() uint64 { return l.version }

// IsBlocked reports whether c is a permanently blocked cell.
func (l *Layout) IsBlocked(c Cell) bool { return l.blocked.Has(c) }

// IsRoad reports whether c holds a road.
func (l *Layout) IsRoad(c Cell) bool {
	_, ok := l.roads[c]
	return ok
}

// Road returns a copy of the road at c.
func (l *Layout) Road(c Cell) (Road, bool) {
	r, ok := l.roads[c]
	if !ok {
		return Road{}, false
	}
	return Road{Cell: r.Cell, Directions: slices.Clone(r.Directions)}, true
}

// Roads returns copies of all roads in placement order.
func (l *Layout) Roads() []Road {
	out := make([]Road, 0, len(l.order))
	for _, c := range l.order {
		r, _ := l.Road(c)
		out = append(out, r)
	}
	return out
}

// Len returns the number of placed roads.
func (l *Layout) Len() int { return len(l.order) }

// Remaining returns how many more roads fit in the budget, or -1 when unlimited.
func (l *Layout) Remaining() int {
	if l.Budget <= 0 {
		return -1
	}
	return l.Budget - len(l.order)
}

// AddRoad places an open road at c.
func (l *Layout) AddRoad(c Cell) error {
	if !l.InBounds(c) {
		return fmt.Errorf("add road %v: %w", c, ErrOutOfBounds)
	}
	if l.IsBlocked(c) {
		return fmt.Errorf("add road %v: %w", c, ErrBlockedCell)
	}
	if l.IsRoad(c) {
		return fmt.Errorf("add road %v: %w", c, ErrRoadExists)
	}
	if l.Remaining() == 0 {
		return fmt.Errorf("add road %v: %w", c, ErrBudgetExceeded)
	}
	l.roads[c] = &Road{Cell: c}
	l.order = append(l.order, c)
	l.version++
	return nil
}

// RemoveRoad deletes the road at c.
func (l *Layout) RemoveRoad(c Cell) error {
	if !l.IsRoad(c) {
		return fmt.Errorf("remove road %v: %w", c, ErrNoRoad)
	}
	delete(l.roads, c)
	l.order = slices.DeleteFunc(l.order, func(o Cell) bool { return o == c })
	l.version++
	return nil
}

// SetDirections replaces the direction annotations of the road at c.
// An empty list reopens the road.
func (l *Layout) SetDirections(c Cell, dirs []Direction) error {
	r, ok := l.roads[c]
	if !ok {
		return fmt.Errorf("set directions %v: %w", c, ErrNoRoad)
	}
	for _, d := range dirs {
		if len(d.Steps()) == 0 {
			return fmt.Errorf("set directions %v: unknown direction %q", c, d)
		}
	}
	r.Directions = slices.Clone(dirs)
	l.version++
	return nil
}

// AddDirection layers one more annotation onto the road at c, as a repeated drag
// gesture does. Repeating the last annotation is a no-op.
func (l *Layout) AddDirection(c Cell, d Direction) error {
	r, ok := l.roads[c]
	if !ok {
		return fmt.Errorf("add direction %v: %w", c, ErrNoRoad)
	}
	if len(d.Steps()) == 0 {
		return fmt.Errorf("add direction %v: unknown direction %q", c, d)
	}
	if n := len(r.Directions); n > 0 && r.Directions[n-1] == d {
		return nil
	}
	r.Directions = append(r.Directions, d)
	l.version++
	return nil
}
