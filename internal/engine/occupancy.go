package engine

import (
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/vehicle"
)

// occupancy maps each cell to the vehicles holding it as their committed position.
// Only the session mutates it; a successful claim moves the holder at move start so
// vehicles updated later in the same tick already see the destination as taken.
type occupancy struct {
	cells map[grid.Cell]mapset.Set[vehicle.ID]
}

func newOccupancy() *occupancy {
	return &occupancy{cells: make(map[grid.Cell]mapset.Set[vehicle.ID])}
}

// occupant returns the lowest id other than except holding c.
func (o *occupancy) occupant(c grid.Cell, except vehicle.ID) (vehicle.ID, bool) {
	set, ok := o.cells[c]
	if !ok {
		return 0, false
	}
	var found vehicle.ID
	set.Each(func(id vehicle.ID) {
		if id != except && (found == 0 || id < found) {
			found = id
		}
	})
	return found, found != 0
}

// isFree reports whether c holds no vehicle other than requester.
func (o *occupancy) isFree(c grid.Cell, requester vehicle.ID) bool {
	_, taken := o.occupant(c, requester)
	return !taken
}

func (o *occupancy) put(id vehicle.ID, c grid.Cell) {
	set, ok := o.cells[c]
	if !ok {
		set = mapset.New[vehicle.ID]()
		o.cells[c] = set
	}
	set.Put(id)
}

func (o *occupancy) release(id vehicle.ID, c grid.Cell) {
	set, ok := o.cells[c]
	if !ok {
		return
	}
	set.Remove(id)
	if set.Size() == 0 {
		delete(o.cells, c)
	}
}

// claim moves id from `from` to `to` unless another vehicle holds `to`.
func (o *occupancy) claim(id vehicle.ID, from, to grid.Cell) (vehicle.ID, bool) {
	if blocker, taken := o.occupant(to, id); taken {
		return blocker, false
	}
	o.release(id, from)
	o.put(id, to)
	return 0, true
}

func (o *occupancy) clear() {
	clear(o.cells)
}

// maxLoad returns the largest number of vehicles sharing one cell.
func (o *occupancy) maxLoad() int {
	n := 0
	for _, set := range o.cells {
		n = max(n, set.Size())
	}
	return n
}

// occupied returns the held cells in row-major order.
func (o *occupancy) occupied() []grid.Cell {
	out := make([]grid.Cell, 0, len(o.cells))
	for c := range o.cells {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b grid.Cell) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	return out
}
