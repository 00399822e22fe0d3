package graph

import (
	"slices"
	"testing"

	"github.com/cxd309/roadgrid-engine/internal/grid"
)

// rowLayout builds a rows×cols layout with an open road across the given row.
func rowLayout(t *testing.T, rows, cols, row int) *grid.Layout {
	t.Helper()
	l := grid.NewLayout(grid.Dims{Rows: rows, Cols: cols}, nil, 0)
	for c := 0; c < cols; c++ {
		if err := l.AddRoad(grid.Cell{Row: row, Col: c}); err != nil {
			t.Fatalf("AddRoad: %v", err)
		}
	}
	return l
}

func cells(pairs ...[2]int) []grid.Cell {
	out := make([]grid.Cell, len(pairs))
	for i, p := range pairs {
		out[i] = grid.Cell{Row: p[0], Col: p[1]}
	}
	return out
}

func TestStraightRowPath(t *testing.T) {
	l := rowLayout(t, 5, 5, 2)
	entrance, exit := grid.Cell{Row: 2, Col: -1}, grid.Cell{Row: 2, Col: 5}
	g := Build(l, []grid.Cell{entrance, exit})

	route, ok := g.ShortestPath(entrance, exit)
	if !ok {
		t.Fatal("expected a path across row 2")
	}
	want := cells([2]int{2, -1}, [2]int{2, 0}, [2]int{2, 1}, [2]int{2, 2}, [2]int{2, 3}, [2]int{2, 4}, [2]int{2, 5})
	if !slices.Equal(route, want) {
		t.Fatalf("route = %v, want %v", route, want)
	}
	interior := 0
	for _, c := range route {
		if l.InBounds(c) {
			interior++
		}
	}
	if interior != 5 {
		t.Errorf("interior steps = %d, want 5", interior)
	}
}

func TestPathDeterminism(t *testing.T) {
	// A 3×3 block of open roads has many equal-length routes between opposite corners.
	l := grid.NewLayout(grid.Dims{Rows: 3, Cols: 3}, nil, 0)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if err := l.AddRoad(grid.Cell{Row: r, Col: c}); err != nil {
				t.Fatal(err)
			}
		}
	}
	entrance, exit := grid.Cell{Row: 0, Col: -1}, grid.Cell{Row: 2, Col: 3}
	first, ok := Build(l, []grid.Cell{entrance, exit}).ShortestPath(entrance, exit)
	if !ok {
		t.Fatal("expected a path")
	}
	for i := 0; i < 20; i++ {
		// Fresh builds as well as cached queries must agree.
		g := Build(l, []grid.Cell{entrance, exit})
		for j := 0; j < 2; j++ {
			got, _ := g.ShortestPath(entrance, exit)
			if !slices.Equal(got, first) {
				t.Fatalf("iteration %d: route = %v, want %v", i, got, first)
			}
		}
	}
	if len(first) != 7 {
		t.Errorf("route length = %d, want 7 (sentinels + 5 interior)", len(first))
	}
}

func TestDirectionRestriction(t *testing.T) {
	l := grid.NewLayout(grid.Dims{Rows: 3, Cols: 3}, nil, 0)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if err := l.AddRoad(grid.Cell{Row: r, Col: c}); err != nil {
				t.Fatal(err)
			}
		}
	}
	centre := grid.Cell{Row: 1, Col: 1}
	if err := l.SetDirections(centre, []grid.Direction{grid.Right}); err != nil {
		t.Fatal(err)
	}
	g := Build(l, nil)

	if got := g.Successors(centre); !slices.Equal(got, []grid.Cell{{Row: 1, Col: 2}}) {
		t.Errorf("restricted successors = %v, want [(1,2)]", got)
	}
	corner := grid.Cell{Row: 0, Col: 1}
	// Scan order is up, right, down, left; up is off the grid.
	want := cells([2]int{0, 2}, [2]int{1, 1}, [2]int{0, 0})
	if got := g.Successors(corner); !slices.Equal(got, want) {
		t.Errorf("open successors = %v, want %v", got, want)
	}

	// Every route through the centre leaves it to the right.
	for _, goal := range []grid.Cell{{Row: 0, Col: 1}, {Row: 2, Col: 1}, {Row: 1, Col: 0}} {
		route, ok := g.ShortestPath(centre, goal)
		if !ok {
			t.Fatalf("no path from centre to %v", goal)
		}
		if route[1] != (grid.Cell{Row: 1, Col: 2}) {
			t.Errorf("path to %v leaves centre via %v, want (1,2)", goal, route[1])
		}
	}
}

func TestDiagonalDirectionAllowsBothComponents(t *testing.T) {
	l := grid.NewLayout(grid.Dims{Rows: 3, Cols: 3}, nil, 0)
	for _, c := range cells([2]int{1, 1}, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 1}) {
		if err := l.AddRoad(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.SetDirections(grid.Cell{Row: 1, Col: 1}, []grid.Direction{grid.UpRight}); err != nil {
		t.Fatal(err)
	}
	g := Build(l, nil)
	want := cells([2]int{0, 1}, [2]int{1, 2})
	if got := g.Successors(grid.Cell{Row: 1, Col: 1}); !slices.Equal(got, want) {
		t.Errorf("successors = %v, want %v", got, want)
	}
}

func TestNoRoadsNoPath(t *testing.T) {
	l := grid.NewLayout(grid.Dims{Rows: 5, Cols: 5}, nil, 0)
	entrance, exit := grid.Cell{Row: 2, Col: -1}, grid.Cell{Row: 2, Col: 5}
	g := Build(l, []grid.Cell{entrance, exit})
	if route, ok := g.ShortestPath(entrance, exit); ok {
		t.Fatalf("expected no path on an empty layout, got %v", route)
	}
}

func TestGapBreaksPath(t *testing.T) {
	l := rowLayout(t, 5, 5, 2)
	if err := l.RemoveRoad(grid.Cell{Row: 2, Col: 2}); err != nil {
		t.Fatal(err)
	}
	entrance, exit := grid.Cell{Row: 2, Col: -1}, grid.Cell{Row: 2, Col: 5}
	g := Build(l, []grid.Cell{entrance, exit})
	if _, ok := g.ShortestPath(entrance, exit); ok {
		t.Fatal("expected no path across the gap")
	}
	// Repeated misses stay misses.
	if _, ok := g.ShortestPath(entrance, exit); ok {
		t.Fatal("cached miss returned a path")
	}
}

func TestExitSentinelRespectsDirections(t *testing.T) {
	l := rowLayout(t, 1, 2, 0)
	exit := grid.Cell{Row: 0, Col: 2}
	if err := l.SetDirections(grid.Cell{Row: 0, Col: 1}, []grid.Direction{grid.Left}); err != nil {
		t.Fatal(err)
	}
	g := Build(l, []grid.Cell{exit})
	if g.HasStep(grid.Cell{Row: 0, Col: 1}, exit) {
		t.Error("road pointing left should not lead into the right exit")
	}
	if _, ok := g.ShortestPath(grid.Cell{Row: 0, Col: 0}, exit); ok {
		t.Error("expected no path to the exit")
	}
}

func TestGonumInterface(t *testing.T) {
	l := rowLayout(t, 1, 3, 0)
	g := Build(l, nil)
	if g.Node(999) != nil {
		t.Error("Node for unknown id should be nil")
	}
	if g.Len() != 3 {
		t.Errorf("Len = %d, want 3", g.Len())
	}
	a, b := g.nodeID(grid.Cell{Row: 0, Col: 0}), g.nodeID(grid.Cell{Row: 0, Col: 1})
	if g.Edge(a, b) == nil || !g.HasEdgeBetween(b, a) {
		t.Error("expected edges between adjacent open roads")
	}
	if g.To(a).Len() != 1 {
		t.Errorf("To(a).Len = %d, want 1", g.To(a).Len())
	}
}
