package grid

import (
	"errors"
	"slices"
	"testing"
)

func TestSideOf(t *testing.T) {
	d := Dims{Rows: 5, Cols: 5}
	tests := []struct {
		cell Cell
		side Side
		ok   bool
	}{
		{Cell{2, -1}, SideLeft, true},
		{Cell{2, 5}, SideRight, true},
		{Cell{-1, 0}, SideTop, true},
		{Cell{5, 4}, SideBottom, true},
		{Cell{-1, -1}, "", false},
		{Cell{2, 2}, "", false},
		{Cell{2, 6}, "", false},
	}
	for _, tt := range tests {
		side, ok := d.SideOf(tt.cell)
		if side != tt.side || ok != tt.ok {
			t.Errorf("SideOf(%v) = %q,%v, want %q,%v", tt.cell, side, ok, tt.side, tt.ok)
		}
	}
}

func TestInterior(t *testing.T) {
	d := Dims{Rows: 4, Cols: 3}
	got, ok := d.Interior(Cell{4, 1})
	if !ok || got != (Cell{3, 1}) {
		t.Fatalf("Interior(bottom) = %v,%v, want (3,1)", got, ok)
	}
	got, ok = d.Interior(Cell{0, 3})
	if !ok || got != (Cell{0, 2}) {
		t.Fatalf("Interior(right) = %v,%v, want (0,2)", got, ok)
	}
}

func TestRoadExits(t *testing.T) {
	open := Road{Cell: Cell{1, 1}}
	if !slices.Equal(open.Exits(), Orthogonal) {
		t.Errorf("open road exits = %v, want %v", open.Exits(), Orthogonal)
	}

	r := Road{Cell: Cell{1, 1}, Directions: []Direction{Right, UpRight, Down}}
	want := []Direction{Right, Up, Down}
	if got := r.Exits(); !slices.Equal(got, want) {
		t.Errorf("exits = %v, want %v", got, want)
	}
}

func TestLayoutEdits(t *testing.T) {
	l := NewLayout(Dims{Rows: 3, Cols: 3}, []Cell{{0, 0}}, 2)

	if err := l.AddRoad(Cell{0, 0}); !errors.Is(err, ErrBlockedCell) {
		t.Errorf("blocked cell: err = %v, want ErrBlockedCell", err)
	}
	if err := l.AddRoad(Cell{3, 0}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("out of bounds: err = %v, want ErrOutOfBounds", err)
	}
	if err := l.AddRoad(Cell{1, 0}); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}
	if err := l.AddRoad(Cell{1, 0}); !errors.Is(err, ErrRoadExists) {
		t.Errorf("duplicate: err = %v, want ErrRoadExists", err)
	}
	if err := l.AddRoad(Cell{1, 1}); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}
	if err := l.AddRoad(Cell{1, 2}); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("over budget: err = %v, want ErrBudgetExceeded", err)
	}
	if l.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", l.Remaining())
	}

	v := l.Version()
	if err := l.SetDirections(Cell{1, 0}, []Direction{Right}); err != nil {
		t.Fatalf("SetDirections: %v", err)
	}
	if l.Version() == v {
		t.Error("version did not change after SetDirections")
	}
	if err := l.SetDirections(Cell{2, 2}, []Direction{Right}); !errors.Is(err, ErrNoRoad) {
		t.Errorf("directions on empty cell: err = %v, want ErrNoRoad", err)
	}

	if err := l.RemoveRoad(Cell{1, 0}); err != nil {
		t.Fatalf("RemoveRoad: %v", err)
	}
	roads := l.Roads()
	if len(roads) != 1 || roads[0].Cell != (Cell{1, 1}) {
		t.Errorf("roads after removal = %v", roads)
	}
}

func TestAddDirectionLayers(t *testing.T) {
	l := NewLayout(Dims{Rows: 3, Cols: 3}, nil, 0)
	c := Cell{1, 1}
	if err := l.AddRoad(c); err != nil {
		t.Fatal(err)
	}
	for _, d := range []Direction{Up, Up, Right} {
		if err := l.AddDirection(c, d); err != nil {
			t.Fatal(err)
		}
	}
	r, _ := l.Road(c)
	if !slices.Equal(r.Directions, []Direction{Up, Right}) {
		t.Errorf("directions = %v, want [up right]", r.Directions)
	}
	if l.Remaining() != -1 {
		t.Errorf("unlimited budget remaining = %d, want -1", l.Remaining())
	}
}

func TestParseDirection(t *testing.T) {
	if _, err := ParseDirection("down-left"); err != nil {
		t.Errorf("down-left: %v", err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
}
