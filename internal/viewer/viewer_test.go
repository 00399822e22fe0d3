package viewer

import (
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/image/colornames"

	"github.com/cxd309/roadgrid-engine/internal/config"
	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/level"
)

func newGame(t *testing.T) *Game {
	t.Helper()
	lvl := level.Level{
		Name: "pair",
		Dims: grid.Dims{Rows: 1, Cols: 2},
		CarTypes: []level.CarType{{
			Color:     "orange",
			Entrances: []grid.Endpoint{{Cell: grid.Cell{Row: 0, Col: -1}, Side: grid.SideLeft}},
			Exit:      grid.Endpoint{Cell: grid.Cell{Row: 0, Col: 2}, Side: grid.SideRight},
		}},
	}
	s, err := engine.NewSession(lvl, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return New(s, log.New(io.Discard))
}

func TestCellAtInvertsCellOrigin(t *testing.T) {
	for _, c := range []grid.Cell{{Row: -1, Col: -1}, {Row: 0, Col: 0}, {Row: 3, Col: 7}} {
		x, y := cellOrigin(c)
		got, ok := cellAt(int(x)+cellSize/2, int(y)+cellSize/2)
		if !ok || got != c {
			t.Errorf("cellAt(centre of %v) = %v, %v", c, got, ok)
		}
	}
	if _, ok := cellAt(10, hudHeight-1); ok {
		t.Error("a point in the HUD should not map to a cell")
	}
}

func TestNextDirectionsCycle(t *testing.T) {
	road := grid.Road{Cell: grid.Cell{}}
	var seen [][]grid.Direction
	for range 5 {
		road.Directions = nextDirections(road)
		seen = append(seen, road.Directions)
	}
	want := [][]grid.Direction{{grid.Up}, {grid.Right}, {grid.Down}, {grid.Left}, nil}
	if !slices.EqualFunc(seen, want, func(a, b []grid.Direction) bool { return slices.Equal(a, b) }) {
		t.Errorf("cycle = %v, want %v", seen, want)
	}
	if got := nextDirections(grid.Road{Directions: []grid.Direction{grid.Up, grid.Left}}); got != nil {
		t.Errorf("multi-direction road went to %v, want open", got)
	}
}

func TestEditCyclesAndRemoves(t *testing.T) {
	g := newGame(t)
	cell := grid.Cell{Row: 0, Col: 1}

	if err := g.Edit(cell, false); err != nil {
		t.Fatal(err)
	}
	if err := g.Edit(cell, false); err != nil {
		t.Fatal(err)
	}
	roads := g.session.Roads()
	if len(roads) != 1 || !slices.Equal(roads[0].Directions, []grid.Direction{grid.Up}) {
		t.Fatalf("roads = %+v", roads)
	}
	if err := g.Edit(cell, true); err != nil {
		t.Fatal(err)
	}
	if len(g.session.Roads()) != 0 {
		t.Errorf("road not removed: %+v", g.session.Roads())
	}
	if err := g.Edit(cell, true); !errors.Is(err, grid.ErrNoRoad) {
		t.Errorf("removing nothing = %v, want ErrNoRoad", err)
	}
}

func TestToggleRun(t *testing.T) {
	g := newGame(t)
	if err := g.Toggle(); !errors.Is(err, engine.ErrNoRoads) {
		t.Fatalf("toggle with no roads = %v", err)
	}
	g.Edit(grid.Cell{Row: 0, Col: 0}, false)
	g.Edit(grid.Cell{Row: 0, Col: 1}, false)
	if err := g.Toggle(); err != nil || g.session.Phase() != engine.PhaseRunning {
		t.Fatalf("toggle = %v, phase %s", err, g.session.Phase())
	}
	if err := g.Edit(grid.Cell{Row: 0, Col: 0}, true); !errors.Is(err, engine.ErrRunning) {
		t.Errorf("edit while running = %v", err)
	}
	if err := g.Toggle(); err != nil || g.session.Phase() != engine.PhaseBuild {
		t.Fatalf("second toggle = %v, phase %s", err, g.session.Phase())
	}

	g.collect()
	if len(g.log) != 2 {
		t.Errorf("log = %v, want start and stop lines", g.log)
	}
}

func TestColorOf(t *testing.T) {
	if colorOf("orange") != colornames.Orange {
		t.Error("orange not resolved")
	}
	if colorOf("no-such-colour") != colornames.White {
		t.Error("unknown colour should fall back to white")
	}
}

func TestSizeFitsBoardAndPanel(t *testing.T) {
	g := newGame(t)
	w, h := g.Size()
	if w != minBoardCol*cellSize+panelWidth {
		t.Errorf("width = %d", w)
	}
	if h != hudHeight+3*cellSize+logHeight {
		t.Errorf("height = %d", h)
	}
}
