// Package viewer is the desktop front end: it draws a live session with ebiten
// and lets the player edit roads with the mouse between runs.
package viewer

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/event"
	"github.com/cxd309/roadgrid-engine/internal/grid"
)

const (
	cellSize    = 40
	hudHeight   = 28
	panelWidth  = 220
	logLines    = 6
	lineHeight  = 18
	logHeight   = logLines*lineHeight + 8
	minBoardCol = 8
)

// Game implements ebiten.Game over one session.
type Game struct {
	session *engine.Session
	logger  *log.Logger
	dims    grid.Dims
	log     []string
}

// New returns a viewer for the session.
func New(session *engine.Session, logger *log.Logger) *Game {
	return &Game{session: session, logger: logger, dims: session.Level().Dims}
}

// Size returns the logical screen size for the level.
func (g *Game) Size() (width, height int) {
	cols := max(g.dims.Cols+2, minBoardCol)
	return cols*cellSize + panelWidth, hudHeight + (g.dims.Rows+2)*cellSize + logHeight
}

// Update proceeds the session by one frame.
// Update is called every tick (1/60 [s] by default).
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.note(g.Toggle())
	}
	left := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	right := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight)
	if left || right {
		if cell, ok := cellAt(ebiten.CursorPosition()); ok && g.dims.InBounds(cell) {
			g.note(g.Edit(cell, right))
		}
	}

	g.session.Advance(1 / float64(ebiten.TPS()))
	g.collect()
	return nil
}

// Layout returns the fixed logical size; ebiten scales it to the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return g.Size()
}

// Toggle starts a run from the build or finished phase and stops a running one.
func (g *Game) Toggle() error {
	if g.session.Phase() == engine.PhaseRunning {
		return g.session.Stop()
	}
	return g.session.Start()
}

// Edit changes the road at cell. With remove set the road is taken away;
// otherwise an empty cell gets an open road and an existing road cycles to
// its next direction.
func (g *Game) Edit(cell grid.Cell, remove bool) error {
	if remove {
		return g.session.RemoveRoad(cell)
	}
	for _, r := range g.session.Roads() {
		if r.Cell == cell {
			return g.session.SetDirections(cell, nextDirections(r))
		}
	}
	return g.session.AddRoad(cell)
}

// directionCycle is the order a clicked road steps through.
var directionCycle = []grid.Direction{grid.Up, grid.Right, grid.Down, grid.Left}

// nextDirections returns the annotation after r's in the cycle
// open, up, right, down, left, open. Anything else goes back to open.
func nextDirections(r grid.Road) []grid.Direction {
	if r.Open() {
		return []grid.Direction{directionCycle[0]}
	}
	if len(r.Directions) == 1 {
		for i, d := range directionCycle[:len(directionCycle)-1] {
			if r.Directions[0] == d {
				return []grid.Direction{directionCycle[i+1]}
			}
		}
	}
	return nil
}

// cellAt maps screen coordinates to a grid cell, sentinel ring included.
func cellAt(x, y int) (grid.Cell, bool) {
	if x < 0 || y < hudHeight {
		return grid.Cell{}, false
	}
	return grid.Cell{Row: (y-hudHeight)/cellSize - 1, Col: x/cellSize - 1}, true
}

// cellOrigin returns the top-left screen corner of a cell.
func cellOrigin(c grid.Cell) (x, y float32) {
	return float32((c.Col + 1) * cellSize), float32(hudHeight + (c.Row+1)*cellSize)
}

func (g *Game) note(err error) {
	if err != nil {
		g.push(err.Error())
	}
}

func (g *Game) push(msg string) {
	g.log = append(g.log, msg)
	if len(g.log) > logLines {
		g.log = g.log[len(g.log)-logLines:]
	}
}

// collect drains the session events into the on-screen log.
func (g *Game) collect() {
	for _, st := range g.session.DrainEvents() {
		var msg string
		switch e := st.Event.(type) {
		case event.RunStarted:
			msg = fmt.Sprintf("run %d started", e.Run)
		case event.RunStopped:
			msg = fmt.Sprintf("run %d stopped", e.Run)
		case event.VehicleFailed:
			msg = fmt.Sprintf("car %d failed at %v", e.Vehicle, e.Cell)
		case event.LevelWon:
			msg = fmt.Sprintf("level won, %.0f%% arrived", e.SuccessRate*100)
		case event.LevelLost:
			msg = fmt.Sprintf("level lost (%s)", e.Reason)
		default:
			continue
		}
		g.logger.Debug("viewer event", "kind", st.Event.Kind(), "time", st.At)
		g.push(fmt.Sprintf("%5.1fs %s", st.At, msg))
	}
}
