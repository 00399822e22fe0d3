package tui

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/outcome"
	"github.com/cxd309/roadgrid-engine/internal/vehicle"
)

var (
	styleDefault = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleHeader  = styleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleEmpty   = styleDefault.Foreground(tcell.ColorDarkGray)
	styleBlocked = styleDefault.Foreground(tcell.ColorGray)
	styleRoad    = styleDefault.Foreground(tcell.ColorWhite)
	styleLog     = styleDefault.Foreground(tcell.ColorGray)
	styleWon     = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorLime).Bold(true)
	styleLost    = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorRed).Bold(true)
	stylePaused  = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleFailed  = styleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Board glyphs.
const (
	glyphEmpty    = '·'
	glyphBlocked  = '#'
	glyphOpenRoad = '+'
	glyphEntrance = 'E'
	glyphExit     = 'X'
	glyphVehicle  = '●'
	glyphFailed   = 'x'
)

var arrows = map[grid.Direction]rune{
	grid.Up:        '↑',
	grid.Down:      '↓',
	grid.Left:      '←',
	grid.Right:     '→',
	grid.UpRight:   '↗',
	grid.UpLeft:    '↖',
	grid.DownRight: '↘',
	grid.DownLeft:  '↙',
}

const (
	boardX = 1
	boardY = 2
)

// cellPos maps a grid cell to screen coordinates. The ring of sentinel cells
// around the grid is drawn too, so row and col start at -1.
func cellPos(c grid.Cell) (x, y int) {
	return boardX + 2*(c.Col+1), boardY + c.Row + 1
}

// DrawText puts a string on the screen starting at x, y.
func DrawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// colorStyle returns the foreground style for a car type colour name.
func colorStyle(name string) tcell.Style {
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		c = tcell.ColorWhite
	}
	return styleDefault.Foreground(c)
}

// Render draws the whole session state.
func (w *Watcher) Render() {
	snap := w.session.Snapshot()
	s := w.screen
	s.Clear()

	header := fmt.Sprintf("%s  run %d  t=%.1fs  %s  x%g", snap.Level, snap.Run, snap.Time, snap.Phase, w.speed)
	DrawText(s, 1, 0, header, styleHeader)
	if w.paused {
		DrawText(s, len(header)+3, 0, " PAUSED ", stylePaused)
	}

	w.drawBoard(snap)
	panelX, _ := cellPos(grid.Cell{Col: snap.Dims.Cols + 1})
	w.drawPanel(snap, panelX+3)

	_, logY := cellPos(grid.Cell{Row: snap.Dims.Rows + 1})
	for i, msg := range w.messages {
		DrawText(s, 1, logY+1+i, msg, styleLog)
	}

	_, h := s.Size()
	DrawText(s, 1, h-1, "q quit  space pause  +/- speed  r restart  s stop", styleLog)
	s.Show()
}

func (w *Watcher) drawBoard(snap engine.Snapshot) {
	s := w.screen
	for r := 0; r < snap.Dims.Rows; r++ {
		for c := 0; c < snap.Dims.Cols; c++ {
			x, y := cellPos(grid.Cell{Row: r, Col: c})
			s.SetContent(x, y, glyphEmpty, nil, styleEmpty)
		}
	}
	for _, c := range snap.Blocked {
		x, y := cellPos(c)
		s.SetContent(x, y, glyphBlocked, nil, styleBlocked)
	}
	for _, road := range snap.Roads {
		x, y := cellPos(road.Cell)
		glyph := glyphOpenRoad
		if !road.Open() {
			glyph = arrows[road.Directions[0]]
		}
		s.SetContent(x, y, glyph, nil, styleRoad)
	}
	for _, ct := range snap.CarTypes {
		style := colorStyle(ct.Color)
		for _, e := range ct.Entrances {
			x, y := cellPos(e.Cell)
			s.SetContent(x, y, glyphEntrance, nil, style)
		}
		x, y := cellPos(ct.Exit.Cell)
		s.SetContent(x, y, glyphExit, nil, style.Bold(true))
	}
	for _, v := range snap.Vehicles {
		w.drawVehicle(v)
	}
}

func (w *Watcher) drawVehicle(v vehicle.Log) {
	cell := grid.Cell{Row: int(math.Round(v.Row)), Col: int(math.Round(v.Col))}
	x, y := cellPos(cell)
	switch v.State {
	case vehicle.StateReachedExit:
		return
	case vehicle.StateFailed:
		w.screen.SetContent(x, y, glyphFailed, nil, styleFailed)
	case vehicle.StateWaiting:
		w.screen.SetContent(x, y, glyphVehicle, nil, colorStyle(v.Color).Reverse(true))
	default:
		w.screen.SetContent(x, y, glyphVehicle, nil, colorStyle(v.Color))
	}
}

func (w *Watcher) drawPanel(snap engine.Snapshot, x int) {
	s := w.screen
	y := boardY
	line := func(text string, style tcell.Style) {
		DrawText(s, x, y, text, style)
		y++
	}

	switch snap.Verdict {
	case outcome.Won:
		line(" LEVEL WON ", styleWon)
	case outcome.Lost:
		line(fmt.Sprintf(" LEVEL LOST: %s ", snap.LostReason), styleLost)
	default:
		line("pending", styleDefault)
	}
	roads := fmt.Sprintf("roads %d", len(snap.Roads))
	if snap.Remaining >= 0 {
		roads += fmt.Sprintf(" (%d left)", snap.Remaining)
	}
	line(roads, styleDefault)
	st := snap.Stats
	line(fmt.Sprintf("spawned %d  reached %d  failed %d", st.Spawned, st.Reached, st.Failed), styleDefault)
	line(fmt.Sprintf("success %.0f%%", snap.SuccessRate*100), styleDefault)
	y++
	for i, ct := range snap.CarTypes {
		if i >= len(st.ByType) {
			break
		}
		c := st.ByType[i]
		line(fmt.Sprintf("%-8s %d/%d/%d", ct.Color, c.Spawned, c.Reached, c.Failed), colorStyle(ct.Color))
	}
}
