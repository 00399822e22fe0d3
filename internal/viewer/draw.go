package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/bitmapfont/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/outcome"
	"github.com/cxd309/roadgrid-engine/internal/vehicle"
)

var (
	colorBackground = color.RGBA{20, 20, 30, 255}
	colorEmpty      = color.RGBA{40, 40, 55, 255}
	colorGridLine   = color.RGBA{30, 30, 42, 255}
	colorBlocked    = color.RGBA{90, 80, 70, 255}
	colorRoad       = color.RGBA{110, 110, 120, 255}
	colorArrow      = color.RGBA{240, 240, 200, 255}
	colorText       = color.RGBA{220, 220, 220, 255}
	colorDim        = color.RGBA{150, 150, 150, 255}
	colorWon        = color.RGBA{80, 200, 120, 255}
	colorLost       = color.RGBA{220, 70, 70, 255}
)

var face = text.NewGoXFace(bitmapfont.Face)

// colorOf resolves a car type colour name, falling back to white.
func colorOf(name string) color.RGBA {
	if c, ok := colornames.Map[name]; ok {
		return c
	}
	return colornames.White
}

// Draw draws the game screen.
// Draw is called every frame (typically 1/60[s] for 60Hz display).
func (g *Game) Draw(screen *ebiten.Image) {
	snap := g.session.Snapshot()
	screen.Fill(colorBackground)

	drawText(screen, fmt.Sprintf("%s   run %d   %.1fs   %s", snap.Level, snap.Run, snap.Time, snap.Phase), 8, 6, colorText)
	g.drawBoard(screen, snap)
	g.drawPanel(screen, snap)

	_, h := g.Size()
	y := float64(h - logHeight + 4)
	for _, line := range g.log {
		drawText(screen, line, 8, y, colorDim)
		y += lineHeight
	}
}

func (g *Game) drawBoard(screen *ebiten.Image, snap engine.Snapshot) {
	for r := 0; r < snap.Dims.Rows; r++ {
		for c := 0; c < snap.Dims.Cols; c++ {
			fillCell(screen, grid.Cell{Row: r, Col: c}, colorEmpty)
		}
	}
	for _, c := range snap.Blocked {
		fillCell(screen, c, colorBlocked)
	}
	for _, road := range snap.Roads {
		fillCell(screen, road.Cell, colorRoad)
		if road.Open() {
			continue
		}
		for _, d := range road.Exits() {
			drawArrow(screen, road.Cell, d)
		}
	}
	for _, ct := range snap.CarTypes {
		clr := colorOf(ct.Color)
		for _, e := range ct.Entrances {
			x, y := cellOrigin(e.Cell)
			vector.StrokeRect(screen, x+4, y+4, cellSize-8, cellSize-8, 2, clr, false)
			drawText(screen, "IN", float64(x)+12, float64(y)+12, clr)
		}
		x, y := cellOrigin(ct.Exit.Cell)
		vector.DrawFilledRect(screen, x+4, y+4, cellSize-8, cellSize-8, clr, false)
		drawText(screen, "OUT", float64(x)+8, float64(y)+12, colorBackground)
	}
	for _, v := range snap.Vehicles {
		drawVehicle(screen, v)
	}
}

func (g *Game) drawPanel(screen *ebiten.Image, snap engine.Snapshot) {
	w, _ := g.Size()
	x := float64(w - panelWidth + 8)
	y := float64(hudHeight + 8)
	line := func(s string, clr color.Color) {
		drawText(screen, s, x, y, clr)
		y += lineHeight
	}

	switch snap.Verdict {
	case outcome.Won:
		line("LEVEL WON", colorWon)
	case outcome.Lost:
		line("LEVEL LOST", colorLost)
		line(snap.LostReason, colorLost)
	default:
		line("pending", colorText)
	}
	if snap.Remaining >= 0 {
		line(fmt.Sprintf("roads left %d", snap.Remaining), colorText)
	} else {
		line(fmt.Sprintf("roads %d", len(snap.Roads)), colorText)
	}
	line(fmt.Sprintf("success %.0f%%", snap.SuccessRate*100), colorText)
	line(fmt.Sprintf("reached %d failed %d", snap.Stats.Reached, snap.Stats.Failed), colorText)
	y += lineHeight / 2
	for i, ct := range snap.CarTypes {
		if i < len(snap.Stats.ByType) {
			c := snap.Stats.ByType[i]
			line(fmt.Sprintf("%s %d/%d", ct.Color, c.Reached, c.Terminated()), colorOf(ct.Color))
		}
	}
	y += lineHeight / 2
	line("click: road/arrow", colorDim)
	line("right click: remove", colorDim)
	line("space: start/stop", colorDim)
}

func fillCell(screen *ebiten.Image, c grid.Cell, clr color.Color) {
	x, y := cellOrigin(c)
	vector.DrawFilledRect(screen, x, y, cellSize, cellSize, colorGridLine, false)
	vector.DrawFilledRect(screen, x+1, y+1, cellSize-2, cellSize-2, clr, false)
}

// drawArrow draws a short arrow from the cell centre towards d.
func drawArrow(screen *ebiten.Image, c grid.Cell, d grid.Direction) {
	x, y := cellOrigin(c)
	cx, cy := x+cellSize/2, y+cellSize/2
	var dx, dy float32
	switch d {
	case grid.Up:
		dy = -1
	case grid.Down:
		dy = 1
	case grid.Left:
		dx = -1
	case grid.Right:
		dx = 1
	}
	const l, head = cellSize * 0.35, cellSize * 0.15
	tx, ty := cx+dx*l, cy+dy*l
	vector.StrokeLine(screen, cx-dx*l, cy-dy*l, tx, ty, 2, colorArrow, true)
	// The head's two strokes go back along the shaft, offset sideways.
	vector.StrokeLine(screen, tx, ty, tx-dx*head-dy*head, ty-dy*head+dx*head, 2, colorArrow, true)
	vector.StrokeLine(screen, tx, ty, tx-dx*head+dy*head, ty-dy*head-dx*head, 2, colorArrow, true)
}

func drawVehicle(screen *ebiten.Image, v vehicle.Log) {
	if v.State == vehicle.StateReachedExit {
		return
	}
	x := float32((v.Col+1)*cellSize) + cellSize/2
	y := float32(hudHeight) + float32((v.Row+1)*cellSize) + cellSize/2
	clr := colorOf(v.Color)
	switch v.State {
	case vehicle.StateFailed:
		vector.DrawFilledCircle(screen, x, y, cellSize*0.3, colorLost, true)
		vector.StrokeCircle(screen, x, y, cellSize*0.3, 2, clr, true)
	case vehicle.StateWaiting:
		vector.DrawFilledCircle(screen, x, y, cellSize*0.3, clr, true)
		vector.StrokeCircle(screen, x, y, cellSize*0.3, 2, colorArrow, true)
	default:
		vector.DrawFilledCircle(screen, x, y, cellSize*0.3, clr, true)
	}
}

func drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, face, op)
}
