// Package grid defines the cell, direction, road and layout types shared by the
// routing and simulation packages.
//
// Coordinates are 0-based. Entrance and exit cells sit one step outside the grid
// (row -1, row Rows, col -1 or col Cols) and are tagged with the Side they lie beyond.
package grid

import (
	"fmt"
)

// Cell is a (row, column) grid position. Cells compare by value and are used as map keys.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Neighbor returns the orthogonal neighbour of c in direction d.
// Diagonal directions are not single steps and return c unchanged.
func (c Cell) Neighbor(d Direction) Cell {
	switch d {
	case Up:
		return Cell{c.Row - 1, c.Col}
	case Down:
		return Cell{c.Row + 1, c.Col}
	case Left:
		return Cell{c.Row, c.Col - 1}
	case Right:
		return Cell{c.Row, c.Col + 1}
	}
	return c
}

// Side names the grid edge an entrance or exit cell lies beyond.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// Dims holds the grid dimensions.
type Dims struct {
	Rows int `json:"rows" yaml:"rows"`
	Cols int `json:"cols" yaml:"cols"`
}

// InBounds reports whether c is an interior grid cell.
func (d Dims) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < d.Rows && c.Col >= 0 && c.Col < d.Cols
}

// SideOf reports which edge c lies one step beyond. Corner cells and cells further
// out than one step have no side.
func (d Dims) SideOf(c Cell) (Side, bool) {
	rowIn := c.Row >= 0 && c.Row < d.Rows
	colIn := c.Col >= 0 && c.Col < d.Cols
	switch {
	case rowIn && c.Col == -1:
		return SideLeft, true
	case rowIn && c.Col == d.Cols:
		return SideRight, true
	case colIn && c.Row == -1:
		return SideTop, true
	case colIn && c.Row == d.Rows:
		return SideBottom, true
	}
	return "", false
}

// IsExterior reports whether c is a valid entrance/exit sentinel position.
func (d Dims) IsExterior(c Cell) bool {
	_, ok := d.SideOf(c)
	return ok
}

// Interior returns the single interior neighbour of an exterior sentinel cell.
func (d Dims) Interior(c Cell) (Cell, bool) {
	side, ok := d.SideOf(c)
	if !ok {
		return Cell{}, false
	}
	return c.Neighbor(side.Inward()), true
}

// Inward is the direction pointing from a sentinel on this side into the grid.
func (s Side) Inward() Direction {
	switch s {
	case SideLeft:
		return Right
	case SideRight:
		return Left
	case SideTop:
		return Down
	default:
		return Up
	}
}

// Endpoint is an entrance or exit sentinel cell tagged with its side.
type Endpoint struct {
	Cell Cell `json:"cell"`
	Side Side `json:"side"`
}
