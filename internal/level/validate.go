package level

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/cxd309/roadgrid-engine/internal/grid"
)

// Validate checks a level file and reports every problem found.
func Validate(f *File) *Report {
	r := NewReport()
	if f.Rows < 1 || f.Cols < 1 {
		r.AddError("rows/cols", "grid must be at least 1x1, got %dx%d", f.Rows, f.Cols)
		return r
	}
	dims := grid.Dims{Rows: f.Rows, Cols: f.Cols}

	if f.Budget < 0 {
		r.AddError("budget", "must not be negative, got %d", f.Budget)
	}
	if f.SuccessThreshold < 0 || f.SuccessThreshold > 1 {
		r.AddError("success_threshold", "must be in [0, 1], got %v", f.SuccessThreshold)
	}
	if f.MaxPerType < 0 {
		r.AddError("max_per_type", "must not be negative, got %d", f.MaxPerType)
	}

	blocked := make(map[grid.Cell]bool, len(f.Blocked))
	for i, b := range f.Blocked {
		path := fmt.Sprintf("blocked[%d]", i)
		c := Point{b.Row, b.Col}.Cell()
		if !dims.InBounds(c) {
			r.AddError(path, "cell (%d,%d) is outside the %dx%d grid", b.Row, b.Col, f.Rows, f.Cols)
			continue
		}
		if blocked[c] {
			r.AddWarning(path, "cell (%d,%d) listed twice", b.Row, b.Col)
		}
		blocked[c] = true
	}

	if len(f.CarTypes) == 0 {
		r.AddError("car_types", "at least one car type is required")
	}
	for i, ct := range f.CarTypes {
		path := fmt.Sprintf("car_types[%d]", i)
		if ct.Color == "" {
			r.AddWarning(path+".color", "no color set")
		}
		if len(ct.Entrances) == 0 {
			r.AddError(path+".entrances", "at least one entrance is required")
		}
		for j, p := range ct.Entrances {
			checkEndpoint(r, dims, blocked, fmt.Sprintf("%s.entrances[%d]", path, j), p)
		}
		if ct.Exit == nil {
			r.AddError(path+".exit", "exit is required")
			continue
		}
		checkEndpoint(r, dims, blocked, path+".exit", *ct.Exit)
		if lo.Contains(ct.Entrances, *ct.Exit) {
			r.AddError(path+".exit", "exit (%d,%d) is also an entrance", ct.Exit.Row, ct.Exit.Col)
		}
	}

	if r.Valid {
		r.AddInfo("", "%dx%d grid, %d car types, %d blocked cells, budget %d",
			f.Rows, f.Cols, len(f.CarTypes), len(blocked), f.Budget)
	}
	return r
}

// checkEndpoint verifies p lies on the frame around the grid, off the corners.
func checkEndpoint(r *Report, dims grid.Dims, blocked map[grid.Cell]bool, path string, p Point) {
	c := p.Cell()
	if dims.InBounds(c) {
		r.AddError(path, "(%d,%d) is inside the grid; entrances and exits sit on row 0, row %d, column 0 or column %d",
			p.Row, p.Col, dims.Rows+1, dims.Cols+1)
		return
	}
	inner, ok := dims.Interior(c)
	if !ok {
		r.AddError(path, "(%d,%d) is not adjacent to a grid edge (corners are not allowed)", p.Row, p.Col)
		return
	}
	if blocked[inner] {
		r.AddWarning(path, "(%d,%d) faces a blocked cell and can never be reached", p.Row, p.Col)
	}
}
