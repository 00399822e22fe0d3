// Package level loads level and layout files.
//
// Files use 1-based coordinates. Entrances and exits sit on the frame around the
// grid: row 0, row rows+1, column 0 or column cols+1. Loading validates the file and
// normalises it to 0-based grid cells with the edge side resolved.
package level

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/cxd309/roadgrid-engine/internal/grid"
)

// Point is a 1-based file coordinate.
type Point struct {
	Row int `yaml:"row" json:"row"`
	Col int `yaml:"col" json:"col"`
}

// Cell converts p to a 0-based grid cell.
func (p Point) Cell() grid.Cell { return grid.Cell{Row: p.Row - 1, Col: p.Col - 1} }

type BlockedDef struct {
	Row  int    `yaml:"row" json:"row"`
	Col  int    `yaml:"col" json:"col"`
	Type string `yaml:"type" json:"type"` // decorative only
}

type CarTypeDef struct {
	Color     string  `yaml:"color" json:"color"`
	Entrances []Point `yaml:"entrances" json:"entrances"`
	Exit      *Point  `yaml:"exit" json:"exit"`
}

// File is a level as stored on disk.
type File struct {
	Name             string       `yaml:"name" json:"name"`
	Rows             int          `yaml:"rows" json:"rows"`
	Cols             int          `yaml:"cols" json:"cols"`
	Budget           int          `yaml:"budget" json:"budget"`
	SuccessThreshold float64      `yaml:"success_threshold,omitempty" json:"success_threshold,omitempty"`
	MaxPerType       int          `yaml:"max_per_type,omitempty" json:"max_per_type,omitempty"`
	Blocked          []BlockedDef `yaml:"blocked" json:"blocked"`
	CarTypes         []CarTypeDef `yaml:"car_types" json:"car_types"`
}

// Blocked is a permanently blocked cell.
type Blocked struct {
	Cell grid.Cell `json:"cell"`
	Type string    `json:"type,omitempty"`
}

// CarType is a vehicle template: a color, one or more entrances and one exit.
type CarType struct {
	Color     string          `json:"color"`
	Entrances []grid.Endpoint `json:"entrances"`
	Exit      grid.Endpoint   `json:"exit"`
}

// Level is a validated, 0-based level.
type Level struct {
	Name             string    `json:"name"`
	Dims             grid.Dims `json:"dims"`
	Budget           int       `json:"budget"`
	SuccessThreshold float64   `json:"success_threshold,omitempty"`
	MaxPerType       int       `json:"max_per_type,omitempty"`
	Blocked          []Blocked `json:"blocked"`
	CarTypes         []CarType `json:"car_types"`
}

// BlockedCells returns the blocked cells.
func (l Level) BlockedCells() []grid.Cell {
	return lo.Map(l.Blocked, func(b Blocked, _ int) grid.Cell { return b.Cell })
}

// Endpoints returns every distinct entrance and exit cell in car type order.
func (l Level) Endpoints() []grid.Cell {
	cells := lo.FlatMap(l.CarTypes, func(ct CarType, _ int) []grid.Cell {
		out := lo.Map(ct.Entrances, func(e grid.Endpoint, _ int) grid.Cell { return e.Cell })
		return append(out, ct.Exit.Cell)
	})
	return lo.Uniq(cells)
}

// Load reads, validates and normalises a level file (YAML or JSON).
func Load(path string) (Level, *Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Level{}, nil, fmt.Errorf("reading level file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, validates and normalises level data. The report is returned
// whenever decoding succeeded, so warnings are visible for valid levels too.
func Parse(data []byte) (Level, *Report, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Level{}, nil, fmt.Errorf("parsing level YAML: %w", err)
	}
	report := Validate(&f)
	if !report.Valid {
		return Level{}, report, &InvalidError{Report: report}
	}
	return f.Normalize(), report, nil
}

// Normalize converts a validated file to 0-based form. Invalid endpoints are
// dropped, so callers should Validate first.
func (f *File) Normalize() Level {
	dims := grid.Dims{Rows: f.Rows, Cols: f.Cols}
	endpoint := func(p Point) (grid.Endpoint, bool) {
		c := p.Cell()
		side, ok := dims.SideOf(c)
		return grid.Endpoint{Cell: c, Side: side}, ok
	}
	lvl := Level{
		Name:             f.Name,
		Dims:             dims,
		Budget:           f.Budget,
		SuccessThreshold: f.SuccessThreshold,
		MaxPerType:       f.MaxPerType,
		Blocked: lo.UniqBy(lo.Map(f.Blocked, func(b BlockedDef, _ int) Blocked {
			return Blocked{Cell: Point{b.Row, b.Col}.Cell(), Type: b.Type}
		}), func(b Blocked) grid.Cell { return b.Cell }),
	}
	for _, def := range f.CarTypes {
		ct := CarType{Color: def.Color}
		for _, p := range def.Entrances {
			if e, ok := endpoint(p); ok {
				ct.Entrances = append(ct.Entrances, e)
			}
		}
		if def.Exit != nil {
			ct.Exit, _ = endpoint(*def.Exit)
		}
		lvl.CarTypes = append(lvl.CarTypes, ct)
	}
	return lvl
}
