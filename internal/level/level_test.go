package level

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cxd309/roadgrid-engine/internal/grid"
)

const crossing = `
name: crossing
rows: 5
cols: 5
budget: 12
success_threshold: 0.75
blocked:
  - {row: 1, col: 1, type: tree}
  - {row: 5, col: 5, type: rock}
car_types:
  - color: red
    entrances: [{row: 3, col: 0}]
    exit: {row: 3, col: 6}
  - color: blue
    entrances: [{row: 0, col: 3}, {row: 6, col: 2}]
    exit: {row: 3, col: 6}
`

func TestParseNormalises(t *testing.T) {
	lvl, report, err := Parse([]byte(crossing))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !report.Valid {
		t.Fatalf("report invalid: %+v", report.Errors)
	}
	if lvl.Dims != (grid.Dims{Rows: 5, Cols: 5}) {
		t.Errorf("dims = %+v", lvl.Dims)
	}
	if lvl.SuccessThreshold != 0.75 {
		t.Errorf("success_threshold = %v", lvl.SuccessThreshold)
	}

	red := lvl.CarTypes[0]
	if want := (grid.Endpoint{Cell: grid.Cell{Row: 2, Col: -1}, Side: grid.SideLeft}); red.Entrances[0] != want {
		t.Errorf("red entrance = %+v, want %+v", red.Entrances[0], want)
	}
	if want := (grid.Endpoint{Cell: grid.Cell{Row: 2, Col: 5}, Side: grid.SideRight}); red.Exit != want {
		t.Errorf("red exit = %+v, want %+v", red.Exit, want)
	}

	blue := lvl.CarTypes[1]
	if blue.Entrances[0].Side != grid.SideTop || blue.Entrances[1].Side != grid.SideBottom {
		t.Errorf("blue entrance sides = %s, %s", blue.Entrances[0].Side, blue.Entrances[1].Side)
	}
	if blue.Entrances[1].Cell != (grid.Cell{Row: 5, Col: 1}) {
		t.Errorf("blue bottom entrance = %v", blue.Entrances[1].Cell)
	}

	if got := lvl.BlockedCells(); len(got) != 2 || got[0] != (grid.Cell{}) || got[1] != (grid.Cell{Row: 4, Col: 4}) {
		t.Errorf("blocked = %v", got)
	}
	// The shared exit is listed once.
	if got := lvl.Endpoints(); len(got) != 4 {
		t.Errorf("endpoints = %v, want 4 distinct cells", got)
	}
}

func TestParseJSONLevel(t *testing.T) {
	data := `{"name":"line","rows":1,"cols":3,"car_types":[{"color":"red","entrances":[{"row":1,"col":0}],"exit":{"row":1,"col":4}}]}`
	lvl, _, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if lvl.CarTypes[0].Exit.Cell != (grid.Cell{Row: 0, Col: 3}) {
		t.Errorf("exit = %v", lvl.CarTypes[0].Exit.Cell)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		path string
	}{
		{"empty grid", "rows: 0\ncols: 3\n", "rows/cols"},
		{"no car types", "rows: 3\ncols: 3\n", "car_types"},
		{"interior entrance", "rows: 3\ncols: 3\ncar_types: [{color: red, entrances: [{row: 2, col: 2}], exit: {row: 2, col: 4}}]", "car_types[0].entrances[0]"},
		{"corner exit", "rows: 3\ncols: 3\ncar_types: [{color: red, entrances: [{row: 2, col: 0}], exit: {row: 4, col: 4}}]", "car_types[0].exit"},
		{"far outside", "rows: 3\ncols: 3\ncar_types: [{color: red, entrances: [{row: 2, col: -3}], exit: {row: 2, col: 4}}]", "car_types[0].entrances[0]"},
		{"missing exit", "rows: 3\ncols: 3\ncar_types: [{color: red, entrances: [{row: 2, col: 0}]}]", "car_types[0].exit"},
		{"no entrances", "rows: 3\ncols: 3\ncar_types: [{color: red, exit: {row: 2, col: 4}}]", "car_types[0].entrances"},
		{"blocked outside", "rows: 3\ncols: 3\nblocked: [{row: 9, col: 1}]\ncar_types: [{color: red, entrances: [{row: 2, col: 0}], exit: {row: 2, col: 4}}]", "blocked[0]"},
		{"bad threshold", "rows: 3\ncols: 3\nsuccess_threshold: 2\ncar_types: [{color: red, entrances: [{row: 2, col: 0}], exit: {row: 2, col: 4}}]", "success_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, report, err := Parse([]byte(tt.yaml))
			var invalid *InvalidError
			if !errors.As(err, &invalid) {
				t.Fatalf("err = %v, want *InvalidError", err)
			}
			found := false
			for _, e := range report.Errors {
				if e.Path == tt.path {
					found = true
				}
			}
			if !found {
				t.Errorf("no error at %s; got %+v", tt.path, report.Errors)
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	f := &File{
		Rows:    3,
		Cols:    3,
		Blocked: []BlockedDef{{Row: 2, Col: 1}, {Row: 2, Col: 1}},
		CarTypes: []CarTypeDef{{
			Entrances: []Point{{Row: 2, Col: 0}},
			Exit:      &Point{Row: 2, Col: 4},
		}},
	}
	r := Validate(f)
	if !r.Valid {
		t.Fatalf("warnings should not invalidate: %+v", r.Errors)
	}
	if len(r.Warnings) != 3 {
		t.Errorf("warnings = %+v, want duplicate, missing color and blocked entrance", r.Warnings)
	}
	if r.Summary != "0 errors, 3 warnings, 1 info" {
		t.Errorf("summary = %q", r.Summary)
	}
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solution.yaml")
	data := "roads:\n  - {row: 3, col: 1}\n  - {row: 3, col: 2, directions: [right, down-right]}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	roads, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout failed: %v", err)
	}
	if len(roads) != 2 {
		t.Fatalf("roads = %+v", roads)
	}
	if roads[1].Cell != (grid.Cell{Row: 2, Col: 1}) || len(roads[1].Directions) != 2 || roads[1].Directions[1] != grid.DownRight {
		t.Errorf("road = %+v", roads[1])
	}

	out, err := EncodeLayout(roads)
	if err != nil {
		t.Fatal(err)
	}
	again, err := ParseLayout(out)
	if err != nil || len(again) != 2 || again[1].Cell != roads[1].Cell {
		t.Errorf("re-encoded layout = %+v, %v", again, err)
	}
}

func TestParseLayoutRejectsUnknownDirection(t *testing.T) {
	_, err := ParseLayout([]byte("roads: [{row: 1, col: 1, directions: [sideways]}]"))
	if err == nil || !strings.Contains(err.Error(), "sideways") {
		t.Errorf("err = %v, want unknown direction", err)
	}
}
