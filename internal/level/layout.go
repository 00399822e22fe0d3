package level

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/cxd309/roadgrid-engine/internal/grid"
)

// RoadDef is a road in a layout file, 1-based.
type RoadDef struct {
	Row        int              `yaml:"row" json:"row"`
	Col        int              `yaml:"col" json:"col"`
	Directions []grid.Direction `yaml:"directions,omitempty" json:"directions,omitempty"`
}

// LayoutFile is a saved player solution: the roads to place before running.
type LayoutFile struct {
	Roads []RoadDef `yaml:"roads" json:"roads"`
}

// LoadLayout reads a layout file (YAML or JSON) and returns its roads in 0-based form.
func LoadLayout(path string) ([]grid.Road, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout file: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes layout data (YAML or JSON).
func ParseLayout(data []byte) ([]grid.Road, error) {
	var f LayoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing layout YAML: %w", err)
	}
	return f.Normalize()
}

// Normalize converts the layout to 0-based roads. Directions are checked here;
// cell placement is checked when the roads are applied to a grid.
func (f LayoutFile) Normalize() ([]grid.Road, error) {
	for i, rd := range f.Roads {
		for _, d := range rd.Directions {
			if _, err := grid.ParseDirection(string(d)); err != nil {
				return nil, fmt.Errorf("roads[%d]: %w", i, err)
			}
		}
	}
	return lo.Map(f.Roads, func(rd RoadDef, _ int) grid.Road {
		return grid.Road{Cell: Point{rd.Row, rd.Col}.Cell(), Directions: rd.Directions}
	}), nil
}

// EncodeLayout writes roads back to the 1-based layout format.
func EncodeLayout(roads []grid.Road) ([]byte, error) {
	f := LayoutFile{Roads: lo.Map(roads, func(r grid.Road, _ int) RoadDef {
		return RoadDef{Row: r.Cell.Row + 1, Col: r.Cell.Col + 1, Directions: r.Directions}
	})}
	return yaml.Marshal(f)
}
