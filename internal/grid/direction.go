package grid

import "fmt"

// Direction is one of the eight arrow annotations a road can carry.
type Direction string

const (
	Up        Direction = "up"
	Down      Direction = "down"
	Left      Direction = "left"
	Right     Direction = "right"
	UpRight   Direction = "up-right"
	UpLeft    Direction = "up-left"
	DownRight Direction = "down-right"
	DownLeft  Direction = "down-left"
)

// Orthogonal is the scan order used for open roads.
var Orthogonal = []Direction{Up, Right, Down, Left}

// ParseDirection validates a direction symbol.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if len(d.Steps()) == 0 {
		return "", fmt.Errorf("unknown direction %q", s)
	}
	return d, nil
}

// Steps returns the orthogonal moves a direction allows, in order.
// A diagonal annotation allows both of its components, vertical first.
func (d Direction) Steps() []Direction {
	switch d {
	case Up, Down, Left, Right:
		return []Direction{d}
	case UpRight:
		return []Direction{Up, Right}
	case UpLeft:
		return []Direction{Up, Left}
	case DownRight:
		return []Direction{Down, Right}
	case DownLeft:
		return []Direction{Down, Left}
	}
	return nil
}

// Between returns the orthogonal direction from a to an adjacent cell b.
func Between(a, b Cell) (Direction, bool) {
	for _, d := range Orthogonal {
		if a.Neighbor(d) == b {
			return d, true
		}
	}
	return "", false
}
