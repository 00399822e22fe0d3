// Package action decodes player actions sent by remote front ends (websocket
// clients, the browser bridge) and applies them to a session.
package action

import (
	"encoding/json"
	"fmt"

	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/grid"
)

// Action types.
const (
	AddRoad       = "add_road"
	RemoveRoad    = "remove_road"
	SetDirections = "set_directions"
	AddDirection  = "add_direction"
	Start         = "start"
	Stop          = "stop"
	Snapshot      = "snapshot"
)

// RoadPayload addresses a 0-based grid cell. SetDirections uses Directions,
// AddDirection uses its first entry.
type RoadPayload struct {
	Row        int              `json:"row"`
	Col        int              `json:"col"`
	Directions []grid.Direction `json:"directions,omitempty"`
}

// Result answers every action.
type Result struct {
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Apply runs one action on s. edited reports a successful road change, after
// which front ends redraw the layout. Snapshot is answered by the caller and
// is accepted here as a no-op.
func Apply(s *engine.Session, typ string, payload json.RawMessage) (res Result, edited bool) {
	err := apply(s, typ, payload)
	res = Result{Action: typ, OK: err == nil}
	if err != nil {
		res.Error = err.Error()
		return res, false
	}
	switch typ {
	case AddRoad, RemoveRoad, SetDirections, AddDirection:
		edited = true
	}
	return res, edited
}

func apply(s *engine.Session, typ string, payload json.RawMessage) error {
	switch typ {
	case Start:
		return s.Start()
	case Stop:
		return s.Stop()
	case Snapshot:
		return nil
	case AddRoad, RemoveRoad, SetDirections, AddDirection:
	default:
		return fmt.Errorf("unknown action %q", typ)
	}

	var p RoadPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decoding %s payload: %w", typ, err)
	}
	cell := grid.Cell{Row: p.Row, Col: p.Col}
	switch typ {
	case AddRoad:
		return s.AddRoad(cell)
	case RemoveRoad:
		return s.RemoveRoad(cell)
	case SetDirections:
		return s.SetDirections(cell, p.Directions)
	default:
		if len(p.Directions) == 0 {
			return fmt.Errorf("%s: no direction given", typ)
		}
		return s.AddDirection(cell, p.Directions[0])
	}
}
