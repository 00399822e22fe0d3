// Package event defines the typed notifications the simulation emits for
// presentation layers (renderers, HUDs, network clients).
//
// Event is a closed union: every concrete type lives in this package and reports
// its Kind, so consumers switch on the type and the compiler checks payload shape.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/outcome"
	"github.com/cxd309/roadgrid-engine/internal/vehicle"
)

// Kind is the JSON discriminator of an event.
type Kind string

const (
	KindRunStarted         Kind = "run_started"
	KindRunStopped         Kind = "run_stopped"
	KindVehicleSpawned     Kind = "vehicle_spawned"
	KindVehicleMoved       Kind = "vehicle_moved"
	KindVehicleReachedExit Kind = "vehicle_reached_exit"
	KindVehicleFailed      Kind = "vehicle_failed"
	KindVehicleRemoved     Kind = "vehicle_removed"
	KindStatsUpdated       Kind = "stats_updated"
	KindLevelWon           Kind = "level_won"
	KindLevelLost          Kind = "level_lost"
)

// Event is implemented by every event type in this package.
type Event interface {
	Kind() Kind
	sealed()
}

// RunStarted and RunStopped carry the 1-based run number within a session.
type RunStarted struct {
	Run int `json:"run"`
}

type RunStopped struct {
	Run int `json:"run"`
}

type VehicleSpawned struct {
	Vehicle vehicle.ID `json:"vehicle"`
	CarType int        `json:"car_type"`
	Color   string     `json:"color"`
	Cell    grid.Cell  `json:"cell"`
}

type VehicleMoved struct {
	Vehicle vehicle.ID `json:"vehicle"`
	From    grid.Cell  `json:"from"`
	To      grid.Cell  `json:"to"`
}

type VehicleReachedExit struct {
	Vehicle   vehicle.ID `json:"vehicle"`
	Elapsed   float64    `json:"elapsed"`
	TotalWait float64    `json:"total_wait"`
}

// VehicleFailed is emitted once per failed vehicle. NeverEntered marks a vehicle
// that timed out without leaving its entrance, which fails the level at once.
type VehicleFailed struct {
	Vehicle      vehicle.ID         `json:"vehicle"`
	Reason       vehicle.FailReason `json:"reason"`
	Cell         grid.Cell          `json:"cell"`
	Elapsed      float64            `json:"elapsed"`
	TotalWait    float64            `json:"total_wait"`
	NeverEntered bool               `json:"never_entered"`
}

type VehicleRemoved struct {
	Vehicle vehicle.ID `json:"vehicle"`
}

type StatsUpdated struct {
	Stats       outcome.Stats `json:"stats"`
	SuccessRate float64       `json:"success_rate"`
}

type LevelWon struct {
	SuccessRate float64       `json:"success_rate"`
	Stats       outcome.Stats `json:"stats"`
}

// LevelLost carries a short reason: "failure_rate" for the aggregate rule or
// "blocked_at_entrance" when a single vehicle never entered the grid.
type LevelLost struct {
	SuccessRate float64       `json:"success_rate"`
	Stats       outcome.Stats `json:"stats"`
	Reason      string        `json:"reason"`
	Vehicle     vehicle.ID    `json:"vehicle,omitempty"`
}

func (RunStarted) Kind() Kind         { return KindRunStarted }
func (RunStopped) Kind() Kind         { return KindRunStopped }
func (VehicleSpawned) Kind() Kind     { return KindVehicleSpawned }
func (VehicleMoved) Kind() Kind       { return KindVehicleMoved }
func (VehicleReachedExit) Kind() Kind { return KindVehicleReachedExit }
func (VehicleFailed) Kind() Kind      { return KindVehicleFailed }
func (VehicleRemoved) Kind() Kind     { return KindVehicleRemoved }
func (StatsUpdated) Kind() Kind       { return KindStatsUpdated }
func (LevelWon) Kind() Kind           { return KindLevelWon }
func (LevelLost) Kind() Kind          { return KindLevelLost }

func (RunStarted) sealed()         {}
func (RunStopped) sealed()         {}
func (VehicleSpawned) sealed()     {}
func (VehicleMoved) sealed()       {}
func (VehicleReachedExit) sealed() {}
func (VehicleFailed) sealed()      {}
func (VehicleRemoved) sealed()     {}
func (StatsUpdated) sealed()       {}
func (LevelWon) sealed()           {}
func (LevelLost) sealed()          {}

// Envelope is the wire shape of an event: the discriminator plus its payload.
type Envelope struct {
	Type    Kind            `json:"type"`
	Time    float64         `json:"time"` // simulation seconds since run start
	Payload json.RawMessage `json:"payload"`
}

// Marshal encodes an event inside an Envelope.
func Marshal(e Event, simTime float64) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", e.Kind(), err)
	}
	return json.Marshal(Envelope{Type: e.Kind(), Time: simTime, Payload: payload})
}

// Unmarshal decodes an Envelope back into its concrete event type.
func Unmarshal(data []byte) (Event, float64, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("reading event envelope: %w", err)
	}
	dec, ok := decoders[env.Type]
	if !ok {
		return nil, 0, fmt.Errorf("unknown event type %q", env.Type)
	}
	e, err := dec(env.Payload)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing %s payload: %w", env.Type, err)
	}
	return e, env.Time, nil
}

var decoders = map[Kind]func(json.RawMessage) (Event, error){
	KindRunStarted:         decode[RunStarted],
	KindRunStopped:         decode[RunStopped],
	KindVehicleSpawned:     decode[VehicleSpawned],
	KindVehicleMoved:       decode[VehicleMoved],
	KindVehicleReachedExit: decode[VehicleReachedExit],
	KindVehicleFailed:      decode[VehicleFailed],
	KindVehicleRemoved:     decode[VehicleRemoved],
	KindStatsUpdated:       decode[StatsUpdated],
	KindLevelWon:           decode[LevelWon],
	KindLevelLost:          decode[LevelLost],
}

func decode[T Event](data json.RawMessage) (Event, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Stamped is an event paired with the simulation time it occurred at. It
// encodes as an Envelope.
type Stamped struct {
	At    float64
	Event Event
}

func (s Stamped) MarshalJSON() ([]byte, error) {
	return Marshal(s.Event, s.At)
}

func (s *Stamped) UnmarshalJSON(data []byte) error {
	e, at, err := Unmarshal(data)
	if err != nil {
		return err
	}
	s.At, s.Event = at, e
	return nil
}

// Events strips the timestamps.
func Events(stamped []Stamped) []Event {
	out := make([]Event, len(stamped))
	for i, s := range stamped {
		out[i] = s.Event
	}
	return out
}

// OfType returns the events of concrete type T, in order.
func OfType[T Event](events []Event) []T {
	var out []T
	for _, e := range events {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
