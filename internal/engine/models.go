package engine

import (
	"encoding/json"
	"errors"

	"github.com/cxd309/roadgrid-engine/internal/event"
	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/level"
	"github.com/cxd309/roadgrid-engine/internal/outcome"
	"github.com/cxd309/roadgrid-engine/internal/vehicle"
)

// Errors returned by run controls and road edits.
var (
	ErrRunning    = errors.New("simulation is running")
	ErrNotRunning = errors.New("simulation is not running")
	ErrNoRoads    = errors.New("no roads placed")
)

// Phase is the session mode.
type Phase string

const (
	PhaseBuild    Phase = "build"    // roads editable, no vehicles
	PhaseRunning  Phase = "running"  // ticking, roads locked
	PhaseFinished Phase = "finished" // verdict reached, vehicles frozen for display
)

// Loss reasons carried by LevelLost.
const (
	LostFailureRate       = "failure_rate"
	LostBlockedAtEntrance = "blocked_at_entrance"
)

// Snapshot is the full session state at one instant, for renderers and clients.
type Snapshot struct {
	Phase       Phase           `json:"phase"`
	Run         int             `json:"run"`
	Time        float64         `json:"time"`
	Verdict     outcome.Verdict `json:"verdict"`
	LostReason  string          `json:"lost_reason,omitempty"`
	Level       string          `json:"level"`
	Dims        grid.Dims       `json:"dims"`
	Budget      int             `json:"budget"`
	Remaining   int             `json:"remaining"` // -1 when the budget is unlimited
	Blocked     []grid.Cell     `json:"blocked"`
	CarTypes    []level.CarType `json:"car_types"`
	Roads       []grid.Road     `json:"roads"`
	Vehicles    []vehicle.Log   `json:"vehicles"`
	Occupied    []grid.Cell     `json:"occupied"` // cells held by vehicles, row-major
	Stats       outcome.Stats   `json:"stats"`
	SuccessRate float64         `json:"success_rate"`
}

// RunInput is the JSON-serialisable input to a headless run.
type RunInput struct {
	Level  level.File       `json:"level"`
	Layout level.LayoutFile `json:"layout"`
	Config json.RawMessage  `json:"config,omitempty"` // partial config, merged over the defaults
	Record int              `json:"record_every,omitempty"`
}

// RunMeta holds the identity and timing parameters of a headless run.
type RunMeta struct {
	Level    string  `json:"level"`
	TimeStep float64 `json:"time_step"` // seconds
	MaxTime  float64 `json:"max_time"`  // seconds
	Seed     uint64  `json:"seed"`
}

// LogRow is the state of every vehicle at one recorded tick.
type LogRow struct {
	Timestamp float64       `json:"timestamp"` // seconds
	Vehicles  []vehicle.Log `json:"vehicles"`
}

// RunLog is the complete output of a headless run.
type RunLog struct {
	Meta        RunMeta         `json:"meta"`
	Verdict     outcome.Verdict `json:"verdict"`
	LostReason  string          `json:"lost_reason,omitempty"`
	TimedOut    bool            `json:"timed_out"`
	Duration    float64         `json:"duration"`
	Stats       outcome.Stats   `json:"stats"`
	SuccessRate float64         `json:"success_rate"`
	Events      []event.Stamped `json:"events"`
	Output      []LogRow        `json:"output,omitempty"`
}
