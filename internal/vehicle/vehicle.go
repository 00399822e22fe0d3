// Package vehicle implements the per-vehicle state machine of the traffic simulation.
//
//	Spawning → Moving ⇄ Waiting → ReachedExit | Failed
//
// A Vehicle never touches other vehicles or the occupancy index directly. Each tick
// the scheduler calls Update with an Env through which the vehicle asks for paths
// and claims its next cell; the vehicle answers with Reports describing what happened.
package vehicle

import (
	"fmt"

	"github.com/cxd309/roadgrid-engine/internal/grid"
)

// ID is a unique vehicle identifier within a session.
type ID int64

// State is the lifecycle state of a vehicle.
type State string

const (
	StateSpawning    State = "spawning"
	StateMoving      State = "moving"
	StateWaiting     State = "waiting"
	StateReachedExit State = "reached_exit"
	StateFailed      State = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool { return s == StateReachedExit || s == StateFailed }

// FailReason explains a Failed vehicle.
type FailReason string

const ReasonTimeout FailReason = "timeout"

// Timing holds the per-vehicle durations, in seconds.
type Timing struct {
	SpawnDelay      float64 // Spawning → Moving
	CellTravelTime  float64 // time to cross one cell
	MaxWait         float64 // wait without a successful move before failing
	RerouteInterval float64 // forced path refresh while waiting
}

// Env is the scheduler-mediated view of the world a vehicle acts through.
type Env interface {
	// RequestPath returns a path from `from` to goal inclusive, or ok=false.
	RequestPath(id ID, from, goal grid.Cell) (path []grid.Cell, ok bool)
	// Claim moves the vehicle's occupancy from `from` to `to`. It fails, naming the
	// occupant, when another vehicle holds `to`.
	Claim(id ID, from, to grid.Cell) (blocker ID, ok bool)
}

// ReportKind tags a Report.
type ReportKind int

const (
	ReportMoved ReportKind = iota
	ReportWaiting
	ReportReachedExit
	ReportFailed
)

// Report is an outcome produced by Update for the scheduler to act on.
type Report struct {
	Kind ReportKind
	From grid.Cell
	To   grid.Cell
}

// Vehicle is a spawned instance of a car type.
type Vehicle struct {
	ID      ID
	CarType int
	Color   string
	Goal    grid.Cell

	Cell     grid.Cell // committed position
	Prev     grid.Cell // cell being left while Progress < 1
	Progress float64   // fraction of the current cell crossing completed
	Path     []grid.Cell
	Cursor   int // index of Cell in Path

	State      State
	FailReason FailReason
	Entered    bool // has left its entrance cell
	BlockedBy  ID   // diagnostic only; zero when not blocked by a vehicle

	WaitTime      float64 // since the last successful move
	TotalWait     float64
	Elapsed       float64
	SinceTerminal float64

	timing    Timing
	spawnLeft float64
	rerouteIn float64
}

// New creates a vehicle in the Spawning state at start. The caller must already
// hold the occupancy claim on start.
func New(id ID, carType int, color string, start, goal grid.Cell, timing Timing) *Vehicle {
	return &Vehicle{
		ID:        id,
		CarType:   carType,
		Color:     color,
		Goal:      goal,
		Cell:      start,
		Prev:      start,
		Progress:  1,
		State:     StateSpawning,
		timing:    timing,
		spawnLeft: timing.SpawnDelay,
	}
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("vehicle %d (%s) %s at %v", v.ID, v.Color, v.State, v.Cell)
}

// Update advances the vehicle by dt seconds.
func (v *Vehicle) Update(dt float64, env Env) []Report {
	v.Elapsed += dt
	switch v.State {
	case StateReachedExit, StateFailed:
		v.SinceTerminal += dt
		return nil

	case StateSpawning:
		v.spawnLeft -= dt
		if v.spawnLeft > 0 {
			return nil
		}
		v.State = StateMoving
		return v.advance(env)

	case StateMoving:
		if v.Progress < 1 {
			v.Progress += dt / v.travelTime()
			if v.Progress < 1 {
				return nil
			}
			v.Progress = 1
			if v.Cell == v.Goal {
				return v.reachExit()
			}
		}
		return v.advance(env)

	case StateWaiting:
		v.WaitTime += dt
		v.TotalWait += dt
		if v.WaitTime > v.timing.MaxWait {
			return v.fail(ReasonTimeout)
		}
		v.rerouteIn -= dt
		if v.rerouteIn <= 0 {
			v.rerouteIn = v.timing.RerouteInterval
			v.Path = nil
			return v.advance(env)
		}
		if v.Path == nil {
			// Unroutable: only the periodic refresh can help.
			return nil
		}
		return v.advance(env)
	}
	return nil
}

// advance tries to commit the next step of the path, requesting a new path first
// when there is none. It leaves the vehicle Moving (in transit) or Waiting.
func (v *Vehicle) advance(env Env) []Report {
	if v.Path == nil || v.Cursor >= len(v.Path)-1 {
		path, ok := env.RequestPath(v.ID, v.Cell, v.Goal)
		if !ok || len(path) < 2 {
			v.Path = nil
			v.BlockedBy = 0
			return v.wait()
		}
		v.Path = path
		v.Cursor = 0
	}

	next := v.Path[v.Cursor+1]
	blocker, ok := env.Claim(v.ID, v.Cell, next)
	if !ok {
		v.BlockedBy = blocker
		return v.wait()
	}

	from := v.Cell
	v.Prev = from
	v.Cell = next
	v.Cursor++
	v.Progress = 0
	v.WaitTime = 0
	v.BlockedBy = 0
	v.Entered = true
	v.State = StateMoving
	return []Report{{Kind: ReportMoved, From: from, To: next}}
}

func (v *Vehicle) wait() []Report {
	if v.State == StateWaiting {
		return nil
	}
	v.State = StateWaiting
	v.rerouteIn = v.timing.RerouteInterval
	return []Report{{Kind: ReportWaiting, From: v.Cell, To: v.Cell}}
}

func (v *Vehicle) reachExit() []Report {
	v.State = StateReachedExit
	return []Report{{Kind: ReportReachedExit, From: v.Prev, To: v.Cell}}
}

func (v *Vehicle) fail(reason FailReason) []Report {
	v.State = StateFailed
	v.FailReason = reason
	return []Report{{Kind: ReportFailed, From: v.Cell, To: v.Cell}}
}

func (v *Vehicle) travelTime() float64 {
	if v.timing.CellTravelTime <= 0 {
		return 1e-9
	}
	return v.timing.CellTravelTime
}

// Position returns the interpolated (row, col) for rendering.
func (v *Vehicle) Position() (row, col float64) {
	p := v.Progress
	if p > 1 {
		p = 1
	}
	row = float64(v.Prev.Row) + (float64(v.Cell.Row)-float64(v.Prev.Row))*p
	col = float64(v.Prev.Col) + (float64(v.Cell.Col)-float64(v.Prev.Col))*p
	return row, col
}

// Log is a point-in-time snapshot of a vehicle.
type Log struct {
	ID         ID         `json:"id"`
	CarType    int        `json:"car_type"`
	Color      string     `json:"color"`
	Cell       grid.Cell  `json:"cell"`
	Row        float64    `json:"row"`
	Col        float64    `json:"col"`
	State      State      `json:"state"`
	FailReason FailReason `json:"fail_reason,omitempty"`
	WaitTime   float64    `json:"wait_time"`
	TotalWait  float64    `json:"total_wait"`
	Elapsed    float64    `json:"elapsed"`
	BlockedBy  ID         `json:"blocked_by,omitempty"`
}

// GetLog returns a point-in-time snapshot of the vehicle.
func (v *Vehicle) GetLog() Log {
	row, col := v.Position()
	return Log{
		ID:         v.ID,
		CarType:    v.CarType,
		Color:      v.Color,
		Cell:       v.Cell,
		Row:        row,
		Col:        col,
		State:      v.State,
		FailReason: v.FailReason,
		WaitTime:   v.WaitTime,
		TotalWait:  v.TotalWait,
		Elapsed:    v.Elapsed,
		BlockedBy:  v.BlockedBy,
	}
}
