// Package engine runs one level: road editing in the build phase, and the traffic
// scheduler that spawns, moves and judges vehicles in the run phase.
//
// A Session is single-threaded. The host calls Tick (or Advance) from its own loop
// and drains the events the session queued; nothing runs in the background.
package engine

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/cxd309/roadgrid-engine/internal/config"
	"github.com/cxd309/roadgrid-engine/internal/event"
	"github.com/cxd309/roadgrid-engine/internal/graph"
	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/level"
	"github.com/cxd309/roadgrid-engine/internal/outcome"
	"github.com/cxd309/roadgrid-engine/internal/vehicle"
)

// maxStepsPerAdvance bounds the catch-up work of one Advance call.
const maxStepsPerAdvance = 25

// Session owns everything about one level: the road layout, the path provider,
// the vehicles and the occupancy index.
type Session struct {
	level     level.Level
	cfg       config.Config
	logger    *log.Logger
	layout    *grid.Layout
	paths     *graph.Provider
	evaluator outcome.Evaluator

	phase      Phase
	run        int
	time       float64
	acc        float64
	verdict    outcome.Verdict
	lostReason string

	rng       *rand.Rand
	occ       *occupancy
	vehicles  []*vehicle.Vehicle // spawn order
	nextID    vehicle.ID
	live      []int     // non-terminal vehicles per car type
	nextSpawn []float64 // seconds until each car type's next spawn attempt

	stats      outcome.Stats
	statsDirty bool
	events     []event.Stamped
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Sessions are silent by default.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session in the build phase. Level overrides are applied to cfg.
func NewSession(lvl level.Level, cfg config.Config, opts ...Option) (*Session, error) {
	cfg = cfg.WithLevel(lvl.SuccessThreshold, lvl.MaxPerType)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(lvl.CarTypes) == 0 {
		return nil, fmt.Errorf("level %q has no car types", lvl.Name)
	}
	for i, ct := range lvl.CarTypes {
		if len(ct.Entrances) == 0 {
			return nil, fmt.Errorf("level %q car type %d has no entrances", lvl.Name, i)
		}
	}

	layout := grid.NewLayout(lvl.Dims, lvl.BlockedCells(), lvl.Budget)
	s := &Session{
		level:  lvl,
		cfg:    cfg,
		logger: log.New(io.Discard),
		layout: layout,
		paths:  graph.NewProvider(layout, lvl.Endpoints()),
		evaluator: outcome.Evaluator{
			SuccessThreshold: cfg.SuccessThreshold,
			MinSampleFactor:  cfg.MinSampleFactor,
			CarTypes:         len(lvl.CarTypes),
		},
		phase:     PhaseBuild,
		verdict:   outcome.Pending,
		occ:       newOccupancy(),
		live:      make([]int, len(lvl.CarTypes)),
		nextSpawn: make([]float64, len(lvl.CarTypes)),
		stats:     outcome.NewStats(len(lvl.CarTypes)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Verdict() outcome.Verdict { return s.verdict }

// Time returns the simulation seconds since the current run started.
func (s *Session) Time() float64 { return s.time }

func (s *Session) Config() config.Config { return s.cfg }

func (s *Session) Level() level.Level { return s.level }

// Stats returns a copy of the run statistics.
func (s *Session) Stats() outcome.Stats { return s.stats.Clone() }

// Roads returns the placed roads in placement order.
func (s *Session) Roads() []grid.Road { return s.layout.Roads() }

// PathBuilds returns how many times the routing graph has been built.
func (s *Session) PathBuilds() int { return s.paths.Builds() }

// DrainEvents returns and clears the queued events.
func (s *Session) DrainEvents() []event.Stamped {
	out := s.events
	s.events = nil
	return out
}

func (s *Session) emit(e event.Event) {
	s.events = append(s.events, event.Stamped{At: s.time, Event: e})
}

// editable leaves a finished run and rejects edits during a running one.
func (s *Session) editable(op string) error {
	switch s.phase {
	case PhaseRunning:
		return fmt.Errorf("%s: %w", op, ErrRunning)
	case PhaseFinished:
		s.clearFinished(op)
	}
	return nil
}

// clearFinished discards a judged run so the level can be edited or rerun.
func (s *Session) clearFinished(op string) {
	s.teardown()
	s.logger.Info("finished run cleared", "run", s.run, "by", op)
	s.emit(event.RunStopped{Run: s.run})
}

// AddRoad places a road on c.
func (s *Session) AddRoad(c grid.Cell) error {
	if err := s.editable("add road"); err != nil {
		return err
	}
	if err := s.layout.AddRoad(c); err != nil {
		return err
	}
	s.paths.MarkDirty()
	s.logger.Debug("road added", "cell", c, "remaining", s.layout.Remaining())
	return nil
}

// RemoveRoad removes the road on c.
func (s *Session) RemoveRoad(c grid.Cell) error {
	if err := s.editable("remove road"); err != nil {
		return err
	}
	if err := s.layout.RemoveRoad(c); err != nil {
		return err
	}
	s.paths.MarkDirty()
	s.logger.Debug("road removed", "cell", c)
	return nil
}

// SetDirections replaces the direction annotations of the road on c. An empty
// list makes the road open.
func (s *Session) SetDirections(c grid.Cell, dirs []grid.Direction) error {
	if err := s.editable("set directions"); err != nil {
		return err
	}
	if err := s.layout.SetDirections(c, dirs); err != nil {
		return err
	}
	s.paths.MarkDirty()
	s.logger.Debug("directions set", "cell", c, "directions", dirs)
	return nil
}

// AddDirection layers one more annotation onto the road on c.
func (s *Session) AddDirection(c grid.Cell, d grid.Direction) error {
	if err := s.editable("add direction"); err != nil {
		return err
	}
	if err := s.layout.AddDirection(c, d); err != nil {
		return err
	}
	s.paths.MarkDirty()
	return nil
}

// ApplyRoads places every road of a saved layout, with its directions.
func (s *Session) ApplyRoads(roads []grid.Road) error {
	for _, r := range roads {
		if err := s.AddRoad(r.Cell); err != nil {
			return err
		}
		if len(r.Directions) > 0 {
			if err := s.SetDirections(r.Cell, r.Directions); err != nil {
				return err
			}
		}
	}
	return nil
}

// Start begins a run: statistics reset and spawning starts. It needs at least
// one road and fails while a run is in progress.
func (s *Session) Start() error {
	if s.phase == PhaseRunning {
		return fmt.Errorf("start: %w", ErrRunning)
	}
	if s.layout.Len() == 0 {
		return fmt.Errorf("start: %w", ErrNoRoads)
	}
	if s.phase == PhaseFinished {
		s.clearFinished("start")
	}
	s.teardown()
	s.run++
	s.phase = PhaseRunning
	s.time = 0
	s.acc = 0
	s.verdict = outcome.Pending
	s.lostReason = ""
	s.stats.Reset()
	s.nextID = 0
	s.rng = rand.New(rand.NewPCG(s.cfg.Seed, uint64(s.run)))
	for t := range s.nextSpawn {
		s.nextSpawn[t] = s.rng.Float64() * s.cfg.SpawnJitter
	}
	s.logger.Info("run started", "level", s.level.Name, "run", s.run, "roads", s.layout.Len(), "seed", s.cfg.Seed)
	s.emit(event.RunStarted{Run: s.run})
	return nil
}

// Stop ends the run, discarding every vehicle, and returns to the build phase.
func (s *Session) Stop() error {
	if s.phase == PhaseBuild {
		return fmt.Errorf("stop: %w", ErrNotRunning)
	}
	s.teardown()
	s.logger.Info("run stopped", "run", s.run, "time", s.time)
	s.emit(event.RunStopped{Run: s.run})
	return nil
}

// teardown clears vehicles and occupancy and returns to the build phase.
func (s *Session) teardown() {
	s.vehicles = nil
	s.occ.clear()
	clear(s.live)
	s.phase = PhaseBuild
}

// Advance runs as many fixed ticks as the elapsed host time covers, carrying the
// remainder to the next call. It returns the number of ticks run.
func (s *Session) Advance(elapsed float64) int {
	if s.phase != PhaseRunning {
		s.acc = 0
		return 0
	}
	step := s.cfg.TickSeconds
	s.acc += elapsed
	n := 0
	for s.acc >= step && s.phase == PhaseRunning {
		if n == maxStepsPerAdvance {
			s.logger.Debug("advance fell behind, dropping time", "dropped", s.acc)
			s.acc = 0
			break
		}
		s.Tick(step)
		s.acc -= step
		n++
	}
	return n
}

// Snapshot returns the full session state.
func (s *Session) Snapshot() Snapshot {
	vehicles := make([]vehicle.Log, len(s.vehicles))
	for i, v := range s.vehicles {
		vehicles[i] = v.GetLog()
	}
	return Snapshot{
		Phase:       s.phase,
		Run:         s.run,
		Time:        s.time,
		Verdict:     s.verdict,
		LostReason:  s.lostReason,
		Level:       s.level.Name,
		Dims:        s.level.Dims,
		Budget:      s.level.Budget,
		Remaining:   s.layout.Remaining(),
		Blocked:     s.level.BlockedCells(),
		CarTypes:    s.level.CarTypes,
		Roads:       s.layout.Roads(),
		Vehicles:    vehicles,
		Occupied:    s.occ.occupied(),
		Stats:       s.stats.Clone(),
		SuccessRate: s.stats.SuccessRate(),
	}
}
