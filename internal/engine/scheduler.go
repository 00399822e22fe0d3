package engine

import (
	"github.com/samber/lo"

	"github.com/cxd309/roadgrid-engine/internal/event"
	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/outcome"
	"github.com/cxd309/roadgrid-engine/internal/vehicle"
)

// Tick advances the running simulation by dt seconds.
//
// Order within a tick:
//
//  1. Vehicles update in spawn order. Each claims its next cell through the
//     occupancy index, so later vehicles see earlier moves.
//  2. A vehicle that timed out without entering the grid loses the level at once.
//  3. The evaluator judges the aggregate statistics; a verdict ends the run.
//  4. Terminal vehicles past their grace period are removed.
//  5. Car types whose spawn timer expired try to spawn.
func (s *Session) Tick(dt float64) {
	if s.phase != PhaseRunning || dt <= 0 {
		return
	}
	s.time += dt

	env := sessionEnv{s}
	var stranded vehicle.ID
	for _, v := range s.vehicles {
		for _, r := range v.Update(dt, env) {
			if s.handle(v, r) && stranded == 0 {
				stranded = v.ID
			}
		}
	}

	if stranded != 0 {
		s.finish(outcome.Lost, LostBlockedAtEntrance, stranded)
		return
	}
	if verdict := s.evaluator.Evaluate(s.stats); verdict != outcome.Pending {
		s.finish(verdict, LostFailureRate, 0)
		return
	}

	s.prune()
	s.spawn(dt)
	s.flushStats()
}

// handle turns one vehicle report into occupancy, statistics and events. It
// returns true when the vehicle failed without ever entering the grid.
func (s *Session) handle(v *vehicle.Vehicle, r vehicle.Report) bool {
	switch r.Kind {
	case vehicle.ReportMoved:
		s.emit(event.VehicleMoved{Vehicle: v.ID, From: r.From, To: r.To})

	case vehicle.ReportWaiting:
		s.logger.Debug("vehicle waiting", "vehicle", v.ID, "cell", v.Cell, "blocked_by", v.BlockedBy, "routed", v.Path != nil)

	case vehicle.ReportReachedExit:
		s.occ.release(v.ID, v.Cell)
		s.live[v.CarType]--
		s.stats.RecordReached(v.CarType)
		s.statsDirty = true
		s.emit(event.VehicleReachedExit{Vehicle: v.ID, Elapsed: v.Elapsed, TotalWait: v.TotalWait})

	case vehicle.ReportFailed:
		s.occ.release(v.ID, v.Cell)
		s.live[v.CarType]--
		s.stats.RecordFailed(v.CarType)
		s.statsDirty = true
		s.emit(event.VehicleFailed{
			Vehicle:      v.ID,
			Reason:       v.FailReason,
			Cell:         v.Cell,
			Elapsed:      v.Elapsed,
			TotalWait:    v.TotalWait,
			NeverEntered: !v.Entered,
		})
		s.logger.Warn("vehicle failed", "vehicle", v.ID, "color", v.Color, "reason", v.FailReason, "cell", v.Cell, "entered", v.Entered)
		return !v.Entered
	}
	return false
}

// finish records a verdict and freezes the run for display.
func (s *Session) finish(verdict outcome.Verdict, reason string, culprit vehicle.ID) {
	s.flushStats()
	s.phase = PhaseFinished
	s.verdict = verdict
	stats := s.stats.Clone()
	rate := s.stats.SuccessRate()
	if verdict == outcome.Won {
		s.emit(event.LevelWon{SuccessRate: rate, Stats: stats})
		s.logger.Info("level won", "run", s.run, "time", s.time, "success_rate", rate, "reached", stats.Reached, "failed", stats.Failed)
		return
	}
	s.lostReason = reason
	s.emit(event.LevelLost{SuccessRate: rate, Stats: stats, Reason: reason, Vehicle: culprit})
	s.logger.Info("level lost", "run", s.run, "time", s.time, "reason", reason, "success_rate", rate, "vehicle", culprit)
}

func (s *Session) flushStats() {
	if !s.statsDirty {
		return
	}
	s.statsDirty = false
	s.emit(event.StatsUpdated{Stats: s.stats.Clone(), SuccessRate: s.stats.SuccessRate()})
}

// prune drops terminal vehicles whose grace period ran out. Arrivals leave
// quickly; failures linger so the failure cue stays visible.
func (s *Session) prune() {
	s.vehicles = lo.Filter(s.vehicles, func(v *vehicle.Vehicle, _ int) bool {
		var grace float64
		switch v.State {
		case vehicle.StateReachedExit:
			grace = s.cfg.ExitGrace
		case vehicle.StateFailed:
			grace = s.cfg.FailGrace
		default:
			return true
		}
		if v.SinceTerminal < grace {
			return true
		}
		s.emit(event.VehicleRemoved{Vehicle: v.ID})
		return false
	})
}

// spawn counts down every car type's timer. When one expires it is rescheduled
// at the interval plus jitter, and a spawn is attempted. An attempt is skipped,
// not retried, when the type is at its cap or the chosen entrance is occupied.
func (s *Session) spawn(dt float64) {
	for t, ct := range s.level.CarTypes {
		s.nextSpawn[t] -= dt
		if s.nextSpawn[t] > 0 {
			continue
		}
		s.nextSpawn[t] = s.cfg.SpawnInterval + s.rng.Float64()*s.cfg.SpawnJitter

		if s.live[t] >= s.cfg.MaxPerType {
			s.logger.Debug("spawn skipped: type at capacity", "car_type", t, "live", s.live[t])
			continue
		}
		entrance := ct.Entrances[s.rng.IntN(len(ct.Entrances))]
		if occupant, taken := s.occ.occupant(entrance.Cell, 0); taken {
			s.logger.Debug("spawn skipped: entrance occupied", "car_type", t, "entrance", entrance.Cell, "occupant", occupant)
			continue
		}
		s.spawnAt(t, entrance.Cell)
	}
}

// spawnAt creates a vehicle of car type t on a free entrance cell.
func (s *Session) spawnAt(t int, entrance grid.Cell) *vehicle.Vehicle {
	ct := s.level.CarTypes[t]
	s.nextID++
	v := vehicle.New(s.nextID, t, ct.Color, entrance, ct.Exit.Cell, s.timing())
	s.occ.put(v.ID, v.Cell)
	s.vehicles = append(s.vehicles, v)
	s.live[t]++
	s.stats.RecordSpawn(t)
	s.statsDirty = true
	s.emit(event.VehicleSpawned{Vehicle: v.ID, CarType: t, Color: ct.Color, Cell: v.Cell})
	s.logger.Debug("vehicle spawned", "vehicle", v.ID, "car_type", t, "entrance", entrance)
	return v
}

func (s *Session) timing() vehicle.Timing {
	return vehicle.Timing{
		SpawnDelay:      s.cfg.SpawnDelay,
		CellTravelTime:  s.cfg.CellTravelTime,
		MaxWait:         s.cfg.MaxWait,
		RerouteInterval: s.cfg.RerouteInterval,
	}
}

// sessionEnv is the view of the session handed to vehicles.
type sessionEnv struct{ s *Session }

func (e sessionEnv) RequestPath(_ vehicle.ID, from, goal grid.Cell) ([]grid.Cell, bool) {
	return e.s.paths.RequestPath(from, goal)
}

func (e sessionEnv) Claim(id vehicle.ID, from, to grid.Cell) (vehicle.ID, bool) {
	return e.s.occ.claim(id, from, to)
}
