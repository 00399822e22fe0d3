package engine

import (
	"encoding/json"
	"fmt"

	"github.com/cxd309/roadgrid-engine/internal/config"
	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/level"
	"github.com/cxd309/roadgrid-engine/internal/outcome"
	"github.com/cxd309/roadgrid-engine/internal/vehicle"
)

// Run places roads, starts a run and ticks at the fixed step until a verdict or
// cfg.MaxTime. Every recordEvery-th tick is captured in the log output; zero
// records nothing but the events.
func Run(lvl level.Level, roads []grid.Road, cfg config.Config, recordEvery int, opts ...Option) (RunLog, error) {
	s, err := NewSession(lvl, cfg, opts...)
	if err != nil {
		return RunLog{}, fmt.Errorf("creating session: %w", err)
	}
	if err := s.ApplyRoads(roads); err != nil {
		return RunLog{}, fmt.Errorf("placing roads: %w", err)
	}
	if err := s.Start(); err != nil {
		return RunLog{}, err
	}
	return s.runToVerdict(recordEvery), nil
}

func (s *Session) runToVerdict(recordEvery int) RunLog {
	cfg := s.cfg
	log := RunLog{Meta: RunMeta{
		Level:    s.level.Name,
		TimeStep: cfg.TickSeconds,
		MaxTime:  cfg.MaxTime,
		Seed:     cfg.Seed,
	}}
	for tick := 0; s.phase == PhaseRunning; tick++ {
		if s.time+cfg.TickSeconds > cfg.MaxTime+1e-9 {
			log.TimedOut = true
			break
		}
		s.Tick(cfg.TickSeconds)
		if recordEvery > 0 && tick%recordEvery == 0 {
			log.Output = append(log.Output, s.logRow())
		}
	}
	log.Events = s.DrainEvents()
	log.Verdict = s.verdict
	log.LostReason = s.lostReason
	log.Duration = s.time
	log.Stats = s.stats.Clone()
	log.SuccessRate = s.stats.SuccessRate()
	if log.Verdict == outcome.Pending {
		s.logger.Warn("run reached max_time without a verdict", "max_time", cfg.MaxTime, "terminated", log.Stats.Terminated())
	}
	return log
}

func (s *Session) logRow() LogRow {
	row := LogRow{Timestamp: s.time, Vehicles: make([]vehicle.Log, len(s.vehicles))}
	for i, v := range s.vehicles {
		row.Vehicles[i] = v.GetLog()
	}
	return row
}

// RunJSON is the entry point shared by the CLI and WASM builds. It accepts a
// JSON-encoded RunInput, runs it headless, and returns a JSON-encoded RunLog.
func RunJSON(jsonInput string, opts ...Option) (string, error) {
	var input RunInput
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	report := level.Validate(&input.Level)
	if !report.Valid {
		return "", &level.InvalidError{Report: report}
	}
	cfg := config.Default()
	if len(input.Config) > 0 {
		var err error
		if cfg, err = config.Parse(input.Config); err != nil {
			return "", err
		}
	}
	roads, err := input.Layout.Normalize()
	if err != nil {
		return "", err
	}

	runLog, err := Run(input.Level.Normalize(), roads, cfg, input.Record, opts...)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(runLog)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
