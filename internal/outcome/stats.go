// Package outcome aggregates run statistics and decides whether a level is won or lost.
package outcome

import (
	"github.com/samber/lo"
)

// Counts are spawned/reached/failed totals for one car type or the whole run.
type Counts struct {
	Spawned int `json:"spawned"`
	Reached int `json:"reached"`
	Failed  int `json:"failed"`
}

// Terminated returns reached + failed.
func (c Counts) Terminated() int { return c.Reached + c.Failed }

// SuccessRate returns reached / terminated, or 0 before anything terminated.
func (c Counts) SuccessRate() float64 {
	if c.Terminated() == 0 {
		return 0
	}
	return float64(c.Reached) / float64(c.Terminated())
}

// Stats are the run statistics, overall and per car type (indexed by car type).
type Stats struct {
	Counts
	ByType []Counts `json:"by_type"`
}

// NewStats returns zeroed statistics for n car types.
func NewStats(n int) Stats {
	return Stats{ByType: make([]Counts, n)}
}

// Reset zeroes all counters, keeping the number of car types.
func (s *Stats) Reset() {
	*s = NewStats(len(s.ByType))
}

// RecordSpawn records a spawn of carType.
func (s *Stats) RecordSpawn(carType int) {
	s.Spawned++
	s.ByType[carType].Spawned++
}

// RecordReached records a vehicle of carType reaching its exit.
func (s *Stats) RecordReached(carType int) {
	s.Reached++
	s.ByType[carType].Reached++
}

// RecordFailed records a vehicle of carType failing.
func (s *Stats) RecordFailed(carType int) {
	s.Failed++
	s.ByType[carType].Failed++
}

// Clone returns a deep copy safe to hand to observers.
func (s Stats) Clone() Stats {
	return Stats{Counts: s.Counts, ByType: lo.Map(s.ByType, func(c Counts, _ int) Counts { return c })}
}

// Consistent reports whether the per-type counters add up to the overall ones.
func (s Stats) Consistent() bool {
	sum := lo.Reduce(s.ByType, func(acc Counts, c Counts, _ int) Counts {
		return Counts{acc.Spawned + c.Spawned, acc.Reached + c.Reached, acc.Failed + c.Failed}
	}, Counts{})
	return sum == s.Counts
}
