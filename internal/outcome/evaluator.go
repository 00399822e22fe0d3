package outcome

import "math"

// Verdict is the level decision.
type Verdict string

const (
	Pending Verdict = "pending"
	Won     Verdict = "won"
	Lost    Verdict = "lost"
)

// Evaluator decides WON/LOST from aggregate statistics once enough vehicles have
// terminated: ceil(MinSampleFactor × car types), at least one.
type Evaluator struct {
	SuccessThreshold float64 // reached / terminated needed to win
	MinSampleFactor  float64 // sample size per distinct car type
	CarTypes         int
}

// MinSample returns the number of terminated vehicles required before judging.
func (e Evaluator) MinSample() int {
	n := int(math.Ceil(e.MinSampleFactor * float64(e.CarTypes)))
	if n < 1 {
		n = 1
	}
	return n
}

// Evaluate returns the verdict for the given statistics. The win threshold is
// checked first; independently, more failures than arrivals loses the level.
func (e Evaluator) Evaluate(s Stats) Verdict {
	if s.Terminated() < e.MinSample() {
		return Pending
	}
	if s.SuccessRate() >= e.SuccessThreshold {
		return Won
	}
	if s.Failed > s.Reached {
		return Lost
	}
	return Pending
}
