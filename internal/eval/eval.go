package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// #region eval-harness
// EvalHarness checks a journal of learning records for convergence health.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates a journal's records in write order. The journal may span several
// process runs; a timestamp that does not advance starts a new session, and each
// session numbers its attempts from 1 again.
// Blocking checks: final and peak weight within bound, weight never decreasing,
// attempts never going backwards within a session. Everything else is informational.
func (h *EvalHarness) Run(records []state.LogRecord) EvalResult {
	if len(records) == 0 {
		return EvalResult{Passed: false, Reason: "eval failed: no learning records"}
	}

	var metrics []EvalMetric
	var failReasons []string
	check := func(name string, value float64, pass bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, reason)
		}
	}
	info := func(name string, value float64, pass bool) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
	}

	first, last := records[0], records[len(records)-1]

	// 1. Weight bounds
	peak := peakWeight(records)
	check("final_weight", last.Weight, last.Weight <= h.config.MaxWeight,
		fmt.Sprintf("final weight %.6f exceeds %.6f", last.Weight, h.config.MaxWeight))
	check("max_weight", peak, peak <= h.config.MaxWeight,
		fmt.Sprintf("peak weight %.6f exceeds %.6f", peak, h.config.MaxWeight))

	// 2. The learning rule can only add to the weight
	drops := weightDrops(records)
	check("weight_drops", float64(drops), drops == 0,
		fmt.Sprintf("weight decreased %d times", drops))

	// 3. Attempt bookkeeping
	sessions := splitSessions(records)
	rewinds := 0
	for _, sess := range sessions {
		rewinds += attemptRewinds(sess)
	}
	check("attempt_rewinds", float64(rewinds), rewinds == 0,
		fmt.Sprintf("attempt index went backwards %d times", rewinds))

	// 4. Informational
	attempts := 0
	for _, sess := range sessions {
		attempts += sess[len(sess)-1].Attempt - sess[0].Attempt + 1
	}
	info("sessions", float64(len(sessions)), true)
	info("attempts", float64(attempts), true)
	info("learning_ticks", float64(learningTicks(records)), true)
	info("weight_gain", last.Weight-first.Weight, true)
	stalls := stallCount(records, h.config.StallFloor)
	info("stalls", float64(stalls), true)
	fastest := peakSpeed(records)
	info("peak_speed", fastest, fastest <= h.config.MaxSpeed)

	reason := "all checks passed"
	if len(failReasons) > 0 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func peakWeight(recs []state.LogRecord) float64 {
	peak := math.Inf(-1)
	for _, r := range recs {
		if r.Weight > peak || math.IsNaN(r.Weight) {
			peak = r.Weight
		}
	}
	return peak
}

func weightDrops(recs []state.LogRecord) int {
	n := 0
	for i := 1; i < len(recs); i++ {
		if recs[i].Weight < recs[i-1].Weight {
			n++
		}
	}
	return n
}

// splitSessions cuts the journal wherever the simulated clock restarts.
func splitSessions(recs []state.LogRecord) [][]state.LogRecord {
	var sessions [][]state.LogRecord
	start := 0
	for i := 1; i < len(recs); i++ {
		if recs[i].Timestamp <= recs[i-1].Timestamp {
			sessions = append(sessions, recs[start:i])
			start = i
		}
	}
	return append(sessions, recs[start:])
}

func attemptRewinds(recs []state.LogRecord) int {
	n := 0
	for i := 1; i < len(recs); i++ {
		if recs[i].Attempt < recs[i-1].Attempt {
			n++
		}
	}
	return n
}

// learningTicks counts records whose update actually moved the weight.
func learningTicks(recs []state.LogRecord) int {
	n := 0
	for _, r := range recs {
		if r.Derivative > 0 && r.Predictive > 0 {
			n++
		}
	}
	return n
}

func stallCount(recs []state.LogRecord, floor float64) int {
	n := 0
	for _, r := range recs {
		if math.Abs(r.Speed) < floor {
			n++
		}
	}
	return n
}

func peakSpeed(recs []state.LogRecord) float64 {
	var peak float64
	for _, r := range recs {
		peak = math.Max(peak, math.Abs(r.Speed))
	}
	return peak
}

// #endregion helpers
