package replay

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/actuator"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/neural"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/signals"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/update"
)

// #region types
// ReplayConfig bundles the pipeline configs a journal is re-verified against.
type ReplayConfig struct {
	UpdateConfig  update.UpdateConfig
	ComposeConfig neural.ComposeConfig
	SpeedConfig   actuator.SpeedConfig
	Tolerance     float64
}

// DefaultReplayConfig returns the controller defaults with a tight tolerance.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		UpdateConfig:  update.DefaultUpdateConfig(),
		ComposeConfig: neural.DefaultComposeConfig(),
		SpeedConfig:   actuator.DefaultSpeedConfig(),
		Tolerance:     1e-9,
	}
}

// ReplayResult is the re-derivation of one journal row.
type ReplayResult struct {
	Index    int
	Session  int // increments whenever the journal restarts (a new process run)
	Attempt  int
	Action   string // update decision: "learn" | "hold" | "first_tick"
	Expected state.LogRecord
	Match    bool
	Reason   string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTicks  int
	Matches     int
	Mismatches  int
	Learns      int
	Holds       int
	FirstTicks  int
	Sessions    int
	FinalWeight float64
}

// #endregion types

// #region replay
// Replay recomputes every row of a journal from the row before it and reports
// whether the logged derivative, weight, neural output and speed agree.
//
// History between rows is rebuilt the way the controller keeps it: the previous
// row's time is always the previous tick time; the previous reflex carries over
// within an attempt and across a single stall reset, and is cleared otherwise.
// A row whose attempt or timestamp goes backwards starts a new session seeded
// with the last logged weight.
func Replay(records []state.LogRecord, config ReplayConfig) []ReplayResult {
	results := make([]ReplayResult, 0, len(records))
	if len(records) == 0 {
		return results
	}

	first := records[0]
	weight := first.Weight - config.UpdateConfig.LearningRate*first.Predictive*first.Derivative
	var prevTime, prevReflex float64
	session := 1

	for i, rec := range records {
		if i > 0 {
			prev := records[i-1]
			weight = prev.Weight
			switch {
			case rec.Attempt < prev.Attempt || rec.Timestamp <= prev.Timestamp:
				session++
				prevTime, prevReflex = 0, 0
			case rec.Attempt == prev.Attempt:
				prevTime, prevReflex = prev.Timestamp, prev.Reflexive
			case rec.Attempt == prev.Attempt+1 && math.Abs(prev.Speed) < config.SpeedConfig.StallFloor:
				prevTime, prevReflex = prev.Timestamp, prev.Reflexive
			default:
				prevTime, prevReflex = prev.Timestamp, 0
			}
		}

		up := update.Update(update.UpdateInput{
			Predictive:    rec.Predictive,
			Reflexive:     rec.Reflexive,
			PrevReflexive: prevReflex,
			Weight:        weight,
			Time:          rec.Timestamp,
			PrevTime:      prevTime,
		}, config.UpdateConfig)
		triple := signals.Triple{On: 1, Predictive: rec.Predictive, Reflexive: rec.Reflexive}
		o := neural.Compose(triple, weight, config.ComposeConfig)
		cmd := actuator.MapSpeed(o, config.SpeedConfig)

		expected := state.LogRecord{
			Timestamp:  rec.Timestamp,
			Attempt:    rec.Attempt,
			Weight:     up.Weight,
			Predictive: rec.Predictive,
			Reflexive:  rec.Reflexive,
			Derivative: up.Derivative,
			Neural:     o,
			Speed:      cmd.Raw,
		}
		reason := compare(rec, expected, config.Tolerance)
		results = append(results, ReplayResult{
			Index:    i,
			Session:  session,
			Attempt:  rec.Attempt,
			Action:   up.Decision.Action,
			Expected: expected,
			Match:    reason == "",
			Reason:   reason,
		})
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalTicks: len(results)}
	for _, r := range results {
		if r.Match {
			s.Matches++
		} else {
			s.Mismatches++
		}
		switch r.Action {
		case "learn":
			s.Learns++
		case "hold":
			s.Holds++
		case "first_tick":
			s.FirstTicks++
		}
		s.Sessions = r.Session
		s.FinalWeight = r.Expected.Weight
	}
	return s
}

func compare(got, want state.LogRecord, tol float64) string {
	fields := []struct {
		name      string
		got, want float64
	}{
		{"derivative", got.Derivative, want.Derivative},
		{"weight", got.Weight, want.Weight},
		{"o_neural", got.Neural, want.Neural},
		{"o_speed", got.Speed, want.Speed},
	}
	for _, f := range fields {
		if math.Abs(f.got-f.want) > tol {
			return fmt.Sprintf("%s: logged %v, recomputed %v", f.name, f.got, f.want)
		}
	}
	return ""
}

// #endregion replay
