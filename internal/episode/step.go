package episode

import (
	"math"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/actuator"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/gate"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/neural"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/signals"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/update"
)

// #region step
// Step is the pure per-tick transition of the learning loop.
//
// Order of evaluation:
//  1. weight gate: an out-of-range weight terminates before anything acts on it
//  2. payload lost (so == 0 or sr == 1): soft reset, no learning
//  3. learn: update, compose, map, record
//  4. goal reached takes precedence over a stall on the same tick
//
// The neural output uses the weight the tick started with; the record carries the
// updated weight.
func Step(cs state.ControlState, obs Observation, cfg Config) (state.ControlState, TickResult) {
	if cs.Terminated() {
		return cs, TickResult{Outcome: cs.LastOutcome}
	}

	gd := gate.NewGate(cfg.Gate).Evaluate(cs.Weight)
	if gd.Vetoed {
		cs.Phase = state.PhaseTerminated
		cs.LastOutcome = state.OutcomeDiverged
		return cs, TickResult{Outcome: state.OutcomeDiverged, Gate: gd}
	}

	triple, band := signals.Classify(math.Abs(obs.PayloadX-obs.TrayX), cfg.Thresholds)
	res := TickResult{Triple: triple, Band: band, Gate: gd}

	if triple.Lost() {
		cs = SoftReset(cs)
		res.Outcome = state.OutcomeSoftReset
		res.Reset = true
		return cs, res
	}

	up := update.Update(update.UpdateInput{
		Predictive:    triple.Predictive,
		Reflexive:     triple.Reflexive,
		PrevReflexive: cs.PrevReflexive,
		Weight:        cs.Weight,
		Time:          obs.Time,
		PrevTime:      cs.PrevTime,
	}, cfg.Update)
	o := neural.Compose(triple, cs.Weight, cfg.Compose)
	cmd := actuator.MapSpeed(o, cfg.Speed)

	res.Decision = up.Decision
	res.Command = cmd
	res.Record = &state.LogRecord{
		Timestamp:  obs.Time,
		Attempt:    cs.Attempt,
		Weight:     up.Weight,
		Predictive: triple.Predictive,
		Reflexive:  triple.Reflexive,
		Derivative: up.Derivative,
		Neural:     o,
		Speed:      cmd.Raw,
	}

	cs.Weight = up.Weight
	cs.PrevTime = obs.Time
	cs.PrevReflexive = triple.Reflexive

	switch {
	case obs.TrayX >= cfg.GoalX:
		cs.PrevReflexive = 0
		cs.RedoCount++
		cs.Attempt++
		cs.LastOutcome = state.OutcomeGoalReached
		cs.Phase = state.PhaseResetting
		if cs.RedoCount >= cfg.RedoTarget {
			cs.Phase = state.PhaseTerminated
		}
		res.Outcome = state.OutcomeGoalReached
		res.Reset = true
	case cmd.Stalled:
		cs.Attempt++
		cs.RedoCount = 0
		cs.LastOutcome = state.OutcomeStallReset
		cs.Phase = state.PhaseResetting
		res.Outcome = state.OutcomeStallReset
		res.Reset = true
	default:
		cs.LastOutcome = state.OutcomeContinuing
		cs.Phase = state.PhaseRunning
		if cs.RedoCount > 0 {
			cs.Phase = state.PhaseConfirming
		}
		res.Outcome = state.OutcomeContinuing
	}
	return cs, res
}
// #endregion step

// #region soft-reset
// SoftReset is the bookkeeping of an out-of-band reset, automatic or manual:
// the reflex history is cleared, a new attempt starts and any confirmation
// streak is broken. Weight and PrevTime are untouched.
func SoftReset(cs state.ControlState) state.ControlState {
	cs.PrevReflexive = 0
	cs.Attempt++
	cs.RedoCount = 0
	cs.LastOutcome = state.OutcomeSoftReset
	cs.Phase = state.PhaseResetting
	return cs
}
// #endregion soft-reset
