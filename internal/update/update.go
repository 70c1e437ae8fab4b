package update

import "fmt"

// #region update-function
// Update is a pure function that applies one step of the modified ICO rule.
//
// The correlation term only fires on a rising or flat reflex signal: a falling
// sr means the controller is already recovering, so the weight is left alone.
// A zero time delta (first tick of a sequence) yields a zero derivative.
func Update(in UpdateInput, config UpdateConfig) UpdateResult {
	tDelta := in.Time - in.PrevTime

	if tDelta == 0 {
		return UpdateResult{
			Weight:     in.Weight,
			Derivative: 0,
			Decision:   Decision{Action: "first_tick", Reason: "no time delta since previous tick"},
		}
	}

	var derivative float64
	decision := Decision{Action: "hold", Reason: fmt.Sprintf("reflex falling: %.2f < %.2f", in.Reflexive, in.PrevReflexive)}
	if in.Reflexive >= in.PrevReflexive {
		derivative = (in.Reflexive - in.PrevReflexive) / tDelta
		decision = Decision{Action: "learn", Reason: fmt.Sprintf("reflex rising: d=%.6f", derivative)}
	}

	return UpdateResult{
		Weight:     in.Weight + config.LearningRate*in.Predictive*derivative,
		Derivative: derivative,
		Decision:   decision,
	}
}

// #endregion update-function
