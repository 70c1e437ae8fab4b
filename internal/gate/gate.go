package gate

import (
	"fmt"
	"math"
)

// #region gate
// Gate checks the adaptive weight before the controller is allowed to act on it.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Config returns the active configuration.
func (g *Gate) Config() GateConfig {
	return g.config
}

// Evaluate runs the hard veto pass on the current weight.
// Any veto is fatal for the run: the weight is not retried or clamped.
func (g *Gate) Evaluate(weight float64) GateDecision {
	var vetoes []VetoSignal

	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNonFinite,
			Reason: fmt.Sprintf("weight is %v", weight),
		})
	} else if weight > g.config.MaxWeight {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoDivergence,
			Reason: fmt.Sprintf("weight %.6f exceeds %.6f", weight, g.config.MaxWeight),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "abort",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	return GateDecision{
		Action:   "proceed",
		Reason:   fmt.Sprintf("weight %.6f within bound", weight),
		Headroom: g.config.MaxWeight - weight,
	}
}

// #endregion gate
