package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoDivergence VetoType = "weight_divergence"
	VetoNonFinite  VetoType = "weight_non_finite"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds the bounds the adaptive weight must stay within.
type GateConfig struct {
	MaxWeight float64 // weight above this means the learning rate is too aggressive
}

// DefaultGateConfig returns the 1.0 weight ceiling.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxWeight: 1.0,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the pre-tick weight check.
type GateDecision struct {
	Action      string // "proceed" | "abort"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
	Headroom    float64      // MaxWeight - weight (for logging)
}

// #endregion gate-decision
