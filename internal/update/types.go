package update

// #region update-input
// UpdateInput carries one tick's signals and timing into the pure update function.
type UpdateInput struct {
	Predictive    float64 // sp this tick
	Reflexive     float64 // sr this tick
	PrevReflexive float64 // sr on the previous learning tick (0 after a reset)
	Weight        float64 // wa before this tick
	Time          float64 // simulation time of this tick, seconds
	PrevTime      float64 // simulation time of the previous learning tick
}
// #endregion update-input

// #region decision
// Decision records which branch of the update rule fired.
type Decision struct {
	Action string // "learn" | "hold" | "first_tick"
	Reason string
}
// #endregion decision

// #region update-config
// UpdateConfig holds the learning parameters for the correlation rule.
type UpdateConfig struct {
	LearningRate float64 // scales sp * d(sr)/dt into the weight (default 0.01)
}

// DefaultUpdateConfig returns the fixed 0.01 learning rate.
func DefaultUpdateConfig() UpdateConfig {
	return UpdateConfig{
		LearningRate: 0.01,
	}
}
// #endregion update-config

// #region update-result
// UpdateResult bundles everything returned by Update().
type UpdateResult struct {
	Weight     float64 // wa after this tick
	Derivative float64 // rising-edge d(sr)/dt, 0 when gated off
	Decision   Decision
}
// #endregion update-result
