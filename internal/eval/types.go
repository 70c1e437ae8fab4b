package eval

// #region eval-config
// EvalConfig holds thresholds for judging a finished learning run.
type EvalConfig struct {
	MaxWeight  float64 // reject if the weight ever exceeded this
	MaxSpeed   float64 // warn if any commanded speed magnitude exceeds this
	StallFloor float64 // |speed| below this counted as a stall
}

// DefaultEvalConfig matches the controller defaults.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MaxWeight:  1.0,
		MaxSpeed:   1500,
		StallFloor: 1.0,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of run validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// Metric returns the named metric, if present.
func (r EvalResult) Metric(name string) (EvalMetric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return EvalMetric{}, false
}

// #endregion eval-result
