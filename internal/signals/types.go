package signals

// #region thresholds

// Thresholds holds the positional-error band edges, in world units (pixels).
type Thresholds struct {
	Exemption  float64 // below this the payload may drift without any signal
	Predictive float64 // soft-adaptation band starts at Exemption, ends here
	Reflexive  float64 // learning band ends here; beyond it the payload is lost
}

// DefaultThresholds returns the 10/30/70 band layout.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Exemption:  10,
		Predictive: 30,
		Reflexive:  70,
	}
}

// #endregion thresholds

// #region band

// Band identifies which threshold band a positional error falls into.
type Band int

const (
	BandExempt Band = iota
	BandPredictive
	BandReflexive
	BandOut
)

func (b Band) String() string {
	switch b {
	case BandExempt:
		return "exempt"
	case BandPredictive:
		return "predictive"
	case BandReflexive:
		return "reflexive"
	case BandOut:
		return "out"
	default:
		return "unknown"
	}
}

// #endregion band

// #region triple

// Triple is the (so, sp, sr) signal set produced for one tick.
type Triple struct {
	On         float64 // so: 1 while the payload is inside the learning region
	Predictive float64 // sp
	Reflexive  float64 // sr
}

// Lost reports whether the payload has left the learning region.
func (t Triple) Lost() bool {
	return t.On == 0 || t.Reflexive == 1
}

// #endregion triple
