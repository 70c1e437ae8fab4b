package signals

import (
	"math"
	"strconv"
)

// bias nudges band values away from an exact zero at the lower edge.
const bias = 0.005

// #region generate

// Generate computes the signal triple for the current payload and tray positions.
func Generate(payloadX, trayX float64, th Thresholds) Triple {
	t, _ := Classify(math.Abs(payloadX-trayX), th)
	return t
}

// Classify maps a non-negative positional error onto its band and signal triple.
// Bands are half-open and contiguous: [0,et) [et,pt) [pt,rt) [rt,inf).
func Classify(diffX float64, th Thresholds) (Triple, Band) {
	switch {
	case diffX < th.Exemption:
		return Triple{On: 1, Predictive: 0, Reflexive: 0}, BandExempt
	case diffX < th.Predictive:
		sp := round2(clamp01((diffX-th.Exemption)/(th.Predictive-th.Exemption) + bias))
		return Triple{On: 1, Predictive: sp, Reflexive: 0}, BandPredictive
	case diffX < th.Reflexive:
		sr := round2(clamp01((diffX-th.Predictive)/(th.Reflexive-th.Predictive) + bias))
		return Triple{On: 1, Predictive: 1, Reflexive: sr}, BandReflexive
	default:
		return Triple{On: 0, Predictive: 1, Reflexive: 1}, BandOut
	}
}

// #endregion generate

// #region helpers

// round2 rounds to two decimals using the exact binary value of v, ties to even.
// Logged values are compared against journals produced with this rounding, so a
// multiply-and-round shortcut is not good enough here.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// clamp01 restricts v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
