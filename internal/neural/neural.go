package neural

import "github.com/danielpatrickdp/tray-ico/go-controller/internal/signals"

// ComposeConfig holds the fixed gains of the three input pathways.
type ComposeConfig struct {
	OnGain         float64 // co
	PredictiveGain float64 // cp
	ReflexWeight   float64 // wr, the fixed reflex pathway weight
}

// DefaultComposeConfig returns co=1, cp=0.01, wr=1.
func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		OnGain:         1,
		PredictiveGain: 0.01,
		ReflexWeight:   1,
	}
}

// Compose combines the signal triple and the adaptive weight into one neural output.
// The result is not clamped; values above 1 reverse the actuator downstream.
func Compose(t signals.Triple, weight float64, config ComposeConfig) float64 {
	onTerm := config.OnGain * t.On * weight
	predictiveTerm := config.PredictiveGain * t.Predictive * weight
	reflexTerm := t.Reflexive * config.ReflexWeight
	return onTerm + predictiveTerm + reflexTerm
}
