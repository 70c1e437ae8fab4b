package actuator

import "math"

// #region speed-config

// SpeedConfig holds the actuator scaling and the stall cutoff.
type SpeedConfig struct {
	MaxSpeed   float64 // px/s commanded at zero neural output
	StallFloor float64 // |speed| below this is treated as a stall
}

// DefaultSpeedConfig returns 1500 px/s with a 1.0 px/s stall floor.
func DefaultSpeedConfig() SpeedConfig {
	return SpeedConfig{
		MaxSpeed:   1500,
		StallFloor: 1.0,
	}
}

// #endregion speed-config

// #region command

// Command is the mapped actuator velocity for one tick.
type Command struct {
	Raw     float64 // speed as computed, before the stall cutoff (this is what gets logged)
	Speed   float64 // speed actually sent to the actuator
	Stalled bool
}

// MapSpeed converts a neural output into an actuator command.
// Negative speeds are allowed and reverse the tray.
func MapSpeed(o float64, config SpeedConfig) Command {
	raw := config.MaxSpeed - config.MaxSpeed*o
	if math.Abs(raw) < config.StallFloor {
		return Command{Raw: raw, Speed: 0, Stalled: true}
	}
	return Command{Raw: raw, Speed: raw}
}

// #endregion command
