package episode

import (
	"errors"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/actuator"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/gate"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/neural"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/physics"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/signals"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/update"
)

var (
	// ErrDiverged means the adaptive weight left its allowed range. Fatal.
	ErrDiverged = errors.New("adaptive weight diverged")
	// ErrPersist means a learning record could not be written. Fatal.
	ErrPersist = errors.New("persist learning record")
)

// #region config
// Config gathers every constant of the learning loop.
type Config struct {
	Thresholds  signals.Thresholds
	Update      update.UpdateConfig
	Compose     neural.ComposeConfig
	Speed       actuator.SpeedConfig
	Gate        gate.GateConfig
	GoalX       float64 // tray x at or past this is one successful delivery
	RedoTarget  int     // consecutive deliveries needed to confirm the weight
	TimeStep    float64 // simulated seconds per tick
	TrayHome    physics.Vec2
	PayloadHome physics.Vec2
}

// DefaultConfig returns the standard controller: 60 ticks per simulated second,
// goal at x=699, two confirming deliveries.
func DefaultConfig() Config {
	sim := physics.DefaultSimConfig()
	return Config{
		Thresholds:  signals.DefaultThresholds(),
		Update:      update.DefaultUpdateConfig(),
		Compose:     neural.DefaultComposeConfig(),
		Speed:       actuator.DefaultSpeedConfig(),
		Gate:        gate.DefaultGateConfig(),
		GoalX:       699,
		RedoTarget:  2,
		TimeStep:    1.0 / 60,
		TrayHome:    sim.TrayHome,
		PayloadHome: sim.PayloadHome,
	}
}
// #endregion config

// #region tick-types
// Observation is the part of the world one tick reads.
type Observation struct {
	Time     float64 // simulated seconds
	TrayX    float64
	PayloadX float64
}

// TickResult describes what one tick decided. The caller applies it to the world.
type TickResult struct {
	Outcome  state.Outcome
	Triple   signals.Triple
	Band     signals.Band
	Record   *state.LogRecord // nil unless this was a learning tick
	Decision update.Decision
	Command  actuator.Command
	Gate     gate.GateDecision
	Reset    bool // both bodies go home at rest; Command is not applied
}
// #endregion tick-types
