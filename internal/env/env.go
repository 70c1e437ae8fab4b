package env

import (
	"fmt"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/physics"
)

// #region config
// EnvConfig shapes the delivery task exposed to an external trainer.
type EnvConfig struct {
	ActionScale float64 // raw action is multiplied by this to get tray speed
	Substeps    int     // physics steps per env step, all with the same action
	SubstepDt   float64
	FailDiff    float64 // tray x minus payload x above this fails the delivery
	GoalX       float64 // tray x at or beyond this completes the delivery
	TrayHome    physics.Vec2
	PayloadHome physics.Vec2
}

// DefaultEnvConfig returns the standard delivery task.
func DefaultEnvConfig() EnvConfig {
	sim := physics.DefaultSimConfig()
	return EnvConfig{
		ActionScale: 10,
		Substeps:    10,
		SubstepDt:   1.0 / 1000,
		FailDiff:    30,
		GoalX:       699,
		TrayHome:    sim.TrayHome,
		PayloadHome: sim.PayloadHome,
	}
}
// #endregion config

// #region types
// Observation is what the trainer sees after every reset and step.
type Observation struct {
	TrayX     float64
	TrayVX    float64
	PayloadX  float64
	PayloadVX float64
	Diff      float64 // TrayX - PayloadX, signed
}

// Vector returns the observation in its fixed five-element order.
func (o Observation) Vector() []float64 {
	return []float64{o.TrayX, o.TrayVX, o.PayloadX, o.PayloadVX, o.Diff}
}

// ObservationFromVector is the inverse of Vector.
func ObservationFromVector(v []float64) (Observation, error) {
	if len(v) != 5 {
		return Observation{}, fmt.Errorf("observation needs 5 values, got %d", len(v))
	}
	return Observation{TrayX: v[0], TrayVX: v[1], PayloadX: v[2], PayloadVX: v[3], Diff: v[4]}, nil
}

// StepResult follows the reset/step contract of common RL environments.
type StepResult struct {
	Observation Observation
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        map[string]any
}
// #endregion types

// #region env
// DeliveryEnv wraps a physics engine as a reset/step environment.
type DeliveryEnv struct {
	engine physics.Engine
	config EnvConfig
}

// New returns an environment over engine.
func New(engine physics.Engine, config EnvConfig) *DeliveryEnv {
	return &DeliveryEnv{engine: engine, config: config}
}

// Reset puts both bodies home and returns the first observation.
func (e *DeliveryEnv) Reset() (Observation, map[string]any, error) {
	if err := physics.ResetBodies(e.engine, e.config.TrayHome, e.config.PayloadHome); err != nil {
		return Observation{}, nil, err
	}
	obs, err := e.observe()
	if err != nil {
		return Observation{}, nil, err
	}
	return obs, map[string]any{}, nil
}

// Step drives the tray at action*ActionScale for Substeps physics steps.
// Episodes never truncate; a wall-clock limit belongs to the trainer.
func (e *DeliveryEnv) Step(action float64) (StepResult, error) {
	speed := action * e.config.ActionScale
	if err := e.engine.SetVelocity(physics.Tray, physics.Vec2{X: speed}); err != nil {
		return StepResult{}, fmt.Errorf("set tray velocity: %w", err)
	}
	for i := 0; i < e.config.Substeps; i++ {
		if err := e.engine.Step(e.config.SubstepDt); err != nil {
			return StepResult{}, fmt.Errorf("substep %d: %w", i, err)
		}
	}

	obs, err := e.observe()
	if err != nil {
		return StepResult{}, err
	}
	reward, terminated := e.judge(obs)
	return StepResult{
		Observation: obs,
		Reward:      reward,
		Terminated:  terminated,
		Info:        map[string]any{},
	}, nil
}

// judge scores an observation: -1 for a failed delivery, +1 for reaching the goal.
// Both can apply at once.
func (e *DeliveryEnv) judge(obs Observation) (reward float64, terminated bool) {
	failed := obs.Diff > e.config.FailDiff
	delivered := obs.TrayX >= e.config.GoalX
	if failed {
		reward--
	}
	if delivered {
		reward++
	}
	return reward, failed || delivered
}

func (e *DeliveryEnv) observe() (Observation, error) {
	tp, err := e.engine.Position(physics.Tray)
	if err != nil {
		return Observation{}, fmt.Errorf("tray position: %w", err)
	}
	tv, err := e.engine.Velocity(physics.Tray)
	if err != nil {
		return Observation{}, fmt.Errorf("tray velocity: %w", err)
	}
	pp, err := e.engine.Position(physics.Payload)
	if err != nil {
		return Observation{}, fmt.Errorf("payload position: %w", err)
	}
	pv, err := e.engine.Velocity(physics.Payload)
	if err != nil {
		return Observation{}, fmt.Errorf("payload velocity: %w", err)
	}
	return Observation{
		TrayX:     tp.X,
		TrayVX:    tv.X,
		PayloadX:  pp.X,
		PayloadVX: pv.X,
		Diff:      tp.X - pp.X,
	}, nil
}
// #endregion env
