package physics

import (
	"fmt"
	"math"
	"sync"
)

// #region config
// SimConfig describes the 1-D world: two bodies on a line bounded by walls.
type SimConfig struct {
	WorldWidth     float64
	TrayWidth      float64
	PayloadWidth   float64
	Friction       float64 // coefficient between payload and whatever it rests on
	Gravity        float64 // m/s²
	PixelsPerMeter float64
	TrayHome       Vec2
	PayloadHome    Vec2
}

// DefaultSimConfig returns the standard tray world.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		WorldWidth:     800,
		TrayWidth:      200,
		PayloadWidth:   50,
		Friction:       1.0,
		Gravity:        9.81,
		PixelsPerMeter: 200,
		TrayHome:       Vec2{X: 100, Y: 25},
		PayloadHome:    Vec2{X: 100, Y: 75},
	}
}

// FrictionAccel is the largest speed change per second friction can impose, in px/s².
func (c SimConfig) FrictionAccel() float64 {
	return c.Friction * c.Gravity * c.PixelsPerMeter
}
// #endregion config

// #region sim
type body struct {
	pos Vec2
	vel Vec2
}

// Sim is an in-process friction-coupled tray and payload. The tray is kinematic:
// it moves at its commanded velocity until it meets a wall. The payload is dragged
// toward the tray's velocity while it rests on the tray, and slowed by ground
// friction once it has slid off.
type Sim struct {
	mu     sync.Mutex
	config SimConfig
	bodies [2]body
	clock  float64
}

// NewSim places both bodies at their home positions, at rest.
func NewSim(config SimConfig) *Sim {
	s := &Sim{config: config}
	s.bodies[Tray].pos = config.TrayHome
	s.bodies[Payload].pos = config.PayloadHome
	return s
}

// Config returns the world configuration.
func (s *Sim) Config() SimConfig {
	return s.config
}

// Clock returns the total simulated time in seconds.
func (s *Sim) Clock() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

func (s *Sim) Position(b Body) (Vec2, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkBody(b); err != nil {
		return Vec2{}, err
	}
	return s.bodies[b].pos, nil
}

func (s *Sim) Velocity(b Body) (Vec2, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkBody(b); err != nil {
		return Vec2{}, err
	}
	return s.bodies[b].vel, nil
}

func (s *Sim) SetVelocity(b Body, v Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkBody(b); err != nil {
		return err
	}
	s.bodies[b].vel = v
	return nil
}

func (s *Sim) SetPosition(b Body, p Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkBody(b); err != nil {
		return err
	}
	s.bodies[b].pos = p
	return nil
}

// Step advances the world by dt seconds.
func (s *Sim) Step(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("step: invalid dt %v", dt)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tray := &s.bodies[Tray]
	payload := &s.bodies[Payload]
	maxDv := s.config.FrictionAccel() * dt

	onTray := math.Abs(payload.pos.X-tray.pos.X) <= s.config.TrayWidth/2
	if onTray {
		payload.vel.X += clamp(tray.vel.X-payload.vel.X, -maxDv, maxDv)
	} else {
		payload.vel.X -= clamp(payload.vel.X, -maxDv, maxDv)
	}

	tray.pos.X += tray.vel.X * dt
	payload.pos.X += payload.vel.X * dt

	s.confine(tray, s.config.TrayWidth)
	s.confine(payload, s.config.PayloadWidth)
	s.clock += dt
	return nil
}

// Reset returns both bodies to their home positions, at rest.
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[Tray] = body{pos: s.config.TrayHome}
	s.bodies[Payload] = body{pos: s.config.PayloadHome}
}

// confine stops a body of the given width at the walls.
func (s *Sim) confine(b *body, width float64) {
	lo, hi := width/2, s.config.WorldWidth-width/2
	if b.pos.X < lo {
		b.pos.X = lo
		b.vel.X = 0
	} else if b.pos.X > hi {
		b.pos.X = hi
		b.vel.X = 0
	}
}
// #endregion sim

// #region helpers
func checkBody(b Body) error {
	if b != Tray && b != Payload {
		return fmt.Errorf("unknown body %d", int(b))
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
// #endregion helpers
