package physics

import "fmt"

// Body identifies one of the two simulated objects.
type Body int

const (
	Tray Body = iota
	Payload
)

func (b Body) String() string {
	switch b {
	case Tray:
		return "tray"
	case Payload:
		return "payload"
	default:
		return "unknown"
	}
}

// ParseBody maps a body name back to its identifier.
func ParseBody(name string) (Body, error) {
	switch name {
	case "tray":
		return Tray, nil
	case "payload":
		return Payload, nil
	default:
		return 0, fmt.Errorf("unknown body %q", name)
	}
}

// Vec2 is a world-space vector in pixels (or pixels per second).
type Vec2 struct {
	X, Y float64
}

// Engine is the physics world the controller reads from and commands.
// Remote engines can fail, so every call returns an error.
type Engine interface {
	Position(b Body) (Vec2, error)
	Velocity(b Body) (Vec2, error)
	SetVelocity(b Body, v Vec2) error
	SetPosition(b Body, p Vec2) error
	Step(dt float64) error
}

// ResetBodies puts both bodies back at the given home positions, at rest.
func ResetBodies(e Engine, trayHome, payloadHome Vec2) error {
	for _, b := range []struct {
		body Body
		home Vec2
	}{{Tray, trayHome}, {Payload, payloadHome}} {
		if err := e.SetVelocity(b.body, Vec2{}); err != nil {
			return fmt.Errorf("reset %s velocity: %w", b.body, err)
		}
		if err := e.SetPosition(b.body, b.home); err != nil {
			return fmt.Errorf("reset %s position: %w", b.body, err)
		}
	}
	return nil
}
