package episode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/logging"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/operator"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/physics"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// #region controller
// Controller owns the ControlState and drives one engine through the learning loop.
// It is not safe for concurrent use; operator input reaches it through Run's channel.
type Controller struct {
	engine  physics.Engine
	journal logging.Journal
	config  Config

	state state.ControlState
	clock float64
	ticks int

	// manualDrive holds an operator velocity through the next physics step.
	manualDrive bool

	flushOnce sync.Once
	flushErr  error
}

// NewController seeds the weight from journal and returns a controller in RUNNING.
func NewController(engine physics.Engine, journal logging.Journal, config Config) *Controller {
	seed := journal.Load()
	log.Printf("[INFO] controller seeded with weight %.6f", seed)
	return &Controller{
		engine:  engine,
		journal: journal,
		config:  config,
		state:   state.NewControlState(seed),
	}
}

// State returns a copy of the current control state.
func (c *Controller) State() state.ControlState {
	return c.state
}

// Clock returns the simulated time of the next tick.
func (c *Controller) Clock() float64 {
	return c.clock
}

// Ticks returns how many ticks have run.
func (c *Controller) Ticks() int {
	return c.ticks
}
// #endregion controller

// #region tick
// Tick reads the world, runs one Step, persists the record and applies the result.
// A returned error wraps ErrDiverged, ErrPersist, or a physics failure; all are fatal.
func (c *Controller) Tick() (TickResult, error) {
	tray, err := c.engine.Position(physics.Tray)
	if err != nil {
		return TickResult{}, fmt.Errorf("read tray: %w", err)
	}
	payload, err := c.engine.Position(physics.Payload)
	if err != nil {
		return TickResult{}, fmt.Errorf("read payload: %w", err)
	}

	next, res := Step(c.state, Observation{Time: c.clock, TrayX: tray.X, PayloadX: payload.X}, c.config)
	if res.Outcome == state.OutcomeDiverged {
		c.state = next
		return res, fmt.Errorf("%w: %s", ErrDiverged, res.Gate.Reason)
	}

	if res.Record != nil {
		if err := c.journal.Save(*res.Record); err != nil {
			return res, fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}
	c.state = next

	if res.Reset {
		if err := c.resetBodies(); err != nil {
			return res, err
		}
	} else if !c.manualDrive {
		if err := c.engine.SetVelocity(physics.Tray, physics.Vec2{X: res.Command.Speed}); err != nil {
			return res, fmt.Errorf("command tray: %w", err)
		}
	}

	if err := c.engine.Step(c.config.TimeStep); err != nil {
		return res, fmt.Errorf("advance physics: %w", err)
	}
	c.manualDrive = false
	c.clock += c.config.TimeStep
	c.ticks++

	if res.Outcome != state.OutcomeContinuing {
		log.Printf("[INFO] attempt %d: %s (weight=%.6f redo=%d phase=%s)",
			c.state.Attempt, res.Outcome, c.state.Weight, c.state.RedoCount, c.state.Phase)
	}
	return res, nil
}

func (c *Controller) resetBodies() error {
	if err := physics.ResetBodies(c.engine, c.config.TrayHome, c.config.PayloadHome); err != nil {
		return fmt.Errorf("reset bodies: %w", err)
	}
	return nil
}
// #endregion tick

// #region operator
// Reset performs a manual reset through the same path as an out-of-band one.
func (c *Controller) Reset() error {
	if c.state.Terminated() {
		return nil
	}
	c.state = SoftReset(c.state)
	c.manualDrive = false
	return c.resetBodies()
}

// Apply executes one operator command. It reports whether the run should stop.
// A drive command sets the tray velocity and holds it for the next physics step;
// the learning command resumes on the tick after.
func (c *Controller) Apply(cmd operator.Command) (quit bool, err error) {
	switch cmd.Kind {
	case operator.Drive:
		log.Printf("[INFO] operator: %s (%.1f px/s)", cmd.Name, cmd.Speed)
		if err := c.engine.SetVelocity(physics.Tray, physics.Vec2{X: cmd.Speed}); err != nil {
			return false, fmt.Errorf("operator drive: %w", err)
		}
		c.manualDrive = true
		return false, nil
	case operator.Reset:
		log.Printf("[INFO] operator: reset")
		return false, c.Reset()
	case operator.Quit:
		log.Printf("[INFO] operator: quit")
		return true, nil
	default:
		return false, fmt.Errorf("unknown operator command kind %d", cmd.Kind)
	}
}
// #endregion operator

// #region run
// RunOptions control the pacing and length of Run.
type RunOptions struct {
	Commands <-chan operator.Command // optional
	MaxTicks int                     // 0 means no limit
	Pace     time.Duration           // wall-clock time per tick; 0 runs flat out
}

// Run ticks until the run terminates, fails, is cancelled or is told to quit.
// Every exit path goes through the single Flush.
func (c *Controller) Run(ctx context.Context, opts RunOptions) (state.RunStatus, error) {
	var pace <-chan time.Time
	if opts.Pace > 0 {
		ticker := time.NewTicker(opts.Pace)
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		if c.state.Terminated() {
			return c.finish(state.StatusConverged, nil)
		}
		if opts.MaxTicks > 0 && c.ticks >= opts.MaxTicks {
			log.Printf("[INFO] tick limit %d reached", opts.MaxTicks)
			return c.finish(state.StatusInterrupted, nil)
		}

		select {
		case <-ctx.Done():
			return c.finish(state.StatusInterrupted, nil)
		default:
		}

		quit, err := c.drain(opts.Commands)
		if err != nil {
			return c.finish(state.StatusFailed, err)
		}
		if quit {
			return c.finish(state.StatusInterrupted, nil)
		}

		if _, err := c.Tick(); err != nil {
			if errors.Is(err, ErrDiverged) {
				return c.finish(state.StatusDiverged, err)
			}
			return c.finish(state.StatusFailed, err)
		}

		if pace != nil {
			select {
			case <-ctx.Done():
				return c.finish(state.StatusInterrupted, nil)
			case <-pace:
			}
		}
	}
}

// drain applies every pending operator command without blocking.
func (c *Controller) drain(cmds <-chan operator.Command) (bool, error) {
	if cmds == nil {
		return false, nil
	}
	for {
		select {
		case cmd, ok := <-cmds:
			if !ok {
				return false, nil
			}
			quit, err := c.Apply(cmd)
			if err != nil || quit {
				return quit, err
			}
		default:
			return false, nil
		}
	}
}

func (c *Controller) finish(status state.RunStatus, runErr error) (state.RunStatus, error) {
	if err := c.Flush(status); err != nil {
		log.Printf("[ERROR] final flush: %v", err)
		if runErr == nil {
			runErr = err
		}
	}
	return status, runErr
}
// #endregion run

// #region flush
// Flush writes the final state to the journal once. Every later call, from any exit
// path, returns the first result.
func (c *Controller) Flush(status state.RunStatus) error {
	c.flushOnce.Do(func() {
		log.Printf("[INFO] flushing: status=%s weight=%.6f attempt=%d", status, c.state.Weight, c.state.Attempt)
		c.flushErr = c.journal.Flush(c.state, status)
	})
	return c.flushErr
}
// #endregion flush
