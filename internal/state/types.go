package state

import "time"

// #region phase
// Phase is the episode controller's lifecycle state.
type Phase string

const (
	PhaseRunning    Phase = "RUNNING"
	PhaseResetting  Phase = "RESETTING"
	PhaseConfirming Phase = "CONFIRMING"
	PhaseTerminated Phase = "TERMINATED"
)
// #endregion phase

// #region outcome
// Outcome classifies what a single tick did to the episode.
type Outcome string

const (
	OutcomeContinuing  Outcome = "continuing"
	OutcomeSoftReset   Outcome = "soft_reset"
	OutcomeGoalReached Outcome = "goal_reached"
	OutcomeStallReset  Outcome = "stall_reset"
	OutcomeDiverged    Outcome = "diverged" // fatal, raised by the weight gate
)
// #endregion outcome

// #region control-state
// ControlState is everything the learning loop carries from one tick to the next.
// Only PrevReflexive is cleared on episode boundaries; Weight is never reset.
type ControlState struct {
	Attempt       int
	RedoCount     int
	PrevTime      float64
	PrevReflexive float64
	Weight        float64
	Phase         Phase
	LastOutcome   Outcome
}

// NewControlState returns the initial state for a run seeded with weight.
func NewControlState(weight float64) ControlState {
	return ControlState{
		Attempt:     1,
		Weight:      weight,
		Phase:       PhaseRunning,
		LastOutcome: OutcomeContinuing,
	}
}

// Terminated reports whether the run has ended.
func (c ControlState) Terminated() bool {
	return c.Phase == PhaseTerminated
}
// #endregion control-state

// #region log-record
// LogRecord is one learning tick, persisted once and never modified.
type LogRecord struct {
	Timestamp  float64 // simulation time, seconds
	Attempt    int
	Weight     float64 // weight after this tick's update
	Predictive float64
	Reflexive  float64
	Derivative float64
	Neural     float64 // o_neural
	Speed      float64 // o_speed before the stall cutoff
}
// #endregion log-record

// #region run-record
// RunStatus is the final disposition of one controller process run.
type RunStatus string

const (
	StatusRunning     RunStatus = "running"
	StatusConverged   RunStatus = "converged"
	StatusDiverged    RunStatus = "diverged"
	StatusInterrupted RunStatus = "interrupted"
	StatusFailed      RunStatus = "failed"
)

// RunRecord summarizes one controller run in the SQLite store.
type RunRecord struct {
	RunID       string
	StartedAt   time.Time
	EndedAt     time.Time // zero while running
	SeedWeight  float64
	FinalWeight float64
	Attempts    int
	RedoCount   int
	Status      RunStatus
	TickCount   int
}
// #endregion run-record
