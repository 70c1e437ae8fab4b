package state

import (
	"fmt"
	"log"
	"sync"
)

// #region run-journal
// RunJournal binds a Store to one run so it can serve as a learning journal.
type RunJournal struct {
	store *Store
	runID string

	once     sync.Once
	flushErr error
}

// NewRunJournal starts a run in store seeded with seedWeight.
func NewRunJournal(store *Store, seedWeight float64) (*RunJournal, error) {
	run, err := store.BeginRun(seedWeight)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return &RunJournal{store: store, runID: run.RunID}, nil
}

// RunID returns the identifier of the bound run.
func (j *RunJournal) RunID() string {
	return j.runID
}

// Load returns the last recorded weight, or 0.0 when the store has none.
func (j *RunJournal) Load() float64 {
	w, ok, err := j.store.LastWeight()
	if err != nil {
		log.Printf("[INFO] no trace of previous weight in run store (%v), using 0.0", err)
		return 0
	}
	if !ok {
		log.Printf("[INFO] run store has no ticks yet, using 0.0")
		return 0
	}
	return w
}

// Save appends one learning record to the bound run.
func (j *RunJournal) Save(rec LogRecord) error {
	return j.store.AppendTick(j.runID, rec)
}

// Flush closes out the run with its final state. Only the first call has effect.
func (j *RunJournal) Flush(final ControlState, status RunStatus) error {
	j.once.Do(func() {
		j.flushErr = j.store.FinishRun(j.runID, final, status)
	})
	return j.flushErr
}
// #endregion run-journal
