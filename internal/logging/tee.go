package logging

import (
	"errors"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// Journal is the persistence contract the controller writes to.
type Journal interface {
	Load() float64
	Save(rec state.LogRecord) error
	Flush(final state.ControlState, status state.RunStatus) error
}

// #region tee
// Tee fans records out to several journals. The seed weight comes from the first one.
type Tee struct {
	primary Journal
	mirrors []Journal
}

// NewTee returns a journal that loads from primary and writes to primary and every mirror.
func NewTee(primary Journal, mirrors ...Journal) *Tee {
	return &Tee{primary: primary, mirrors: mirrors}
}

func (t *Tee) Load() float64 {
	return t.primary.Load()
}

// Save writes to every journal in order and stops at the first failure.
func (t *Tee) Save(rec state.LogRecord) error {
	if err := t.primary.Save(rec); err != nil {
		return err
	}
	for _, m := range t.mirrors {
		if err := m.Save(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every journal even if one fails, and joins the errors.
func (t *Tee) Flush(final state.ControlState, status state.RunStatus) error {
	errs := []error{t.primary.Flush(final, status)}
	for _, m := range t.mirrors {
		errs = append(errs, m.Flush(final, status))
	}
	return errors.Join(errs...)
}
// #endregion tee
