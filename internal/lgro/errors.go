package lgro

import (
	"errors"
	"fmt"
)

var (
	ErrDatasetNotFound    = errors.New("reorganization dataset not found")
	ErrDatasetMalformed   = errors.New("reorganization dataset malformed")
	ErrEntityNotFound     = errors.New("entity not found")
	ErrEntityAmbiguous    = errors.New("entity ambiguous")
	ErrTypeMismatch       = errors.New("district type mismatch")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrDependencyUnmet    = errors.New("dependency unmet")
)

// StepError records why processing of one entity stopped.
type StepError struct {
	Kind   error  // one of the Err* sentinels
	Step   string // e.g. "resolve", "insert district", "move towns"
	Entity string
	ID     int
	Err    error // underlying cause, may be nil
}

func (e *StepError) Error() string {
	subject := e.Entity
	if e.ID != 0 {
		subject = fmt.Sprintf("%s (%d)", e.Entity, e.ID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Step, subject, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Step, subject, e.Kind)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is matches the error's Kind so callers can test errors.Is(err, ErrEntityAmbiguous).
func (e *StepError) Is(target error) bool {
	return e.Kind == target
}

func stepErr(kind error, step, entity string, id int, cause error) *StepError {
	return &StepError{Kind: kind, Step: step, Entity: entity, ID: id, Err: cause}
}
