package surveillance

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation rejects input before anything is written.
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("surveillance record not found")
	// ErrRedirectUnresolved means the record was saved but no company could
	// be found to return to.
	ErrRedirectUnresolved = errors.New("saved, but the employer company could not be determined")
)

// PrimaryWriteError means the examination row was not stored and no
// dependent was attempted.
type PrimaryWriteError struct {
	Err error
}

func (e *PrimaryWriteError) Error() string {
	return fmt.Sprintf("save examination record: %v", e.Err)
}

func (e *PrimaryWriteError) Unwrap() error { return e.Err }

// Dependent names one of the detail tables written after the primary row.
type Dependent string

const (
	DependentTargetOrgan    Dependent = "target_organ"
	DependentBiological     Dependent = "biological_monitoring"
	DependentFitness        Dependent = "fitness_respirator"
	DependentConclusion     Dependent = "conclusion"
	DependentRecommendation Dependent = "recommendations"
)

// DependentWriteError is a non-fatal failure of one detail table.
type DependentWriteError struct {
	Dependent Dependent
	Err       error
}

func (e DependentWriteError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Dependent, e.Err)
}

func (e DependentWriteError) Unwrap() error { return e.Err }
