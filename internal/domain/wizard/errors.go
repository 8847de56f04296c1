package wizard

import (
	"errors"
	"fmt"
	"strings"
)

// Transition errors.
var (
	// ErrTerminal is returned when moving away from the success step by any
	// means other than Restart.
	ErrTerminal = errors.New("wizard is complete; restart to begin again")
	// ErrNotComplete is returned by Restart before the form was submitted.
	ErrNotComplete = errors.New("wizard can only be restarted after a successful submission")
	// ErrSubmitting is returned for edits and moves while a submission is in flight.
	ErrSubmitting = errors.New("submission in progress")
)

// StepGateError reports why the current step may not be left forwards. It
// disables the "next" control and is not shown as a form error.
type StepGateError struct {
	Step    int
	Missing []string
	Invalid []string
	Reason  string
}

func (e *StepGateError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("step %d is not complete", e.Step)
	}
	return fmt.Sprintf("step %d is not complete: %s", e.Step, strings.Join(parts, "; "))
}
