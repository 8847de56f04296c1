// Package wizard implements the step state machine shared by the
// nomination and registration forms.
package wizard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
)

// ErrInvalidDefinition is returned by NewDefinition for malformed step lists.
var ErrInvalidDefinition = errors.New("invalid wizard definition")

// CustomValidator is an extra, step-level rule such as "both consent boxes
// are checked". It returns false and a message when the rule fails.
type CustomValidator func(state *form.State) (ok bool, message string)

// StepDefinition describes one step of a wizard.
type StepDefinition struct {
	ID          int
	Name        string
	Title       string
	Description string
	// Fields lists every field shown on the step, required or not.
	Fields         []string
	RequiredFields []string
	Validator      CustomValidator
}

// Definition is the ordered step list of one form. Step 0 is the
// requirements overview and the last step is the terminal success page.
type Definition struct {
	Form  form.Kind
	Steps []StepDefinition
}

// NewDefinition validates steps and returns a Definition. Ids must run
// contiguously from 0, the overview and success steps must not require
// anything, and there must be at least one data step in between.
func NewDefinition(kind form.Kind, steps []StepDefinition) (Definition, error) {
	if len(steps) < 3 {
		return Definition{}, fmt.Errorf("%w: %s needs an overview, at least one data step and a success step", ErrInvalidDefinition, kind)
	}
	for i, s := range steps {
		if s.ID != i {
			return Definition{}, fmt.Errorf("%w: %s step %d has id %d", ErrInvalidDefinition, kind, i, s.ID)
		}
		for _, f := range s.RequiredFields {
			if !slices.Contains(s.Fields, f) {
				return Definition{}, fmt.Errorf("%w: %s step %d requires %q but does not show it", ErrInvalidDefinition, kind, i, f)
			}
		}
	}
	last := len(steps) - 1
	if len(steps[0].RequiredFields) > 0 || steps[0].Validator != nil {
		return Definition{}, fmt.Errorf("%w: %s overview step must always be passable", ErrInvalidDefinition, kind)
	}
	if len(steps[last].Fields) > 0 || steps[last].Validator != nil {
		return Definition{}, fmt.Errorf("%w: %s success step must not collect data", ErrInvalidDefinition, kind)
	}
	return Definition{Form: kind, Steps: steps}, nil
}

// Terminal returns the id of the success step.
func (d Definition) Terminal() int { return len(d.Steps) - 1 }

// LastDataStep returns the id of the step whose advance submits the form.
func (d Definition) LastDataStep() int { return len(d.Steps) - 2 }

// Step returns the definition of step id.
func (d Definition) Step(id int) (StepDefinition, bool) {
	if id < 0 || id >= len(d.Steps) {
		return StepDefinition{}, false
	}
	return d.Steps[id], true
}
