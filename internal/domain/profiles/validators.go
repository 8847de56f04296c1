package profiles

import (
	"fmt"

	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/felixgeelhaar/summitforms/internal/domain/wizard"
)

// ValidatorFactory builds a step's custom validator from the step's fields
// and the validator_fields listed in the profile.
type ValidatorFactory func(step []Field, args []string) (wizard.CustomValidator, error)

// Validators are the custom step validators a profile may name.
var Validators = map[string]ValidatorFactory{
	"consents":        consents,
	"passwords_match": passwordsMatch,
}

// consents requires every checkbox on the step to be ticked.
func consents(step []Field, _ []string) (wizard.CustomValidator, error) {
	var boxes []string
	for _, f := range step {
		if f.Kind == fields.KindCheckbox {
			boxes = append(boxes, f.Name)
		}
	}
	if len(boxes) == 0 {
		return nil, fmt.Errorf("consents: step has no checkboxes")
	}
	return func(s *form.State) (bool, string) {
		for _, b := range boxes {
			if !s.Bool(b) {
				return false, "Please tick every declaration to continue"
			}
		}
		return true, ""
	}, nil
}

// passwordsMatch requires the two named fields to hold the same text.
func passwordsMatch(_ []Field, args []string) (wizard.CustomValidator, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("passwords_match: needs exactly two fields, got %d", len(args))
	}
	password, confirm := args[0], args[1]
	return func(s *form.State) (bool, string) {
		if s.Text(password) != s.Text(confirm) {
			return false, "Passwords do not match"
		}
		return true, ""
	}, nil
}
