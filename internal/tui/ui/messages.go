package ui

import "github.com/felixgeelhaar/summitforms/internal/domain/wizard"

// AdvancedMsg reports the outcome of a step advance that ran in the
// background, such as a submission.
type AdvancedMsg struct {
	Transition wizard.Transition
	Err        error
}

// ImageSelectedMsg reports the outcome of processing a chosen image.
type ImageSelectedMsg struct {
	Field string
	Path  string
	Err   error
}
