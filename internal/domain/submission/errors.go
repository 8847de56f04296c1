package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
)

// Failure kinds, matched with errors.Is against a *SubmissionError.
var (
	ErrValidationRejected = errors.New("submission rejected")
	ErrServerError        = errors.New("server error")
	ErrNetworkFailure     = errors.New("network failure")
)

// SubmissionError is the single error reported when every attempt of a
// submission failed. Final is the most informative failure of the cascade.
type SubmissionError struct {
	Form      form.Kind
	RequestID string
	Final     Result
	Attempts  []Result
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s submission failed after %d attempts: %s", e.Form, e.tried(), e.Final.Summary())
}

// Unwrap exposes the failure kind and, for network failures, the cause.
func (e *SubmissionError) Unwrap() []error {
	var kind error
	switch e.Final.Outcome {
	case OutcomeValidationRejected:
		kind = ErrValidationRejected
	case OutcomeNetworkFailure:
		kind = ErrNetworkFailure
	default:
		kind = ErrServerError
	}
	if e.Final.Cause != nil {
		return []error{kind, e.Final.Cause}
	}
	return []error{kind}
}

// FieldErrors returns the per-field messages of a validation rejection.
func (e *SubmissionError) FieldErrors() map[string]string {
	return e.Final.FieldErrors
}

// UserMessage renders the failure for people: what went wrong and what to
// try next.
func (e *SubmissionError) UserMessage() string {
	var b strings.Builder
	b.WriteString("We could not submit your ")
	b.WriteString(string(e.Form))
	b.WriteString(".\n\n")
	b.WriteString(capitalize(e.Final.Summary()))
	b.WriteString(".\n\n")

	switch e.Final.Outcome {
	case OutcomeValidationRejected:
		b.WriteString("Please correct the fields above and submit again.\n\n")
	case OutcomeNetworkFailure:
		b.WriteString("The server could not be reached.\n\n")
	}

	b.WriteString("Things you can try:\n")
	b.WriteString("  - check your internet connection\n")
	b.WriteString("  - make sure every required field is filled in\n")
	b.WriteString("  - try again later, or contact support")
	if e.RequestID != "" {
		b.WriteString(" quoting reference ")
		b.WriteString(e.RequestID)
	}
	b.WriteString("\n")
	return b.String()
}

func (e *SubmissionError) tried() int {
	n := 0
	for _, r := range e.Attempts {
		if r.Outcome != OutcomeSkipped {
			n++
		}
	}
	return n
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
