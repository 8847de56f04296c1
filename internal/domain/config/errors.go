package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound   = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse      = "CONFIG_PARSE"
	ErrCodeConfigInvalid    = "CONFIG_INVALID"
	ErrCodeEnvInvalid       = "ENV_INVALID"
	ErrCodeAnswersInvalid   = "ANSWERS_INVALID"
	ErrCodeUnknownForm      = "UNKNOWN_FORM"
	ErrCodeUnknownField     = "UNKNOWN_FIELD"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeImageRejected    = "IMAGE_REJECTED"
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
)

// UserError is an error meant for the person at the keyboard: what went
// wrong, where, and what to do about it.
type UserError struct {
	Code       string // Error code for categorization (e.g., "CONFIG_PARSE")
	Message    string // User-friendly error message
	Context    string // File path, field name or other location context
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the message and, when known, where it happened.
func (e *UserError) Error() string {
	if e.Context == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (at %s)", e.Message, e.Context)
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is matches another *UserError with the same code.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns the error with its code, location and suggestion.
func (e *UserError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	return b.String()
}

// NewUserError creates a new UserError with the given code and message.
func NewUserError(code, message string) *UserError {
	return &UserError{Code: code, Message: message}
}

// WithContext returns a copy with context set.
func (e *UserError) WithContext(ctx string) *UserError {
	c := *e
	c.Context = ctx
	return &c
}

// WithSuggestion returns a copy with suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// WithUnderlying returns a copy wrapping err.
func (e *UserError) WithUnderlying(err error) *UserError {
	c := *e
	c.Underlying = err
	return &c
}

// ErrorList accumulates problems so they can be reported together.
type ErrorList struct {
	errors []*UserError
}

// NewErrorList creates an empty ErrorList.
func NewErrorList() *ErrorList {
	return &ErrorList{errors: make([]*UserError, 0)}
}

// Add adds an error to the list. Nil errors are ignored.
func (l *ErrorList) Add(err *UserError) {
	if err != nil {
		l.errors = append(l.errors, err)
	}
}

// AddValidation adds a validation error for field.
func (l *ErrorList) AddValidation(field, message, suggestion string) {
	l.Add(&UserError{
		Code:       ErrCodeValidationFailed,
		Message:    message,
		Context:    field,
		Suggestion: suggestion,
	})
}

// HasErrors reports whether anything was added.
func (l *ErrorList) HasErrors() bool { return len(l.errors) > 0 }

// Len returns the number of errors.
func (l *ErrorList) Len() int { return len(l.errors) }

// Errors returns a copy of the accumulated errors.
func (l *ErrorList) Errors() []*UserError {
	out := make([]*UserError, len(l.errors))
	copy(out, l.errors)
	return out
}

func (l *ErrorList) Error() string {
	switch len(l.errors) {
	case 0:
		return ""
	case 1:
		return l.errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:\n", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes the accumulated errors to errors.Is and errors.As.
func (l *ErrorList) Unwrap() []error {
	out := make([]error, len(l.errors))
	for i, err := range l.errors {
		out[i] = err
	}
	return out
}

// AsError returns the list as an error, or nil if empty.
func (l *ErrorList) AsError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// NewConfigNotFoundError reports an explicitly requested settings file
// that does not exist.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    fmt.Sprintf("settings file not found: %s", path),
		Context:    path,
		Suggestion: "Check the --config path, or omit it to use the defaults.",
	}
}

// NewInvalidSettingError reports a setting with an unusable value.
func NewInvalidSettingError(key, message string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigInvalid,
		Message:    fmt.Sprintf("invalid setting %s: %s", key, message),
		Context:    key,
		Suggestion: "Fix the value in summitforms.yaml or the matching SUMMITFORMS_ environment variable.",
	}
}

// NewUnknownFormError reports a form name that has no profile.
func NewUnknownFormError(name string, available []string) *UserError {
	return &UserError{
		Code:       ErrCodeUnknownForm,
		Message:    fmt.Sprintf("unknown form '%s'", name),
		Suggestion: "Available forms: " + strings.Join(available, ", "),
	}
}

// NewUnknownFieldError reports an answers entry the form does not define.
func NewUnknownFieldError(field, path string) *UserError {
	return &UserError{
		Code:       ErrCodeUnknownField,
		Message:    fmt.Sprintf("unknown field '%s'", field),
		Context:    path,
		Suggestion: "Run 'summitforms steps <form>' to list the fields of each step.",
	}
}

// IsUserError reports whether err is a UserError with code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// GetUserError extracts a UserError from an error chain, if present.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}

// NewYAMLParseError translates YAML decoder errors into something a person
// can act on.
func NewYAMLParseError(path string, err error) *UserError {
	errStr := err.Error()
	var message, suggestion string

	switch {
	case strings.Contains(errStr, "cannot unmarshal !!seq into map"):
		message = "expected an object but found a list"
		suggestion = "Check that you're using 'key: value' format instead of '- item' list format."
	case strings.Contains(errStr, "cannot unmarshal !!str into time.Duration"),
		strings.Contains(errStr, "time: invalid duration"):
		message = "invalid duration"
		suggestion = "Durations look like 15s, 500ms or 1m."
	case strings.Contains(errStr, "cannot unmarshal !!str into"):
		message = "unexpected string value"
		suggestion = "Numbers and booleans must not be quoted."
	case strings.Contains(errStr, "did not find expected key"):
		message = "missing key or incorrect indentation"
		suggestion = "YAML is sensitive to indentation. Use 2 spaces (not tabs) for each level."
	case strings.Contains(errStr, "mapping values are not allowed"):
		message = "invalid YAML structure"
		suggestion = "Check for missing colons after keys, or incorrect indentation."
	case strings.Contains(errStr, "found character that cannot start"):
		message = "invalid character in YAML"
		suggestion = "Quote string values that contain special characters like ':', '#', or '{'."
	default:
		message = "invalid YAML syntax"
		suggestion = "Check your YAML syntax. Common issues: incorrect indentation, missing colons, or unquoted special characters."
	}

	context := path
	if parts := strings.SplitN(errStr, "line ", 2); len(parts) == 2 {
		context = fmt.Sprintf("%s (line %s)", path, strings.Split(parts[1], ":")[0])
	}

	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    message,
		Context:    context,
		Suggestion: suggestion,
		Underlying: err,
	}
}
