package form

import (
	"errors"
	"fmt"
	"sort"

	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
)

// ErrUnknownField is returned when setting a field the form does not define.
var ErrUnknownField = errors.New("unknown field")

// Schema maps each field name of a form to its kind.
type Schema map[string]fields.Kind

// State is the live data and validity model of one wizard instance.
// Every Set recomputes the error of that field before returning, so an
// error never outlives the edit that fixed it.
type State struct {
	kind     Kind
	schema   Schema
	registry fields.Registry
	values   map[string]Value
	errors   map[string]string
}

// NewState creates an empty form state.
func NewState(kind Kind, schema Schema, registry fields.Registry) *State {
	if registry == nil {
		registry = fields.DefaultRegistry()
	}
	return &State{
		kind:     kind,
		schema:   schema,
		registry: registry,
		values:   make(map[string]Value),
		errors:   make(map[string]string),
	}
}

// Kind returns the form kind.
func (s *State) Kind() Kind { return s.kind }

// FieldKind returns the kind of field and whether the form defines it.
func (s *State) FieldKind(field string) (fields.Kind, bool) {
	k, ok := s.schema[field]
	return k, ok
}

// Set stores value for field and synchronously recomputes its error.
// Phone numbers are stored normalized.
func (s *State) Set(field string, value Value) error {
	kind, ok := s.schema[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if kind == fields.KindPhone && value.Type() == TypeText {
		value = Text(fields.NormalizePhone(value.AsText()))
	}
	s.values[field] = value
	if msg := s.RecomputeValidity(field, value); msg != "" {
		s.errors[field] = msg
	} else {
		delete(s.errors, field)
	}
	return nil
}

// RecomputeValidity returns the inline error for value in field, or "" when
// it is acceptable. Empty values are not errors here; required-ness is
// enforced by the step gate.
func (s *State) RecomputeValidity(field string, value Value) string {
	kind := s.schema[field]
	if value.IsEmpty() {
		return ""
	}
	switch {
	case kind.IsText() && value.Type() != TypeText:
		return "Expected a text value"
	case kind == fields.KindCheckbox && value.Type() != TypeBool:
		return "Expected a checkbox value"
	case kind == fields.KindImage && value.Type() != TypeFile:
		return "Expected an image file"
	}
	if !kind.IsText() {
		return ""
	}
	var fieldErr *fields.FieldValidationError
	if err := s.registry.Validate(field, kind, value.AsText()); errors.As(err, &fieldErr) {
		return fieldErr.Message
	}
	return ""
}

// SetError attaches an externally produced error to field, such as an
// image that could not be processed. It is cleared by the next Set.
func (s *State) SetError(field, message string) {
	if message == "" {
		delete(s.errors, field)
		return
	}
	s.errors[field] = message
}

// Value returns the value of field.
func (s *State) Value(field string) Value { return s.values[field] }

// Text returns the text value of field.
func (s *State) Text(field string) string { return s.values[field].AsText() }

// Bool returns the boolean value of field.
func (s *State) Bool(field string) bool { return s.values[field].AsBool() }

// File returns the file held by field, or nil.
func (s *State) File(field string) *UploadedFile { return s.values[field].AsFile() }

// Populated reports whether field holds a non-empty value.
func (s *State) Populated(field string) bool { return !s.values[field].IsEmpty() }

// Error returns the current error of field, "" meaning valid.
func (s *State) Error(field string) string { return s.errors[field] }

// Errors returns a copy of all current field errors.
func (s *State) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// Reset clears every value and error.
func (s *State) Reset() {
	s.values = make(map[string]Value)
	s.errors = make(map[string]string)
}

// Snapshot returns a deep, read-only copy of the current values.
func (s *State) Snapshot() Snapshot {
	values := make(map[string]Value, len(s.values))
	for k, v := range s.values {
		if v.Type() == TypeFile {
			v = File(v.AsFile().clone())
		}
		values[k] = v
	}
	return Snapshot{kind: s.kind, values: values}
}

// Snapshot is an immutable copy of a form's values taken at submission
// time. Later edits to the live State do not affect it.
type Snapshot struct {
	kind   Kind
	values map[string]Value
}

// NewSnapshot builds a snapshot directly from values, for tests and
// non-interactive callers.
func NewSnapshot(kind Kind, values map[string]Value) Snapshot {
	copied := make(map[string]Value, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Snapshot{kind: kind, values: copied}
}

// Kind returns the form kind.
func (s Snapshot) Kind() Kind { return s.kind }

// Get returns the value of field.
func (s Snapshot) Get(field string) Value { return s.values[field] }

// Populated reports whether field holds a non-empty value.
func (s Snapshot) Populated(field string) bool { return !s.values[field].IsEmpty() }

// Fields returns the populated field names in sorted order.
func (s Snapshot) Fields() []string {
	names := make([]string, 0, len(s.values))
	for k, v := range s.values {
		if !v.IsEmpty() {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}
