package fields

import (
	"fmt"
	"strings"
)

// Kind identifies how a field's value is validated.
type Kind string

// Field kinds used by the form profiles.
const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindPhone    Kind = "phone"
	KindPassword Kind = "password"
	KindCheckbox Kind = "checkbox"
	KindSelect   Kind = "select"
	KindImage    Kind = "image"
)

// ParseKind converts a profile kind name, defaulting empty names to text.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindText, nil
	case KindText, KindEmail, KindPhone, KindPassword, KindCheckbox, KindSelect, KindImage:
		return k, nil
	default:
		return "", fmt.Errorf("unknown field kind %q", s)
	}
}

// IsText reports whether values of this kind are strings.
func (k Kind) IsText() bool {
	return k != KindCheckbox && k != KindImage
}

// Validator checks a populated text value and returns the inline message to
// show when it is rejected.
type Validator func(value string) (ok bool, message string)

// Registry maps field kinds to their validators.
type Registry map[Kind]Validator

// DefaultRegistry returns the validators for email, phone and password fields.
func DefaultRegistry() Registry {
	return Registry{
		KindEmail: func(v string) (bool, string) {
			if ValidateEmail(v) {
				return true, ""
			}
			return false, "Please use a personal email address (" + strings.Join(AllowedEmailDomains, ", ") + ")"
		},
		KindPhone: func(v string) (bool, string) {
			if ValidatePhone(v) {
				return true, ""
			}
			return false, fmt.Sprintf("Phone number must contain exactly %d digits", PhoneDigits)
		},
		KindPassword: func(v string) (bool, string) {
			s := ScorePasswordStrength(v)
			if s.IsValid {
				return true, ""
			}
			return false, s.Message
		},
	}
}

// Validate runs the validator registered for kind. Kinds without a
// validator always pass.
func (r Registry) Validate(field string, kind Kind, value string) error {
	v, ok := r[kind]
	if !ok {
		return nil
	}
	if ok, msg := v(value); !ok {
		return &FieldValidationError{Field: field, Message: msg}
	}
	return nil
}

// FieldValidationError is an inline, field-scoped rejection. It is cleared as
// soon as the field is edited into a valid value.
type FieldValidationError struct {
	Field   string
	Message string
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
