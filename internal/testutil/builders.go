package testutil

import (
	"sort"
	"strings"
)

// AnswersBuilder builds field answers for a form.
type AnswersBuilder struct {
	values map[string]string
}

// NewRegistrationAnswers starts from a registration that passes every step.
func NewRegistrationAnswers() *AnswersBuilder {
	return &AnswersBuilder{values: map[string]string{
		"full_name":        "Ama Mensah",
		"email":            "ama@gmail.com",
		"phone":            "024 123 4567",
		"job_title":        "Nurse",
		"organization":     "Komfo Anokye Teaching Hospital",
		"region":           "Ashanti",
		"password":         "Str0ng!Pass",
		"confirm_password": "Str0ng!Pass",
		"consent_accuracy": "true",
		"consent_terms":    "true",
	}}
}

// NewNominationAnswers starts from a nomination that passes every step.
func NewNominationAnswers() *AnswersBuilder {
	return &AnswersBuilder{values: map[string]string{
		"nominee_name":         "Kofi Boateng",
		"nominee_email":        "kofi@yahoo.com",
		"nominee_phone":        "+233 20 123 4567",
		"nominee_job_title":    "Pharmacist",
		"nominee_organization": "Korle Bu",
		"category":             "Excellence in Service",
		"region":               "Greater Accra",
		"reason":               "Twenty years of community pharmacy outreach.",
		"nominator_name":       "Ama Mensah",
		"nominator_email":      "ama@gmail.com",
		"nominator_phone":      "0241234567",
		"consent_accuracy":     "true",
		"consent_contact":      "true",
	}}
}

// With sets field to value.
func (b *AnswersBuilder) With(field, value string) *AnswersBuilder {
	b.values[field] = value
	return b
}

// Without removes fields.
func (b *AnswersBuilder) Without(fields ...string) *AnswersBuilder {
	for _, f := range fields {
		delete(b.values, f)
	}
	return b
}

// Build returns a copy of the answers.
func (b *AnswersBuilder) Build() map[string]string {
	out := make(map[string]string, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// ToYAML renders the answers as a YAML answers file. Every value is quoted
// so phone numbers keep their leading zero.
func (b *AnswersBuilder) ToYAML() string {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(quote(b.values[k]))
		sb.WriteString("\n")
	}
	return sb.String()
}

func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
