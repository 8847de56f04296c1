package fields

import "strings"

// PhoneDigits is the exact number of digits a valid phone number carries.
const PhoneDigits = 10

// NormalizePhone strips every non-digit character and keeps at most the
// first PhoneDigits digits. It never fails.
func NormalizePhone(value string) string {
	var b strings.Builder
	b.Grow(PhoneDigits)
	for _, r := range value {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == PhoneDigits {
			break
		}
	}
	return b.String()
}

// ValidatePhone reports whether value normalizes to exactly PhoneDigits digits.
func ValidatePhone(value string) bool {
	return len(NormalizePhone(value)) == PhoneDigits
}
