package fields

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"0551234567", "0551234567"},
		{"055-123-4567", "0551234567"},
		{"+233 (0) 55-123-4567", "2330551234"},
		{"(055) 12", "05512"},
		{"no digits here", ""},
		{"", ""},
		{"١٢٣ 0551234567", "0551234567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.input), tt.input)
	}
}

func TestValidatePhone_GhanaianInternationalFormat(t *testing.T) {
	t.Parallel()

	normalized := NormalizePhone("+233 (0) 55-123-4567")
	assert.Len(t, normalized, PhoneDigits)
	assert.True(t, ValidatePhone("+233 (0) 55-123-4567"))
	assert.True(t, ValidatePhone(normalized))
}

func TestValidatePhone_DigitCountProperty(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"", "1", "123456789", "1234567890", "12345678901",
		"+1 (555) 010-9999", "call me", "55 12", "0-0-0-0-0-0-0-0-0",
		"0-0-0-0-0-0-0-0-0-0", "tel:0244000000;ext=12",
	}
	for n := 0; n < 25; n++ {
		inputs = append(inputs, strings.Repeat("a7-", n))
	}

	for _, s := range inputs {
		digits := 0
		for _, r := range s {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		assert.Equal(t, digits >= PhoneDigits, ValidatePhone(NormalizePhone(s)), "input %q", s)
		assert.True(t, len(NormalizePhone(s)) <= PhoneDigits)
		for _, r := range NormalizePhone(s) {
			assert.True(t, unicode.IsDigit(r))
		}
	}
}
