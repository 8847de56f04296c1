package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"whitelisted gmail", "ama.mensah@gmail.com", true},
		{"whitelisted mixed case domain", "kofi@Outlook.COM", true},
		{"surrounding whitespace", "  esi@yahoo.com ", true},
		{"every whitelisted domain", "x@protonmail.com", true},
		{"corporate domain rejected", "user@company.com", false},
		{"institutional domain rejected", "dr.owusu@kbth.gov.gh", false},
		{"subdomain of whitelisted rejected", "a@mail.gmail.com", false},
		{"missing at", "user.gmail.com", false},
		{"missing tld", "user@gmail", false},
		{"space in local part", "us er@gmail.com", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestValidateEmail_AllWhitelistedDomains(t *testing.T) {
	t.Parallel()

	for _, domain := range AllowedEmailDomains {
		assert.True(t, ValidateEmail("someone@"+domain), domain)
	}
}
