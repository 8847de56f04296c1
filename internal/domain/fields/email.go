// Package fields provides the pure validators and normalizers applied to
// individual wizard fields on every change.
package fields

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// AllowedEmailDomains is the fixed list of mail providers accepted by the
// wizards. Institutional and corporate domains are rejected on purpose until
// product decides otherwise.
var AllowedEmailDomains = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"aol.com",
	"icloud.com",
	"protonmail.com",
	"zoho.com",
	"mail.com",
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether value looks like local@domain.tld and its
// domain is one of AllowedEmailDomains, compared case-insensitively.
func ValidateEmail(value string) bool {
	value = strings.TrimSpace(value)
	if !emailShape.MatchString(value) {
		return false
	}
	domain := value[strings.LastIndex(value, "@")+1:]
	return slices.Contains(AllowedEmailDomains, foldDomain(domain))
}

// foldDomain lowercases a domain with Unicode case folding so that
// "GMAIL.COM" and "Gmail.com" compare equal to the whitelist entry.
func foldDomain(domain string) string {
	return cases.Fold().String(domain)
}
