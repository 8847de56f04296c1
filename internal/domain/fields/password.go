package fields

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strength buckets reported by ScorePasswordStrength.
const (
	StrengthWeak   = "weak"
	StrengthMedium = "medium"
	StrengthStrong = "strong"
)

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 8

// MaxPasswordScore is the highest score a valid password can reach.
const MaxPasswordScore = 7

// PasswordSymbols is the punctuation set that satisfies the symbol rule.
const PasswordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?~`"

// Messages returned by ScorePasswordStrength, in check order.
const (
	MsgPasswordLength    = "Password must be at least 8 characters long"
	MsgPasswordUppercase = "Password must contain at least one uppercase letter"
	MsgPasswordLowercase = "Password must contain at least one lowercase letter"
	MsgPasswordDigit     = "Password must contain at least one number"
	MsgPasswordSymbol    = "Password must contain at least one special character"
)

// PasswordStrength is the verdict for a candidate password.
type PasswordStrength struct {
	IsValid  bool
	Strength string
	Score    int
	Message  string
}

// ScorePasswordStrength checks length, uppercase, lowercase, digit and
// symbol in that order and stops at the first failing rule. Valid
// passwords get a 0-7 score bucketed into weak, medium or strong.
func ScorePasswordStrength(value string) PasswordStrength {
	length := utf8.RuneCountInString(value)
	if length < MinPasswordLength {
		return PasswordStrength{Strength: StrengthWeak, Message: MsgPasswordLength}
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return PasswordStrength{Strength: StrengthWeak, Message: MsgPasswordUppercase}
	case !hasLower:
		return PasswordStrength{Strength: StrengthWeak, Message: MsgPasswordLowercase}
	case !hasDigit:
		return PasswordStrength{Strength: StrengthWeak, Message: MsgPasswordDigit}
	case !hasSymbol:
		return PasswordStrength{Strength: StrengthWeak, Message: MsgPasswordSymbol}
	}

	score := 0
	if length >= MinPasswordLength {
		score++
	}
	if length >= 12 {
		score++
	}
	// One point per letter/digit class, two for the symbol.
	score += 3 + 2

	strength := StrengthWeak
	switch {
	case score >= 6:
		strength = StrengthStrong
	case score >= 4:
		strength = StrengthMedium
	}

	return PasswordStrength{
		IsValid:  true,
		Strength: strength,
		Score:    score,
		Message:  "Password strength: " + strength,
	}
}

// Disjoint generator alphabets. Glyphs that are easy to confuse when read
// back (0/O/o, 1/l/I) are left out.
const (
	genUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	genLower   = "abcdefghijkmnpqrstuvwxyz"
	genDigits  = "23456789"
	genSymbols = "!@#$%^&*-_=+?"
)

// GenerateStrongPassword returns a random 12-16 character password with at
// least one character from each generator alphabet.
func GenerateStrongPassword() string {
	sets := []string{genUpper, genLower, genDigits, genSymbols}
	all := genUpper + genLower + genDigits + genSymbols

	length := 12 + randIndex(5)
	out := make([]byte, 0, length)
	for _, set := range sets {
		out = append(out, set[randIndex(len(set))])
	}
	for len(out) < length {
		out = append(out, all[randIndex(len(all))])
	}

	for i := len(out) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// randIndex returns a uniform index in [0, n) from crypto/rand.
func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail on supported platforms.
		panic("fields: reading random source: " + err.Error())
	}
	return int(v.Int64())
}
