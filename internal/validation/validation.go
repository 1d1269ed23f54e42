// AngelaMos | 2026
// validation.go

// Package validation holds the registration field rules. Every check is a
// pure function returning diagnostics, never an error value.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MinNameLength     = 2
	PhoneDigits       = 10

	// RequiredEmailDomain is the only suffix accepted at registration.
	RequiredEmailDomain = "@gmail.com"

	// PasswordSymbols is the punctuation set that satisfies the symbol rule.
	PasswordSymbols = "!@#$%^&*(),.?\":{}|<>"
)

const (
	MsgPasswordLength    = "Password must be at least 8 characters long."
	MsgPasswordUppercase = "Password must contain at least one uppercase letter."
	MsgPasswordLowercase = "Password must contain at least one lowercase letter."
	MsgPasswordDigit     = "Password must contain at least one number."
	MsgPasswordSymbol    = "Password must contain at least one special character."

	MsgEmailRequired  = "Email is required."
	MsgEmailDomain    = "Email must end with " + RequiredEmailDomain + "."
	MsgEmailLocalPart = "Email may only contain letters, numbers, and . _ % + - before the @."

	MsgPhoneFormat = "Phone number must be exactly 10 digits."

	MsgNameLength = "Name must be at least 2 characters long."
	MsgNameFormat = "Name may only contain letters separated by single spaces."
)

var (
	emailLocalPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+$`)
	phonePattern      = regexp.MustCompile(`^[0-9]{10}$`)
	namePattern       = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+)*$`)
)

// Password returns every violated rule in a fixed order. An empty result
// means the password is acceptable.
func Password(password string) []string {
	var violations []string

	if utf8.RuneCountInString(password) < MinPasswordLength {
		violations = append(violations, MsgPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
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

	if !hasUpper {
		violations = append(violations, MsgPasswordUppercase)
	}
	if !hasLower {
		violations = append(violations, MsgPasswordLowercase)
	}
	if !hasDigit {
		violations = append(violations, MsgPasswordDigit)
	}
	if !hasSymbol {
		violations = append(violations, MsgPasswordSymbol)
	}

	return violations
}

// Email stops at the first failing rule.
func Email(email string) string {
	email = strings.TrimSpace(email)

	if email == "" {
		return MsgEmailRequired
	}

	if !strings.HasSuffix(strings.ToLower(email), RequiredEmailDomain) {
		return MsgEmailDomain
	}

	local := email[:len(email)-len(RequiredEmailDomain)]
	if !emailLocalPattern.MatchString(local) {
		return MsgEmailLocalPart
	}

	return ""
}

func Phone(phone string) string {
	if !phonePattern.MatchString(phone) {
		return MsgPhoneFormat
	}
	return ""
}

// Name accepts the empty string; presence is checked by the caller.
func Name(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if !namePattern.MatchString(name) {
		return MsgNameFormat
	}

	if utf8.RuneCountInString(name) < MinNameLength {
		return MsgNameLength
	}

	return ""
}

// JoinViolations renders accumulated password violations as one field message.
func JoinViolations(violations []string) string {
	return strings.Join(violations, " ")
}
