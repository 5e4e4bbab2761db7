// Package validation holds the stateless field validators used by the
// auth screens. Every check is a pure function over raw input strings;
// failures are returned, never thrown, and nothing here touches the
// network.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Result is the outcome of a single field check.
type Result struct {
	Valid bool
	Error string
}

func ok() Result {
	return Result{Valid: true}
}

func fail(message string) Result {
	return Result{Error: message}
}

// MinPhoneDigits is the minimum digit count accepted for a phone number.
// Only the digit count is checked; no country-code structure is enforced.
const MinPhoneDigits = 10

const (
	minPasswordLength = 8
	minNameLength     = 2
	maxNameLength     = 50
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
)

// ValidateEmail checks that the input looks like local@domain.tld.
func ValidateEmail(s string) Result {
	s = strings.TrimSpace(s)
	if s == "" {
		return fail("Email is required")
	}
	if !emailPattern.MatchString(s) {
		return fail("Please enter a valid email address")
	}
	return ok()
}

// ValidatePhone checks the digit count after stripping everything that
// is not a digit, so "+254 712-345-678" and "0712345678" both pass.
func ValidatePhone(s string) Result {
	if strings.TrimSpace(s) == "" {
		return fail("Phone number is required")
	}
	if len(Digits(s)) < MinPhoneDigits {
		return fail(fmt.Sprintf("Phone number must be at least %d digits", MinPhoneDigits))
	}
	return ok()
}

// ValidatePassword enforces the minimum length before the character
// classes: when both fail the user sees the length message.
func ValidatePassword(s string) Result {
	if s == "" {
		return fail("Password is required")
	}
	if len(s) < minPasswordLength {
		return fail(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if !hasLower(s) || !hasUpper(s) || !hasDigit(s) {
		return fail("Password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	return ok()
}

// ValidateName checks a person-name field. The label ("First name",
// "Last name") is spliced into the message.
func ValidateName(s, label string) Result {
	s = strings.TrimSpace(s)
	if s == "" {
		return fail(fmt.Sprintf("%s is required", label))
	}
	if len(s) < minNameLength {
		return fail(fmt.Sprintf("%s must be at least %d characters", label, minNameLength))
	}
	if len(s) > maxNameLength {
		return fail(fmt.Sprintf("%s must be less than %d characters", label, maxNameLength))
	}
	if !namePattern.MatchString(s) {
		return fail(fmt.Sprintf("%s can only contain letters, spaces, hyphens, and apostrophes", label))
	}
	return ok()
}

// ValidatePasswordMatch is the submit-time cross-field check. Exact,
// case-sensitive string equality.
func ValidatePasswordMatch(password, confirmation string) Result {
	if password != confirmation {
		return fail("Passwords do not match")
	}
	return ok()
}

// IdentifierKind classifies a single identifier input field.
type IdentifierKind string

const (
	IdentifierEmail   IdentifierKind = "email"
	IdentifierPhone   IdentifierKind = "phone"
	IdentifierInvalid IdentifierKind = "invalid"
)

// Identifier routes a raw identifier to the payload shape the backend
// expects: email first, then phone, else invalid.
func Identifier(s string) IdentifierKind {
	if ValidateEmail(s).Valid {
		return IdentifierEmail
	}
	if ValidatePhone(s).Valid {
		return IdentifierPhone
	}
	return IdentifierInvalid
}

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneCountryCode returns the dialing prefix for a raw phone input.
// Currently a constant; the product has not settled on prefix handling.
func PhoneCountryCode(string) string {
	return "+1"
}

func hasLower(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool { return r >= 'a' && r <= 'z' })
}

func hasUpper(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool { return r >= 'A' && r <= 'Z' })
}

func hasDigit(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
}
