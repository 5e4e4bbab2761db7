package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedValid bool
		expectedError string
	}{
		{
			name:          "valid email",
			input:         "patient@example.com",
			expectedValid: true,
		},
		{
			name:          "valid email with subdomain",
			input:         "a.b@mail.example.co.ke",
			expectedValid: true,
		},
		{
			name:          "empty input",
			input:         "",
			expectedValid: false,
			expectedError: "Email is required",
		},
		{
			name:          "whitespace only",
			input:         "   ",
			expectedValid: false,
			expectedError: "Email is required",
		},
		{
			name:          "missing at sign",
			input:         "patient.example.com",
			expectedValid: false,
			expectedError: "Please enter a valid email address",
		},
		{
			name:          "missing tld",
			input:         "patient@example",
			expectedValid: false,
			expectedError: "Please enter a valid email address",
		},
		{
			name:          "embedded whitespace",
			input:         "pa tient@example.com",
			expectedValid: false,
			expectedError: "Please enter a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateEmail(tt.input)
			if got.Valid != tt.expectedValid {
				t.Errorf("expected valid=%v, got %v", tt.expectedValid, got.Valid)
			}
			if got.Error != tt.expectedError {
				t.Errorf("expected error %q, got %q", tt.expectedError, got.Error)
			}
		})
	}
}

func TestValidateEmail_RejectsAnythingWithoutAtSign(t *testing.T) {
	for _, s := range []string{"a", "0712345678", "no-at-sign.com", "plain text"} {
		if ValidateEmail(s).Valid {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedValid bool
		expectedError string
	}{
		{
			name:          "bare ten digits",
			input:         "0712345678",
			expectedValid: true,
		},
		{
			name:          "formatted number strips to enough digits",
			input:         "+254 712-345-678",
			expectedValid: true,
		},
		{
			name:          "empty input",
			input:         "",
			expectedValid: false,
			expectedError: "Phone number is required",
		},
		{
			name:          "nine digits",
			input:         "071234567",
			expectedValid: false,
			expectedError: "Phone number must be at least 10 digits",
		},
		{
			name:          "letters do not count as digits",
			input:         "07123abcde",
			expectedValid: false,
			expectedError: "Phone number must be at least 10 digits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePhone(tt.input)
			if got.Valid != tt.expectedValid {
				t.Errorf("expected valid=%v, got %v", tt.expectedValid, got.Valid)
			}
			if got.Error != tt.expectedError {
				t.Errorf("expected error %q, got %q", tt.expectedError, got.Error)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedValid bool
		expectedError string
	}{
		{
			name:          "meets all requirements",
			input:         "Str0ngpass",
			expectedValid: true,
		},
		{
			name:          "empty input",
			input:         "",
			expectedValid: false,
			expectedError: "Password is required",
		},
		{
			name:          "short but otherwise complete gets the length message",
			input:         "short1A",
			expectedValid: false,
			expectedError: "Password must be at least 8 characters",
		},
		{
			name:          "length error takes precedence when both checks fail",
			input:         "ab",
			expectedValid: false,
			expectedError: "Password must be at least 8 characters",
		},
		{
			name:          "long enough but no digit",
			input:         "Passwordonly",
			expectedValid: false,
			expectedError: "Password must contain at least one uppercase letter, one lowercase letter, and one number",
		},
		{
			name:          "long enough but no uppercase",
			input:         "password123",
			expectedValid: false,
			expectedError: "Password must contain at least one uppercase letter, one lowercase letter, and one number",
		},
		{
			name:          "long enough but no lowercase",
			input:         "PASSWORD123",
			expectedValid: false,
			expectedError: "Password must contain at least one uppercase letter, one lowercase letter, and one number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePassword(tt.input)
			if got.Valid != tt.expectedValid {
				t.Errorf("expected valid=%v, got %v", tt.expectedValid, got.Valid)
			}
			if got.Error != tt.expectedError {
				t.Errorf("expected error %q, got %q", tt.expectedError, got.Error)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		label         string
		expectedValid bool
		expectedError string
	}{
		{
			name:          "plain name",
			input:         "Grace",
			label:         "First name",
			expectedValid: true,
		},
		{
			name:          "hyphen and apostrophe allowed",
			input:         "Anne-Marie O'Neil",
			label:         "First name",
			expectedValid: true,
		},
		{
			name:          "empty",
			input:         "",
			label:         "Last name",
			expectedValid: false,
			expectedError: "Last name is required",
		},
		{
			name:          "single character",
			input:         "G",
			label:         "First name",
			expectedValid: false,
			expectedError: "First name must be at least 2 characters",
		},
		{
			name:          "over fifty characters",
			input:         strings.Repeat("a", 51),
			label:         "First name",
			expectedValid: false,
			expectedError: "First name must be less than 50 characters",
		},
		{
			name:          "digits rejected",
			input:         "Grace2",
			label:         "First name",
			expectedValid: false,
			expectedError: "First name can only contain letters, spaces, hyphens, and apostrophes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateName(tt.input, tt.label)
			if got.Valid != tt.expectedValid {
				t.Errorf("expected valid=%v, got %v", tt.expectedValid, got.Valid)
			}
			if got.Error != tt.expectedError {
				t.Errorf("expected error %q, got %q", tt.expectedError, got.Error)
			}
		})
	}
}

func TestValidatePasswordMatch(t *testing.T) {
	if got := ValidatePasswordMatch("a", "a"); !got.Valid {
		t.Errorf("expected match, got error %q", got.Error)
	}
	if got := ValidatePasswordMatch("a", "b"); got.Valid {
		t.Error("expected mismatch to be invalid")
	}
	if got := ValidatePasswordMatch("Secret1!", "secret1!"); got.Valid {
		t.Error("comparison must be case-sensitive")
	}
	if got := ValidatePasswordMatch("a", "b"); got.Error != "Passwords do not match" {
		t.Errorf("unexpected error message %q", got.Error)
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected IdentifierKind
	}{
		{"user@example.com", IdentifierEmail},
		{"0712345678", IdentifierPhone},
		{"+254 712 345 678", IdentifierPhone},
		{"abc", IdentifierInvalid},
		{"", IdentifierInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Identifier(tt.input); got != tt.expected {
				t.Errorf("Identifier(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+254 (712) 345-678", "254712345678"},
		{"no digits", ""},
		{"0712345678", "0712345678"},
	}

	for _, tt := range tests {
		if got := Digits(tt.input); got != tt.expected {
			t.Errorf("Digits(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestPhoneCountryCode(t *testing.T) {
	// Constant for now regardless of input shape.
	for _, s := range []string{"", "0712345678", "+44 20 1234 5678"} {
		if got := PhoneCountryCode(s); got != "+1" {
			t.Errorf("PhoneCountryCode(%q) = %q, expected +1", s, got)
		}
	}
}
