package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FallbackErrorMessage is shown when a failure carries no usable message.
const FallbackErrorMessage = "An unexpected error occurred. Please try again."

// Credential and flow errors
var (
	ErrInvalidIdentifier = errors.New("identifier is neither an email address nor a phone number")
	ErrInvalidResetLink  = errors.New("password reset link is invalid or incomplete")
	ErrSessionMissing    = errors.New("no session established")
)

// OTP errors
var (
	ErrOTPInvalid      = errors.New("invalid otp code")
	ErrOTPIncomplete   = errors.New("otp code is incomplete")
	ErrOTPNotPending   = errors.New("no otp verification in progress")
	ErrResendThrottled = errors.New("otp resend not allowed yet")
	ErrStaleFlow       = errors.New("flow moved on while the request was in flight")
)

// Configuration errors: an optional provider is absent. These must
// surface as a clear message, never as a crash or a silent no-op.
var (
	ErrGoogleNotConfigured = errors.New("google sign-in is not configured")
	ErrPhoneNotConfigured  = errors.New("phone verification is not configured")
	ErrVerifierReleased    = errors.New("phone verifier has been released")
)

// ErrorCode is a stable machine-readable code reported by the backend,
// distinct from the human-readable message, used for branching logic.
type ErrorCode string

const (
	CodeNone          ErrorCode = ""
	CodePhoneRequired ErrorCode = "PHONE_REQUIRED"
	CodeEmailExists   ErrorCode = "EMAIL_EXISTS"
	CodePhoneExists   ErrorCode = "PHONE_EXISTS"
)

// AuthError is the uniform failure shape every auth entry point returns.
// Field, when set, attaches the error to a specific form input instead
// of a generic dialog. It is always resolvable to a non-empty message.
type AuthError struct {
	Field   string
	Message string
	Code    ErrorCode
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return FallbackErrorMessage
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewAuthError builds a field-less AuthError with the given message.
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// NewFieldError builds an AuthError attached to a specific form field.
func NewFieldError(field, message string) *AuthError {
	return &AuthError{Field: field, Message: message}
}

// APIError is a non-2xx reply from the backend. Body keeps the raw
// payload so the error normalizer can dig out field maps and codes.
type APIError struct {
	Status int
	Body   json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Status)
}
