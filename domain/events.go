package domain

import (
	"context"
	"time"
)

// AuthEventType defines the type of auth audit event
type AuthEventType string

const (
	// Password path events
	LoginEvent        AuthEventType = "LOGIN"
	LoginFailureEvent AuthEventType = "LOGIN_FAILED"

	// Registration events
	RegistrationEvent        AuthEventType = "REGISTERED"
	RegistrationFailureEvent AuthEventType = "REGISTRATION_FAILED"

	// Google path events
	GoogleSignInEvent        AuthEventType = "GOOGLE_SIGN_IN"
	GooglePhoneRequiredEvent AuthEventType = "GOOGLE_PHONE_REQUIRED"
	GoogleSignInFailureEvent AuthEventType = "GOOGLE_SIGN_IN_FAILED"

	// Phone/OTP events
	OTPRequestEvent       AuthEventType = "OTP_REQUESTED"
	OTPResendEvent        AuthEventType = "OTP_RESENT"
	OTPVerifyEvent        AuthEventType = "OTP_VERIFIED"
	OTPVerifyFailureEvent AuthEventType = "OTP_VERIFICATION_FAILED"

	// Password recovery events
	PasswordResetRequestEvent AuthEventType = "PASSWORD_RESET_REQUESTED"
	PasswordResetEvent        AuthEventType = "PASSWORD_RESET"

	// Session events
	SessionEstablishedEvent AuthEventType = "SESSION_ESTABLISHED"
	LogoutEvent             AuthEventType = "LOGOUT"
)

// AuthEvent represents one observable outcome of an authentication attempt
type AuthEvent struct {
	EventType AuthEventType  `json:"event_type"`
	AttemptID string         `json:"attempt_id,omitempty"`
	Email     string         `json:"email,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ErrorMsg  string         `json:"error_msg,omitempty"`
	Success   bool           `json:"success"`
}

// AuditLogger defines operations for auth audit logging
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuthEvent)
}

// NewAuthEvent creates a new auth event with common fields populated
func NewAuthEvent(eventType AuthEventType, attemptID string) *AuthEvent {
	return &AuthEvent{
		EventType: eventType,
		AttemptID: attemptID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
		Success:   true,
	}
}

// WithError sets error information on the event
func (e *AuthEvent) WithError(err error) *AuthEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithFailure marks the event as a failed outcome that carries no error
// value, such as a success=false backend reply.
func (e *AuthEvent) WithFailure() *AuthEvent {
	e.Success = false
	return e
}

// WithEmail sets the email field
func (e *AuthEvent) WithEmail(email string) *AuthEvent {
	e.Email = email
	return e
}

// WithPhone sets the phone field
func (e *AuthEvent) WithPhone(phone string) *AuthEvent {
	e.Phone = phone
	return e
}

// WithMetadata adds metadata to the event
func (e *AuthEvent) WithMetadata(key string, value any) *AuthEvent {
	e.Metadata[key] = value
	return e
}
