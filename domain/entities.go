package domain

import "time"

// OTPCodeLength is the number of digits in a verification code.
const OTPCodeLength = 6

// User represents the backend's view of an authenticated patient.
// The backend speaks snake_case; the json tags do the translation.
type User struct {
	ID            uint      `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	GoogleID      string    `json:"google_id,omitempty"`
	PhoneVerified *bool     `json:"phone_verified,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`
}

// Name returns the display name, falling back to the email address.
func (u *User) Name() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// PhoneUnverified reports whether the backend explicitly flagged the phone
// as unverified. An absent flag counts as verified; only a literal false
// sends the Google flow into phone collection.
func (u *User) PhoneUnverified() bool {
	return u.PhoneVerified != nil && !*u.PhoneVerified
}

// PasswordCredential is an email-or-phone identifier plus password.
type PasswordCredential struct {
	Identifier string
	Password   string
}

// GoogleCredential carries the ID token obtained from the Google prompt.
type GoogleCredential struct {
	IDToken string
}

// PhoneCredential is a phone number plus the OTP code entered for it.
type PhoneCredential struct {
	PhoneNumber string
	OTPCode     string
}

// AuthResponse is the normalized outcome of any backend auth call.
// Success implies User and Token are present for every path except the
// forgot/reset password endpoints, which only carry Success and Message.
type AuthResponse struct {
	Success bool
	Message string
	User    *User
	Token   string
}

// Authenticated reports whether the response carries a complete session.
func (r *AuthResponse) Authenticated() bool {
	return r != nil && r.Success && r.User != nil && r.Token != ""
}

// RegistrationForm holds the raw registration input. The six required
// fields validate independently; password confirmation is a cross-field
// check applied only at submit time.
type RegistrationForm struct {
	FirstName            string
	LastName             string
	Email                string
	Phone                string
	Password             string
	PasswordConfirmation string

	// Optional profile fields, forwarded verbatim when set.
	DateOfBirth      string
	Gender           string
	EmergencyContact string
}

// PendingGoogleSignup is the payload carried into the phone-collection
// step when Google sign-in returns a user without a verified phone.
// No session exists yet while one of these is in flight.
type PendingGoogleSignup struct {
	Email    string
	Name     string
	GoogleID string
}

// OtpSession is the in-flight state of one phone verification: the
// provider's verification ID, the number the code was sent to, and the
// six-slot digit buffer the user fills in. It is created when an OTP is
// requested and discarded on back-navigation or successful verification.
type OtpSession struct {
	VerificationID string
	PhoneNumber    string
	CreatedAt      time.Time

	digits [OTPCodeLength]byte
	focus  int
}

// NewOtpSession starts a session for a dispatched verification.
func NewOtpSession(verificationID, phoneNumber string) *OtpSession {
	return &OtpSession{
		VerificationID: verificationID,
		PhoneNumber:    phoneNumber,
		CreatedAt:      time.Now(),
	}
}

// EnterDigit records one digit in the current slot and advances focus.
// Non-digit input is ignored. The returned index is the slot the UI
// should focus next; it equals OTPCodeLength once the buffer is full.
func (s *OtpSession) EnterDigit(d byte) int {
	if d < '0' || d > '9' {
		return s.focus
	}
	if s.focus < OTPCodeLength {
		s.digits[s.focus] = d
		s.focus++
	}
	return s.focus
}

// Backspace clears the previous slot and retreats focus to it.
func (s *OtpSession) Backspace() int {
	if s.focus > 0 {
		s.focus--
		s.digits[s.focus] = 0
	}
	return s.focus
}

// Code returns the digits entered so far.
func (s *OtpSession) Code() string {
	return string(s.digits[:s.focus])
}

// Complete reports whether all six slots are filled.
func (s *OtpSession) Complete() bool {
	return s.focus == OTPCodeLength
}

// ClearCode empties the buffer. Called on resend and back-navigation;
// a failed verification deliberately leaves the buffer intact.
func (s *OtpSession) ClearCode() {
	s.digits = [OTPCodeLength]byte{}
	s.focus = 0
}

// PhoneAttestation is the provider-side proof that a phone number was
// verified via OTP, produced by PhoneVerifier.VerifyCode.
type PhoneAttestation struct {
	PhoneNumber string
	VerifiedAt  time.Time
}

// GoogleProfile holds the display claims read from a Google ID token.
// The token signature is verified server-side; the client only reads
// claims it needs to prefill the phone-collection step.
type GoogleProfile struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}
