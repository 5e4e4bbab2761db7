package domain

import "context"

// APIClient is the JSON transport to the backend. Implementations
// return *APIError for non-2xx replies and plain errors for network
// failures; they never retry.
type APIClient interface {
	Post(ctx context.Context, path string, body any) (*APIResponse, error)
	Get(ctx context.Context, path string) (*APIResponse, error)
}

// APIResponse is a successful backend reply, body left raw for the
// response normalizer.
type APIResponse struct {
	Status int
	Body   []byte
}

// SessionSink records the authenticated session. SetAuth must complete
// before an attempt is declared authenticated; the core never mutates
// the session after handoff.
type SessionSink interface {
	SetAuth(ctx context.Context, user *User, token string) error
	Current(ctx context.Context) (*User, string, error)
	Clear(ctx context.Context) error
}

// PhoneVerifier is the identity provider for phone/OTP verification.
// It is an explicit resource handle owned by one phone flow: created
// lazily, released on flow exit, never shared across flows.
type PhoneVerifier interface {
	// SendVerification dispatches an OTP out-of-band and returns the
	// verification ID the code must later be checked against.
	SendVerification(ctx context.Context, phoneNumber string) (string, error)
	// VerifyCode checks the entered code against a verification ID.
	VerifyCode(ctx context.Context, verificationID, code string) (*PhoneAttestation, error)
	// IdentityToken turns an attestation into a token the backend can
	// validate during the phone-login exchange.
	IdentityToken(ctx context.Context, att *PhoneAttestation) (string, error)
	// Release tears down any provider-side challenge state.
	Release()
}

// GoogleProvider wraps the Google sign-in SDK. The core only consumes
// the resulting ID token string plus its display claims.
type GoogleProvider interface {
	// Enabled is the capability flag computed once at configuration load.
	Enabled() bool
	// Exchange trades an authorization code for an ID token.
	Exchange(ctx context.Context, code string) (string, error)
	// ParseIDToken reads display claims without verifying the signature;
	// verification is the backend's job.
	ParseIDToken(idToken string) (*GoogleProfile, error)
}

// GoogleLoginResult is the outcome of the Google path: either a full
// session or a transition into phone collection.
type GoogleLoginResult struct {
	Response   *AuthResponse
	NeedsPhone bool
	Pending    *PendingGoogleSignup
}

// AuthService defines the orchestrator entry points exposed to the UI.
// Expected failures come back as *AuthError; implementations never
// panic across this boundary.
type AuthService interface {
	Login(ctx context.Context, cred PasswordCredential) (*AuthResponse, error)
	GoogleLogin(ctx context.Context, cred GoogleCredential) (*GoogleLoginResult, error)
	CompleteGooglePhone(ctx context.Context, pending *PendingGoogleSignup, phone string) (*AuthResponse, error)
	Register(ctx context.Context, form *RegistrationForm) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (*AuthResponse, error)
	ResetPassword(ctx context.Context, email, password, token string) (*AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*User, error)
}
