// Package services holds the authentication orchestrator: the state
// machine that turns validated input into backend requests, normalizes
// the outcomes, and hands completed sessions to the session sink.
package services

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/infrastructure/backend"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/validation"
)

// attempt guards the at-most-once session handoff for one
// authentication attempt: even if a response is processed twice, the
// sink sees a single SetAuth.
type attempt struct {
	id   string
	mu   sync.Mutex
	done bool
}

func newAttempt() *attempt {
	return &attempt{id: uuid.NewString()}
}

func (a *attempt) handoff(ctx context.Context, sink domain.SessionSink, user *domain.User, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return nil
	}
	a.done = true
	return sink.SetAuth(ctx, user, token)
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	api      domain.APIClient
	google   domain.GoogleProvider
	sessions domain.SessionSink
	audit    domain.AuditLogger
}

// NewAuthService creates a new auth orchestrator
func NewAuthService(
	api domain.APIClient,
	google domain.GoogleProvider,
	sessions domain.SessionSink,
	audit domain.AuditLogger,
) domain.AuthService {
	return &AuthServiceImpl{
		api:      api,
		google:   google,
		sessions: sessions,
		audit:    audit,
	}
}

// display resolves a raw failure into an AuthError whose message is
// ready for the UI.
func display(err error) *domain.AuthError {
	authErr := backend.ParseAuthError(err)
	authErr.Message = backend.FormatErrorMessage(authErr)
	return authErr
}

// guard converts an unexpected panic at the orchestrator boundary into
// the fallback AuthError. Expected failures never panic.
func guard(err *error) {
	if r := recover(); r != nil {
		*err = domain.NewAuthError(domain.FallbackErrorMessage)
	}
}

// Login implements domain.AuthService: the password path. The single
// identifier field is routed to the email or phone payload shape; a
// value matching neither is rejected before any request.
func (s *AuthServiceImpl) Login(ctx context.Context, cred domain.PasswordCredential) (resp *domain.AuthResponse, err error) {
	defer guard(&err)
	a := newAttempt()

	identifier := strings.TrimSpace(cred.Identifier)
	kind := validation.Identifier(identifier)
	if kind == validation.IdentifierInvalid {
		return nil, domain.NewFieldError("identifier", "Please enter a valid email address or phone number")
	}
	if cred.Password == "" {
		return nil, domain.NewFieldError("password", "Password is required")
	}

	payload := map[string]any{
		string(kind): identifier,
		"password":   cred.Password,
	}

	raw, err := s.api.Post(ctx, "/auth/login", payload)
	if err != nil {
		s.logEvent(ctx, domain.NewAuthEvent(domain.LoginFailureEvent, a.id).WithError(err))
		return nil, display(err)
	}

	result := backend.NormalizeAuthResponse(raw.Body)
	switch {
	case result.Authenticated():
		if err := a.handoff(ctx, s.sessions, result.User, result.Token); err != nil {
			return nil, display(err)
		}
		s.logEvent(ctx, domain.NewAuthEvent(domain.LoginEvent, a.id).WithEmail(result.User.Email))
		s.logEvent(ctx, domain.NewAuthEvent(domain.SessionEstablishedEvent, a.id))
		return result, nil
	case result.Success:
		// Success without user and token breaks the response invariant.
		return nil, domain.NewAuthError(domain.FallbackErrorMessage)
	default:
		s.logEvent(ctx, domain.NewAuthEvent(domain.LoginFailureEvent, a.id).WithFailure().WithMetadata("message", result.Message))
		return result, nil
	}
}

// GoogleLogin implements domain.AuthService: exchange an ID token with
// the backend. A user whose phone is not verified moves the flow into
// phone collection with no session established.
func (s *AuthServiceImpl) GoogleLogin(ctx context.Context, cred domain.GoogleCredential) (res *domain.GoogleLoginResult, err error) {
	defer guard(&err)
	a := newAttempt()

	if !s.google.Enabled() {
		return nil, domain.NewAuthError("Google sign-in is not available. Please sign in with your email or phone number.")
	}
	if cred.IDToken == "" {
		return nil, domain.NewAuthError("Google sign-in failed. Please try again.")
	}

	raw, err := s.api.Post(ctx, "/auth/google", map[string]any{"id_token": cred.IDToken})
	if err != nil {
		if backend.IsPhoneRequiredError(err) {
			pending := s.pendingFromToken(cred.IDToken)
			s.logEvent(ctx, domain.NewAuthEvent(domain.GooglePhoneRequiredEvent, a.id).WithEmail(pending.Email))
			return &domain.GoogleLoginResult{NeedsPhone: true, Pending: pending}, nil
		}
		s.logEvent(ctx, domain.NewAuthEvent(domain.GoogleSignInFailureEvent, a.id).WithError(err))
		return nil, display(err)
	}

	result := backend.NormalizeAuthResponse(raw.Body)
	if result.Success && result.User != nil && result.User.PhoneUnverified() {
		pending := s.pendingFromUser(result.User, cred.IDToken)
		s.logEvent(ctx, domain.NewAuthEvent(domain.GooglePhoneRequiredEvent, a.id).WithEmail(pending.Email))
		return &domain.GoogleLoginResult{NeedsPhone: true, Pending: pending}, nil
	}

	if result.Authenticated() {
		if err := a.handoff(ctx, s.sessions, result.User, result.Token); err != nil {
			return nil, display(err)
		}
		s.logEvent(ctx, domain.NewAuthEvent(domain.GoogleSignInEvent, a.id).WithEmail(result.User.Email))
		s.logEvent(ctx, domain.NewAuthEvent(domain.SessionEstablishedEvent, a.id))
		return &domain.GoogleLoginResult{Response: result}, nil
	}

	s.logEvent(ctx, domain.NewAuthEvent(domain.GoogleSignInFailureEvent, a.id).WithFailure().WithMetadata("message", result.Message))
	return &domain.GoogleLoginResult{Response: result}, nil
}

// CompleteGooglePhone implements domain.AuthService: the second step of
// the Google flow. On failure the caller stays in phone collection and
// may retry with a corrected number.
func (s *AuthServiceImpl) CompleteGooglePhone(ctx context.Context, pending *domain.PendingGoogleSignup, phone string) (resp *domain.AuthResponse, err error) {
	defer guard(&err)
	a := newAttempt()

	if pending == nil {
		return nil, domain.NewAuthError(domain.FallbackErrorMessage)
	}
	if v := validation.ValidatePhone(phone); !v.Valid {
		return nil, domain.NewFieldError("phone", v.Error)
	}

	payload := map[string]any{
		"email":     pending.Email,
		"phone":     strings.TrimSpace(phone),
		"google_id": pending.GoogleID,
	}

	raw, err := s.api.Post(ctx, "/auth/google", payload)
	if err != nil {
		if backend.IsPhoneAlreadyExistsError(err) {
			return nil, domain.NewFieldError("phone", backend.FormatErrorMessage(backend.ParseAuthError(err)))
		}
		s.logEvent(ctx, domain.NewAuthEvent(domain.GoogleSignInFailureEvent, a.id).WithError(err).WithPhone(phone))
		return nil, display(err)
	}

	result := backend.NormalizeAuthResponse(raw.Body)
	if result.Authenticated() {
		if err := a.handoff(ctx, s.sessions, result.User, result.Token); err != nil {
			return nil, display(err)
		}
		s.logEvent(ctx, domain.NewAuthEvent(domain.GoogleSignInEvent, a.id).WithEmail(pending.Email).WithPhone(phone))
		s.logEvent(ctx, domain.NewAuthEvent(domain.SessionEstablishedEvent, a.id))
	}
	return result, nil
}

// Register implements domain.AuthService. Every required field is
// validated independently; the password match is the only cross-field
// check and runs last. A successful registration leaves the user in a
// verification-pending state with no session.
func (s *AuthServiceImpl) Register(ctx context.Context, form *domain.RegistrationForm) (resp *domain.AuthResponse, err error) {
	defer guard(&err)
	a := newAttempt()

	if form == nil {
		return nil, domain.NewAuthError(domain.FallbackErrorMessage)
	}
	if fieldErr := validateRegistration(form); fieldErr != nil {
		return nil, fieldErr
	}

	payload := map[string]any{
		"first_name":            strings.TrimSpace(form.FirstName),
		"last_name":             strings.TrimSpace(form.LastName),
		"email":                 strings.TrimSpace(form.Email),
		"phone":                 strings.TrimSpace(form.Phone),
		"password":              form.Password,
		"password_confirmation": form.PasswordConfirmation,
	}
	if form.DateOfBirth != "" {
		payload["date_of_birth"] = form.DateOfBirth
	}
	if form.Gender != "" {
		payload["gender"] = form.Gender
	}
	if form.EmergencyContact != "" {
		payload["emergency_contact"] = form.EmergencyContact
	}

	raw, err := s.api.Post(ctx, "/auth/register", payload)
	if err != nil {
		s.logEvent(ctx, domain.NewAuthEvent(domain.RegistrationFailureEvent, a.id).WithError(err).WithEmail(form.Email))
		switch {
		case backend.IsEmailAlreadyExistsError(err):
			return nil, domain.NewFieldError("email", backend.FormatErrorMessage(backend.ParseAuthError(err)))
		case backend.IsPhoneAlreadyExistsError(err):
			return nil, domain.NewFieldError("phone", backend.FormatErrorMessage(backend.ParseAuthError(err)))
		default:
			return nil, display(err)
		}
	}

	result := backend.NormalizeAuthResponse(raw.Body)
	if result.Success {
		s.logEvent(ctx, domain.NewAuthEvent(domain.RegistrationEvent, a.id).WithEmail(form.Email).WithPhone(form.Phone))
	}
	return result, nil
}

func validateRegistration(form *domain.RegistrationForm) *domain.AuthError {
	checks := []struct {
		field  string
		result validation.Result
	}{
		{"firstName", validation.ValidateName(form.FirstName, "First name")},
		{"lastName", validation.ValidateName(form.LastName, "Last name")},
		{"email", validation.ValidateEmail(form.Email)},
		{"phone", validation.ValidatePhone(form.Phone)},
		{"password", validation.ValidatePassword(form.Password)},
	}
	for _, c := range checks {
		if !c.result.Valid {
			return domain.NewFieldError(c.field, c.result.Error)
		}
	}
	if v := validation.ValidatePasswordMatch(form.Password, form.PasswordConfirmation); !v.Valid {
		return domain.NewFieldError("passwordConfirmation", v.Error)
	}
	return nil
}

// ForgotPassword implements domain.AuthService. The reply only carries
// success and message; no session is involved.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) (resp *domain.AuthResponse, err error) {
	defer guard(&err)
	a := newAttempt()

	if v := validation.ValidateEmail(email); !v.Valid {
		return nil, domain.NewFieldError("email", v.Error)
	}

	raw, err := s.api.Post(ctx, "/auth/forgot-password", map[string]any{"email": strings.TrimSpace(email)})
	if err != nil {
		return nil, display(err)
	}
	s.logEvent(ctx, domain.NewAuthEvent(domain.PasswordResetRequestEvent, a.id).WithEmail(email))
	return backend.NormalizeAuthResponse(raw.Body), nil
}

// ResetPassword implements domain.AuthService. A missing email or token
// means the reset link itself is broken: that is terminal and issues no
// request, unlike a backend failure which is retryable.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email, password, token string) (resp *domain.AuthResponse, err error) {
	defer guard(&err)
	a := newAttempt()

	if email == "" || token == "" {
		return nil, domain.ErrInvalidResetLink
	}
	if v := validation.ValidatePassword(password); !v.Valid {
		return nil, domain.NewFieldError("password", v.Error)
	}

	raw, err := s.api.Post(ctx, "/auth/reset-password", map[string]any{
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
		"token":                 token,
	})
	if err != nil {
		return nil, display(err)
	}
	s.logEvent(ctx, domain.NewAuthEvent(domain.PasswordResetEvent, a.id).WithEmail(email))
	return backend.NormalizeAuthResponse(raw.Body), nil
}

// Logout implements domain.AuthService. The local session is cleared
// even when the backend call fails; a dead network must not leave the
// device signed in.
func (s *AuthServiceImpl) Logout(ctx context.Context) (err error) {
	defer guard(&err)
	a := newAttempt()

	_, apiErr := s.api.Post(ctx, "/auth/logout", map[string]any{})
	if clearErr := s.sessions.Clear(ctx); clearErr != nil {
		return clearErr
	}

	event := domain.NewAuthEvent(domain.LogoutEvent, a.id)
	if apiErr != nil {
		event = event.WithMetadata("backend_error", apiErr.Error())
	}
	s.logEvent(ctx, event)
	return nil
}

// CurrentUser implements domain.AuthService.
func (s *AuthServiceImpl) CurrentUser(ctx context.Context) (user *domain.User, err error) {
	defer guard(&err)

	raw, err := s.api.Get(ctx, "/auth/me")
	if err != nil {
		return nil, display(err)
	}
	result := backend.NormalizeAuthResponse(raw.Body)
	if result.User == nil {
		return nil, domain.NewAuthError(domain.FallbackErrorMessage)
	}
	return result.User, nil
}

func (s *AuthServiceImpl) pendingFromUser(user *domain.User, idToken string) *domain.PendingGoogleSignup {
	pending := &domain.PendingGoogleSignup{
		Email:    user.Email,
		Name:     user.Name(),
		GoogleID: user.GoogleID,
	}
	if pending.Email == "" || pending.GoogleID == "" {
		if profile, err := s.google.ParseIDToken(idToken); err == nil {
			if pending.Email == "" {
				pending.Email = profile.Email
			}
			if pending.Name == "" || pending.Name == pending.Email {
				pending.Name = profile.Name
			}
			if pending.GoogleID == "" {
				pending.GoogleID = profile.Subject
			}
		}
	}
	return pending
}

func (s *AuthServiceImpl) pendingFromToken(idToken string) *domain.PendingGoogleSignup {
	pending := &domain.PendingGoogleSignup{}
	if profile, err := s.google.ParseIDToken(idToken); err == nil {
		pending.Email = profile.Email
		pending.Name = profile.Name
		pending.GoogleID = profile.Subject
	}
	return pending
}

func (s *AuthServiceImpl) logEvent(ctx context.Context, event *domain.AuthEvent) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, event)
	}
}
