package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/infrastructure/backend"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/validation"
)

// FlowState is the phone/OTP login state machine position.
type FlowState string

const (
	// StatePhoneEntry collects and validates the phone number.
	StatePhoneEntry FlowState = "phone_entry"
	// StateOtpPending waits for the six-digit code; resend is gated by
	// the countdown. Verify failures stay here.
	StateOtpPending FlowState = "otp_pending"
	// StateAuthenticated is terminal: the session has been handed off.
	StateAuthenticated FlowState = "authenticated"
)

// DefaultResendSeconds is the cooldown before an OTP may be resent.
const DefaultResendSeconds = 60

// PhoneFlowConfig tunes the flow. Zero values take the defaults; a
// zero TickInterval disables the background ticker so tests can drive
// the countdown by hand.
type PhoneFlowConfig struct {
	ResendSeconds int
	TickInterval  time.Duration
	// OnTick is invoked once per countdown tick with the seconds left,
	// outside the flow lock. UI affordance only.
	OnTick func(remaining int)
}

// PhoneFlow drives phone/OTP login: PhoneEntry -> OtpPending ->
// Authenticated, with an explicit Back transition that discards the
// OtpSession. The flow owns its verifier handle and releases it when
// the flow finishes or is closed. All state is guarded by one mutex;
// completion handlers re-check a generation counter so responses that
// resolve after the user navigated away are ignored.
type PhoneFlow struct {
	api      domain.APIClient
	verifier domain.PhoneVerifier
	sessions domain.SessionSink
	audit    domain.AuditLogger
	cfg      PhoneFlowConfig

	mu        sync.Mutex
	state     FlowState
	session   *domain.OtpSession
	remaining int
	loading   bool
	gen       uint64
	attempt   *attempt
	stopTick  chan struct{}
}

// NewPhoneFlow creates a flow in the phone-entry state.
func NewPhoneFlow(
	api domain.APIClient,
	verifier domain.PhoneVerifier,
	sessions domain.SessionSink,
	audit domain.AuditLogger,
	cfg PhoneFlowConfig,
) *PhoneFlow {
	if cfg.ResendSeconds <= 0 {
		cfg.ResendSeconds = DefaultResendSeconds
	}
	return &PhoneFlow{
		api:      api,
		verifier: verifier,
		sessions: sessions,
		audit:    audit,
		cfg:      cfg,
		state:    StatePhoneEntry,
	}
}

// State returns the current machine position.
func (f *PhoneFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Loading reports whether a network operation is outstanding. The UI
// disables the triggering control while true; this is the only mutual
// exclusion the flow needs beyond its own lock.
func (f *PhoneFlow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// RemainingSeconds returns the resend countdown value.
func (f *PhoneFlow) RemainingSeconds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining
}

// CanResend reports whether the cooldown has elapsed.
func (f *PhoneFlow) CanResend() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == StateOtpPending && f.remaining == 0
}

// VerificationID exposes the active verification id, empty outside
// OtpPending.
func (f *PhoneFlow) VerificationID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return ""
	}
	return f.session.VerificationID
}

// Code returns the digits entered so far.
func (f *PhoneFlow) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return ""
	}
	return f.session.Code()
}

// SubmitPhone validates the number, asks the verifier to dispatch an
// OTP, and moves to OtpPending with a fresh countdown.
func (f *PhoneFlow) SubmitPhone(ctx context.Context, phone string) error {
	f.mu.Lock()
	if f.state != StatePhoneEntry {
		f.mu.Unlock()
		return domain.NewAuthError("A verification is already in progress.")
	}
	if f.loading {
		f.mu.Unlock()
		return domain.NewAuthError("Please wait for the current request to finish.")
	}
	if v := validation.ValidatePhone(phone); !v.Valid {
		f.mu.Unlock()
		return domain.NewFieldError("phone", v.Error)
	}
	f.loading = true
	f.attempt = newAttempt()
	gen := f.gen
	attemptID := f.attempt.id
	f.mu.Unlock()

	verificationID, err := f.verifier.SendVerification(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if f.gen != gen {
		return domain.ErrStaleFlow
	}
	if err != nil {
		f.logEvent(ctx, domain.NewAuthEvent(domain.OTPRequestEvent, attemptID).WithPhone(phone).WithError(err))
		if errors.Is(err, domain.ErrPhoneNotConfigured) {
			return domain.NewAuthError("Phone verification is currently unavailable. Please sign in with your email instead.")
		}
		return display(err)
	}

	f.session = domain.NewOtpSession(verificationID, phone)
	f.state = StateOtpPending
	f.startCountdownLocked()
	f.logEvent(ctx, domain.NewAuthEvent(domain.OTPRequestEvent, attemptID).WithPhone(phone))
	return nil
}

// EnterDigit forwards one keypress to the code buffer and returns the
// slot the UI should focus next.
func (f *PhoneFlow) EnterDigit(d byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return 0
	}
	return f.session.EnterDigit(d)
}

// Backspace clears the previous slot and retreats focus.
func (f *PhoneFlow) Backspace() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return 0
	}
	return f.session.Backspace()
}

// Resend dispatches a new OTP once the countdown has elapsed. The
// previous verification id is invalidated, the code buffer cleared,
// and the countdown restarted.
func (f *PhoneFlow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateOtpPending || f.session == nil {
		f.mu.Unlock()
		return domain.ErrOTPNotPending
	}
	if f.remaining > 0 {
		f.mu.Unlock()
		return domain.ErrResendThrottled
	}
	if f.loading {
		f.mu.Unlock()
		return domain.NewAuthError("Please wait for the current request to finish.")
	}
	f.loading = true
	phone := f.session.PhoneNumber
	gen := f.gen
	attemptID := f.attempt.id
	f.mu.Unlock()

	verificationID, err := f.verifier.SendVerification(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if f.gen != gen || f.state != StateOtpPending {
		return domain.ErrStaleFlow
	}
	if err != nil {
		f.logEvent(ctx, domain.NewAuthEvent(domain.OTPResendEvent, attemptID).WithPhone(phone).WithError(err))
		return display(err)
	}

	f.gen++
	f.session = domain.NewOtpSession(verificationID, phone)
	f.startCountdownLocked()
	f.logEvent(ctx, domain.NewAuthEvent(domain.OTPResendEvent, attemptID).WithPhone(phone))
	return nil
}

// Back is the user-triggered return to phone entry. The OtpSession is
// discarded and the countdown stopped.
func (f *PhoneFlow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateOtpPending {
		return
	}
	f.gen++
	f.stopCountdownLocked()
	f.session = nil
	f.state = StatePhoneEntry
}

// VerifyAndLogin checks the entered code with the verifier, exchanges
// the resulting attestation with the backend, and hands the session
// off. Failures at either step keep the flow in OtpPending with the
// code buffer intact.
func (f *PhoneFlow) VerifyAndLogin(ctx context.Context) (*domain.AuthResponse, error) {
	f.mu.Lock()
	if f.state != StateOtpPending || f.session == nil {
		f.mu.Unlock()
		return nil, domain.ErrOTPNotPending
	}
	if !f.session.Complete() {
		f.mu.Unlock()
		return nil, domain.ErrOTPIncomplete
	}
	if f.loading {
		f.mu.Unlock()
		return nil, domain.NewAuthError("Please wait for the current request to finish.")
	}
	f.loading = true
	gen := f.gen
	verificationID := f.session.VerificationID
	code := f.session.Code()
	phone := f.session.PhoneNumber
	a := f.attempt
	f.mu.Unlock()

	result, verifyErr := f.exchange(ctx, verificationID, code, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if f.gen != gen || f.state != StateOtpPending {
		// The user resent or navigated away; this outcome no longer
		// applies.
		return nil, domain.ErrStaleFlow
	}
	if verifyErr != nil {
		f.logEvent(ctx, domain.NewAuthEvent(domain.OTPVerifyFailureEvent, a.id).WithPhone(phone).WithError(verifyErr))
		return nil, display(verifyErr)
	}
	if !result.Authenticated() {
		f.logEvent(ctx, domain.NewAuthEvent(domain.OTPVerifyFailureEvent, a.id).WithPhone(phone).WithFailure().WithMetadata("message", result.Message))
		return result, nil
	}

	// Handoff happens after the staleness check so a response that
	// resolved after Back or Resend can never establish a session.
	if err := a.handoff(ctx, f.sessions, result.User, result.Token); err != nil {
		f.logEvent(ctx, domain.NewAuthEvent(domain.OTPVerifyFailureEvent, a.id).WithPhone(phone).WithError(err))
		return nil, display(err)
	}

	f.gen++
	f.stopCountdownLocked()
	f.session = nil
	f.state = StateAuthenticated
	f.verifier.Release()
	f.logEvent(ctx, domain.NewAuthEvent(domain.OTPVerifyEvent, a.id).WithPhone(phone))
	f.logEvent(ctx, domain.NewAuthEvent(domain.SessionEstablishedEvent, a.id))
	return result, nil
}

// exchange runs the network steps outside the flow lock: provider code
// check, attestation minting, then the backend phone-login exchange.
func (f *PhoneFlow) exchange(ctx context.Context, verificationID, code, phone string) (*domain.AuthResponse, error) {
	att, err := f.verifier.VerifyCode(ctx, verificationID, code)
	if err != nil {
		return nil, err
	}

	token, err := f.verifier.IdentityToken(ctx, att)
	if err != nil {
		return nil, err
	}

	number := att.PhoneNumber
	if number == "" {
		number = phone
	}

	raw, err := f.api.Post(ctx, "/auth/verify-phone", map[string]any{
		"phone":    number,
		"id_token": token,
	})
	if err != nil {
		return nil, err
	}

	return backend.NormalizeAuthResponse(raw.Body), nil
}

// Close stops the countdown and releases the verifier handle. Called
// when the user leaves the flow.
func (f *PhoneFlow) Close() {
	f.mu.Lock()
	f.gen++
	f.stopCountdownLocked()
	f.session = nil
	f.mu.Unlock()
	f.verifier.Release()
}

func (f *PhoneFlow) startCountdownLocked() {
	f.stopCountdownLocked()
	f.remaining = f.cfg.ResendSeconds
	if f.cfg.TickInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	f.stopTick = stop
	go func() {
		ticker := time.NewTicker(f.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if f.tickStep() {
					return
				}
			}
		}
	}()
}

func (f *PhoneFlow) stopCountdownLocked() {
	if f.stopTick != nil {
		close(f.stopTick)
		f.stopTick = nil
	}
}

// tickStep advances the countdown by one second and reports whether
// the ticker should stop. The OnTick callback runs outside the lock.
func (f *PhoneFlow) tickStep() bool {
	f.mu.Lock()
	if f.state != StateOtpPending {
		f.mu.Unlock()
		return true
	}
	if f.remaining > 0 {
		f.remaining--
	}
	remaining := f.remaining
	cb := f.cfg.OnTick
	f.mu.Unlock()

	if cb != nil {
		cb(remaining)
	}
	return remaining == 0
}

func (f *PhoneFlow) logEvent(ctx context.Context, event *domain.AuthEvent) {
	if f.audit != nil {
		f.audit.LogEvent(ctx, event)
	}
}
