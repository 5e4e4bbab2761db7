package mocks

import (
	"context"
	"time"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// MockPhoneVerifier implements domain.PhoneVerifier for testing
type MockPhoneVerifier struct {
	SendVerificationFunc func(ctx context.Context, phoneNumber string) (string, error)
	VerifyCodeFunc       func(ctx context.Context, verificationID, code string) (*domain.PhoneAttestation, error)
	IdentityTokenFunc    func(ctx context.Context, att *domain.PhoneAttestation) (string, error)

	SendCalls []string
	Released  bool
}

// NewMockPhoneVerifier creates a new MockPhoneVerifier with default behaviors
func NewMockPhoneVerifier() *MockPhoneVerifier {
	return &MockPhoneVerifier{}
}

// SendVerification records the call and delegates to SendVerificationFunc
func (m *MockPhoneVerifier) SendVerification(ctx context.Context, phoneNumber string) (string, error) {
	m.SendCalls = append(m.SendCalls, phoneNumber)
	if m.SendVerificationFunc != nil {
		return m.SendVerificationFunc(ctx, phoneNumber)
	}
	// Default behavior: a fresh verification id per dispatch
	return "ver_mock_" + time.Now().Format("150405.000000"), nil
}

// VerifyCode delegates to VerifyCodeFunc
func (m *MockPhoneVerifier) VerifyCode(ctx context.Context, verificationID, code string) (*domain.PhoneAttestation, error) {
	if m.VerifyCodeFunc != nil {
		return m.VerifyCodeFunc(ctx, verificationID, code)
	}
	// Default behavior: accept "123456" as the valid OTP
	if code != "123456" {
		return nil, domain.ErrOTPInvalid
	}
	return &domain.PhoneAttestation{PhoneNumber: "+254712345678", VerifiedAt: time.Now()}, nil
}

// IdentityToken delegates to IdentityTokenFunc
func (m *MockPhoneVerifier) IdentityToken(ctx context.Context, att *domain.PhoneAttestation) (string, error) {
	if m.IdentityTokenFunc != nil {
		return m.IdentityTokenFunc(ctx, att)
	}
	return "mock-attestation-token", nil
}

// Release marks the verifier released
func (m *MockPhoneVerifier) Release() {
	m.Released = true
}

// Compile-time interface compliance verification
var _ domain.PhoneVerifier = (*MockPhoneVerifier)(nil)
