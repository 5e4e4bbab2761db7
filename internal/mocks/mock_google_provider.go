package mocks

import (
	"context"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// MockGoogleProvider implements domain.GoogleProvider for testing
type MockGoogleProvider struct {
	EnabledFunc      func() bool
	ExchangeFunc     func(ctx context.Context, code string) (string, error)
	ParseIDTokenFunc func(idToken string) (*domain.GoogleProfile, error)
}

// NewMockGoogleProvider creates a new MockGoogleProvider with default behaviors
func NewMockGoogleProvider() *MockGoogleProvider {
	return &MockGoogleProvider{}
}

// Enabled delegates to EnabledFunc, defaulting to enabled
func (m *MockGoogleProvider) Enabled() bool {
	if m.EnabledFunc != nil {
		return m.EnabledFunc()
	}
	return true
}

// Exchange delegates to ExchangeFunc
func (m *MockGoogleProvider) Exchange(ctx context.Context, code string) (string, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}
	return "mock-id-token", nil
}

// ParseIDToken delegates to ParseIDTokenFunc
func (m *MockGoogleProvider) ParseIDToken(idToken string) (*domain.GoogleProfile, error) {
	if m.ParseIDTokenFunc != nil {
		return m.ParseIDTokenFunc(idToken)
	}
	return &domain.GoogleProfile{
		Subject:       "google-uid-mock",
		Email:         "patient@gmail.com",
		Name:          "Mock Patient",
		EmailVerified: true,
	}, nil
}

// Compile-time interface compliance verification
var _ domain.GoogleProvider = (*MockGoogleProvider)(nil)
