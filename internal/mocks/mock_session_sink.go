package mocks

import (
	"context"
	"sync"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// MockSessionSink implements domain.SessionSink for testing
type MockSessionSink struct {
	SetAuthFunc func(ctx context.Context, user *domain.User, token string) error
	CurrentFunc func(ctx context.Context) (*domain.User, string, error)
	ClearFunc   func(ctx context.Context) error

	mu           sync.Mutex
	setAuthCalls int
	user         *domain.User
	token        string
}

// NewMockSessionSink creates a new MockSessionSink with default behaviors
func NewMockSessionSink() *MockSessionSink {
	return &MockSessionSink{}
}

// SetAuth records the handoff and delegates to SetAuthFunc
func (m *MockSessionSink) SetAuth(ctx context.Context, user *domain.User, token string) error {
	m.mu.Lock()
	m.setAuthCalls++
	m.user = user
	m.token = token
	m.mu.Unlock()

	if m.SetAuthFunc != nil {
		return m.SetAuthFunc(ctx, user, token)
	}
	return nil
}

// Current delegates to CurrentFunc or returns the last handoff
func (m *MockSessionSink) Current(ctx context.Context) (*domain.User, string, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, "", domain.ErrSessionMissing
	}
	return m.user, m.token, nil
}

// Clear delegates to ClearFunc or drops the recorded session
func (m *MockSessionSink) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	m.mu.Lock()
	m.user, m.token = nil, ""
	m.mu.Unlock()
	return nil
}

// SetAuthCalls returns how many times a session was handed off.
// The orchestrator must keep this at most one per attempt.
func (m *MockSessionSink) SetAuthCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setAuthCalls
}

// Compile-time interface compliance verification
var _ domain.SessionSink = (*MockSessionSink)(nil)
