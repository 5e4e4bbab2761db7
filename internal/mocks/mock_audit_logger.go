package mocks

import (
	"context"
	"sync"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// MockAuditLogger implements domain.AuditLogger for testing
type MockAuditLogger struct {
	mu     sync.Mutex
	events []*domain.AuthEvent
}

// NewMockAuditLogger creates a new MockAuditLogger
func NewMockAuditLogger() *MockAuditLogger {
	return &MockAuditLogger{}
}

// LogEvent records the event
func (m *MockAuditLogger) LogEvent(ctx context.Context, event *domain.AuthEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns the recorded events in order
func (m *MockAuditLogger) Events() []*domain.AuthEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuthEvent(nil), m.events...)
}

// HasEvent reports whether an event of the given type was recorded
func (m *MockAuditLogger) HasEvent(eventType domain.AuthEventType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}

// Compile-time interface compliance verification
var _ domain.AuditLogger = (*MockAuditLogger)(nil)
