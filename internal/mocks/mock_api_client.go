package mocks

import (
	"context"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// MockAPIClient implements domain.APIClient for testing
type MockAPIClient struct {
	PostFunc func(ctx context.Context, path string, body any) (*domain.APIResponse, error)
	GetFunc  func(ctx context.Context, path string) (*domain.APIResponse, error)

	// PostCalls records every POST path and body, in order.
	PostCalls []MockAPICall
	GetCalls  []string
}

// MockAPICall is one recorded POST invocation.
type MockAPICall struct {
	Path string
	Body any
}

// NewMockAPIClient creates a new MockAPIClient with default behaviors
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Post records the call and delegates to PostFunc
func (m *MockAPIClient) Post(ctx context.Context, path string, body any) (*domain.APIResponse, error) {
	m.PostCalls = append(m.PostCalls, MockAPICall{Path: path, Body: body})
	if m.PostFunc != nil {
		return m.PostFunc(ctx, path, body)
	}
	// Default behavior: generic success with no session payload
	return &domain.APIResponse{Status: 200, Body: []byte(`{"success":true,"message":"ok"}`)}, nil
}

// Get records the call and delegates to GetFunc
func (m *MockAPIClient) Get(ctx context.Context, path string) (*domain.APIResponse, error) {
	m.GetCalls = append(m.GetCalls, path)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, path)
	}
	return &domain.APIResponse{Status: 200, Body: []byte(`{"success":true}`)}, nil
}

// Compile-time interface compliance verification
var _ domain.APIClient = (*MockAPIClient)(nil)
