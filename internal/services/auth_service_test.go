package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/mocks"
)

func newTestService(api *mocks.MockAPIClient, google *mocks.MockGoogleProvider, sink *mocks.MockSessionSink) domain.AuthService {
	return NewAuthService(api, google, sink, mocks.NewMockAuditLogger())
}

func okSession(body string) func(ctx context.Context, path string, payload any) (*domain.APIResponse, error) {
	return func(ctx context.Context, path string, payload any) (*domain.APIResponse, error) {
		return &domain.APIResponse{Status: 200, Body: []byte(body)}, nil
	}
}

func TestAuthServiceImpl_Login(t *testing.T) {
	sessionBody := `{"success":true,"data":{"user":{"id":1,"email":"p@example.com"},"token":"tok_1"}}`

	tests := []struct {
		name             string
		identifier       string
		password         string
		setupAPI         func(*mocks.MockAPIClient)
		expectField      string
		expectMessage    string
		expectSuccess    bool
		expectHandoffs   int
		expectPayloadKey string
	}{
		{
			name:             "email identifier routes to email payload",
			identifier:       "p@example.com",
			password:         "Secret123",
			setupAPI:         func(api *mocks.MockAPIClient) { api.PostFunc = okSession(sessionBody) },
			expectSuccess:    true,
			expectHandoffs:   1,
			expectPayloadKey: "email",
		},
		{
			name:             "phone identifier routes to phone payload",
			identifier:       "0712345678",
			password:         "Secret123",
			setupAPI:         func(api *mocks.MockAPIClient) { api.PostFunc = okSession(sessionBody) },
			expectSuccess:    true,
			expectHandoffs:   1,
			expectPayloadKey: "phone",
		},
		{
			name:          "identifier matching neither form is rejected locally",
			identifier:    "abc",
			password:      "Secret123",
			expectField:   "identifier",
			expectMessage: "Please enter a valid email address or phone number",
		},
		{
			name:          "empty password is rejected locally",
			identifier:    "p@example.com",
			password:      "",
			expectField:   "password",
			expectMessage: "Password is required",
		},
		{
			name:       "backend failure is normalized and formatted",
			identifier: "p@example.com",
			password:   "Secret123",
			setupAPI: func(api *mocks.MockAPIClient) {
				api.PostFunc = func(ctx context.Context, path string, payload any) (*domain.APIResponse, error) {
					return nil, &domain.APIError{Status: 401, Body: []byte(`{"message":"Invalid credentials"}`)}
				}
			},
			expectMessage: "Invalid credentials",
		},
		{
			name:       "network failure surfaces its message",
			identifier: "p@example.com",
			password:   "Secret123",
			setupAPI: func(api *mocks.MockAPIClient) {
				api.PostFunc = func(ctx context.Context, path string, payload any) (*domain.APIResponse, error) {
					return nil, errors.New("connection refused")
				}
			},
			expectMessage: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := mocks.NewMockAPIClient()
			if tt.setupAPI != nil {
				tt.setupAPI(api)
			}
			sink := mocks.NewMockSessionSink()
			svc := newTestService(api, mocks.NewMockGoogleProvider(), sink)

			resp, err := svc.Login(context.Background(), domain.PasswordCredential{
				Identifier: tt.identifier,
				Password:   tt.password,
			})

			if tt.expectMessage != "" {
				var authErr *domain.AuthError
				if !errors.As(err, &authErr) {
					t.Fatalf("expected AuthError, got %v", err)
				}
				if authErr.Field != tt.expectField {
					t.Errorf("expected field %q, got %q", tt.expectField, authErr.Field)
				}
				if authErr.Message != tt.expectMessage {
					t.Errorf("expected message %q, got %q", tt.expectMessage, authErr.Message)
				}
				if sink.SetAuthCalls() != 0 {
					t.Error("failed login must not hand off a session")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Authenticated() != tt.expectSuccess {
				t.Errorf("expected authenticated=%v, got %+v", tt.expectSuccess, resp)
			}
			if sink.SetAuthCalls() != tt.expectHandoffs {
				t.Errorf("expected %d handoffs, got %d", tt.expectHandoffs, sink.SetAuthCalls())
			}

			if tt.expectPayloadKey != "" {
				if len(api.PostCalls) != 1 {
					t.Fatalf("expected one POST, got %d", len(api.PostCalls))
				}
				payload, ok := api.PostCalls[0].Body.(map[string]any)
				if !ok {
					t.Fatalf("unexpected payload type %T", api.PostCalls[0].Body)
				}
				if _, present := payload[tt.expectPayloadKey]; !present {
					t.Errorf("expected payload keyed by %q, got %v", tt.expectPayloadKey, payload)
				}
			}
		})
	}
}

func TestAuthServiceImpl_Login_FailedResponseSurfacesMessage(t *testing.T) {
	api := mocks.NewMockAPIClient()
	api.PostFunc = okSession(`{"success":false,"message":"Account locked"}`)
	sink := mocks.NewMockSessionSink()
	svc := newTestService(api, mocks.NewMockGoogleProvider(), sink)

	resp, err := svc.Login(context.Background(), domain.PasswordCredential{
		Identifier: "p@example.com",
		Password:   "Secret123",
	})
	if err != nil {
		t.Fatalf("success=false is not an error: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false response")
	}
	if resp.Message != "Account locked" {
		t.Errorf("expected backend message, got %q", resp.Message)
	}
	if sink.SetAuthCalls() != 0 {
		t.Error("no session may be established on success=false")
	}
}

func TestAuthServiceImpl_Login_SuccessWithoutSessionPayload(t *testing.T) {
	api := mocks.NewMockAPIClient()
	api.PostFunc = okSession(`{"success":true,"message":"ok"}`)
	sink := mocks.NewMockSessionSink()
	svc := newTestService(api, mocks.NewMockGoogleProvider(), sink)

	_, err := svc.Login(context.Background(), domain.PasswordCredential{
		Identifier: "p@example.com",
		Password:   "Secret123",
	})
	if err == nil {
		t.Fatal("success without user and token must be treated as a failure")
	}
	if sink.SetAuthCalls() != 0 {
		t.Error("broken invariant must not hand off a session")
	}
}

func TestAuthServiceImpl_GoogleLogin_NeedsPhone(t *testing.T) {
	// Scenario: Google sign-in returns a user whose phone is not
	// verified. The flow must reach phone collection with the pending
	// payload populated and no session established.
	api := mocks.NewMockAPIClient()
	api.PostFunc = okSession(`{"success":true,"user":{"id":3,"email":"g@gmail.com","first_name":"Grace","last_name":"Wanjiru","google_id":"uid-3","phone_verified":false}}`)
	sink := mocks.NewMockSessionSink()
	svc := newTestService(api, mocks.NewMockGoogleProvider(), sink)

	res, err := svc.GoogleLogin(context.Background(), domain.GoogleCredential{IDToken: "idtok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NeedsPhone {
		t.Fatal("expected NeedsPhone transition")
	}
	if res.Pending == nil {
		t.Fatal("expected pending payload")
	}
	if res.Pending.Email != "g@gmail.com" || res.Pending.GoogleID != "uid-3" || res.Pending.Name != "Grace Wanjiru" {
		t.Errorf("unexpected pending payload %+v", res.Pending)
	}
	if sink.SetAuthCalls() != 0 {
		t.Error("no session may be established before the phone step")
	}
}

func TestAuthServiceImpl_GoogleLogin_VerifiedPhoneAuthenticates(t *testing.T) {
	api := mocks.NewMockAPIClient()
	api.PostFunc = okSession(`{"success":true,"user":{"id":3,"email":"g@gmail.com","phone_verified":true},"token":"tok_g"}`)
	sink := mocks.NewMockSessionSink()
	svc := newTestService(api, mocks.NewMockGoogleProvider(), sink)

	res, err := svc.GoogleLogin(context.Background(), domain.GoogleCredential{IDToken: "idtok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NeedsPhone {
		t.Error("verified phone must not enter phone collection")
	}
	if !res.Response.Authenticated() {
		t.Errorf("expected authenticated response, got %+v", res.Response)
	}
	if sink.SetAuthCalls() != 1 {
		t.Errorf("expected exactly one handoff, got %d", sink.SetAuthCalls())
	}
}

func TestAuthServiceImpl_GoogleLogin_PhoneRequiredCode(t *testing.T) {
	// The backend may also signal the missing phone as a 422 domain
	// error instead of a user payload.
	api := mocks.NewMockAPIClient()
	api.PostFunc = func(ctx context.Context, path string, payload any) (*domain.APIResponse, error) {
		return nil, &domain.APIError{Status: 422, Body: []byte(`{"error_code":"PHONE_REQUIRED"}`)}
	}
	sink := mocks.NewMockSessionSink()
	svc := newTestService(api, mocks.NewMockGoogleProvider(), sink)

	res, err := svc.GoogleLogin(context.Background(), domain.GoogleCredential{IDToken: "idtok"})
	if err != nil {
		t.Fatalf("PHONE_REQUIRED is a flow transition, not an error: %v", err)
	}
	if !res.NeedsPhone {
		t.Fatal("expected NeedsPhone transition")
	}
	// Pending payload falls back to the ID token claims.
	if res.Pending.Email != "patient@gmail.com" || res.Pending.GoogleID != "google-uid-mock" {
		t.Errorf("expected claims-derived pending payload, got %+v", res.Pending)
	}
	if sink.SetAuthCalls() != 0 {
		t.Error("no session may be established")
	}
}

func TestAuthServiceImpl_GoogleLogin_Disabled(t *testing.T) {
	google := mocks.NewMockGoogleProvider()
	google.EnabledFunc = func() bool { return false }
	svc := newTestService(mocks.NewMockAPIClient(), google, mocks.NewMockSessionSink())

	_, err := svc.GoogleLogin(context.Background(), domain.GoogleCredential{IDToken: "idtok"})
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestAuthServiceImpl_CompleteGooglePhone(t *testing.T) {
	pending := &domain.PendingGoogleSignup{Email: "g@gmail.com", Name: "Grace", GoogleID: "uid-3"}

	t.Run("valid phone completes the session", func(t *testing.T) {
		api := mocks.NewMockAPIClient()
		api.PostFunc = okSession(`{"success":true,"user":{"id":3,"email":"g@gmail.com"},"token":"tok_g2"}`)
		sink := mocks.NewMockSessionSink()
		svc := newTestService(api, mocks.NewMockGoogleProvider(), sink)

		resp, err := svc.CompleteGooglePhone(context.Background(), pending, "0712345678")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.Authenticated() {
			t.Errorf("expected authenticated response, got %+v", resp)
		}
		if sink.SetAuthCalls() != 1 {
			t.Errorf("expected one handoff, got %d", sink.SetAuthCalls())
		}

		payload := api.PostCalls[0].Body.(map[string]any)
		if payload["google_id"] != "uid-3" || payload["email"] != "g@gmail.com" || payload["phone"] != "0712345678" {
			t.Errorf("unexpected payload %v", payload)
		}
	})

	t.Run("invalid phone is rejected locally", func(t *testing.T) {
		api := mocks.NewMockAPIClient()
		svc := newTestService(api, mocks.NewMockGoogleProvider(), mocks.NewMockSessionSink())

		_, err := svc.CompleteGooglePhone(context.Background(), pending, "12345")
		var authErr *domain.AuthError
		if !errors.As(err, &authErr) || authErr.Field != "phone" {
			t.Fatalf("expected phone field error, got %v", err)
		}
		if len(api.PostCalls) != 0 {
			t.Error("invalid phone must not reach the network")
		}
	})

	t.Run("phone already registered attaches to the field", func(t *testing.T) {
		api := mocks.NewMockAPIClient()
		api.PostFunc = func(ctx context.Context, path string, payload any) (*domain.APIResponse, error) {
			return nil, &domain.APIError{Status: 422, Body: []byte(`{"error_code":"PHONE_EXISTS","message":"raw"}`)}
		}
		svc := newTestService(api, mocks.NewMockGoogleProvider(), mocks.NewMockSessionSink())

		_, err := svc.CompleteGooglePhone(context.Background(), pending, "0712345678")
		var authErr *domain.AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if authErr.Field != "phone" {
			t.Errorf("expected phone field error, got %+v", authErr)
		}
		if authErr.Message == "raw" {
			t.Error("known code must override the raw message")
		}
	})
}

func validForm() *domain.RegistrationForm {
	return &domain.RegistrationForm{
		FirstName:            "Grace",
		LastName:             "Wanjiru",
		Email:                "grace@example.com",
		Phone:                "0712345678",
		Password:             "Str0ngpass",
		PasswordConfirmation: "Str0ngpass",
	}
}

func TestAuthServiceImpl_Register(t *testing.T) {
	t.Run("valid form submits and stays unauthenticated", func(t *testing.T) {
		// Scenario: successful registration leaves the user pending
		// verification; no session is established.
		api := mocks.NewMockAPIClient()
		api.PostFunc = okSession(`{"success":true,"message":"Registered. Please verify your phone."}`)
		sink := mocks.NewMockSessionSink()
		svc := newTestService(api, mocks.NewMockGoogleProvider(), sink)

		resp, err := svc.Register(context.Background(), validForm())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.Success {
			t.Errorf("expected success, got %+v", resp)
		}
		if sink.SetAuthCalls() != 0 {
			t.Error("registration must not establish a session")
		}

		payload := api.PostCalls[0].Body.(map[string]any)
		for _, key := range []string{"first_name", "last_name", "email", "phone", "password", "password_confirmation"} {
			if _, present := payload[key]; !present {
				t.Errorf("expected snake_case key %q in payload %v", key, payload)
			}
		}
	})

	t.Run("field validation errors block submission", func(t *testing.T) {
		cases := []struct {
			name     string
			mutate   func(*domain.RegistrationForm)
			expected string
		}{
			{"missing first name", func(f *domain.RegistrationForm) { f.FirstName = "" }, "firstName"},
			{"bad email", func(f *domain.RegistrationForm) { f.Email = "nope" }, "email"},
			{"short phone", func(f *domain.RegistrationForm) { f.Phone = "12345" }, "phone"},
			{"weak password", func(f *domain.RegistrationForm) { f.Password = "short"; f.PasswordConfirmation = "short" }, "password"},
			{"mismatched confirmation", func(f *domain.RegistrationForm) { f.PasswordConfirmation = "Different1" }, "passwordConfirmation"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				api := mocks.NewMockAPIClient()
				svc := newTestService(api, mocks.NewMockGoogleProvider(), mocks.NewMockSessionSink())

				form := validForm()
				tc.mutate(form)

				_, err := svc.Register(context.Background(), form)
				var authErr *domain.AuthError
				if !errors.As(err, &authErr) {
					t.Fatalf("expected AuthError, got %v", err)
				}
				if authErr.Field != tc.expected {
					t.Errorf("expected field %q, got %q", tc.expected, authErr.Field)
				}
				if len(api.PostCalls) != 0 {
					t.Error("validation errors must never reach the network")
				}
			})
		}
	})

	t.Run("duplicate email attaches to the email field", func(t *testing.T) {
		api := mocks.NewMockAPIClient()
		api.PostFunc = func(ctx context.Context, path string, payload any) (*domain.APIResponse, error) {
			return nil, &domain.APIError{Status: 422, Body: []byte(`{"error_code":"EMAIL_EXISTS"}`)}
		}
		svc := newTestService(api, mocks.NewMockGoogleProvider(), mocks.NewMockSessionSink())

		_, err := svc.Register(context.Background(), validForm())
		var authErr *domain.AuthError
		if !errors.As(err, &authErr) || authErr.Field != "email" {
			t.Fatalf("expected email field error, got %v", err)
		}
	})
}

func TestAuthServiceImpl_ForgotPassword(t *testing.T) {
	api := mocks.NewMockAPIClient()
	api.PostFunc = okSession(`{"success":true,"message":"Reset link sent"}`)
	svc := newTestService(api, mocks.NewMockGoogleProvider(), mocks.NewMockSessionSink())

	resp, err := svc.ForgotPassword(context.Background(), "p@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || resp.Message != "Reset link sent" {
		t.Errorf("unexpected response %+v", resp)
	}

	_, err = svc.ForgotPassword(context.Background(), "not-an-email")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) || authErr.Field != "email" {
		t.Fatalf("expected email field error, got %v", err)
	}
}

func TestAuthServiceImpl_ResetPassword(t *testing.T) {
	t.Run("missing link params are terminal and issue no request", func(t *testing.T) {
		api := mocks.NewMockAPIClient()
		svc := newTestService(api, mocks.NewMockGoogleProvider(), mocks.NewMockSessionSink())

		_, err := svc.ResetPassword(context.Background(), "", "Str0ngpass", "")
		if !errors.Is(err, domain.ErrInvalidResetLink) {
			t.Fatalf("expected ErrInvalidResetLink, got %v", err)
		}
		if len(api.PostCalls) != 0 {
			t.Error("an invalid link must not produce a network request")
		}
	})

	t.Run("valid reset round-trips", func(t *testing.T) {
		api := mocks.NewMockAPIClient()
		api.PostFunc = okSession(`{"success":true,"message":"Password updated"}`)
		svc := newTestService(api, mocks.NewMockGoogleProvider(), mocks.NewMockSessionSink())

		resp, err := svc.ResetPassword(context.Background(), "p@example.com", "Str0ngpass", "reset-token")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.Success {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestAuthServiceImpl_Logout(t *testing.T) {
	t.Run("clears the session", func(t *testing.T) {
		sink := mocks.NewMockSessionSink()
		sink.SetAuth(context.Background(), &domain.User{ID: 1}, "tok")
		svc := newTestService(mocks.NewMockAPIClient(), mocks.NewMockGoogleProvider(), sink)

		if err := svc.Logout(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, _, err := sink.Current(context.Background()); !errors.Is(err, domain.ErrSessionMissing) {
			t.Error("expected session to be cleared")
		}
	})

	t.Run("clears even when the backend call fails", func(t *testing.T) {
		api := mocks.NewMockAPIClient()
		api.PostFunc = func(ctx context.Context, path string, payload any) (*domain.APIResponse, error) {
			return nil, errors.New("network down")
		}
		sink := mocks.NewMockSessionSink()
		sink.SetAuth(context.Background(), &domain.User{ID: 1}, "tok")
		svc := newTestService(api, mocks.NewMockGoogleProvider(), sink)

		if err := svc.Logout(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, _, err := sink.Current(context.Background()); !errors.Is(err, domain.ErrSessionMissing) {
			t.Error("expected session to be cleared despite backend failure")
		}
	})
}

func TestAuthServiceImpl_CurrentUser(t *testing.T) {
	api := mocks.NewMockAPIClient()
	api.GetFunc = func(ctx context.Context, path string) (*domain.APIResponse, error) {
		return &domain.APIResponse{Status: 200, Body: []byte(`{"success":true,"user":{"id":8,"email":"p@example.com"}}`)}, nil
	}
	svc := newTestService(api, mocks.NewMockGoogleProvider(), mocks.NewMockSessionSink())

	user, err := svc.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 8 {
		t.Errorf("unexpected user %+v", user)
	}
	if len(api.GetCalls) != 1 || api.GetCalls[0] != "/auth/me" {
		t.Errorf("expected one GET /auth/me, got %v", api.GetCalls)
	}
}

func TestAuthServiceImpl_RefusedLoginAuditedAsFailure(t *testing.T) {
	api := mocks.NewMockAPIClient()
	api.PostFunc = okSession(`{"success":false,"message":"Account locked"}`)
	audit := mocks.NewMockAuditLogger()
	svc := NewAuthService(api, mocks.NewMockGoogleProvider(), mocks.NewMockSessionSink(), audit)

	if _, err := svc.Login(context.Background(), domain.PasswordCredential{
		Identifier: "p@example.com",
		Password:   "Secret123",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found bool
	for _, e := range audit.Events() {
		if e.EventType == domain.LoginFailureEvent {
			found = true
			if e.Success {
				t.Error("a refused login must be audited with success=false")
			}
		}
	}
	if !found {
		t.Fatal("expected a LOGIN_FAILED event")
	}
}
