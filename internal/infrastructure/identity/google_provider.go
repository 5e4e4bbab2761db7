package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// GoogleOAuthProvider implements domain.GoogleProvider over the
// standard OAuth authorization-code exchange. The core never verifies
// the ID token signature; that belongs to the backend.
type GoogleOAuthProvider struct {
	config  *oauth2.Config
	enabled bool
}

// NewGoogleOAuthProvider creates a Google provider. An empty client ID
// disables the capability; callers branch on Enabled once at startup
// rather than probing for failures later.
func NewGoogleOAuthProvider(clientID, clientSecret, redirectURL string) *GoogleOAuthProvider {
	enabled := clientID != ""
	var cfg *oauth2.Config
	if enabled {
		cfg = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return &GoogleOAuthProvider{config: cfg, enabled: enabled}
}

// Enabled implements domain.GoogleProvider.
func (g *GoogleOAuthProvider) Enabled() bool {
	return g.enabled
}

// Exchange implements domain.GoogleProvider: authorization code in,
// ID token out.
func (g *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (string, error) {
	if !g.enabled {
		return "", domain.ErrGoogleNotConfigured
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("google code exchange failed: %w", err)
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", fmt.Errorf("google token response carried no id_token")
	}
	return idToken, nil
}

// ParseIDToken implements domain.GoogleProvider. The parse is
// deliberately unverified: these claims only prefill the
// phone-collection step, and the backend re-validates the token.
func (g *GoogleOAuthProvider) ParseIDToken(idToken string) (*domain.GoogleProfile, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse google id token: %w", err)
	}

	profile := &domain.GoogleProfile{
		Subject:       claimString(claims, "sub"),
		Email:         claimString(claims, "email"),
		Name:          claimString(claims, "name"),
		EmailVerified: claimBool(claims, "email_verified"),
	}
	if profile.Subject == "" {
		return nil, fmt.Errorf("google id token carried no subject")
	}
	return profile, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func claimBool(claims jwt.MapClaims, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

var _ domain.GoogleProvider = (*GoogleOAuthProvider)(nil)
