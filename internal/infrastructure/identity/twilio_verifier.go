// Package identity holds the external identity-provider adapters: phone
// verification through Twilio Verify and Google sign-in through OAuth.
package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

const attestationTTL = 5 * time.Minute

// TwilioVerifier implements domain.PhoneVerifier against Twilio
// Verify v2. It is a per-flow resource handle: one flow owns it and
// must Release it on exit.
type TwilioVerifier struct {
	mu          sync.Mutex
	client      *twilio.RestClient
	serviceSID  string
	tokenSecret []byte
	issuer      string
	released    bool
}

// NewTwilioVerifier creates a phone verifier. With an empty service SID
// the verifier reports itself unconfigured instead of failing silently.
func NewTwilioVerifier(accountSID, authToken, serviceSID, tokenSecret string) *TwilioVerifier {
	var client *twilio.RestClient
	if serviceSID != "" {
		client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}
	return &TwilioVerifier{
		client:      client,
		serviceSID:  serviceSID,
		tokenSecret: []byte(tokenSecret),
		issuer:      "mediconnect-patient",
	}
}

// SendVerification implements domain.PhoneVerifier. The OTP is
// dispatched out-of-band by Twilio; the returned SID is the
// verification ID later codes are checked against.
func (v *TwilioVerifier) SendVerification(ctx context.Context, phoneNumber string) (string, error) {
	if err := v.usable(); err != nil {
		return "", err
	}

	params := &verify.CreateVerificationParams{}
	params.SetTo(phoneNumber)
	params.SetChannel("sms")

	res, err := v.client.VerifyV2.CreateVerification(v.serviceSID, params)
	if err != nil {
		return "", fmt.Errorf("failed to start phone verification: %w", err)
	}
	if res.Sid == nil {
		return "", fmt.Errorf("verification started without a sid")
	}
	return *res.Sid, nil
}

// VerifyCode implements domain.PhoneVerifier.
func (v *TwilioVerifier) VerifyCode(ctx context.Context, verificationID, code string) (*domain.PhoneAttestation, error) {
	if err := v.usable(); err != nil {
		return nil, err
	}

	params := &verify.CreateVerificationCheckParams{}
	params.SetVerificationSid(verificationID)
	params.SetCode(code)

	res, err := v.client.VerifyV2.CreateVerificationCheck(v.serviceSID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to check verification code: %w", err)
	}
	if res.Status == nil || *res.Status != "approved" {
		return nil, domain.ErrOTPInvalid
	}

	att := &domain.PhoneAttestation{VerifiedAt: time.Now()}
	if res.To != nil {
		att.PhoneNumber = *res.To
	}
	return att, nil
}

// IdentityToken implements domain.PhoneVerifier: a short-lived signed
// token asserting the verified number, consumed by the backend during
// the phone-login exchange.
func (v *TwilioVerifier) IdentityToken(ctx context.Context, att *domain.PhoneAttestation) (string, error) {
	if err := v.usable(); err != nil {
		return "", err
	}
	if att == nil || att.PhoneNumber == "" {
		return "", fmt.Errorf("attestation has no phone number")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"phone":       att.PhoneNumber,
		"verified_at": att.VerifiedAt.Unix(),
		"iss":         v.issuer,
		"iat":         now.Unix(),
		"exp":         now.Add(attestationTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.tokenSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign attestation token: %w", err)
	}
	return signed, nil
}

// Release implements domain.PhoneVerifier. Further calls fail.
func (v *TwilioVerifier) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.released = true
	v.client = nil
}

func (v *TwilioVerifier) usable() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.released {
		return domain.ErrVerifierReleased
	}
	if v.serviceSID == "" || v.client == nil {
		return domain.ErrPhoneNotConfigured
	}
	return nil
}

var _ domain.PhoneVerifier = (*TwilioVerifier)(nil)
