package backend

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// Fixed user-facing strings for known domain error codes. These
// override whatever message text the backend sent alongside the code.
const (
	msgPhoneRequired = "Please provide your phone number to continue."
	msgEmailExists   = "This email address is already registered. Please sign in instead."
	msgPhoneExists   = "This phone number is already registered. Please sign in instead."
)

// errorPayload is the failure body shape the backend sends: an optional
// field-keyed error map plus a top-level message and machine code.
type errorPayload struct {
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Errors    json.RawMessage `json:"errors"`
}

// ParseAuthError maps any transport or provider failure into the
// uniform AuthError taxonomy. Priority, first match wins:
//
//  1. field-keyed error map: first key in payload order, first message
//  2. top-level backend message (plus code when present)
//  3. a bare machine code, message left for FormatErrorMessage
//  4. the error's own message string
//  5. the generic fallback
func ParseAuthError(err error) *domain.AuthError {
	if err == nil {
		return nil
	}

	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		var p errorPayload
		_ = json.Unmarshal(apiErr.Body, &p)
		code := domain.ErrorCode(p.ErrorCode)

		if field, msg, found := firstFieldError(p.Errors); found {
			return &domain.AuthError{Field: field, Message: msg, Code: code}
		}
		if p.Message != "" {
			return &domain.AuthError{Message: p.Message, Code: code}
		}
		if code != domain.CodeNone {
			// Code-only body: leave the message empty so
			// FormatErrorMessage resolves the fixed string for the code.
			return &domain.AuthError{Code: code}
		}
	}

	if msg := err.Error(); msg != "" {
		return &domain.AuthError{Message: msg}
	}
	return &domain.AuthError{Message: domain.FallbackErrorMessage}
}

// FormatErrorMessage resolves an AuthError to display text, overriding
// the raw message with a fixed string for known codes.
func FormatErrorMessage(e *domain.AuthError) string {
	if e == nil {
		return domain.FallbackErrorMessage
	}
	switch e.Code {
	case domain.CodePhoneRequired:
		return msgPhoneRequired
	case domain.CodeEmailExists:
		return msgEmailExists
	case domain.CodePhoneExists:
		return msgPhoneExists
	}
	if e.Message == "" {
		return domain.FallbackErrorMessage
	}
	return e.Message
}

// IsEmailAlreadyExistsError reports a 422 reply carrying EMAIL_EXISTS.
func IsEmailAlreadyExistsError(err error) bool {
	return hasDomainCode(err, domain.CodeEmailExists)
}

// IsPhoneAlreadyExistsError reports a 422 reply carrying PHONE_EXISTS.
func IsPhoneAlreadyExistsError(err error) bool {
	return hasDomainCode(err, domain.CodePhoneExists)
}

// IsPhoneRequiredError reports a 422 reply carrying PHONE_REQUIRED.
func IsPhoneRequiredError(err error) bool {
	return hasDomainCode(err, domain.CodePhoneRequired)
}

// hasDomainCode gates the classifier predicates: the transport status
// must be exactly 422 and the machine code must match.
func hasDomainCode(err error, code domain.ErrorCode) bool {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 422 {
		return false
	}
	var p errorPayload
	if json.Unmarshal(apiErr.Body, &p) != nil {
		return false
	}
	return domain.ErrorCode(p.ErrorCode) == code
}

// firstFieldError walks the raw errors object token by token and
// returns its first key with that key's first message. Go maps don't
// keep insertion order, so the payload is read as a token stream to
// honor the order the backend wrote.
func firstFieldError(raw json.RawMessage) (field, message string, found bool) {
	if len(raw) == 0 {
		return "", "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return "", "", false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", "", false
	}

	tok, err = dec.Token()
	if err != nil {
		return "", "", false
	}
	key, ok := tok.(string)
	if !ok {
		return "", "", false
	}

	var value any
	if err := dec.Decode(&value); err != nil {
		return "", "", false
	}
	return key, firstMessage(value), true
}

// firstMessage extracts a display string from an error map value,
// which may be a single string or an ordered list of strings.
func firstMessage(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				return s
			}
		}
	}
	return domain.FallbackErrorMessage
}
