package backend

import (
	"encoding/json"
	"fmt"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// authPayload covers both reply shapes the backend has shipped: the
// nested {data:{user,token}} envelope and the flat {user,token} one.
type authPayload struct {
	Success any          `json:"success"`
	Message any          `json:"message"`
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
	Data    struct {
		User  *domain.User `json:"user"`
		Token string       `json:"token"`
	} `json:"data"`
}

// NormalizeAuthResponse folds a raw backend payload into one
// AuthResponse, preferring the nested shape and falling back to the
// flat one. Callers are isolated from payload-shape drift here.
func NormalizeAuthResponse(body []byte) *domain.AuthResponse {
	var p authPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return &domain.AuthResponse{}
	}

	resp := &domain.AuthResponse{
		Success: coerceBool(p.Success),
		Message: coerceString(p.Message),
		User:    p.Data.User,
		Token:   p.Data.Token,
	}
	if resp.User == nil {
		resp.User = p.User
	}
	if resp.Token == "" {
		resp.Token = p.Token
	}
	return resp
}

// coerceBool applies loose truthiness to whatever the backend put in
// the success field.
func coerceBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "false" && t != "0"
	default:
		return true
	}
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
