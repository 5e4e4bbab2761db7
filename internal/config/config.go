// Package config loads application settings from config/config.yml with
// environment variable overrides, so a device build can ship a baked-in
// file while CI and local runs tune values through the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type TwilioConfig struct {
	AccountSID       string `yaml:"account_sid"`
	AuthToken        string `yaml:"auth_token"`
	VerifyServiceSID string `yaml:"verify_service_sid"`
}

type AttestationConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type OTPConfig struct {
	ResendWindow string `yaml:"resend_window"`
}

type SessionConfig struct {
	Store         string `yaml:"store"` // "redis" or "sqlite"
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	SQLitePath    string `yaml:"sqlite_path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ConfigFile struct {
	Backend     BackendConfig     `yaml:"backend"`
	Google      GoogleConfig      `yaml:"google"`
	Twilio      TwilioConfig      `yaml:"twilio"`
	Attestation AttestationConfig `yaml:"attestation"`
	OTP         OTPConfig         `yaml:"otp"`
	Session     SessionConfig     `yaml:"session"`
	Log         LogConfig         `yaml:"log"`
}

type Config struct {
	APIBaseURL     string
	APITimeout     time.Duration
	GoogleClientID string
	GoogleSecret   string
	GoogleRedirect string
	TwilioSID      string
	TwilioToken    string
	TwilioVerify   string
	AttestSecret   string
	AttestIssuer   string
	OTPResend      time.Duration
	SessionStore   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SQLitePath     string
	LogLevel       string
}

// GoogleEnabled reports whether Google sign-in can be offered. The UI
// hides the button entirely when this is false.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// PhoneAuthEnabled reports whether OTP login can be offered.
func (c *Config) PhoneAuthEnabled() bool {
	return c.TwilioSID != "" && c.TwilioVerify != ""
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Load reads config/config.yml when present and applies environment
// overrides. A missing file is not an error: everything can come from
// the environment.
func Load() (*Config, error) {
	return LoadFrom("config/config.yml")
}

func LoadFrom(path string) (*Config, error) {
	file, err := loadConfigFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		file = &ConfigFile{}
	}

	timeout, err := parseDuration(env("API_TIMEOUT", file.Backend.Timeout), 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid API timeout: %w", err)
	}
	resend, err := parseDuration(env("OTP_RESEND_WINDOW", file.OTP.ResendWindow), 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP resend window: %w", err)
	}

	cfg := &Config{
		APIBaseURL:     env("API_BASE_URL", file.Backend.BaseURL),
		APITimeout:     timeout,
		GoogleClientID: env("GOOGLE_CLIENT_ID", file.Google.ClientID),
		GoogleSecret:   env("GOOGLE_CLIENT_SECRET", file.Google.ClientSecret),
		GoogleRedirect: env("GOOGLE_REDIRECT_URL", file.Google.RedirectURL),
		TwilioSID:      env("TWILIO_ACCOUNT_SID", file.Twilio.AccountSID),
		TwilioToken:    env("TWILIO_AUTH_TOKEN", file.Twilio.AuthToken),
		TwilioVerify:   env("TWILIO_VERIFY_SERVICE_SID", file.Twilio.VerifyServiceSID),
		AttestSecret:   env("ATTESTATION_SECRET", file.Attestation.Secret),
		AttestIssuer:   env("ATTESTATION_ISSUER", defaultString(file.Attestation.Issuer, "mediconnect-patient")),
		OTPResend:      resend,
		SessionStore:   env("SESSION_STORE", defaultString(file.Session.Store, "sqlite")),
		RedisAddr:      env("REDIS_ADDR", defaultString(file.Session.RedisAddr, "localhost:6379")),
		RedisPassword:  env("REDIS_PASSWORD", file.Session.RedisPassword),
		RedisDB:        envInt("REDIS_DB", file.Session.RedisDB),
		SQLitePath:     env("SQLITE_PATH", defaultString(file.Session.SQLitePath, "data/session.db")),
		LogLevel:       env("LOG_LEVEL", defaultString(file.Log.Level, "info")),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API base URL is required (API_BASE_URL or backend.base_url)")
	}
	switch cfg.SessionStore {
	case "redis", "sqlite":
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}
	return &config, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func defaultString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
