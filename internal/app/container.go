package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/config"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/infrastructure/audit"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/infrastructure/backend"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/infrastructure/identity"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/infrastructure/sessions"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger zerolog.Logger

	// Infrastructure
	RedisClient *redis.Client
	sqliteStore *sessions.SQLiteStore

	// Providers
	API      domain.APIClient
	Sessions domain.SessionSink
	Verifier domain.PhoneVerifier
	Google   domain.GoogleProvider
	Audit    domain.AuditLogger

	// Services
	AuthSvc domain.AuthService
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config) (*Container, error) {
	container := &Container{Config: cfg}

	container.initLogger()
	if err := container.initSessions(); err != nil {
		return nil, err
	}
	container.initProviders()
	container.initServices()

	return container, nil
}

func (c *Container) initLogger() {
	level, err := zerolog.ParseLevel(c.Config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	c.Logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func (c *Container) initSessions() error {
	switch c.Config.SessionStore {
	case "redis":
		c.RedisClient = redis.NewClient(&redis.Options{
			Addr:     c.Config.RedisAddr,
			Password: c.Config.RedisPassword,
			DB:       c.Config.RedisDB,
		})
		c.Sessions = sessions.NewRedisStore(c.RedisClient, "", 0)
	case "sqlite":
		store, err := sessions.NewSQLiteStore(c.Config.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		c.sqliteStore = store
		c.Sessions = store
	default:
		return fmt.Errorf("unknown session store %q", c.Config.SessionStore)
	}
	return nil
}

func (c *Container) initProviders() {
	c.API = backend.NewClient(
		c.Config.APIBaseURL,
		backend.WithHTTPClient(&http.Client{Timeout: c.Config.APITimeout}),
		backend.WithLogger(c.Logger.With().Str("component", "backend").Logger()),
		backend.WithTokenSource(func(ctx context.Context) string {
			_, token, err := c.Sessions.Current(ctx)
			if err != nil {
				return ""
			}
			return token
		}),
	)
	c.Verifier = identity.NewTwilioVerifier(
		c.Config.TwilioSID,
		c.Config.TwilioToken,
		c.Config.TwilioVerify,
		c.Config.AttestSecret,
	)
	c.Google = identity.NewGoogleOAuthProvider(
		c.Config.GoogleClientID,
		c.Config.GoogleSecret,
		c.Config.GoogleRedirect,
	)
	c.Audit = audit.NewZerologAuditLogger(c.Logger.With().Str("component", "audit").Logger())
}

func (c *Container) initServices() {
	c.AuthSvc = services.NewAuthService(c.API, c.Google, c.Sessions, c.Audit)
}

// NewPhoneFlow creates a fresh phone login flow. Each flow owns its own
// verifier handle, so one is built per invocation.
func (c *Container) NewPhoneFlow(onTick func(remaining int)) *services.PhoneFlow {
	verifier := identity.NewTwilioVerifier(
		c.Config.TwilioSID,
		c.Config.TwilioToken,
		c.Config.TwilioVerify,
		c.Config.AttestSecret,
	)
	return services.NewPhoneFlow(c.API, verifier, c.Sessions, c.Audit, services.PhoneFlowConfig{
		ResendSeconds: int(c.Config.OTPResend / time.Second),
		TickInterval:  time.Second,
		OnTick:        onTick,
	})
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	if c.sqliteStore != nil {
		return c.sqliteStore.Close()
	}
	return nil
}
