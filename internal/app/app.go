// Package app wires configuration, infrastructure, and services into a
// ready-to-use auth core for a device build.
package app

import (
	"context"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/config"
)

// App is the assembled auth core.
type App struct {
	*Container
}

// New loads dependencies from cfg and returns the assembled app.
func New(cfg *config.Config) (*App, error) {
	container, err := NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	return &App{Container: container}, nil
}

// RestoreSession implements app-start auto-login: the locally persisted
// session is loaded and, when the network is reachable, the profile is
// refreshed from the backend. A refresh failure is not fatal; the stale
// local copy keeps the user signed in until an authorized call rejects
// the token.
func (a *App) RestoreSession(ctx context.Context) (*domain.User, string, error) {
	user, token, err := a.Sessions.Current(ctx)
	if err != nil {
		return nil, "", err
	}

	if fresh, err := a.AuthSvc.CurrentUser(ctx); err == nil {
		if updateErr := a.Sessions.SetAuth(ctx, fresh, token); updateErr == nil {
			user = fresh
		}
	} else {
		a.Logger.Debug().Err(err).Msg("session refresh skipped")
	}
	return user, token, nil
}
