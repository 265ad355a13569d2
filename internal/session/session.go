// Package session owns the login credential and the auth gate.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/codeduel/internal/api"
	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/store"
)

var (
	// ErrNotAuthenticated means no usable credential is stored.
	ErrNotAuthenticated = errors.New("login required")
	// ErrSessionExpired means the stored token is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// CredentialStore persists the credential.
type CredentialStore interface {
	LoadCredential(ctx context.Context) (model.Credential, error)
	SaveCredential(ctx context.Context, cred model.Credential) error
	DeleteCredentialKey(ctx context.Context, key string) error
	ClearCredential(ctx context.Context) error
}

// Authenticator exchanges user secrets for a token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	Signup(ctx context.Context, username, email, password string) (api.AuthResponse, error)
	SocialLogin(ctx context.Context, provider string) (api.AuthResponse, error)
	GoogleLogin(ctx context.Context, idToken string) (api.AuthResponse, error)
}

// Manager is the single owner of the credential.
type Manager struct {
	mu    sync.RWMutex
	cred  model.Credential
	store CredentialStore
	auth  Authenticator
	log   *zap.Logger
	hooks []func()
	now   func() time.Time
}

// New builds a Manager. Call Load to restore a stored credential.
func New(st CredentialStore, auth Authenticator, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: st, auth: auth, log: log, now: time.Now}
}

// OnLogout registers a teardown hook run after Logout.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	m.hooks = append(m.hooks, fn)
	m.mu.Unlock()
}

// Load restores the credential from storage.
func (m *Manager) Load(ctx context.Context) error {
	cred, err := m.store.LoadCredential(ctx)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	if cred.UserID == "" && cred.Token != "" {
		cred.UserID = userIDFromToken(cred.Token)
	}
	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()
	return nil
}

// Login signs in with email (or username) and password.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	return m.establish(ctx, "login", func() (api.AuthResponse, error) {
		return m.auth.Login(ctx, email, password)
	})
}

// Signup creates an account and signs in.
func (m *Manager) Signup(ctx context.Context, username, email, password string) error {
	return m.establish(ctx, "signup", func() (api.AuthResponse, error) {
		return m.auth.Signup(ctx, username, email, password)
	})
}

// SocialLogin signs in through a named provider.
func (m *Manager) SocialLogin(ctx context.Context, provider string) error {
	return m.establish(ctx, "social-login", func() (api.AuthResponse, error) {
		return m.auth.SocialLogin(ctx, provider)
	})
}

// GoogleLogin signs in with a Google id token.
func (m *Manager) GoogleLogin(ctx context.Context, idToken string) error {
	return m.establish(ctx, "google-login", func() (api.AuthResponse, error) {
		return m.auth.GoogleLogin(ctx, idToken)
	})
}

func (m *Manager) establish(ctx context.Context, kind string, call func() (api.AuthResponse, error)) error {
	resp, err := call()
	if err != nil {
		m.log.Info("auth failed", zap.String("kind", kind), zap.Error(err))
		return err
	}
	cred := model.Credential{
		Token:    resp.Token,
		UserID:   resp.User.ID.String(),
		Username: resp.User.Username,
	}
	if cred.UserID == "" {
		cred.UserID = userIDFromToken(cred.Token)
	}
	if err := m.store.SaveCredential(ctx, cred); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()
	m.log.Info("signed in", zap.String("kind", kind), zap.String("user_id", cred.UserID))
	return nil
}

// Logout deletes the credential and runs teardown hooks.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.ClearCredential(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	m.mu.Lock()
	m.cred = model.Credential{}
	hooks := append([]func(){}, m.hooks...)
	m.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
	m.log.Info("signed out")
	return nil
}

// Invalidate drops the token after the server rejected it.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	m.cred.Token = ""
	m.mu.Unlock()
	if err := m.store.DeleteCredentialKey(ctx, store.KeyToken); err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	m.log.Info("token invalidated")
	return nil
}

// Token returns the bearer token, or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred.Token
}

// UserID returns the signed-in user id, or "".
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred.UserID
}

// Username returns the signed-in username, or "".
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred.Username
}

// Authenticated reports whether both a token and a user id are known.
func (m *Manager) Authenticated() bool {
	return m.Guard() == nil
}

// Guard is the local auth gate. It never touches the network.
func (m *Manager) Guard() error {
	m.mu.RLock()
	cred := m.cred
	m.mu.RUnlock()
	if strings.TrimSpace(cred.Token) == "" || strings.TrimSpace(cred.UserID) == "" {
		return ErrNotAuthenticated
	}
	if exp, ok := tokenExpiry(cred.Token); ok && !exp.After(m.now()) {
		return ErrSessionExpired
	}
	return nil
}
