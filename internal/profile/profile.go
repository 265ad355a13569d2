// Package profile caches the signed-in user's profile.
package profile

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/verte-zerg/codeduel/internal/api"
	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/session"
)

// Backend is the profile slice of the REST API.
type Backend interface {
	FetchProfile(ctx context.Context) (model.Profile, error)
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.Profile, error)
}

// Session is what the store needs from the session manager.
type Session interface {
	Token() string
	Invalidate(ctx context.Context) error
}

// Store holds at most one cached profile.
type Store struct {
	mu      sync.RWMutex
	current *model.Profile
	backend Backend
	session Session
	log     *zap.Logger
}

// New builds an empty Store.
func New(backend Backend, sess Session, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, session: sess, log: log}
}

// Fetch reloads the profile from the server and replaces the cache.
func (s *Store) Fetch(ctx context.Context) (model.Profile, error) {
	if s.session.Token() == "" {
		s.Clear()
		return model.Profile{}, session.ErrNotAuthenticated
	}
	p, err := s.backend.FetchProfile(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			if ierr := s.session.Invalidate(ctx); ierr != nil {
				s.log.Warn("invalidate token", zap.Error(ierr))
			}
		}
		s.log.Info("profile fetch failed", zap.Error(err))
		return model.Profile{}, err
	}
	s.set(p)
	return p, nil
}

// Update sends the edit and caches the server's copy.
func (s *Store) Update(ctx context.Context, update model.ProfileUpdate) (model.Profile, error) {
	if s.session.Token() == "" {
		return model.Profile{}, session.ErrNotAuthenticated
	}
	p, err := s.backend.UpdateProfile(ctx, update)
	if err != nil {
		return model.Profile{}, err
	}
	s.set(p)
	return p, nil
}

// Clear drops the cached profile.
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// ApplyLocalPatch merges stats into the cached profile. No-op without a cache.
func (s *Store) ApplyLocalPatch(patch model.StatsPatch) {
	if patch.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.current.Stats = patch.Apply(s.current.Stats)
}

// Current returns a copy of the cached profile, or nil.
func (s *Store) Current() *model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Store) set(p model.Profile) {
	s.mu.Lock()
	s.current = &p
	s.mu.Unlock()
}
