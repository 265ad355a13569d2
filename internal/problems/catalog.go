// Package problems caches the problem catalog and backs the practice browser.
package problems

import (
	"context"
	"sync"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/session"
)

// Backend is the catalog slice of the REST API.
type Backend interface {
	FetchProblems(ctx context.Context) ([]model.Problem, error)
}

// Session reports whether a user is signed in.
type Session interface {
	Authenticated() bool
}

// Catalog is a session-lifetime cache of all problems.
type Catalog struct {
	mu     sync.RWMutex
	list   []model.Problem
	byID   map[model.ID]int
	bySlug map[string]int
	loaded bool

	group   singleflight.Group
	backend Backend
	session Session
	log     *zap.Logger
}

// NewCatalog builds an empty catalog.
func NewCatalog(backend Backend, sess Session, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{backend: backend, session: sess, log: log}
}

// FetchAll loads the catalog once. Concurrent callers share one request,
// which is not cancelled when the caller that started it gives up.
func (c *Catalog) FetchAll(ctx context.Context) error {
	if c.Loaded() {
		return nil
	}
	if !c.session.Authenticated() {
		return session.ErrNotAuthenticated
	}
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("all", func() (any, error) {
		if c.Loaded() {
			return nil, nil
		}
		list, err := c.backend.FetchProblems(fetchCtx)
		if err != nil {
			c.log.Warn("catalog fetch failed", zap.Error(err))
			return nil, err
		}
		c.store(list)
		c.log.Info("catalog loaded", zap.Int("problems", len(list)))
		return nil, nil
	})
	select {
	case res := <-ch:
		if res.Shared {
			c.log.Debug("catalog fetch shared")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loaded reports whether the catalog holds data.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Invalidate empties the cache so the next FetchAll refetches.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.list = nil
	c.byID = nil
	c.bySlug = nil
	c.loaded = false
	c.mu.Unlock()
}

// List returns the cached problems in server order.
func (c *Catalog) List() []model.Problem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Problem, len(c.list))
	copy(out, c.list)
	return out
}

// Get finds a problem by id.
func (c *Catalog) Get(id model.ID) (model.Problem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[id]
	if !ok {
		return model.Problem{}, false
	}
	return c.list[idx], true
}

// BySlug finds a problem by the slug of its title.
func (c *Catalog) BySlug(s string) (model.Problem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.bySlug[slug.Make(s)]
	if !ok {
		return model.Problem{}, false
	}
	return c.list[idx], true
}

// Lookup resolves an id first and falls back to a slug.
func (c *Catalog) Lookup(ref string) (model.Problem, bool) {
	if p, ok := c.Get(model.ID(ref)); ok {
		return p, true
	}
	return c.BySlug(ref)
}

// Slug returns the url-safe handle of a problem.
func Slug(p model.Problem) string {
	return slug.Make(p.Title)
}

func (c *Catalog) store(list []model.Problem) {
	byID := make(map[model.ID]int, len(list))
	bySlug := make(map[string]int, len(list))
	for i, p := range list {
		byID[p.ID] = i
		s := Slug(p)
		if _, dup := bySlug[s]; !dup && s != "" {
			bySlug[s] = i
		}
	}
	c.mu.Lock()
	c.list = list
	c.byID = byID
	c.bySlug = bySlug
	c.loaded = true
	c.mu.Unlock()
}
