// Package solved mirrors the user's accepted solutions locally.
package solved

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/verte-zerg/codeduel/internal/model"
)

// Backend is the solved-problems slice of the REST API.
type Backend interface {
	FetchSolved(ctx context.Context) ([]model.SolvedProblem, error)
}

// Storage is the local persistence for solutions.
type Storage interface {
	UpsertSolved(ctx context.Context, sp model.SolvedProblem) error
	ReplaceSolved(ctx context.Context, list []model.SolvedProblem) error
	ListSolved(ctx context.Context) ([]model.SolvedProblem, error)
	ClearSolved(ctx context.Context) error
}

type key struct {
	id   model.ID
	lang string
}

// Records is an in-memory index over the stored solutions.
type Records struct {
	mu      sync.RWMutex
	byKey   map[key]model.SolvedProblem
	ids     map[model.ID]bool
	backend Backend
	storage Storage
	log     *zap.Logger
}

// New builds empty Records.
func New(backend Backend, storage Storage, log *zap.Logger) *Records {
	if log == nil {
		log = zap.NewNop()
	}
	return &Records{
		byKey:   make(map[key]model.SolvedProblem),
		ids:     make(map[model.ID]bool),
		backend: backend,
		storage: storage,
		log:     log,
	}
}

// NormalizeLanguage folds language labels so "cpp" and "C++" compare equal.
func NormalizeLanguage(lang string) string {
	lower := strings.ToLower(strings.TrimSpace(lang))
	if lower == "cpp" {
		return "c++"
	}
	return lower
}

// Load fills the index from local storage.
func (r *Records) Load(ctx context.Context) error {
	list, err := r.storage.ListSolved(ctx)
	if err != nil {
		return fmt.Errorf("load solved: %w", err)
	}
	r.reset(list)
	return nil
}

// Sync pulls the server list and mirrors it locally.
func (r *Records) Sync(ctx context.Context) error {
	list, err := r.backend.FetchSolved(ctx)
	if err != nil {
		return err
	}
	if err := r.storage.ReplaceSolved(ctx, list); err != nil {
		return fmt.Errorf("store solved: %w", err)
	}
	r.reset(list)
	r.log.Info("solved synced", zap.Int("count", len(list)))
	return nil
}

// Record stores an accepted solution. The in-memory index is updated even
// when the local write fails, so the problem counts as solved for the session.
func (r *Records) Record(ctx context.Context, sp model.SolvedProblem) error {
	r.mu.Lock()
	r.byKey[key{sp.ProblemID, NormalizeLanguage(sp.Language)}] = sp
	r.ids[sp.ProblemID] = true
	r.mu.Unlock()
	if err := r.storage.UpsertSolved(ctx, sp); err != nil {
		return fmt.Errorf("record solved: %w", err)
	}
	return nil
}

// Lookup returns the stored code for a problem in a language.
func (r *Records) Lookup(id model.ID, language string) (model.SolvedProblem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sp, ok := r.byKey[key{id, NormalizeLanguage(language)}]
	return sp, ok
}

// IsSolved reports whether the problem is solved in any language.
func (r *Records) IsSolved(id model.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ids[id]
}

// IDs returns a copy of the solved id set.
func (r *Records) IDs() map[model.ID]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[model.ID]bool, len(r.ids))
	for id := range r.ids {
		out[id] = true
	}
	return out
}

// Clear wipes the local mirror.
func (r *Records) Clear(ctx context.Context) error {
	if err := r.storage.ClearSolved(ctx); err != nil {
		return err
	}
	r.reset(nil)
	return nil
}

func (r *Records) reset(list []model.SolvedProblem) {
	byKey := make(map[key]model.SolvedProblem, len(list))
	ids := make(map[model.ID]bool, len(list))
	for _, sp := range list {
		byKey[key{sp.ProblemID, NormalizeLanguage(sp.Language)}] = sp
		ids[sp.ProblemID] = true
	}
	r.mu.Lock()
	r.byKey = byKey
	r.ids = ids
	r.mu.Unlock()
}
