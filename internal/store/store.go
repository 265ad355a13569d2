// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/codeduel/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Credential keys.
const (
	KeyToken    = "token"
	KeyUserID   = "user_id"
	KeyUsername = "username"
)

// Store wraps SQLite access for client state.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS credentials (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS solved_problems (
			problem_id TEXT NOT NULL,
			language TEXT NOT NULL,
			code TEXT NOT NULL,
			solved_at TEXT NOT NULL,
			PRIMARY KEY (problem_id, language)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_solved_problems_solved_at ON solved_problems(solved_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadCredential returns the stored credential. Missing keys yield empty fields.
func (s *Store) LoadCredential(ctx context.Context) (model.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM credentials`)
	if err != nil {
		return model.Credential{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var cred model.Credential
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.Credential{}, err
		}
		switch key {
		case KeyToken:
			cred.Token = value
		case KeyUserID:
			cred.UserID = value
		case KeyUsername:
			cred.Username = value
		}
	}
	if err := rows.Err(); err != nil {
		return model.Credential{}, err
	}
	return cred, nil
}

// SaveCredential replaces the stored credential. Empty fields are removed.
func (s *Store) SaveCredential(ctx context.Context, cred model.Credential) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return err
	}
	for key, value := range map[string]string{
		KeyToken:    cred.Token,
		KeyUserID:   cred.UserID,
		KeyUsername: cred.Username,
	} {
		if value == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO credentials (key, value) VALUES (?, ?)`, key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteCredentialKey removes a single credential key.
func (s *Store) DeleteCredentialKey(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key)
	return err
}

// ClearCredential removes all credential keys.
func (s *Store) ClearCredential(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials`)
	return err
}

// UpsertSolved stores or replaces the solution for a problem/language pair.
func (s *Store) UpsertSolved(ctx context.Context, sp model.SolvedProblem) error {
	solvedAt := sp.SolvedAt
	if solvedAt.IsZero() {
		solvedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO solved_problems (problem_id, language, code, solved_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(problem_id, language) DO UPDATE SET code = excluded.code, solved_at = excluded.solved_at`,
		string(sp.ProblemID), sp.Language, sp.Code, solvedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// ReplaceSolved swaps the whole solved set for the given list.
func (s *Store) ReplaceSolved(ctx context.Context, list []model.SolvedProblem) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM solved_problems`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO solved_problems (problem_id, language, code, solved_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	now := time.Now().UTC()
	for _, sp := range list {
		solvedAt := sp.SolvedAt
		if solvedAt.IsZero() {
			solvedAt = now
		}
		if _, err = stmt.ExecContext(ctx, string(sp.ProblemID), sp.Language, sp.Code, solvedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSolved returns the stored solution for a problem/language pair.
func (s *Store) GetSolved(ctx context.Context, problemID model.ID, language string) (model.SolvedProblem, bool, error) {
	var sp model.SolvedProblem
	var id, solvedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT problem_id, language, code, solved_at FROM solved_problems WHERE problem_id = ? AND language = ?`,
		string(problemID), language).Scan(&id, &sp.Language, &sp.Code, &solvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SolvedProblem{}, false, nil
	}
	if err != nil {
		return model.SolvedProblem{}, false, err
	}
	sp.ProblemID = model.ID(id)
	parsed, err := time.Parse(time.RFC3339Nano, solvedAt)
	if err != nil {
		return model.SolvedProblem{}, false, err
	}
	sp.SolvedAt = parsed
	return sp, true, nil
}

// ListSolved returns every stored solution, oldest first.
func (s *Store) ListSolved(ctx context.Context) ([]model.SolvedProblem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT problem_id, language, code, solved_at FROM solved_problems ORDER BY solved_at ASC, problem_id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.SolvedProblem
	for rows.Next() {
		var sp model.SolvedProblem
		var id, solvedAt string
		if err := rows.Scan(&id, &sp.Language, &sp.Code, &solvedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, solvedAt)
		if err != nil {
			return nil, err
		}
		sp.ProblemID = model.ID(id)
		sp.SolvedAt = parsed
		result = append(result, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ClearSolved removes every stored solution.
func (s *Store) ClearSolved(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM solved_problems`)
	return err
}
