// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists resolved founder lists in a local SQLite database
// so repeat runs skip companies that already have answers.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// Store manages the results cache database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path, creating missing parent
// directories and the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS founder_results (
		company TEXT PRIMARY KEY,
		founders TEXT NOT NULL,
		model TEXT,
		run_id TEXT,
		resolved_at TEXT
	)`)
	if err != nil {
		return fmt.Errorf("creating results table: %w", err)
	}
	return nil
}

// Get returns the cached result for company, or nil when no row exists.
func (s *Store) Get(company string) (*types.CachedResult, error) {
	var (
		res        types.CachedResult
		founders   string
		resolvedAt string
	)
	err := s.db.QueryRow(
		`SELECT company, founders, model, run_id, resolved_at
		 FROM founder_results WHERE company = ?`, company,
	).Scan(&res.Company, &founders, &res.Model, &res.RunID, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache row: %w", err)
	}
	if err := json.Unmarshal([]byte(founders), &res.Founders); err != nil {
		return nil, fmt.Errorf("decoding cached founders for %s: %w", company, err)
	}
	if ts, err := time.Parse(time.RFC3339, resolvedAt); err == nil {
		res.ResolvedAt = ts
	}
	return &res, nil
}

// Put inserts or replaces the row for res.Company. A zero ResolvedAt is
// filled with the current time.
func (s *Store) Put(res types.CachedResult) error {
	foundersJSON, err := json.Marshal(res.Founders.Normalize())
	if err != nil {
		return fmt.Errorf("encoding founders: %w", err)
	}
	resolvedAt := res.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = time.Now().UTC()
	}

	_, err = s.db.Exec(
		`INSERT INTO founder_results (company, founders, model, run_id, resolved_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(company) DO UPDATE SET
			founders=excluded.founders, model=excluded.model,
			run_id=excluded.run_id, resolved_at=excluded.resolved_at`,
		res.Company, string(foundersJSON), res.Model, res.RunID,
		resolvedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache row for %s: %w", res.Company, err)
	}
	return nil
}

// List returns every cached result ordered by company name.
func (s *Store) List() ([]types.CachedResult, error) {
	rows, err := s.db.Query(
		`SELECT company, founders, model, run_id, resolved_at
		 FROM founder_results ORDER BY company`)
	if err != nil {
		return nil, fmt.Errorf("listing cache rows: %w", err)
	}
	defer rows.Close()

	var results []types.CachedResult
	for rows.Next() {
		var (
			res        types.CachedResult
			founders   string
			resolvedAt string
		)
		if err := rows.Scan(&res.Company, &founders, &res.Model, &res.RunID, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		if err := json.Unmarshal([]byte(founders), &res.Founders); err != nil {
			return nil, fmt.Errorf("decoding cached founders for %s: %w", res.Company, err)
		}
		if ts, err := time.Parse(time.RFC3339, resolvedAt); err == nil {
			res.ResolvedAt = ts
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cache rows: %w", err)
	}
	return results, nil
}

// Delete removes the row for company, reporting whether one existed.
func (s *Store) Delete(company string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM founder_results WHERE company = ?`, company)
	if err != nil {
		return false, fmt.Errorf("deleting cache row for %s: %w", company, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting cache row for %s: %w", company, err)
	}
	return n > 0, nil
}

// Clear removes every row, returning how many were dropped.
func (s *Store) Clear() (int, error) {
	res, err := s.db.Exec(`DELETE FROM founder_results`)
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return int(n), nil
}

// Count returns the number of cached companies.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM founder_results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache rows: %w", err)
	}
	return n, nil
}
