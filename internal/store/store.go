// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store caches resolved citation metadata in a local SQLite
// database so repeat runs skip provider lookups. Entries are keyed by
// package name and version: a version change invalidates the cached
// metadata naturally.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cite-engine/pkg/types"
)

const dbFile = "citations.db"

// Store manages the citation cache database.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the cache database under dir, creating the schema
// if needed.
func Open(cfg types.CacheConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = ".cite-engine"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS citations (
		package TEXT NOT NULL,
		version TEXT NOT NULL,
		entries TEXT NOT NULL,
		resolved_at TEXT NOT NULL,
		PRIMARY KEY (package, version)
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Get returns the cached entries for a package version, if present.
func (s *Store) Get(ctx context.Context, pkg, version string) ([]types.RawCitationEntry, bool) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT entries FROM citations WHERE package = ? AND version = ?`,
		pkg, version,
	).Scan(&payload)
	if err != nil {
		return nil, false
	}

	var entries []types.RawCitationEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// Put stores the entries for a package version, replacing any prior row.
func (s *Store) Put(ctx context.Context, pkg, version string, entries []types.RawCitationEntry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling cache entries for %s: %w", pkg, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO citations (package, version, entries, resolved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(package, version) DO UPDATE SET
			entries=excluded.entries, resolved_at=excluded.resolved_at`,
		pkg, version, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("caching entries for %s: %w", pkg, err)
	}
	return nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Packages int
	Path     string
}

// Status reports the number of cached package versions and the database
// location.
func (s *Store) Status(ctx context.Context) (Stats, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM citations`).Scan(&count); err != nil {
		return Stats{}, fmt.Errorf("querying cache status: %w", err)
	}
	return Stats{Packages: count, Path: filepath.Join(s.dir, dbFile)}, nil
}

// Clear removes all cached entries.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM citations`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
