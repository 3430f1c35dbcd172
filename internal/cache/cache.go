// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists search results in a local SQLite database so
// repeated queries within the TTL skip the network entirely.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-finder/pkg/types"
)

const dbFile = "searches.db"

// DefaultTTL is how long a cached search stays fresh.
const DefaultTTL = 24 * time.Hour

// Store manages the search cache SQLite database.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Entry is one cached search: the records it returned and when they
// were fetched.
type Entry struct {
	Records   []types.Record
	FetchedAt time.Time
}

// Open opens or creates the cache database at cfg.Dir/searches.db,
// creating the schema if needed and pruning entries past the TTL.
func Open(cfg types.CacheConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, ttl: ttl}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	if err := s.prune(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pruning cache: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS searches (
		key TEXT PRIMARY KEY,
		fetched_at TEXT NOT NULL,
		records TEXT NOT NULL
	)`)
	return err
}

func (s *Store) prune() error {
	cutoff := time.Now().Add(-s.ttl).UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(`DELETE FROM searches WHERE fetched_at < ?`, cutoff)
	return err
}

// Key builds the cache key for a query: a normalized tuple of every
// parameter that changes the result set. Abstract fetching is part of
// the tuple because it changes what the records carry; a search run
// without abstracts must not satisfy one run with them.
func Key(text string, yearFrom, yearTo, maxResults int, sortKey string, sources []types.SourceType, withAbstracts bool) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return fmt.Sprintf("q=%s|from=%d|to=%d|max=%d|sort=%s|sources=%s|abstracts=%t",
		strings.ToLower(strings.TrimSpace(text)), yearFrom, yearTo, maxResults,
		sortKey, strings.Join(names, ","), withAbstracts)
}

// Get returns the cached entry for key, or nil on a miss. An entry past
// the TTL is deleted and treated as a miss.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	var fetchedAt, payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, records FROM searches WHERE key = ?`, key,
	).Scan(&fetchedAt, &payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing cache timestamp: %w", err)
	}
	if time.Since(t) > s.ttl {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM searches WHERE key = ?`, key); err != nil {
			return nil, fmt.Errorf("evicting stale entry: %w", err)
		}
		return nil, nil
	}

	// Records are stored as YAML so abstracts survive the round trip;
	// the JSON projection drops them.
	var records []types.Record
	if err := yaml.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("parsing cached records: %w", err)
	}
	return &Entry{Records: records, FetchedAt: t}, nil
}

// Put stores records under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, records []types.Record) error {
	payload, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO searches (key, fetched_at, records) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET fetched_at=excluded.fetched_at, records=excluded.records`,
		key, time.Now().UTC().Format(time.RFC3339Nano), string(payload),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
