// Package cache mirrors day snapshots into a local SQLite database keyed by
// (user, day). The cache is advisory: reads that fail for any reason behave as
// misses, and write failures are reported to the caller to log, never to block
// a remote-backed operation.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"example.com/timetracker/internal/domain"
	"example.com/timetracker/internal/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS day_cache (
	cache_key  TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	day        TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store persists day snapshots in a single SQLite file.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Option configures optional Store behaviour.
type Option func(*Store)

// WithLogger overrides the logger used for cache diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.log = logger
	}
}

// Open initialises the SQLite database at path, creating the directory and
// schema as needed.
func Open(path string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialise cache schema: %w", err)
	}

	s := &Store{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key derives the unique storage key for a scope. The fixed namespace tag
// keeps keys from colliding with anything else sharing the database.
func Key(scope domain.Scope) string {
	return "timetracker:v1:" + scope.UserID + ":" + scope.Day
}

// Get returns the cached snapshot for scope, or ok=false when the scope has no
// usable entry. Malformed payloads count as misses.
func (s *Store) Get(ctx context.Context, scope domain.Scope) ([]domain.Activity, bool) {
	var payload string
	row := s.db.QueryRowContext(ctx, "SELECT payload FROM day_cache WHERE cache_key = ?", Key(scope))
	if err := row.Scan(&payload); err != nil {
		if err != sql.ErrNoRows {
			s.log.Warn("cache read failed", zap.String("scope", scope.String()), zap.Error(err))
		}
		observability.RecordCacheMiss()
		return nil, false
	}

	var activities []domain.Activity
	if err := json.Unmarshal([]byte(payload), &activities); err != nil {
		s.log.Warn("cache payload unparsable, treating as miss",
			zap.String("scope", scope.String()), zap.Error(err))
		observability.RecordCacheCorruption()
		return nil, false
	}

	observability.RecordCacheHit()
	return activities, true
}

// Put stores the snapshot for scope, replacing any previous entry.
func (s *Store) Put(ctx context.Context, scope domain.Scope, activities []domain.Activity) error {
	if activities == nil {
		activities = []domain.Activity{}
	}
	payload, err := json.Marshal(activities)
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO day_cache (cache_key, user_id, day, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		Key(scope), scope.UserID, scope.Day, string(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
