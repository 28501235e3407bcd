// Package relcache caches remote version listings in a local sqlite
// database so repeated list/resolve operations skip the network while the
// entry is fresh.
package relcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"toolvm/internal/plugin"
)

const schema = `
CREATE TABLE IF NOT EXISTS remote_versions (
	tool       TEXT    NOT NULL,
	lts_only   INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL,
	payload    TEXT    NOT NULL,
	PRIMARY KEY (tool, lts_only)
);`

// Store is a TTL cache for remote version listings keyed by tool id and
// whether the listing was LTS-filtered.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database inside cacheDir.
func Open(cacheDir string) (*Store, error) {
	path := filepath.Join(cacheDir, "releases.db")
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open release cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init release cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached listing for tool if one exists and is younger than
// ttl. ok is false on a miss or a stale entry.
func (s *Store) Get(tool string, ltsOnly bool, ttl time.Duration) (versions []plugin.ToolVersion, ok bool, err error) {
	var fetchedAt int64
	var payload string
	row := s.db.QueryRow(
		`SELECT fetched_at, payload FROM remote_versions WHERE tool = ? AND lts_only = ?`,
		tool, boolInt(ltsOnly),
	)
	if err := row.Scan(&fetchedAt, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read release cache: %w", err)
	}
	if time.Since(time.Unix(fetchedAt, 0)) > ttl {
		return nil, false, nil
	}
	if err := json.Unmarshal([]byte(payload), &versions); err != nil {
		// A corrupt row behaves like a miss; the next Put overwrites it.
		return nil, false, nil
	}
	return versions, true, nil
}

// Put stores a fresh listing for tool, replacing any previous entry.
func (s *Store) Put(tool string, ltsOnly bool, versions []plugin.ToolVersion) error {
	payload, err := json.Marshal(versions)
	if err != nil {
		return fmt.Errorf("encode release cache entry: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO remote_versions (tool, lts_only, fetched_at, payload)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (tool, lts_only) DO UPDATE SET
		   fetched_at = excluded.fetched_at,
		   payload    = excluded.payload`,
		tool, boolInt(ltsOnly), time.Now().Unix(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("write release cache: %w", err)
	}
	return nil
}

// Purge drops every cached listing, or only one tool's listings when tool
// is non-empty.
func (s *Store) Purge(tool string) error {
	var err error
	if tool == "" {
		_, err = s.db.Exec(`DELETE FROM remote_versions`)
	} else {
		_, err = s.db.Exec(`DELETE FROM remote_versions WHERE tool = ?`, tool)
	}
	if err != nil {
		return fmt.Errorf("purge release cache: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
