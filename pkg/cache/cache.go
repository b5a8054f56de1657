// Package cache stores generated artifacts in a local SQLite database so
// repeated conversions of the same assembly skip regeneration. Entries are
// keyed by a method name and a key; both together are unique.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Cache is a get-or-add blob store.
type Cache struct {
	db     *sql.DB
	flight singleflight.Group // one produce per method and key at a time
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: create dir: %w", err)
		}
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache: pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cache (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			method TEXT NOT NULL,
			key    TEXT NOT NULL,
			blob   BLOB,
			UNIQUE (method, key)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key joins key parts the way entries are stored.
func Key(parts ...string) string {
	return strings.Join(parts, "_")
}

// Get returns the blob stored under method and key.
func (c *Cache) Get(ctx context.Context, method, key string) ([]byte, bool, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT blob FROM cache WHERE method = ? AND key = ?`, method, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s/%s: %w", method, key, err)
	}
	return blob, true, nil
}

// GetOrAdd returns the blob stored under method and key, producing and
// storing it with produce on a miss. A failing produce stores nothing.
// Concurrent misses on the same entry share one produce; misses on
// different entries produce in parallel.
func (c *Cache) GetOrAdd(ctx context.Context, method, key string, produce func() ([]byte, error)) ([]byte, error) {
	blob, ok, err := c.Get(ctx, method, key)
	if err != nil || ok {
		return blob, err
	}

	v, err, _ := c.flight.Do(method+"\x00"+key, func() (any, error) {
		// A previous flight may have stored it after our first look.
		if blob, ok, err := c.Get(ctx, method, key); err != nil || ok {
			return blob, err
		}
		blob, err := produce()
		if err != nil {
			return nil, err
		}
		if _, err := c.db.ExecContext(ctx,
			`INSERT INTO cache (method, key, blob) VALUES (?, ?, ?)
			 ON CONFLICT (method, key) DO UPDATE SET blob = excluded.blob`,
			method, key, blob); err != nil {
			return nil, fmt.Errorf("cache: add %s/%s: %w", method, key, err)
		}
		return blob, nil
	})
	if err != nil {
		return nil, err
	}
	blob, _ = v.([]byte)
	return blob, nil
}

// Len returns the number of entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return n, nil
}
