package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteCache stores responses in a single SQLite file. Preferable to the
// disk backend for runs caching hundreds of thousands of records, where one
// file per response gets slow on most filesystems.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSQLiteCache opens or creates the cache database at path.
func NewSQLiteCache(path string, ttl time.Duration) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// SQLite does not support concurrent writers.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS responses (
			key        TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_responses_expiry ON responses(expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &SQLiteCache{db: db, ttl: ttl}, nil
}

// Get retrieves a value, removing it if expired.
func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	var data []byte
	var expiresAt int64
	err := c.db.QueryRow(
		`SELECT data, expires_at FROM responses WHERE key = ?`, key,
	).Scan(&data, &expiresAt)
	if err != nil {
		return nil, false
	}
	if time.Now().Unix() > expiresAt {
		_, _ = c.db.Exec(`DELETE FROM responses WHERE key = ?`, key)
		return nil, false
	}
	return data, true
}

// Set stores a value with the given TTL (0 means the default TTL).
func (c *SQLiteCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	_, err := c.db.Exec(
		`INSERT INTO responses (key, data, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		key, value, time.Now().Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("write cache row: %w", err)
	}
	return nil
}

// Delete removes a value.
func (c *SQLiteCache) Delete(key string) error {
	_, err := c.db.Exec(`DELETE FROM responses WHERE key = ?`, key)
	return err
}

// Clear removes all rows.
func (c *SQLiteCache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM responses`)
	return err
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
