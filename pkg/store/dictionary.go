// Package store provides the persistent key/value dictionary shared by the
// HTML converters and the help project writers.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by operations on a closed dictionary
var ErrClosed = errors.New("dictionary is closed")

// PersistentDictionary maps output file names to extracted topic titles.
// Entries survive across runs when the dictionary is opened on a file.
type PersistentDictionary struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates a dictionary at path. Use ":memory:" for a transient one.
func Open(path string) (*PersistentDictionary, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A :memory: database lives per connection.
	db.SetMaxOpenConns(1)

	d := &PersistentDictionary{db: db}
	if err := d.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return d, nil
}

func (d *PersistentDictionary) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// Set stores value under key, replacing any previous value
func (d *PersistentDictionary) Set(key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return ErrClosed
	}

	_, err := d.db.ExecContext(context.Background(),
		"INSERT INTO entries (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key
func (d *PersistentDictionary) Get(key string) (string, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return "", false, ErrClosed
	}

	var value string
	err := d.db.QueryRowContext(context.Background(), "SELECT value FROM entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Contains reports whether key is present
func (d *PersistentDictionary) Contains(key string) (bool, error) {
	_, ok, err := d.Get(key)
	return ok, err
}

// Delete removes key, reporting whether it existed
func (d *PersistentDictionary) Delete(key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return false, ErrClosed
	}

	res, err := d.db.ExecContext(context.Background(), "DELETE FROM entries WHERE key = ?", key)
	if err != nil {
		return false, fmt.Errorf("delete %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %q: %w", key, err)
	}
	return n > 0, nil
}

// Len returns the number of entries
func (d *PersistentDictionary) Len() (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return 0, ErrClosed
	}

	var n int
	if err := d.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Keys returns all keys in ascending order
func (d *PersistentDictionary) Keys() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return nil, ErrClosed
	}

	rows, err := d.db.QueryContext(context.Background(), "SELECT key FROM entries ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close releases the database. Closing twice is a no-op.
func (d *PersistentDictionary) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
