package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const routesKey = "feature_routes"

// SQLiteStore persists the route table as a JSON blob in a small key-value
// table inside a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the preference database in dataDir. Pass ":memory:"
// as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*SQLiteStore, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "atelier.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating preferences table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the stored route table. A missing row or unreadable JSON
// falls back to Defaults; corrupt data must never take the application down.
func (s *SQLiteStore) Load() Record {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, routesKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Defaults()
	}
	if err != nil {
		slog.Warn("reading stored routes, using defaults", "error", err)
		return Defaults()
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		slog.Warn("stored routes are corrupt, using defaults", "error", err)
		return Defaults()
	}
	return rec
}

// Save serializes the route table and upserts it under a single key.
func (s *SQLiteStore) Save(rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling routes: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		routesKey, string(raw))
	if err != nil {
		return fmt.Errorf("saving routes: %w", err)
	}
	return nil
}

// Clear removes the stored route table so Load returns Defaults again.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, routesKey); err != nil {
		return fmt.Errorf("clearing routes: %w", err)
	}
	return nil
}

// putRaw writes an arbitrary value under the routes key. Tests use it to
// simulate corrupt stored data.
func (s *SQLiteStore) putRaw(value string) error {
	_, err := s.db.Exec(`INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, routesKey, value)
	return err
}
