// Package sqlite provides a SQLite-backed storage.Store.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jmcleod/clubdesk/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS local_storage (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Store implements storage.Store backed by a SQLite database.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// NewStoreFromFile opens (or creates) a SQLite database at path and ensures
// the local_storage table exists.
func NewStoreFromFile(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection serializes writers; this is a one-user local file.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating local_storage table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(key, value string) error {
	return setIn(s.db, key, value)
}

func (s *Store) Remove(key string) error {
	return removeIn(s.db, key)
}

func setIn(e execer, key, value string) error {
	_, err := e.Exec(`INSERT INTO local_storage (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func removeIn(e execer, key string) error {
	if _, err := e.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

type sqliteBatchTx struct {
	tx *sql.Tx
}

func (b *sqliteBatchTx) Set(key, value string) error {
	return setIn(b.tx, key, value)
}

func (b *sqliteBatchTx) Remove(key string) error {
	return removeIn(b.tx, key)
}

// Batch executes fn within a SQL transaction. On error, all writes are rolled back.
func (s *Store) Batch(fn func(tx storage.BatchTx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&sqliteBatchTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
