// Package store is the single synchronization point of the exchange: an ACID
// SQLite database holding the resting book, accounts, the append-only event
// log, auth records, and rate-limit admissions. All mutations run inside a
// serialized transaction taken through Update; reads observe committed state.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

type Store struct {
	db *sqlx.DB

	// mu serializes mutating transactions. Readers go straight to db and
	// observe the last committed snapshot.
	mu sync.Mutex
}

// Open connects to the SQLite database at location (a path or ":memory:").
// The connection pool is capped at a single connection: SQLite allows one
// writer at a time anyway, and a second connection to ":memory:" would open
// a different, empty database.
func Open(location string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", location)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Tx wraps a mutating transaction and exposes the write operations the
// engine, auth, and rate limiter need. It is only ever handed out by Update.
type Tx struct {
	tx *sqlx.Tx
}

// Update runs fn inside a single serialized transaction. A non-nil error from
// fn rolls the transaction back; no partial state becomes visible.
func (s *Store) Update(fn func(*Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
