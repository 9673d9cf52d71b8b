package store

import "fmt"

// The exchange table's AUTOINCREMENT primary key is the logical clock: ticks
// are assigned on insertion, never reused, and totally order all submits.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS exchange (
		participant_id INTEGER NOT NULL,
		price INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		logical_timestamp INTEGER PRIMARY KEY AUTOINCREMENT
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		participant_id INTEGER PRIMARY KEY,
		balance INTEGER DEFAULT 0 NOT NULL,
		stock INTEGER DEFAULT 0 NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS log (
		event TEXT NOT NULL,
		timestamp TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS earnings (
		amount INTEGER NOT NULL,
		timestamp TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auth (
		participant_id INTEGER PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		hashed_password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ratelimit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ip TEXT NOT NULL,
		relative_timestamp REAL NOT NULL
	)`,
}

var tables = []string{"exchange", "accounts", "log", "earnings", "auth", "ratelimit"}

// InitSchema creates all tables if they do not exist yet.
func (s *Store) InitSchema() error {
	return s.Update(func(tx *Tx) error {
		for _, stmt := range schema {
			if _, err := tx.tx.Exec(stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
		return nil
	})
}

// Reset drops every table and recreates the empty schema.
func (s *Store) Reset() error {
	err := s.Update(func(tx *Tx) error {
		for _, table := range tables {
			if _, err := tx.tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
		// Clear the AUTOINCREMENT high-water mark so a reset database
		// starts its logical clock from 1 again. sqlite_sequence only
		// exists once an AUTOINCREMENT table has been created.
		_, _ = tx.tx.Exec("DELETE FROM sqlite_sequence")
		return nil
	})
	if err != nil {
		return err
	}
	return s.InitSchema()
}

// SeedParticipant inserts a participant with a precomputed password hash and
// starting balance. Used by the bootstrap CLI and tests; regular signups go
// through auth.Service.
func (s *Store) SeedParticipant(name, hashedPassword string, balance int64) (AuthRecord, error) {
	return s.CreateParticipant(name, hashedPassword, balance)
}
