package store

import (
	"fmt"
	"time"
)

// ApplyAccountDelta moves a participant's cash and inventory by the given
// amounts. Deltas are aggregated per participant by the engine so each
// affected account sees exactly one update per submit.
func (t *Tx) ApplyAccountDelta(participantID, balanceDelta, stockDelta int64) error {
	if _, err := t.tx.Exec(
		"UPDATE accounts SET balance = balance + ?, stock = stock + ? WHERE participant_id = ?",
		balanceDelta, stockDelta, participantID,
	); err != nil {
		return fmt.Errorf("apply account delta for %d: %w", participantID, err)
	}
	return nil
}

// Account returns a participant's balance and stock.
func (s *Store) Account(participantID int64) (Account, error) {
	var acc Account
	err := s.db.Get(&acc,
		"SELECT participant_id, balance, stock FROM accounts WHERE participant_id = ?",
		participantID)
	if isNoRows(err) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("select account %d: %w", participantID, err)
	}
	return acc, nil
}

// Accounts returns every account. Used by tests checking conservation.
func (s *Store) Accounts() ([]Account, error) {
	var accs []Account
	if err := s.db.Select(&accs, "SELECT participant_id, balance, stock FROM accounts"); err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	return accs, nil
}

// CreateParticipant inserts an auth record and its 1:1 account with the
// starting balance. The participant id is assigned by the auth table's
// INTEGER PRIMARY KEY. Returns ErrAlreadyExists if the name is taken.
func (s *Store) CreateParticipant(name, hashedPassword string, startingBalance int64) (AuthRecord, error) {
	var rec AuthRecord
	err := s.Update(func(tx *Tx) error {
		var n int
		if err := tx.tx.Get(&n, "SELECT COUNT(*) FROM auth WHERE name = ?", name); err != nil {
			return fmt.Errorf("check name: %w", err)
		}
		if n > 0 {
			return ErrAlreadyExists
		}

		res, err := tx.tx.Exec(
			"INSERT INTO auth(name, hashed_password) VALUES (?, ?)", name, hashedPassword)
		if err != nil {
			return fmt.Errorf("insert auth: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert auth: %w", err)
		}

		if _, err := tx.tx.Exec(
			"INSERT INTO accounts(participant_id, balance, stock) VALUES (?, ?, 0)",
			id, startingBalance,
		); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}

		rec = AuthRecord{ParticipantID: id, Name: name, HashedPassword: hashedPassword}
		return nil
	})
	if err != nil {
		return AuthRecord{}, err
	}
	return rec, nil
}

// AuthByName looks up the auth record for a display name.
func (s *Store) AuthByName(name string) (AuthRecord, error) {
	var rec AuthRecord
	err := s.db.Get(&rec,
		"SELECT participant_id, name, hashed_password FROM auth WHERE name = ?", name)
	if isNoRows(err) {
		return AuthRecord{}, ErrNotFound
	}
	if err != nil {
		return AuthRecord{}, fmt.Errorf("select auth %q: %w", name, err)
	}
	return rec, nil
}

// Deposit credits externally posted cash to an account and records a deposit
// event. This is the only way account totals change outside of matching.
func (s *Store) Deposit(participantID, amount int64) error {
	return s.Update(func(tx *Tx) error {
		if err := tx.ApplyAccountDelta(participantID, amount, 0); err != nil {
			return err
		}
		return tx.AppendEvent(DepositEvent{
			Type:          EventDeposit,
			ParticipantID: participantID,
			Amount:        amount,
		})
	})
}

// RecordEarnings appends a company earnings figure. Consumed by external
// trader bots; the engine itself never reads it.
func (s *Store) RecordEarnings(amount int64) error {
	return s.Update(func(tx *Tx) error {
		if _, err := tx.tx.Exec(
			"INSERT INTO earnings(amount, timestamp) VALUES (?, ?)",
			amount, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert earnings: %w", err)
		}
		return nil
	})
}
