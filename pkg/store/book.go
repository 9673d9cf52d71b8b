package store

import "fmt"

// InsertOrder appends an order to the book and returns its logical timestamp,
// the AUTOINCREMENT key assigned by the database.
func (t *Tx) InsertOrder(participantID, price, amount int64) (int64, error) {
	res, err := t.tx.Exec(
		"INSERT INTO exchange(participant_id, price, amount) VALUES (?, ?, ?)",
		participantID, price, amount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	ts, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return ts, nil
}

// Marketable returns the resting orders an incoming order with the given
// limit can match, best price first and FIFO within a price level. For a
// buyer that is every ask priced at or below the limit; for a seller every
// bid at or above it. The incoming order itself is excluded by timestamp.
func (t *Tx) Marketable(incoming Order) ([]Order, error) {
	var query string
	if incoming.Amount > 0 {
		query = `SELECT participant_id, price, amount, logical_timestamp
			FROM exchange
			WHERE amount < 0 AND price <= ? AND logical_timestamp != ?
			ORDER BY price ASC, logical_timestamp ASC`
	} else {
		query = `SELECT participant_id, price, amount, logical_timestamp
			FROM exchange
			WHERE amount > 0 AND price >= ? AND logical_timestamp != ?
			ORDER BY price DESC, logical_timestamp ASC`
	}

	var orders []Order
	if err := t.tx.Select(&orders, query, incoming.Price, incoming.Timestamp); err != nil {
		return nil, fmt.Errorf("select marketable: %w", err)
	}
	return orders, nil
}

// UpdateOrderAmount shrinks a partially filled order toward zero. The caller
// guarantees the new amount keeps its sign and never reaches zero.
func (t *Tx) UpdateOrderAmount(timestamp, amount int64) error {
	if _, err := t.tx.Exec(
		"UPDATE exchange SET amount = ? WHERE logical_timestamp = ?", amount, timestamp,
	); err != nil {
		return fmt.Errorf("update order %d: %w", timestamp, err)
	}
	return nil
}

// DeleteOrders removes fully consumed or expired orders from the book.
func (t *Tx) DeleteOrders(timestamps []int64) error {
	for _, ts := range timestamps {
		if _, err := t.tx.Exec("DELETE FROM exchange WHERE logical_timestamp = ?", ts); err != nil {
			return fmt.Errorf("delete order %d: %w", ts, err)
		}
	}
	return nil
}

// DeleteOwnedOrder removes an order iff both the timestamp and the owner
// match, reporting whether anything was deleted.
func (t *Tx) DeleteOwnedOrder(participantID, timestamp int64) (bool, error) {
	res, err := t.tx.Exec(
		"DELETE FROM exchange WHERE logical_timestamp = ? AND participant_id = ?",
		timestamp, participantID,
	)
	if err != nil {
		return false, fmt.Errorf("delete owned order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete owned order: %w", err)
	}
	return n > 0, nil
}

// DeleteAllOwnedOrders removes every resting order of a participant and
// returns the removed logical timestamps, atomically via DELETE..RETURNING.
func (t *Tx) DeleteAllOwnedOrders(participantID int64) ([]int64, error) {
	var timestamps []int64
	err := t.tx.Select(&timestamps,
		"DELETE FROM exchange WHERE participant_id = ? RETURNING logical_timestamp",
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("delete all owned orders: %w", err)
	}
	return timestamps, nil
}

// Book returns every resting order, oldest first.
func (s *Store) Book() ([]Order, error) {
	var orders []Order
	err := s.db.Select(&orders,
		"SELECT participant_id, price, amount, logical_timestamp FROM exchange ORDER BY logical_timestamp ASC")
	if err != nil {
		return nil, fmt.Errorf("select book: %w", err)
	}
	return orders, nil
}

// ActiveOrders returns a participant's resting orders, oldest first.
func (s *Store) ActiveOrders(participantID int64) ([]Order, error) {
	var orders []Order
	err := s.db.Select(&orders,
		`SELECT participant_id, price, amount, logical_timestamp
		FROM exchange WHERE participant_id = ? ORDER BY logical_timestamp ASC`,
		participantID)
	if err != nil {
		return nil, fmt.Errorf("select active orders: %w", err)
	}
	return orders, nil
}
