package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// AppendEvent marshals an event to JSON and appends it to the log with the
// current wall time. Log rows are immutable once written.
func (t *Tx) AppendEvent(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := t.tx.Exec(
		"INSERT INTO log(event, timestamp) VALUES (?, ?)",
		string(data), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Trades returns every trade event in log order. Non-trade events (deposits)
// are filtered out in the query, preserving the external contract that the
// log is queried on the embedded JSON type.
func (s *Store) Trades() ([]TradeEvent, error) {
	rows, err := s.db.Query(
		`SELECT event, timestamp FROM log WHERE json_extract(event, '$.type') = ? ORDER BY rowid ASC`,
		EventTrade)
	if err != nil {
		return nil, fmt.Errorf("select trades: %w", err)
	}
	defer rows.Close()

	var trades []TradeEvent
	for rows.Next() {
		var raw, wallTime string
		if err := rows.Scan(&raw, &wallTime); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		var trade TradeEvent
		if err := json.Unmarshal([]byte(raw), &trade); err != nil {
			return nil, fmt.Errorf("unmarshal trade: %w", err)
		}
		trade.WallTime = wallTime
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}
