package store

import "fmt"

// Rate-limit admissions share the engine's store but never touch its rows.
// Timestamps are seconds relative to the limiter's epoch (process start).

// CountAdmissionsSince counts admissions for an IP at or after the cutoff.
func (t *Tx) CountAdmissionsSince(ip string, cutoff float64) (int, error) {
	var n int
	err := t.tx.Get(&n,
		"SELECT COUNT(*) FROM ratelimit WHERE ip = ? AND relative_timestamp >= ?",
		ip, cutoff)
	if err != nil {
		return 0, fmt.Errorf("count admissions: %w", err)
	}
	return n, nil
}

// RecordAdmission logs an admitted request.
func (t *Tx) RecordAdmission(ip string, at float64) error {
	if _, err := t.tx.Exec(
		"INSERT INTO ratelimit(ip, relative_timestamp) VALUES (?, ?)", ip, at,
	); err != nil {
		return fmt.Errorf("record admission: %w", err)
	}
	return nil
}

// PruneAdmissionsBefore drops rows for an IP that have left the window,
// bounding table growth.
func (t *Tx) PruneAdmissionsBefore(ip string, cutoff float64) error {
	if _, err := t.tx.Exec(
		"DELETE FROM ratelimit WHERE ip = ? AND relative_timestamp < ?", ip, cutoff,
	); err != nil {
		return fmt.Errorf("prune admissions: %w", err)
	}
	return nil
}

// AdmissionCount reports the number of stored admissions for an IP. Test hook.
func (s *Store) AdmissionCount(ip string) (int, error) {
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM ratelimit WHERE ip = ?", ip); err != nil {
		return 0, fmt.Errorf("count admissions: %w", err)
	}
	return n, nil
}
