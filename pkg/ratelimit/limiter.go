// Package ratelimit admits requests per source IP using a sliding window
// over an admission log in the shared store: at most Max requests per Window.
// Admission runs before any other work, so rejected requests never reach
// token verification or the engine.
package ratelimit

import (
	"errors"
	"time"

	"github.com/Rik-de-Kort/OrderbookGame/pkg/store"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/util"
)

var ErrRateLimited = errors.New("ratelimit: too many requests")

type Limiter struct {
	store  *store.Store
	clock  util.Clock
	epoch  time.Time
	max    int
	window time.Duration
}

// New builds a limiter admitting at most max requests per window for each IP.
// Timestamps are recorded relative to the limiter's construction time.
func New(s *store.Store, clock util.Clock, max int, window time.Duration) *Limiter {
	return &Limiter{
		store:  s,
		clock:  clock,
		epoch:  clock.Now(),
		max:    max,
		window: window,
	}
}

// Allow admits or rejects one request from ip. An admitted request is logged;
// a rejected one is not, so a client that backs off for a full window is
// admitted again. Rows older than the window are pruned on the way through.
func (l *Limiter) Allow(ip string) error {
	now := l.clock.Now().Sub(l.epoch).Seconds()
	cutoff := now - l.window.Seconds()

	return l.store.Update(func(tx *store.Tx) error {
		n, err := tx.CountAdmissionsSince(ip, cutoff)
		if err != nil {
			return err
		}
		if n >= l.max {
			return ErrRateLimited
		}
		if err := tx.RecordAdmission(ip, now); err != nil {
			return err
		}
		return tx.PruneAdmissionsBefore(ip, cutoff)
	})
}

// Window reports the configured window, used for Retry-After hints.
func (l *Limiter) Window() time.Duration { return l.window }
