package util

import "time"

// Clock abstracts wall time so the rate limiter can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
