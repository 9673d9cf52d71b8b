package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rik-de-Kort/OrderbookGame/pkg/ratelimit"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(t *testing.T, max int, window time.Duration) (*ratelimit.Limiter, *store.Store, *fakeClock) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.InitSchema())

	clock := &fakeClock{now: time.Unix(1000, 0)}
	return ratelimit.New(st, clock, max, window), st, clock
}

func TestAllowUpToCap(t *testing.T) {
	l, _, _ := newTestLimiter(t, 5, time.Second)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow("10.0.0.1"), "request %d should be admitted", i+1)
	}
	require.ErrorIs(t, l.Allow("10.0.0.1"), ratelimit.ErrRateLimited)
}

func TestWindowSlides(t *testing.T) {
	l, _, clock := newTestLimiter(t, 5, time.Second)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow("10.0.0.1"))
	}
	require.ErrorIs(t, l.Allow("10.0.0.1"), ratelimit.ErrRateLimited)

	clock.advance(1100 * time.Millisecond)
	require.NoError(t, l.Allow("10.0.0.1"))
}

func TestRejectionsDoNotExtendPenalty(t *testing.T) {
	l, _, clock := newTestLimiter(t, 2, time.Second)

	require.NoError(t, l.Allow("10.0.0.1"))
	require.NoError(t, l.Allow("10.0.0.1"))

	// Hammering while limited must not push the window forward.
	for i := 0; i < 10; i++ {
		require.ErrorIs(t, l.Allow("10.0.0.1"), ratelimit.ErrRateLimited)
		clock.advance(50 * time.Millisecond)
	}

	clock.advance(time.Second)
	require.NoError(t, l.Allow("10.0.0.1"))
}

func TestIPsAreIndependent(t *testing.T) {
	l, _, _ := newTestLimiter(t, 2, time.Second)

	require.NoError(t, l.Allow("10.0.0.1"))
	require.NoError(t, l.Allow("10.0.0.1"))
	require.ErrorIs(t, l.Allow("10.0.0.1"), ratelimit.ErrRateLimited)

	require.NoError(t, l.Allow("10.0.0.2"))
}

func TestOldRowsArePruned(t *testing.T) {
	l, st, clock := newTestLimiter(t, 5, time.Second)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow("10.0.0.1"))
	}
	clock.advance(2 * time.Second)
	require.NoError(t, l.Allow("10.0.0.1"))

	// The admission that just landed is the only row left.
	n, err := st.AdmissionCount("10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
