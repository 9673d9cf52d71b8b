package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rik-de-Kort/OrderbookGame/pkg/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.InitSchema())
	return st
}

func TestInitSchemaIdempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.InitSchema())
}

func TestInsertOrderAssignsMonotonicTimestamps(t *testing.T) {
	st := newTestStore(t)

	var ts1, ts2 int64
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		var err error
		if ts1, err = tx.InsertOrder(1, 31, 5); err != nil {
			return err
		}
		ts2, err = tx.InsertOrder(2, 31, -5)
		return err
	}))
	require.Greater(t, ts2, ts1)

	orders, err := st.Book()
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, store.Order{ParticipantID: 1, Price: 31, Amount: 5, Timestamp: ts1}, orders[0])
}

func TestMarketableOrdering(t *testing.T) {
	st := newTestStore(t)

	// Three asks: 32 first, then two at 31 in arrival order.
	var ts []int64
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		for _, o := range []struct{ price, amount int64 }{{32, -5}, {31, -5}, {31, -3}} {
			id, err := tx.InsertOrder(1, o.price, o.amount)
			if err != nil {
				return err
			}
			ts = append(ts, id)
		}
		return nil
	}))

	var got []store.Order
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		incoming := store.Order{ParticipantID: 2, Price: 32, Amount: 10, Timestamp: ts[2] + 1}
		var err error
		got, err = tx.Marketable(incoming)
		return err
	}))

	// Best price first, FIFO within price.
	require.Len(t, got, 3)
	require.Equal(t, ts[1], got[0].Timestamp)
	require.Equal(t, ts[2], got[1].Timestamp)
	require.Equal(t, ts[0], got[2].Timestamp)
}

func TestMarketableRespectsLimit(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.Update(func(tx *store.Tx) error {
		if _, err := tx.InsertOrder(1, 33, -5); err != nil {
			return err
		}
		_, err := tx.InsertOrder(1, 30, 5)
		return err
	}))

	require.NoError(t, st.Update(func(tx *store.Tx) error {
		// A buy limited at 32 cannot reach the 33 ask.
		got, err := tx.Marketable(store.Order{Price: 32, Amount: 1, Timestamp: 99})
		require.NoError(t, err)
		require.Empty(t, got)

		// A sell limited at 31 cannot reach the 30 bid.
		got, err = tx.Marketable(store.Order{Price: 31, Amount: -1, Timestamp: 99})
		require.NoError(t, err)
		require.Empty(t, got)
		return nil
	}))
}

func TestDeleteAllOwnedOrdersReturnsTimestamps(t *testing.T) {
	st := newTestStore(t)

	var mine, other int64
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		var err error
		if mine, err = tx.InsertOrder(1, 31, 5); err != nil {
			return err
		}
		if _, err = tx.InsertOrder(1, 32, -2); err != nil {
			return err
		}
		other, err = tx.InsertOrder(2, 30, 1)
		return err
	}))

	var removed []int64
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		var err error
		removed, err = tx.DeleteAllOwnedOrders(1)
		return err
	}))
	require.Len(t, removed, 2)
	require.Contains(t, removed, mine)

	orders, err := st.Book()
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, other, orders[0].Timestamp)
}

func TestCreateParticipant(t *testing.T) {
	st := newTestStore(t)

	rec, err := st.CreateParticipant("rik", "hash", 100)
	require.NoError(t, err)
	require.Equal(t, "rik", rec.Name)

	acc, err := st.Account(rec.ParticipantID)
	require.NoError(t, err)
	require.Equal(t, int64(100), acc.Balance)
	require.Equal(t, int64(0), acc.Stock)

	_, err = st.CreateParticipant("rik", "other-hash", 100)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = st.Account(rec.ParticipantID + 42)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.AuthByName("nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDepositAndTradeLogFilter(t *testing.T) {
	st := newTestStore(t)

	rec, err := st.CreateParticipant("rik", "hash", 100)
	require.NoError(t, err)

	require.NoError(t, st.Deposit(rec.ParticipantID, 50))
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		return tx.AppendEvent(store.TradeEvent{
			Type: store.EventTrade, BuyerID: 1, SellerID: 2, Amount: 5, Price: 31,
		})
	}))

	acc, err := st.Account(rec.ParticipantID)
	require.NoError(t, err)
	require.Equal(t, int64(150), acc.Balance)

	// Only trade events come back; the deposit stays in the log.
	trades, err := st.Trades()
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, store.EventTrade, trades[0].Type)
	require.Equal(t, int64(31), trades[0].Price)
	require.NotEmpty(t, trades[0].WallTime)
}

func TestRollbackLeavesNoPartialState(t *testing.T) {
	st := newTestStore(t)

	boom := require.New(t)
	err := st.Update(func(tx *store.Tx) error {
		if _, err := tx.InsertOrder(1, 31, 5); err != nil {
			return err
		}
		return store.ErrNotFound // any error rolls back
	})
	boom.Error(err)

	orders, err := st.Book()
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestResetRestartsLogicalClock(t *testing.T) {
	st := newTestStore(t)

	var before int64
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		var err error
		before, err = tx.InsertOrder(1, 31, 5)
		return err
	}))
	require.Equal(t, int64(1), before)

	require.NoError(t, st.Reset())

	var after int64
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		var err error
		after, err = tx.InsertOrder(1, 31, 5)
		return err
	}))
	require.Equal(t, int64(1), after)
}

func TestAdmissionLog(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.Update(func(tx *store.Tx) error {
		for _, at := range []float64{0.1, 0.5, 1.4} {
			if err := tx.RecordAdmission("10.0.0.1", at); err != nil {
				return err
			}
		}
		return tx.RecordAdmission("10.0.0.2", 1.0)
	}))

	require.NoError(t, st.Update(func(tx *store.Tx) error {
		n, err := tx.CountAdmissionsSince("10.0.0.1", 0.4)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		return tx.PruneAdmissionsBefore("10.0.0.1", 0.4)
	}))

	n, err := st.AdmissionCount("10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// Other IPs untouched by the prune.
	n, err = st.AdmissionCount("10.0.0.2")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
