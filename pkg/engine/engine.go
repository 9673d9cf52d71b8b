// Package engine implements the continuous limit-order matching core:
// price-then-time priority, partial fills, GTC/IOC time in force, and atomic
// settlement of cash and inventory between counterparties. The book lives in
// the store; every submit is one serialized transaction whose AUTOINCREMENT
// key is the logical clock tick for the whole operation.
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Rik-de-Kort/OrderbookGame/pkg/metrics"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/store"
)

// TimeInForce controls what happens to the unfilled remainder of a submit.
type TimeInForce string

const (
	// GTC leaves the remainder resting on the book.
	GTC TimeInForce = "GTC"
	// IOC discards the remainder silently.
	IOC TimeInForce = "IOC"
)

func (tif TimeInForce) valid() bool { return tif == GTC || tif == IOC }

var (
	// ErrInvalidOrder is returned when a precondition fails; the book is
	// untouched.
	ErrInvalidOrder = errors.New("engine: invalid order")

	// ErrNotOwner is returned by Cancel when no resting order matches both
	// the timestamp and the caller. Missing and foreign orders are
	// indistinguishable on purpose.
	ErrNotOwner = errors.New("engine: order not found or not owned by caller")

	// ErrInvariantViolation marks a state the matching loop cannot reach
	// from a consistent book. The transaction is rolled back.
	ErrInvariantViolation = errors.New("engine: invariant violation")
)

type Engine struct {
	store *store.Store
	log   *zap.SugaredLogger
}

func New(s *store.Store, log *zap.SugaredLogger) *Engine {
	return &Engine{store: s, log: log}
}

// trade is one matched leg, accumulated during the walk and written out at
// the end of the transaction.
type trade struct {
	buyerID  int64
	sellerID int64
	amount   int64 // always positive
	price    int64 // the resting order's price
}

// delta aggregates settlement per participant so each affected account gets
// exactly one update per submit.
type delta struct {
	balance int64
	stock   int64
}

// Submit inserts a limit order, matches it against the resting book, settles
// the resulting trades, and returns the order's logical timestamp. Amount > 0
// buys, amount < 0 sells; the trade price is always the resting order's.
func (e *Engine) Submit(participantID, price, amount int64, tif TimeInForce) (int64, error) {
	if price <= 0 || amount == 0 || !tif.valid() {
		return 0, fmt.Errorf("%w: price=%d amount=%d tif=%q", ErrInvalidOrder, price, amount, tif)
	}

	var timestamp int64
	var executed int
	err := e.store.Update(func(tx *store.Tx) error {
		// Insert first: the assigned key is the logical clock tick for
		// the entire submit and the time-priority tie-break if the
		// order ends up resting.
		ts, err := tx.InsertOrder(participantID, price, amount)
		if err != nil {
			return err
		}
		timestamp = ts

		incoming := store.Order{
			ParticipantID: participantID,
			Price:         price,
			Amount:        amount,
			Timestamp:     ts,
		}
		candidates, err := tx.Marketable(incoming)
		if err != nil {
			return err
		}

		remaining := amount
		var (
			toDelete []int64
			trades   []trade
			filled   bool
		)
		for _, counter := range candidates {
			if sameSign(remaining, counter.Amount) {
				// The marketable query only returns opposite-side
				// rows; a same-sign row means the book is corrupt.
				return fmt.Errorf("%w: counter order %d has same sign as remaining %d",
					ErrInvariantViolation, counter.Amount, remaining)
			}

			switch {
			case abs(remaining) > abs(counter.Amount):
				// Resting order exhausted, appetite remains.
				trades = append(trades, makeTrade(incoming, counter, abs(counter.Amount)))
				toDelete = append(toDelete, counter.Timestamp)
				remaining += counter.Amount

			case remaining == -counter.Amount:
				// Both sides consumed exactly.
				trades = append(trades, makeTrade(incoming, counter, abs(counter.Amount)))
				toDelete = append(toDelete, counter.Timestamp, ts)
				filled = true

			case abs(remaining) < abs(counter.Amount):
				// Resting order partially filled; it shrinks toward
				// zero, keeping its sign and price.
				trades = append(trades, makeTrade(incoming, counter, abs(remaining)))
				if err := tx.UpdateOrderAmount(counter.Timestamp, counter.Amount+remaining); err != nil {
					return err
				}
				toDelete = append(toDelete, ts)
				filled = true

			default:
				return fmt.Errorf("%w: unreachable match case remaining=%d counter=%d",
					ErrInvariantViolation, remaining, counter.Amount)
			}
			if filled {
				break
			}
		}

		if !filled {
			// Unfilled remainder: rest it (GTC) or expire it (IOC).
			switch tif {
			case GTC:
				if err := tx.UpdateOrderAmount(ts, remaining); err != nil {
					return err
				}
			case IOC:
				toDelete = append(toDelete, ts)
			}
		}

		if err := tx.DeleteOrders(toDelete); err != nil {
			return err
		}
		if err := settle(tx, trades); err != nil {
			return err
		}
		for _, tr := range trades {
			if err := tx.AppendEvent(store.TradeEvent{
				Type:     store.EventTrade,
				BuyerID:  tr.buyerID,
				SellerID: tr.sellerID,
				Amount:   tr.amount,
				Price:    tr.price,
			}); err != nil {
				return err
			}
		}

		executed = len(trades)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			// DPanic: panics under development config, loud error in
			// production. The transaction has already rolled back.
			e.log.Desugar().DPanic("invariant_violation", zap.Error(err))
		}
		return 0, err
	}
	metrics.TradesExecuted.Add(float64(executed))
	return timestamp, nil
}

// Cancel deletes a resting order iff timestamp and owner both match. It never
// generates trades or touches balances. Returns ErrNotOwner if nothing was
// deleted, whether the order is foreign or simply gone.
func (e *Engine) Cancel(participantID, timestamp int64) error {
	return e.store.Update(func(tx *store.Tx) error {
		deleted, err := tx.DeleteOwnedOrder(participantID, timestamp)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotOwner
		}
		return nil
	})
}

// CancelAll deletes every resting order of the participant and returns the
// removed logical timestamps.
func (e *Engine) CancelAll(participantID int64) ([]int64, error) {
	var timestamps []int64
	err := e.store.Update(func(tx *store.Tx) error {
		var err error
		timestamps, err = tx.DeleteAllOwnedOrders(participantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return timestamps, nil
}

// makeTrade orients a fill: the buyer is whichever side has positive amount.
func makeTrade(incoming, counter store.Order, qty int64) trade {
	if incoming.Amount > 0 {
		return trade{buyerID: incoming.ParticipantID, sellerID: counter.ParticipantID, amount: qty, price: counter.Price}
	}
	return trade{buyerID: counter.ParticipantID, sellerID: incoming.ParticipantID, amount: qty, price: counter.Price}
}

// settle applies balance and stock movements, one aggregated update per
// affected account per submit. For each trade of q at p: the buyer pays q*p
// and gains q stock, the seller the exact opposite.
func settle(tx *store.Tx, trades []trade) error {
	deltas := make(map[int64]delta)
	for _, tr := range trades {
		notional := tr.amount * tr.price

		buyer := deltas[tr.buyerID]
		buyer.balance -= notional
		buyer.stock += tr.amount
		deltas[tr.buyerID] = buyer

		seller := deltas[tr.sellerID]
		seller.balance += notional
		seller.stock -= tr.amount
		deltas[tr.sellerID] = seller
	}
	for participantID, d := range deltas {
		if err := tx.ApplyAccountDelta(participantID, d.balance, d.stock); err != nil {
			return err
		}
	}
	return nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func sameSign(a, b int64) bool { return (a > 0) == (b > 0) }
