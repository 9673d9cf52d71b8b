package store

// Order is a resting row in the exchange table. Amount > 0 is a bid,
// amount < 0 an ask; Timestamp is the logical clock tick assigned on
// insertion and the tie-break key within a price level.
type Order struct {
	ParticipantID int64 `db:"participant_id" json:"participant_id"`
	Price         int64 `db:"price" json:"price"`
	Amount        int64 `db:"amount" json:"amount"`
	Timestamp     int64 `db:"logical_timestamp" json:"logical_timestamp"`
}

// Account holds a participant's cash and inventory. Both may go negative:
// there is no pre-trade solvency check.
type Account struct {
	ParticipantID int64 `db:"participant_id" json:"participant_id"`
	Balance       int64 `db:"balance" json:"balance"`
	Stock         int64 `db:"stock" json:"stock"`
}

// AuthRecord maps a display name to a participant and its password verifier.
type AuthRecord struct {
	ParticipantID  int64  `db:"participant_id" json:"participant_id"`
	Name           string `db:"name" json:"name"`
	HashedPassword string `db:"hashed_password" json:"-"`
}

// Event types recorded in the append-only log. The log column stores them as
// JSON with a discriminating "type" field so heterogeneous events share one
// table; readers filter on json_extract(event, '$.type').
const (
	EventTrade   = "trade"
	EventDeposit = "deposit"
)

// TradeEvent is one matched pair leg. Amount is always positive; the
// direction lives in the buyer/seller assignment.
type TradeEvent struct {
	Type     string `json:"type"`
	BuyerID  int64  `json:"buyer_id"`
	SellerID int64  `json:"seller_id"`
	Amount   int64  `json:"amount"`
	Price    int64  `json:"price"`
	WallTime string `json:"wall_time,omitempty"`
}

// DepositEvent records externally posted cash.
type DepositEvent struct {
	Type          string `json:"type"`
	ParticipantID int64  `json:"participant_id"`
	Amount        int64  `json:"amount"`
}
