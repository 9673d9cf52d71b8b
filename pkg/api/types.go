package api

// Wire types for the REST endpoints.

// SubmitRequest is the body of POST /submit. The server converts it to a
// signed amount internally: +q for a buy, -q for a sell.
type SubmitRequest struct {
	Price    int64  `json:"p" validate:"required,gt=0"`
	Quantity int64  `json:"q" validate:"required,gt=0"`
	Side     string `json:"d" validate:"required,oneof=buy sell"`
	TIF      string `json:"tif" validate:"required,oneof=GTC IOC"`
}

// SubmitResponse carries the logical timestamp assigned to the order.
type SubmitResponse struct {
	LogicalTimestamp int64 `json:"logical_timestamp"`
}

// OrderbookResponse splits the resting book by side on the sign of amount.
type OrderbookResponse struct {
	Data OrderbookData `json:"data"`
}

type OrderbookData struct {
	Buy  []OrderRow `json:"buy"`
	Sell []OrderRow `json:"sell"`
}

// OrderRow mirrors a resting exchange row.
type OrderRow struct {
	ParticipantID    int64 `json:"participant_id"`
	Price            int64 `json:"price"`
	Amount           int64 `json:"amount"`
	LogicalTimestamp int64 `json:"logical_timestamp"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
	Stock   int64 `json:"stock"`
}

type CancelResponse struct {
	Cancelled int64 `json:"cancelled"`
}

type CancelAllResponse struct {
	Count int     `json:"count"`
	IDs   []int64 `json:"ids"`
}

type SignupResponse struct {
	ParticipantID int64  `json:"participant_id"`
	Name          string `json:"name"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
