package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Rik-de-Kort/OrderbookGame/pkg/auth"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/engine"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/metrics"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/store"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, "Welcome to the orderbook game!")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOrderbook(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.Book()
	if err != nil {
		s.mapError(w, err)
		return
	}

	data := OrderbookData{Buy: []OrderRow{}, Sell: []OrderRow{}}
	for _, o := range orders {
		row := orderRow(o)
		if o.Amount > 0 {
			data.Buy = append(data.Buy, row)
		} else {
			data.Sell = append(data.Sell, row)
		}
	}
	respondJSON(w, http.StatusOK, OrderbookResponse{Data: data})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.store.Trades()
	if err != nil {
		s.mapError(w, err)
		return
	}
	if trades == nil {
		trades = []store.TradeEvent{}
	}
	respondJSON(w, http.StatusOK, trades)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	acc, err := s.store.Account(p.ParticipantID)
	if err != nil {
		s.mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, BalanceResponse{Balance: acc.Balance, Stock: acc.Stock})
}

func (s *Server) handleActiveOrders(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	orders, err := s.store.ActiveOrders(p.ParticipantID)
	if err != nil {
		s.mapError(w, err)
		return
	}
	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, orderRow(o))
	}
	respondJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		validationError(w, err)
		return
	}

	amount := req.Quantity
	if req.Side == "sell" {
		amount = -amount
	}

	ts, err := s.engine.Submit(p.ParticipantID, req.Price, amount, engine.TimeInForce(req.TIF))
	if err != nil {
		s.mapError(w, err)
		return
	}

	metrics.OrdersSubmitted.WithLabelValues(req.Side, req.TIF).Inc()
	respondJSON(w, http.StatusOK, SubmitResponse{LogicalTimestamp: ts})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	raw := r.URL.Query().Get("logical_timestamp")
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		validationError(w, errMissingField)
		return
	}

	if err := s.engine.Cancel(p.ParticipantID, ts); err != nil {
		s.mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, CancelResponse{Cancelled: ts})
}

func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	ids, err := s.engine.CancelAll(p.ParticipantID)
	if err != nil {
		s.mapError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	respondJSON(w, http.StatusOK, CancelAllResponse{Count: len(ids), IDs: ids})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	password := r.URL.Query().Get("password")
	if name == "" || password == "" {
		validationError(w, errMissingField)
		return
	}

	principal, err := s.auth.Signup(name, password)
	if err != nil {
		s.mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, SignupResponse{
		ParticipantID: principal.ParticipantID,
		Name:          principal.Name,
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		validationError(w, err)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		validationError(w, errMissingField)
		return
	}

	token, err := s.auth.Authenticate(username, password)
	if err != nil {
		s.mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func orderRow(o store.Order) OrderRow {
	return OrderRow{
		ParticipantID:    o.ParticipantID,
		Price:            o.Price,
		Amount:           o.Amount,
		LogicalTimestamp: o.Timestamp,
	}
}
