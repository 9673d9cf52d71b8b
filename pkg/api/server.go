// Package api is the stateless HTTP adapter over the engine and store.
// Request flow: rate limit -> principal resolution (where required) ->
// argument validation -> engine/store call -> JSON response.
package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Rik-de-Kort/OrderbookGame/params"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/auth"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/engine"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/metrics"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/ratelimit"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/store"
)

type Server struct {
	store    *store.Store
	engine   *engine.Engine
	auth     *auth.Service
	limiter  *ratelimit.Limiter
	router   *mux.Router
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewServer(cfg params.Config, s *store.Store, e *engine.Engine, a *auth.Service, l *ratelimit.Limiter, log *zap.SugaredLogger) *Server {
	srv := &Server{
		store:    s,
		engine:   e,
		auth:     a,
		limiter:  l,
		router:   mux.NewRouter(),
		validate: validator.New(),
		log:      log,
	}
	srv.setupRoutes(cfg.TokenURL)
	return srv
}

func (s *Server) setupRoutes(tokenURL string) {
	// Admission runs before token decoding and all handler work; only the
	// request counter sits outside it so rejections are observable too.
	s.router.Use(s.metricsMiddleware, s.rateLimitMiddleware)

	s.router.HandleFunc("/", s.handleHome).Methods("GET")
	s.router.HandleFunc("/orderbook", s.handleOrderbook).Methods("GET")
	s.router.HandleFunc("/trades", s.handleTrades).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.HandleFunc("/signup", s.handleSignup).Methods("POST")
	s.router.HandleFunc("/"+tokenURL, s.handleToken).Methods("POST")

	s.router.HandleFunc("/balance", s.authed(s.handleBalance)).Methods("GET")
	s.router.HandleFunc("/orders/active", s.authed(s.handleActiveOrders)).Methods("GET")
	s.router.HandleFunc("/me", s.authed(s.handleMe)).Methods("GET")
	s.router.HandleFunc("/submit", s.authed(s.handleSubmit)).Methods("POST")
	s.router.HandleFunc("/cancel", s.authed(s.handleCancel)).Methods("POST")
	s.router.HandleFunc("/cancel/all", s.authed(s.handleCancelAll)).Methods("POST")
}

// Handler returns the complete middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

// Start serves until the listener fails or srv is shut down by the caller.
func (s *Server) Start(addr string) error {
	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ==============================
// Middleware
// ==============================

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.limiter.Allow(clientIP(r)); err != nil {
			if errors.Is(err, ratelimit.ErrRateLimited) {
				metrics.RateLimited.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(s.limiter.Window().Seconds()+1)))
				respondError(w, http.StatusTooManyRequests, "too many requests", "retry after the window passes")
				return
			}
			s.log.Errorw("rate_limit_store_error", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		metrics.RequestsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// authed resolves the bearer principal before invoking the handler.
func (s *Server) authed(handler func(http.ResponseWriter, *http.Request, auth.Principal)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w)
			return
		}
		principal, err := s.auth.ResolvePrincipal(token)
		if err != nil {
			unauthorized(w)
			return
		}
		handler(w, r, principal)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
		return "", false
	}
	return h[len(prefix):], true
}

// clientIP is the host part of the peer address; the rate limiter keys on it.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ==============================
// Helpers
// ==============================

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg, message string) {
	respondJSON(w, status, ErrorResponse{Error: errMsg, Message: message})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respondError(w, http.StatusUnauthorized, "invalid authentication credentials", "")
}

// mapError translates domain sentinels into status codes. Anything unmapped
// is a store or invariant failure: already rolled back, reported as 500.
func (s *Server) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidOrder):
		respondError(w, http.StatusUnprocessableEntity, "invalid order", err.Error())
	case errors.Is(err, auth.ErrAlreadyExists):
		respondError(w, http.StatusBadRequest, "name already taken", "")
	case errors.Is(err, auth.ErrBadCredentials):
		respondError(w, http.StatusBadRequest, "invalid username or password", "")
	case errors.Is(err, auth.ErrUnauthorized):
		unauthorized(w)
	case errors.Is(err, engine.ErrNotOwner):
		unauthorized(w)
	default:
		s.log.Errorw("internal_error", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func validationError(w http.ResponseWriter, err error) {
	respondError(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
}

var errMissingField = errors.New("missing required field")
