package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rik-de-Kort/OrderbookGame/params"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/api"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/auth"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/engine"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/ratelimit"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/store"
	"github.com/Rik-de-Kort/OrderbookGame/pkg/util"
)

func main() {
	// Load config from .env file and environment variables.
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if cfg.SecretKey == "" {
		sugar.Fatal("SECRET_KEY must be set")
	}

	db, err := store.Open(cfg.DBLocation)
	if err != nil {
		sugar.Fatalw("store_open_failed", "location", cfg.DBLocation, "err", err)
	}
	defer db.Close()
	if err := db.InitSchema(); err != nil {
		sugar.Fatalw("schema_init_failed", "err", err)
	}

	matcher := engine.New(db, sugar)
	authSvc := auth.NewService(db, []byte(cfg.SecretKey), cfg.StartingBalance)
	limiter := ratelimit.New(db, util.RealClock{}, cfg.RateLimit.Max, cfg.RateLimit.Window)
	server := api.NewServer(cfg, db, matcher, authSvc, limiter, sugar)

	httpServer := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infow("server_starting",
			"addr", cfg.APIAddr,
			"db", cfg.DBLocation,
			"rate_limit_max", cfg.RateLimit.Max,
			"rate_limit_window_ms", cfg.RateLimit.Window.Milliseconds())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("server_shutdown_failed", "err", err)
	}
}
