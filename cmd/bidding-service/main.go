package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lot-auction/internal/api/handlers"
	"lot-auction/internal/api/middleware"
	"lot-auction/internal/app"
	"lot-auction/internal/config"
	"lot-auction/pkg/logger"

	"github.com/gorilla/mux"
)

// The bidding service serves only the bid endpoints. It shares the store and
// the Redis locks with the auction service, so both can run side by side.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	if cfg.Store.Driver == "memory" {
		log.Warn("Bidding service is running on a private in-memory store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	router := mux.NewRouter()
	router.Use(middleware.CORS(log))

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Caller(application.Tokens))
	handlers.NewBidRouter(application.Service, log).Mount(api)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	// Leader election keeps the sweep on a single instance across both services.
	if err := application.Scheduler.Start(context.Background()); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.BiddingPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting bidding service", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bidding service...")

	shutdownCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
	defer done()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := application.Scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}

	log.Info("Bidding service stopped")
}
