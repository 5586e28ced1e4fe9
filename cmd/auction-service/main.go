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
	apimw "lot-auction/internal/api/middleware"
	"lot-auction/internal/app"
	"lot-auction/internal/config"
	"lot-auction/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	defer func() { _ = log.Sync() }()
	log.Info("Starting auction service", "config", cfg.GetConfigString())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"error":"${error}","latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		MaxAge: 86400,
	}))

	api := e.Group("/api/v1", apimw.EchoCaller(application.Tokens))
	handlers.NewEchoHandler(application.Service, application.Tokens, log).Mount(api)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"service":     "auction-service",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"store":       cfg.Store.Driver,
			"instance_id": cfg.Instance.ID,
		})
	})

	if err := application.Scheduler.Start(context.Background()); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting HTTP server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction service...")

	shutdownCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
	defer done()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := application.Scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}

	log.Info("Auction service stopped")
}
