package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/fantastictask/internal/config"
	"github.com/dukerupert/fantastictask/internal/database"
	"github.com/dukerupert/fantastictask/internal/logging"
	"github.com/dukerupert/fantastictask/internal/schedule"
	"github.com/dukerupert/fantastictask/internal/server"
	"github.com/dukerupert/fantastictask/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hub := websocket.NewHub(logger)
	svc := schedule.New(db, schedule.Options{
		Location:  cfg.Location,
		Publisher: hub,
		Logger:    logger,
	})

	admin, err := svc.Bootstrap(context.Background(), cfg.BootstrapFamily, cfg.BootstrapAdmin)
	if err != nil {
		slog.Error("failed to bootstrap family", "error", err)
		os.Exit(1)
	}
	if admin != nil {
		slog.Info("created admin member", "member_id", admin.ID, "name", admin.Name)
	}

	srv := server.New(db, svc, hub, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	go func() {
		slog.Info("server starting", "port", cfg.Port, "timezone", cfg.Location.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
