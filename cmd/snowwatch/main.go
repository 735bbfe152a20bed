package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"snowwatch/internal/app"
	"snowwatch/internal/logging"
	"snowwatch/internal/server"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the YAML config")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	// a missing .env is normal outside development
	_ = godotenv.Load()

	logger := logging.Must(*debug)

	cfg, err := app.LoadConfig(*configPath, logger)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Debug && !*debug {
		logger = logging.Must(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	go a.Checker.Run(ctx, cfg.Check.Interval)

	srv := server.NewServer(a.Locations, a.Checker, a.Geocoder, a.DB, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// POST /check waits for a whole cycle
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", cfg.Server.Addr, "interval", cfg.Check.Interval)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Errorw("HTTP server failed", "error", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("HTTP server shutdown error", "error", err)
	}

	// save whatever the last cycle or request left behind
	if err := a.DB.SaveLocations(shutdownCtx, a.Locations.Snapshot()); err != nil {
		logger.Errorw("Failed to save locations on shutdown", "error", err)
	}
	logger.Info("snowwatch stopped")
}
