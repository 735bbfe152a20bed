package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"snowwatch/internal/app"
	"snowwatch/internal/logging"
	"snowwatch/internal/models"
)

// check runs a single cycle and exits, for scheduling from cron
func main() {
	configPath := flag.String("config", "./config.yaml", "path to the YAML config")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	_ = godotenv.Load()
	logger := logging.Must(*debug)

	cfg, err := app.LoadConfig(*configPath, logger)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	a.Checker.RunCycle(ctx)

	for _, loc := range a.Locations.Snapshot() {
		fmt.Fprintln(os.Stdout, formatLocation(loc))
	}
}

func formatLocation(loc models.Location) string {
	marker := " "
	if loc.AlertsEnabled {
		marker = "*"
	}
	if loc.LastChecked == nil {
		return fmt.Sprintf("%s %-20s not checked", marker, loc.Name)
	}
	return fmt.Sprintf("%s %-20s %3d%%  %s", marker, loc.Name, loc.SnowProbability, loc.Forecast)
}
