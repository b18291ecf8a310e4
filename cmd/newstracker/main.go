package main

import (
	"os"

	"StockNewsTracker/internal/app"
	"StockNewsTracker/internal/config"
	"StockNewsTracker/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New("newstracker", cfg.Logging.Level)

	service := app.NewIngestorApp(cfg, logger)
	if err := service.Run(); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}
