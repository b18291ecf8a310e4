package app

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"StockNewsTracker/internal/bus"
	"StockNewsTracker/internal/config"
	"StockNewsTracker/internal/infrastructure/storage"
	"StockNewsTracker/internal/logging"
	"StockNewsTracker/internal/metrics"
	"StockNewsTracker/internal/notify"
	"StockNewsTracker/internal/usecase"
)

// NotifierApp hosts the event consumer and the notification decision loop.
type NotifierApp struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewNotifierApp captures configuration and logging for the service.
func NewNotifierApp(cfg config.Config, logger *slog.Logger) *NotifierApp {
	return &NotifierApp{cfg: cfg, logger: logger}
}

// Run wires all components and consumes until SIGINT/SIGTERM.
func (a *NotifierApp) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, a.cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := storage.NewPostgresRepository(db)

	promReg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheus(promReg)
	metricsSrv := startMetricsServer(a.cfg.Metrics.Addr, promReg, a.logger)
	defer func() {
		if metricsSrv != nil {
			_ = metricsSrv.Close()
		}
	}()

	dispatcher := notify.NewTelegramDispatcher(
		a.cfg.Notifications.Telegram.BotToken,
		a.cfg.Notifications.Telegram.ChatID,
		logging.Component(a.logger, "telegram"),
	)

	notifier := usecase.NewNotifier(
		repo, dispatcher,
		a.cfg.Notifications.UserID,
		a.cfg.Notifications.Telegram.ChatID,
		recorder, a.logger,
	)

	consumer := bus.NewConsumer(a.cfg.Bus.URL, a.cfg.Bus.Queue, logging.Component(a.logger, "consumer"))

	a.logger.Info("notifier service started", "queue", a.cfg.Bus.Queue)
	err = consumer.Run(ctx, notifier.HandleEvent)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("shutting down")
		return nil
	}
	return err
}
