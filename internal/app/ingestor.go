package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"StockNewsTracker/internal/bus"
	"StockNewsTracker/internal/config"
	"StockNewsTracker/internal/dedup"
	"StockNewsTracker/internal/enrich"
	"StockNewsTracker/internal/infrastructure/crawler"
	"StockNewsTracker/internal/infrastructure/llm"
	"StockNewsTracker/internal/infrastructure/markets"
	"StockNewsTracker/internal/infrastructure/rss"
	"StockNewsTracker/internal/infrastructure/scheduler"
	"StockNewsTracker/internal/infrastructure/storage"
	"StockNewsTracker/internal/logging"
	"StockNewsTracker/internal/metrics"
	"StockNewsTracker/internal/remote"
	"StockNewsTracker/internal/scanner"
	"StockNewsTracker/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// IngestorApp hosts the scheduled ingestion and fundamentals pipelines.
type IngestorApp struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewIngestorApp captures configuration and logging for the service.
func NewIngestorApp(cfg config.Config, logger *slog.Logger) *IngestorApp {
	return &IngestorApp{cfg: cfg, logger: logger}
}

// Run wires all components and blocks until SIGINT/SIGTERM.
func (a *IngestorApp) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, a.cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := storage.NewPostgresRepository(db)

	registry := scanner.NewRegistry()
	registry.Register(crawler.NewScanner(nil, logging.Component(a.logger, "crawler")))
	registry.Register(rss.NewScanner(logging.Component(a.logger, "rss")))
	source := scanner.NewStrategySource(registry, a.cfg.Sites, logging.Component(a.logger, "source"))

	remoteCfg := remote.Config{
		DailyLimit: a.cfg.Remote.DailyLimit,
		Attempts:   a.cfg.Remote.Attempts,
		CacheTTL:   a.cfg.Remote.CacheTTL(),
		Timeout:    a.cfg.Remote.Timeout(),
	}
	// Providers never share an executor: each keeps its own budget and cache.
	geminiExec := remote.New(remoteCfg, nil, logging.Component(a.logger, "gemini_executor"))
	marketsCfg := remoteCfg
	marketsCfg.DailyLimit = a.cfg.Markets.DailyLimit
	marketsExec := remote.New(marketsCfg, nil, logging.Component(a.logger, "markets_executor"))

	enricher := enrich.NewOrchestrator(
		llm.NewGeminiClient(a.cfg.Gemini, geminiExec),
		logging.Component(a.logger, "enricher"),
	)

	publisher := bus.NewPublisher(a.cfg.Bus.URL, logging.Component(a.logger, "publisher"))
	defer publisher.Close()

	promReg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheus(promReg)
	metricsSrv := startMetricsServer(a.cfg.Metrics.Addr, promReg, a.logger)

	ingestor := usecase.NewIngestor(
		source, repo, dedup.NewEngine(repo), enricher, publisher,
		a.cfg.Bus.Producer, recorder, a.logger,
	)
	sweep := usecase.NewMetricsSweep(repo, markets.NewClient(a.cfg.Markets, marketsExec), a.logger)

	driver := scheduler.New(a.cfg.Scheduler.Every(), a.cfg.Scheduler.Location(), logging.Component(a.logger, "scheduler"))
	sched := usecase.NewScheduler(driver, ingestor, sweep, a.logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.logger.Info("ingestor service started", "interval", a.cfg.Scheduler.Every())
	<-ctx.Done()
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler did not stop cleanly", "error", err)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics endpoint failed", "error", err)
		}
	}()
	return srv
}
