package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"StockLens/internal/analysis"
	"StockLens/internal/api"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/fundamentals"
	"StockLens/internal/logger"
	"StockLens/internal/metrics"
	"StockLens/internal/recorder"
	"StockLens/internal/scheduler"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("StockLens starting")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{Price: 100}
	default:
		fetcher = collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.DataSource.Proxy, cfg.DataSource.Timeout, log)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	rec := openRecorder(cfg.Database.SQLitePath, log)
	defer rec.Close()

	cache := collector.NewCachedFetcher(fetcher, m, log)
	cache.SetRecorder(rec)

	analyzer := analysis.NewAnalyzer(cache, analysis.Config{
		Period:   cfg.DataSource.HistoryPeriod,
		Interval: cfg.DataSource.HistoryInterval,
		Windows:  cfg.Windows(),
	}, rec, m, log)
	funds := fundamentals.NewService(cache, m, log)

	sched := scheduler.NewScheduler(cache, rec, log)
	if err := sched.RegisterAll(cfg.Schedule.SessionResetCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	srv := api.New(api.Config{
		Port:         cfg.Server.Port,
		Log:          log,
		Analyzer:     analyzer,
		Fundamentals: funds,
		Cache:        cache,
		Resetter:     sched,
		Recorder:     rec,
		Metrics:      m,
		DevMode:      cfg.Log.Pretty,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received, stopping")
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown")
	}
	log.Info().Msg("StockLens stopped")
}

// openRecorder falls back to a no-op recorder when SQLite is unavailable.
func openRecorder(path string, log zerolog.Logger) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn().Err(err).Msg("create sqlite directory failed, using noop")
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}
