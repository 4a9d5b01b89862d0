package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/travelearn/tne-admin/internal/app"
	"github.com/travelearn/tne-admin/internal/backend"
	jobmetrics "github.com/travelearn/tne-admin/internal/jobs"
	"github.com/travelearn/tne-admin/internal/observability"
	"github.com/travelearn/tne-admin/internal/platform/cache"
	"github.com/travelearn/tne-admin/internal/platform/gotenberg"
	"github.com/travelearn/tne-admin/internal/report"
	"github.com/travelearn/tne-admin/internal/report/export"
	"github.com/travelearn/tne-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	api, err := backend.NewClient(cfg.BackendBaseURL,
		backend.WithLogger(logger),
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithObserver(metrics),
	)
	if err != nil {
		logger.Error("backend client", slog.Any("error", err))
		os.Exit(1)
	}

	fullExport := &jobs.FullExportJob{
		API:      api,
		Catalog:  report.NewCatalog(),
		Store:    jobs.NewExportStore(redisClient, cfg.ExportTTL),
		Exporter: export.Exporter{PDF: export.NewPDFExporter(gotenberg.NewClient(cfg.GotenbergURL, nil), cfg.PDFRowsPerPage)},
		Logger:   logger,
		Metrics:  jobmetrics.NewMetrics(metrics.Registerer()),
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportFullExport, Handler: fullExport.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
