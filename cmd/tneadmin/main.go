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

	"github.com/hibiken/asynq"

	"github.com/travelearn/tne-admin/cmd/tneadmin/cli"
	"github.com/travelearn/tne-admin/internal/admins"
	"github.com/travelearn/tne-admin/internal/app"
	"github.com/travelearn/tne-admin/internal/auth"
	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/dashboard"
	"github.com/travelearn/tne-admin/internal/drivers"
	"github.com/travelearn/tne-admin/internal/fare"
	"github.com/travelearn/tne-admin/internal/observability"
	"github.com/travelearn/tne-admin/internal/platform/cache"
	"github.com/travelearn/tne-admin/internal/platform/gotenberg"
	"github.com/travelearn/tne-admin/internal/report"
	"github.com/travelearn/tne-admin/internal/report/export"
	reporthttp "github.com/travelearn/tne-admin/internal/report/http"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/internal/view"
	"github.com/travelearn/tne-admin/jobs"
)

const usage = `usage: tneadmin [serve]
       tneadmin export -report NAME [-format csv|xlsx|pdf] -token TOKEN [-page N] [-q TERM] [-status S] [-out FILE]
       tneadmin jobs stats`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		return serve(ctx)
	case "export":
		return runExport(ctx, args)
	case "jobs":
		return runJobs(ctx, args)
	default:
		_, _ = fmt.Fprintln(os.Stderr, usage)
		return 1
	}
}

func runExport(ctx context.Context, args []string) int {
	opts, err := cli.ParseExportArgs(args, os.Stderr)
	if err != nil {
		return 1
	}
	baseURL := os.Getenv("BACKEND_BASE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5000"
	}
	api, err := backend.NewClient(baseURL)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "export: %v\n", err)
		return 1
	}
	exporter := export.Exporter{}
	if url := os.Getenv("GOTENBERG_URL"); url != "" {
		exporter.PDF = export.NewPDFExporter(gotenberg.NewClient(url, nil), 0)
	}
	c, err := cli.NewExportCLI(api, report.NewCatalog(), exporter)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "export: %v\n", err)
		return 1
	}
	return c.ExportCommand(ctx, opts)
}

func runJobs(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] != "stats" {
		_, _ = fmt.Fprintln(os.Stderr, usage)
		return 1
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: addr})
	defer func() { _ = inspector.Close() }()
	return cli.NewJobsCLI(inspector).StatsCommand(ctx, os.Stdout, os.Stderr)
}

func serve(ctx context.Context) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
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

	sessionManager := shared.NewSessionManager(redisClient, "tne_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		return 1
	}

	api, err := backend.NewClient(cfg.BackendBaseURL,
		backend.WithLogger(logger),
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithLoginPath(cfg.BackendLoginPath),
		backend.WithObserver(metrics),
	)
	if err != nil {
		logger.Error("backend client", slog.Any("error", err))
		return 1
	}

	catalog := report.NewCatalog()
	store := report.NewStore(cfg.ReportStateTTL)
	loader := reporthttp.NewLoader(logger, api, catalog, store)

	pdfClient := gotenberg.NewClient(cfg.GotenbergURL, nil)
	exporter := export.Exporter{PDF: export.NewPDFExporter(pdfClient, cfg.PDFRowsPerPage)}

	queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("job queue client", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("job queue close", slog.Any("error", err))
		}
	}()
	exports := jobs.NewExports(jobs.NewExportStore(redisClient, cfg.ExportTTL), queue, catalog)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      auth.NewHandler(logger, auth.NewService(api), templates, sessionManager, csrfManager, loader),
		DashboardHandler: dashboard.NewHandler(logger, templates, api, loader),
		ReportHandler:    reporthttp.NewHandler(logger, templates, loader, exporter, exports, csrfManager),
		FareHandler:      fare.NewHandler(logger, templates, api, csrfManager),
		DriversHandler:   drivers.NewHandler(logger, templates, api, loader, csrfManager),
		AdminsHandler:    admins.NewHandler(logger, templates, api, loader, csrfManager),
		JobHandler:       jobs.NewHandler(inspector, exports, templates, logger),
		PDF:              pdfClient,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendBaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}
