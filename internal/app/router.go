package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/travelearn/tne-admin/internal/admins"
	"github.com/travelearn/tne-admin/internal/auth"
	"github.com/travelearn/tne-admin/internal/dashboard"
	"github.com/travelearn/tne-admin/internal/drivers"
	"github.com/travelearn/tne-admin/internal/fare"
	"github.com/travelearn/tne-admin/internal/observability"
	"github.com/travelearn/tne-admin/internal/platform/httpx"
	reporthttp "github.com/travelearn/tne-admin/internal/report/http"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/jobs"
	"github.com/travelearn/tne-admin/web"
)

// Pinger checks an upstream dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler
	ReportHandler    *reporthttp.Handler
	FareHandler      *fare.Handler
	DriversHandler   *drivers.Handler
	AdminsHandler    *admins.Handler
	JobHandler       *jobs.Handler
	PDF              Pinger
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz/pdf", func(w http.ResponseWriter, r *http.Request) {
		if params.PDF == nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unconfigured"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := params.PDF.Ping(ctx); err != nil {
			params.Logger.Warn("pdf health", slog.Any("error", err))
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin(nil))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		})
		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(r)
		}
		if params.ReportHandler != nil {
			params.ReportHandler.MountRoutes(r)
		}
		if params.FareHandler != nil {
			params.FareHandler.MountRoutes(r)
		}
		if params.DriversHandler != nil {
			params.DriversHandler.MountRoutes(r)
		}
		if params.AdminsHandler != nil {
			params.AdminsHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			params.JobHandler.MountRoutes(r)
		}
	})

	staticFS, err := web.Static()
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler caches static assets in the browser for one hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
