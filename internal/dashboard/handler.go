// Package dashboard renders the landing page: aggregate counters, users,
// earnings and the recent transactions table.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/report"
	reporthttp "github.com/travelearn/tne-admin/internal/report/http"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/internal/view"
)

const requestTimeout = 10 * time.Second

const statsErrorMessage = "Failed to fetch dashboard statistics"

// Card is one counter tile.
type Card struct {
	Title string
	Value string
}

// ViewModel is the template model of pages/dashboard.html.
type ViewModel struct {
	TotalUsers    string
	TotalEarnings string
	Totals        []Card
	Daily         []Card
	Monthly       []Card
	Error         string
	Transactions  reporthttp.Screen
}

// Handler serves the dashboard.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	api       *backend.Client
	loader    *reporthttp.Loader
}

// NewHandler constructs the dashboard handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, api *backend.Client, loader *reporthttp.Loader) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, api: api, loader: loader}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.showDashboard)
}

type dashboardData struct {
	stats    backend.DashboardStats
	users    backend.TotalUsers
	earnings backend.TotalEarnings
	statsErr error
	usersErr error
	earnErr  error
	table    *report.Table
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data := h.loadDashboardData(ctx, sess, r)
	vm := buildViewModel(data)
	if err := h.templates.Render(w, "pages/dashboard.html", view.PageData(r, "Dashboard", "", vm)); err != nil {
		h.handleServerError(w, "render dashboard", err)
	}
}

// loadDashboardData fetches every block concurrently. A failed block is
// reported on its own and does not cancel the others.
func (h *Handler) loadDashboardData(ctx context.Context, sess *shared.Session, r *http.Request) dashboardData {
	api := h.api.Authed(sess.Token())
	var data dashboardData
	var g errgroup.Group

	g.Go(func() error {
		data.stats, data.statsErr = api.DashboardStats(ctx)
		return nil
	})
	g.Go(func() error {
		data.users, data.usersErr = api.TotalUsers(ctx)
		return nil
	})
	g.Go(func() error {
		data.earnings, data.earnErr = api.TotalEarnings(ctx)
		return nil
	})
	g.Go(func() error {
		def := h.loader.Catalog().MustGet(report.Transactions)
		data.table = h.loader.Load(ctx, sess, def, r.URL.Query())
		return nil
	})
	_ = g.Wait()

	for _, item := range []struct {
		name string
		err  error
	}{{"dashboard stats", data.statsErr}, {"total users", data.usersErr}, {"total earnings", data.earnErr}} {
		if item.err != nil {
			h.logError("load "+item.name, item.err)
		}
	}
	return data
}

func buildViewModel(data dashboardData) ViewModel {
	vm := ViewModel{
		TotalUsers:    "0",
		TotalEarnings: report.FormatCurrency(0),
	}
	if data.usersErr == nil {
		vm.TotalUsers = strconv.FormatInt(data.users.Total, 10)
	}
	if data.earnErr == nil {
		vm.TotalEarnings = report.FormatCurrency(data.earnings.TotalEarnings)
	}
	stats := data.stats
	if data.statsErr != nil {
		stats = backend.DashboardStats{}
	}
	if data.statsErr != nil || data.usersErr != nil || data.earnErr != nil {
		vm.Error = statsErrorMessage
	}
	vm.Totals = []Card{
		card("Total Travel", stats.TotalTravel),
		card("Total Requests", stats.TotalRequests),
		card("Accepted Requests", stats.TotalAccepted),
		card("Cancelled Requests", stats.TotalCancelled),
		card("Delivered", stats.TotalDelivered),
		card("Total Consignments", stats.TotalConsignments),
	}
	vm.Daily = periodCards("Daily", stats.Daily)
	vm.Monthly = periodCards("Monthly", stats.Monthly)
	if data.table != nil {
		vm.Transactions = reporthttp.NewScreen(data.table, "/dashboard")
	}
	return vm
}

func periodCards(prefix string, p backend.PeriodStats) []Card {
	return []Card{
		card(prefix+" Requests", p.TotalRequests),
		card(prefix+" Accepted", p.Accepted),
		card(prefix+" Cancelled", p.Cancelled),
		card(prefix+" Delivered", p.Delivered),
		card(prefix+" Consignments", p.TotalConsignments),
		card(prefix+" Travel", p.TotalTravel),
	}
}

func card(title string, v int64) Card {
	return Card{Title: title, Value: strconv.FormatInt(v, 10)}
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

// ShowDashboardForTest exposes the dashboard handler for tests.
func (h *Handler) ShowDashboardForTest(w http.ResponseWriter, r *http.Request) {
	h.showDashboard(w, r)
}
