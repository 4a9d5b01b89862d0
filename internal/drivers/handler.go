// Package drivers serves driver management: the listing, a driver's travel
// history and deletion.
package drivers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
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

const (
	msgDeleted      = "Driver deleted successfully"
	msgDeleteFailed = "Failed to delete driver. Please try again."
	msgHistoryError = "Failed to fetch travel history"
)

// Handler serves the driver screens.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	api       *backend.Client
	loader    *reporthttp.Loader
	csrf      *shared.CSRFManager
}

// NewHandler constructs the drivers handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, api *backend.Client, loader *reporthttp.Loader, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, api: api, loader: loader, csrf: csrf}
}

// MountRoutes registers driver routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/drivers", h.showList)
	r.Get("/drivers/{id}", h.showDriver)
	r.Post("/drivers/{id}/delete", h.handleDelete)
}

// ListPage is the template model of pages/drivers.html.
type ListPage struct {
	reporthttp.Screen
	TotalUsers string
	ReturnURL  string
}

// Trip is one rendered entry of the travel history.
type Trip struct {
	TravelID     string
	Status       string
	Ended        bool
	From         string
	To           string
	Vehicle      string
	Scheduled    string
	Consignments int
	Details      []Consignment
}

// Consignment is one consignment carried on a trip.
type Consignment struct {
	ID     string
	Status string
	Weight string
}

// DriverPage is the template model of pages/driver.html.
type DriverPage struct {
	ID      string
	Phone   string
	Found   bool
	Details []reporthttp.Detail
	Trips   []Trip
	Error   string
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	def := h.loader.Catalog().MustGet(report.Drivers)
	var (
		tbl      *report.Table
		users    backend.TotalUsers
		usersErr error
		g        errgroup.Group
	)
	g.Go(func() error {
		tbl = h.loader.Load(ctx, sess, def, r.URL.Query())
		return nil
	})
	g.Go(func() error {
		users, usersErr = h.api.Authed(sess.Token()).TotalUsers(ctx)
		return nil
	})
	_ = g.Wait()

	page := ListPage{Screen: reporthttp.NewScreen(tbl, "/drivers"), TotalUsers: "0", ReturnURL: r.URL.RequestURI()}
	if usersErr != nil {
		h.logError("load total users", usersErr)
	} else {
		page.TotalUsers = strconv.FormatInt(users.Total, 10)
	}
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	if err := h.templates.Render(w, "pages/drivers.html", view.PageData(r, def.Title, csrfToken, page)); err != nil {
		h.handleServerError(w, "render drivers", err)
	}
}

func (h *Handler) showDriver(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")
	page := DriverPage{ID: id, Phone: strings.TrimSpace(r.URL.Query().Get("phone"))}

	def := h.loader.Catalog().MustGet(report.Drivers)
	if tbl, ok := h.loader.Lookup(sess, report.Drivers); ok {
		if row, found := tbl.Find(id); found {
			page.Found = true
			page.Details = reporthttp.Details(def, row)
			if page.Phone == "" {
				page.Phone, _ = row.Raw("phoneNumber")
			}
		}
	}
	if page.Phone == "" {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	history, err := h.api.Authed(sess.Token()).DriverTravelHistory(ctx, page.Phone)
	if err != nil {
		h.logError("load travel history", err)
		page.Error = msgHistoryError
	} else {
		page.Trips = buildTrips(history.Travels)
	}

	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	if err := h.templates.Render(w, "pages/driver.html", view.PageData(r, "Driver Details", csrfToken, page)); err != nil {
		h.handleServerError(w, "render driver", err)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")
	def := h.loader.Catalog().MustGet(report.Drivers)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	api := h.api.Authed(sess.Token())
	err := h.loader.Delete(ctx, sess, def, id, func(ctx context.Context) error {
		return api.DeleteDriver(ctx, id)
	})
	if sess != nil {
		if err != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: msgDeleteFailed})
		} else {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: msgDeleted})
		}
	}
	http.Redirect(w, r, reporthttp.ReturnPath(r.PostFormValue("return"), "/drivers"), http.StatusSeeOther)
}

func buildTrips(travels []backend.Travel) []Trip {
	trips := make([]Trip, 0, len(travels))
	for _, t := range travels {
		trip := Trip{
			TravelID:     t.TravelID,
			Status:       t.Status,
			Ended:        strings.EqualFold(t.Status, "ENDED"),
			From:         t.Pickup,
			To:           t.Drop,
			Vehicle:      vehicle(t.TravelMode, t.TravelModeNumber),
			Scheduled:    report.FormatDate(t.ExpectedStartTime) + " - " + report.FormatDate(t.ExpectedEndTime),
			Consignments: t.ConsignmentCount,
		}
		for _, c := range t.ConsignmentDetails {
			trip.Details = append(trip.Details, Consignment{ID: c.ConsignmentID, Status: c.Status, Weight: weight(c.Weight)})
		}
		trips = append(trips, trip)
	}
	return trips
}

func vehicle(mode, number string) string {
	switch {
	case mode == "" && number == "":
		return report.NA
	case number == "":
		return mode
	default:
		return mode + " (" + number + ")"
	}
}

func weight(v any) string {
	s, ok := report.Row{"w": v}.Raw("w")
	if !ok || s == "" {
		return report.NA
	}
	return s + " kg"
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
