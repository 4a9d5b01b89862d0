package fare

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/internal/view"
)

const requestTimeout = 10 * time.Second

const (
	msgUpdated      = "Pricing updated successfully!"
	msgUpdateFailed = "Update failed. Please try again."
	msgUpdateError  = "Error updating pricing."
	msgFetchError   = "Failed to fetch fare details"
)

// Handler serves the fare configuration screens.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	api       *backend.Client
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler constructs the fare handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, api *backend.Client, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		templates: templates,
		api:       api,
		csrf:      csrf,
		validator: NewValidator(),
	}
}

// MountRoutes registers fare routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/fare", h.showFare)
	r.Get("/fare/edit", h.showEdit)
	r.Post("/fare", h.handleUpdate)
}

// Page is the template model of pages/fare.html and pages/fare_edit.html.
type Page struct {
	Fields []Field
	Error  string
	// Loaded is false when the current values could not be fetched.
	Loaded bool
}

func (h *Handler) showFare(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.fetch(r)
	page := Page{Loaded: err == nil}
	if err != nil {
		h.logError("fetch fare details", err)
		page.Error = msgFetchError
	} else {
		page.Fields = DisplayFields(cfg)
	}
	h.render(w, r, http.StatusOK, "pages/fare.html", "Fare Configuration", page)
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.fetch(r)
	if err != nil {
		h.logError("fetch fare details", err)
		h.render(w, r, http.StatusOK, "pages/fare_edit.html", "Edit Pricing", Page{Error: msgFetchError})
		return
	}
	page := Page{Fields: DraftFromConfig(cfg).Fields(nil), Loaded: true}
	h.render(w, r, http.StatusOK, "pages/fare_edit.html", "Edit Pricing", page)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	draft := DraftFromForm(r.PostFormValue)
	if errs := draft.Validate(h.validator); len(errs) > 0 {
		page := Page{Fields: draft.Fields(errs), Loaded: true}
		h.render(w, r, http.StatusUnprocessableEntity, "pages/fare_edit.html", "Edit Pricing", page)
		return
	}
	cfg, err := draft.Config()
	if err != nil {
		page := Page{Fields: draft.Fields(nil), Loaded: true, Error: msgUpdateError}
		h.render(w, r, http.StatusUnprocessableEntity, "pages/fare_edit.html", "Edit Pricing", page)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	result, err := h.api.Authed(sess.Token()).UpdateFareDetails(ctx, cfg)
	switch {
	case err != nil:
		h.logError("update fare details", err)
		page := Page{Fields: draft.Fields(nil), Loaded: true, Error: msgUpdateError}
		h.render(w, r, http.StatusBadGateway, "pages/fare_edit.html", "Edit Pricing", page)
		return
	case !result.Success:
		h.logger.Warn("fare update rejected", slog.String("message", result.Message))
		page := Page{Fields: draft.Fields(nil), Loaded: true, Error: msgUpdateFailed}
		h.render(w, r, http.StatusOK, "pages/fare_edit.html", "Edit Pricing", page)
		return
	}
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: msgUpdated})
	}
	http.Redirect(w, r, "/fare", http.StatusSeeOther)
}

func (h *Handler) fetch(r *http.Request) (backend.FareConfig, error) {
	sess := shared.SessionFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	return h.api.Authed(sess.Token()).FareDetails(ctx)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, page Page) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, name, view.PageData(r, title, csrfToken, page)); err != nil {
		h.logError("render "+name, err)
	}
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
