// Package admins serves admin management.
package admins

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/report"
	reporthttp "github.com/travelearn/tne-admin/internal/report/http"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/internal/view"
)

const requestTimeout = 10 * time.Second

const (
	msgDeleted      = "Admin deleted successfully"
	msgDeleteFailed = "Failed to delete admin. Please try again."
)

// Handler serves the admin screens.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	api       *backend.Client
	loader    *reporthttp.Loader
	csrf      *shared.CSRFManager
}

// NewHandler constructs the admins handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, api *backend.Client, loader *reporthttp.Loader, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, api: api, loader: loader, csrf: csrf}
}

// MountRoutes registers admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/admins", h.showList)
	r.Get("/admins/{id}", h.showAdmin)
	r.Post("/admins/{id}/delete", h.handleDelete)
}

// ListPage is the template model of pages/admins.html.
type ListPage struct {
	reporthttp.Screen
	ReturnURL string
}

// AdminPage is the template model of pages/admin.html.
type AdminPage struct {
	ID      string
	Details []reporthttp.Detail
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	def := h.loader.Catalog().MustGet(report.Admins)
	tbl := h.loader.Load(ctx, sess, def, r.URL.Query())
	page := ListPage{Screen: reporthttp.NewScreen(tbl, "/admins"), ReturnURL: r.URL.RequestURI()}
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	if err := h.templates.Render(w, "pages/admins.html", view.PageData(r, def.Title, csrfToken, page)); err != nil {
		h.handleServerError(w, "render admins", err)
	}
}

func (h *Handler) showAdmin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")
	tbl, ok := h.loader.Lookup(sess, report.Admins)
	if !ok {
		http.NotFound(w, r)
		return
	}
	row, ok := tbl.Find(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	page := AdminPage{ID: id, Details: reporthttp.Details(tbl.Definition(), row)}
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	if err := h.templates.Render(w, "pages/admin.html", view.PageData(r, "Admin Details", csrfToken, page)); err != nil {
		h.handleServerError(w, "render admin", err)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")
	def := h.loader.Catalog().MustGet(report.Admins)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	api := h.api.Authed(sess.Token())
	err := h.loader.Delete(ctx, sess, def, id, func(ctx context.Context) error {
		return api.DeleteAdmin(ctx, id)
	})
	if sess != nil {
		flash := shared.FlashMessage{Kind: "success", Message: msgDeleted}
		if err != nil {
			flash = shared.FlashMessage{Kind: "error", Message: msgDeleteFailed}
		}
		sess.AddFlash(flash)
	}
	http.Redirect(w, r, reporthttp.ReturnPath(r.PostFormValue("return"), "/admins"), http.StatusSeeOther)
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
