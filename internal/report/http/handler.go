// Package reporthttp serves the report screens, their exports and drill-downs.
package reporthttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/travelearn/tne-admin/internal/report"
	"github.com/travelearn/tne-admin/internal/report/export"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/internal/view"
	"github.com/travelearn/tne-admin/jobs"
)

const exportTimeout = 30 * time.Second

// FullExports starts background exports across every page of a report.
type FullExports interface {
	Start(ctx context.Context, req jobs.FullExportRequest) (jobs.Record, error)
}

// Handler serves the generic report pages.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	loader    *Loader
	exporter  export.Exporter
	exports   FullExports
	csrf      *shared.CSRFManager
}

// NewHandler constructs the report HTTP handler. exports may be nil, which
// hides the full export form.
func NewHandler(logger *slog.Logger, templates *view.Engine, loader *Loader, exporter export.Exporter, exports FullExports, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		templates: templates,
		loader:    loader,
		exporter:  exporter,
		exports:   exports,
		csrf:      csrf,
	}
}

// ReportPage is the template model of pages/report.html.
type ReportPage struct {
	Screen
	Reports []*report.Definition
}

func (h *Handler) showIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/reports/"+report.Sender, http.StatusSeeOther)
}

func (h *Handler) showReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	def, ok := h.loader.Catalog().Get(name)
	if !ok || !h.isReportPage(name) {
		http.NotFound(w, r)
		return
	}
	h.renderScreen(w, r, def, "/reports/"+def.Name)
}

func (h *Handler) showLogistics(w http.ResponseWriter, r *http.Request) {
	h.renderScreen(w, r, h.loader.Catalog().MustGet(report.TravelSummary), "/logistics")
}

func (h *Handler) renderScreen(w http.ResponseWriter, r *http.Request, def *report.Definition, basePath string) {
	sess := shared.SessionFromContext(r.Context())
	tbl := h.loader.Load(r.Context(), sess, def, r.URL.Query())
	screen := NewScreen(tbl, basePath)
	if h.exports == nil {
		screen.ExportAllPath = ""
	}
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	data := ReportPage{Screen: screen, Reports: h.loader.Catalog().Reports()}
	if err := h.templates.Render(w, "pages/report.html", view.PageData(r, def.Title, csrfToken, data)); err != nil {
		h.handleServerError(w, "render report", err)
	}
}

func (h *Handler) showDrill(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	key := chi.URLParam(r, "key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	sess := shared.SessionFromContext(r.Context())
	tbl, ok := h.loader.Lookup(sess, name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	drill, ok := tbl.Drill(key)
	if !ok {
		http.NotFound(w, r)
		return
	}
	title := drill.Title + " of " + key
	if err := h.templates.Render(w, "pages/drilldown.html", view.PageData(r, title, "", drill)); err != nil {
		h.handleServerError(w, "render drilldown", err)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	def, ok := h.loader.Catalog().Get(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	tbl, err := h.loader.LoadDetached(r.Context(), sess, def, r.URL.Query())
	if err != nil {
		h.handleBackendError(w, "load export", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
	defer cancel()
	var buf bytes.Buffer
	if err := h.exporter.Write(ctx, &buf, format, export.FromView(tbl.Snapshot())); err != nil {
		h.handleServerError(w, "write export", err)
		return
	}

	filename := export.Filename(def.ExportBase, format)
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream export", err)
	}
}

func (h *Handler) handleExportAll(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		http.NotFound(w, r)
		return
	}
	def, ok := h.loader.Catalog().Get(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	format, err := export.ParseFormat(r.PostFormValue("format"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sessionUser(sess) == "" {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Sign in again to export every page."})
		}
		http.Redirect(w, r, "/reports/"+def.Name, http.StatusSeeOther)
		return
	}
	req := jobs.FullExportRequest{
		Report:      def.Name,
		Format:      string(format),
		Token:       sess.Token(),
		Search:      strings.TrimSpace(r.PostFormValue("q")),
		Status:      strings.TrimSpace(r.PostFormValue("status")),
		Params:      map[string]string{},
		RequestedBy: sessionUser(sess),
	}
	for _, p := range def.Params {
		if v := strings.TrimSpace(r.PostFormValue(p.Name)); v != "" {
			req.Params[p.Name] = v
		}
	}
	rec, err := h.exports.Start(r.Context(), req)
	if err != nil {
		h.logError("start full export", err)
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not start the export. Please try again."})
		}
		http.Redirect(w, r, "/reports/"+def.Name, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/exports/"+rec.ID, http.StatusSeeOther)
}

func (h *Handler) isReportPage(name string) bool {
	for _, def := range h.loader.Catalog().Reports() {
		if def.Name == name {
			return true
		}
	}
	return false
}

func (h *Handler) handleBackendError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
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

func sessionUser(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.User()
}

// ShowReportForTest exposes the report page handler for tests.
func (h *Handler) ShowReportForTest(w http.ResponseWriter, r *http.Request) { h.showReport(w, r) }

// HandleExportForTest exposes the export handler for tests.
func (h *Handler) HandleExportForTest(w http.ResponseWriter, r *http.Request) { h.handleExport(w, r) }
