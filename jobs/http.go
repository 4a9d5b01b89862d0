package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/travelearn/tne-admin/internal/platform/httpx"
	"github.com/travelearn/tne-admin/internal/report/export"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/internal/view"
)

// ExportReader is the read side of Exports.
type ExportReader interface {
	Get(ctx context.Context, id string) (Record, error)
	File(ctx context.Context, id string) ([]byte, error)
}

// Handler exposes HTTP endpoints for job observability and export downloads.
type Handler struct {
	inspector *asynq.Inspector
	exports   ExportReader
	templates *view.Engine
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector *asynq.Inspector, exports ExportReader, templates *view.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, exports: exports, templates: templates, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/jobs/health", h.health)
	r.Get("/exports/{id}", h.showExport)
	r.Get("/exports/{id}/status", h.exportStatus)
	r.Get("/exports/{id}/download", h.download)
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Active  int    `json:"active"`
	Failed  int    `json:"failed"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := queueHealth{Queue: QueueDefault}
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, status)
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "")
		return
	}
	if info != nil {
		status = queueHealth{Queue: info.Queue, Pending: info.Pending, Active: info.Active, Failed: info.Failed}
	}
	httpx.JSON(w, http.StatusOK, status)
}

// ExportPage is the template model of pages/export_status.html.
type ExportPage struct {
	Record      Record
	DownloadURL string
}

func (h *Handler) showExport(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	data := ExportPage{Record: rec}
	if rec.State == StateReady {
		data.DownloadURL = "/exports/" + rec.ID + "/download"
	}
	if err := h.templates.Render(w, "pages/export_status.html", view.PageData(r, rec.Title+" export", "", data)); err != nil {
		h.logger.Error("render export status", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) exportStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.find(r)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("load export status", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if rec.State != StateReady {
		http.Error(w, "export not ready", http.StatusConflict)
		return
	}
	data, err := h.exports.File(r.Context(), rec.ID)
	if err != nil {
		if errors.Is(err, ErrExportNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load export file", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType(export.Format(rec.Format)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", rec.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		h.logger.Error("stream export file", slog.Any("error", err))
	}
}

// find loads the export; exports not owned by the session's admin are
// reported as not found.
func (h *Handler) find(r *http.Request) (Record, error) {
	if h.exports == nil {
		return Record{}, shared.ErrNotFound
	}
	rec, err := h.exports.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrExportNotFound) {
			return Record{}, shared.ErrNotFound
		}
		return Record{}, err
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || rec.RequestedBy == "" || sess.User() != rec.RequestedBy {
		return Record{}, shared.ErrNotFound
	}
	return rec, nil
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (Record, bool) {
	rec, err := h.find(r)
	if err == nil {
		return rec, true
	}
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return Record{}, false
	}
	h.logger.Error("load export", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	return Record{}, false
}
