package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/travelearn/tne-admin/internal/backend"
	jobmetrics "github.com/travelearn/tne-admin/internal/jobs"
	"github.com/travelearn/tne-admin/internal/report"
	"github.com/travelearn/tne-admin/internal/report/export"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const fullExportTimeout = 10 * time.Minute

// ErrNoRequester is returned when a full export is started without an admin
// identity to own it.
var ErrNoRequester = errors.New("jobs: export requester required")

// Enqueuer submits tasks; *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Exports creates export records and queues the work.
type Exports struct {
	store   *ExportStore
	queue   Enqueuer
	catalog *report.Catalog
}

// NewExports constructs the full export front door.
func NewExports(store *ExportStore, queue Enqueuer, catalog *report.Catalog) *Exports {
	return &Exports{store: store, queue: queue, catalog: catalog}
}

// Start records a pending export and enqueues it.
func (e *Exports) Start(ctx context.Context, req FullExportRequest) (Record, error) {
	if req.RequestedBy == "" {
		return Record{}, ErrNoRequester
	}
	def, ok := e.catalog.Get(req.Report)
	if !ok {
		return Record{}, fmt.Errorf("jobs: unknown report %q", req.Report)
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return Record{}, err
	}
	req.Format = string(format)
	rec, err := e.store.Create(ctx, Record{
		ID:          uuid.NewString(),
		Report:      def.Name,
		Title:       def.Title,
		Format:      req.Format,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		return Record{}, err
	}
	task, err := NewFullExportTask(FullExportPayload{ExportID: rec.ID, FullExportRequest: req})
	if err != nil {
		return Record{}, err
	}
	if _, err := e.queue.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(2), asynq.Timeout(fullExportTimeout)); err != nil {
		if markErr := e.store.MarkFailed(ctx, rec.ID, "Could not queue the export."); markErr != nil {
			err = errors.Join(err, markErr)
		}
		return Record{}, err
	}
	return rec, nil
}

// Get returns the export record with id.
func (e *Exports) Get(ctx context.Context, id string) (Record, error) {
	return e.store.Get(ctx, id)
}

// File returns the finished file of id.
func (e *Exports) File(ctx context.Context, id string) ([]byte, error) {
	return e.store.File(ctx, id)
}

// FullExportJob walks every page of a report and stores the rendered file.
type FullExportJob struct {
	API      *backend.Client
	Catalog  *report.Catalog
	Store    *ExportStore
	Exporter export.Exporter
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle processes TaskReportFullExport tasks.
func (j *FullExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.API == nil || j.Store == nil || j.Catalog == nil {
		return errors.New("full export: handler not configured")
	}
	var payload FullExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	def, ok := j.Catalog.Get(payload.Report)
	if !ok {
		_ = j.Store.MarkFailed(ctx, payload.ExportID, "Unknown report.")
		return asynq.SkipRetry
	}
	format, err := export.ParseFormat(payload.Format)
	if err != nil {
		_ = j.Store.MarkFailed(ctx, payload.ExportID, "Unsupported format.")
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskReportFullExport)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("export_id", payload.ExportID), slog.String("report", def.Name), slog.String("format", string(format)))
	logger.Info("starting full export")
	started := time.Now()

	fetch := def.Fetcher(j.API.Authed(payload.Token))
	q := report.Query{Params: payload.Params}
	if def.SearchMode == report.SearchServer {
		q.Search = payload.Search
	}
	filter := report.FilterFor(def, payload.Search, payload.Status)
	collected, err := report.CollectAll(ctx, def, fetch, q, filter, func(page, total int) {
		if err := j.Store.Progress(ctx, payload.ExportID, page); err != nil {
			logger.Warn("record export progress", slog.Any("error", err))
		}
	})
	if err != nil {
		resultErr = err
		logger.Error("collect report pages", slog.Any("error", err))
		j.fail(ctx, logger, payload.ExportID, "Failed to fetch report data.")
		return resultErr
	}

	var buf bytes.Buffer
	if err := j.Exporter.Write(ctx, &buf, format, export.FromRows(def, collected.Rows)); err != nil {
		resultErr = err
		logger.Error("render export", slog.Any("error", err))
		j.fail(ctx, logger, payload.ExportID, "Failed to render the export file.")
		return resultErr
	}
	filename := export.Filename(def.ExportBase+"_full", format)
	if err := j.Store.MarkReady(ctx, payload.ExportID, filename, buf.Bytes(), len(collected.Rows), collected.Pages); err != nil {
		resultErr = err
		logger.Error("store export", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddExportRows(def.Name, string(format), len(collected.Rows))
	logger.Info("completed full export", slog.Int("rows", len(collected.Rows)), slog.Int("pages", collected.Pages), slog.Duration("duration", time.Since(started)))
	return resultErr
}

// fail marks the export failed once asynq will not retry it again.
func (j *FullExportJob) fail(ctx context.Context, logger *slog.Logger, id, message string) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried < maxRetry {
		return
	}
	if err := j.Store.MarkFailed(ctx, id, message); err != nil {
		logger.Warn("mark export failed", slog.Any("error", err))
	}
}

func (j *FullExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportFullExport))
	}
	return slog.Default().With(slog.String("job", TaskReportFullExport))
}

func (j *FullExportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
