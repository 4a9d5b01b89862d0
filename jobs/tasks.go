package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportFullExport renders every page of a report into one file.
	TaskReportFullExport = "report:full_export"
)

// FullExportRequest is what the report screen asks for.
type FullExportRequest struct {
	Report      string            `json:"report"`
	Format      string            `json:"format"`
	Token       string            `json:"token"`
	Search      string            `json:"search,omitempty"`
	Status      string            `json:"status,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	RequestedBy string            `json:"requested_by,omitempty"`
}

// FullExportPayload is the task payload of TaskReportFullExport.
type FullExportPayload struct {
	ExportID string `json:"export_id"`
	FullExportRequest
}

// NewFullExportTask constructs an Asynq task.
func NewFullExportTask(payload FullExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportFullExport, data), nil
}
