package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/report/export"
)

func newExportCLI(t *testing.T, status int) (*ExportCLI, *atomic.Value) {
	t.Helper()
	auth := &atomic.Value{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = io.WriteString(w, `{"data":[
			{"senderId":"S1","name":"Anita","noOfConsignment":2,"totalAmount":150.5},
			{"senderId":"S2","name":"Ravi","noOfConsignment":1,"totalAmount":80}
		],"pagination":{"currentPage":1,"totalPages":1,"totalRecords":2}}`)
	}))
	t.Cleanup(srv.Close)
	api, err := backend.NewClient(srv.URL, backend.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	c, err := NewExportCLI(api, nil, export.Exporter{})
	require.NoError(t, err)
	return c, auth
}

func TestExportCommandWritesCSVToStdout(t *testing.T) {
	c, auth := newExportCLI(t, http.StatusOK)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := c.ExportCommand(context.Background(), ExportOptions{
		Report: "sender", Format: "csv", Token: "tok", Stdout: stdout, Stderr: stderr,
	})

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "Bearer tok", auth.Load())
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Anita")
}

func TestExportCommandWritesFile(t *testing.T) {
	c, _ := newExportCLI(t, http.StatusOK)
	out := filepath.Join(t.TempDir(), "sender.xlsx")

	code := c.ExportCommand(context.Background(), ExportOptions{
		Report: "sender", Format: "excel", Token: "tok", Out: out, Stderr: io.Discard,
	})

	require.Equal(t, 0, code)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestExportCommandErrors(t *testing.T) {
	c, _ := newExportCLI(t, http.StatusInternalServerError)
	cases := map[string]ExportOptions{
		"unknown report": {Report: "nope", Format: "csv", Token: "tok"},
		"bad format":     {Report: "sender", Format: "doc", Token: "tok"},
		"missing token":  {Report: "sender", Format: "csv"},
		"backend down":   {Report: "sender", Format: "csv", Token: "tok"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			stderr := new(bytes.Buffer)
			opts.Stdout = io.Discard
			opts.Stderr = stderr
			assert.Equal(t, 1, c.ExportCommand(context.Background(), opts))
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestParseExportArgs(t *testing.T) {
	opts, err := ParseExportArgs([]string{"-report", "traveler", "-format", "pdf", "-token", "t", "-page", "3", "-q", "ravi", "-status", "Pending"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "traveler", opts.Report)
	assert.Equal(t, "pdf", opts.Format)
	assert.Equal(t, 3, opts.Page)
	assert.Equal(t, "ravi", opts.Search)
	assert.Equal(t, "Pending", opts.Status)

	_, err = ParseExportArgs([]string{"-page", "x"}, io.Discard)
	assert.Error(t, err)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestStatsCommand(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := NewJobsCLI(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Retry: 1}}).StatsCommand(context.Background(), stdout, io.Discard)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "pending=4")
	assert.Contains(t, stdout.String(), "retry=1")

	code = NewJobsCLI(stubInspector{err: errors.New("redis down")}).StatsCommand(context.Background(), io.Discard, io.Discard)
	assert.Equal(t, 1, code)
}
