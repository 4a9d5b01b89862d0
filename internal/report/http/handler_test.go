package reporthttp_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/report"
	"github.com/travelearn/tne-admin/internal/report/export"
	reporthttp "github.com/travelearn/tne-admin/internal/report/http"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/internal/view"
	"github.com/travelearn/tne-admin/jobs"
)

const senderPage = `{"data":[
	{"senderId":"S-1","name":"Anita","phoneNo":"9000000001","address":"MG Road","state":"Karnataka","noOfConsignment":2,"totalAmount":450,"statusOfConsignment":"Completed","payment":"Paid","averageRating":4.5,
	 "senderConsignment":[{"consignmentId":"C-1","description":"Books","status":"Completed","distance":"12 km","category":"Parcel","earning":120,"weight":"2","dimensionalweight":"3"}]},
	{"senderId":"S-2","name":"Rahul","phoneNo":"9000000002","address":"Park Street","state":"West Bengal","noOfConsignment":0,"totalAmount":0,"statusOfConsignment":"Pending","payment":"Unpaid","averageRating":0}
],"pagination":{"currentPage":1,"totalPages":1,"totalRecords":2}}`

type stubExports struct {
	mu   sync.Mutex
	reqs []jobs.FullExportRequest
	err  error
}

func (s *stubExports) Start(_ context.Context, req jobs.FullExportRequest) (jobs.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return jobs.Record{}, s.err
	}
	return jobs.Record{ID: "exp-1", Report: req.Report, State: jobs.StatePending}, nil
}

type fixture struct {
	router  http.Handler
	exports *stubExports
	body    atomic.Value
	status  atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{exports: &stubExports{}}
	f.body.Store(senderPage)
	f.status.Store(http.StatusOK)
	f.serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(f.status.Load()))
		_, _ = io.WriteString(w, f.body.Load().(string))
	})
	return f
}

func (f *fixture) serve(t *testing.T, sender http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != backend.ReportSender {
			http.NotFound(w, r)
			return
		}
		sender(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api, err := backend.NewClient(srv.URL, backend.WithLogger(logger))
	require.NoError(t, err)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	loader := reporthttp.NewLoader(logger, api, report.NewCatalog(), report.NewStore(time.Hour))

	h := reporthttp.NewHandler(logger, templates, loader, export.Exporter{}, f.exports, shared.NewCSRFManager("secret"))
	r := chi.NewRouter()
	h.MountRoutes(r)
	f.router = r
}

func (f *fixture) do(t *testing.T, sess *shared.Session, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestReportPageRendersRows(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodGet, "/reports/sender", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Sender Id")
	assert.Contains(t, body, "Anita")
	assert.Contains(t, body, "₹450.00")
	assert.Contains(t, body, "/reports/sender/rows/S-1")
	assert.Contains(t, body, `action="/reports/sender/export-all"`)
}

func TestReportPageSearchFiltersRows(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodGet, "/reports/sender?q=rahul", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Rahul")
	assert.NotContains(t, body, "Anita")
}

func TestReportPageEmptyMessage(t *testing.T) {
	f := newFixture(t)
	f.body.Store(`{"data":[],"pagination":{"currentPage":1,"totalPages":0,"totalRecords":0}}`)
	rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodGet, "/reports/sender", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No sender data available")
}

func TestReportPageShowsBackendError(t *testing.T) {
	f := newFixture(t)
	f.status.Store(http.StatusInternalServerError)
	f.body.Store(`{"message":"boom"}`)
	rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodGet, "/reports/sender", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Failed to fetch sender data")
	assert.Contains(t, body, "retry=1")
}

func TestUnknownReportNotFound(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{"/reports/nope", "/reports/drivers"} {
		rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code, target)
	}
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodGet, "/reports/sender/export.csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="sender_report.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Sender Id,Name"))
	assert.NotContains(t, lines[0], "Sender's Consignment")
	assert.Contains(t, lines[1], "Anita")
}

// pagedSenders serves three pages with one row named after the page; page 2
// answers after delay.
func pagedSenders(delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		if page == "2" {
			time.Sleep(delay)
		}
		fmt.Fprintf(w, `{"data":[{"senderId":"PAGE-%s","name":"Sender %s"}],"pagination":{"currentPage":%s,"totalPages":3,"totalRecords":3}}`, page, page, page)
	}
}

func TestExportIgnoresConcurrentPageLoads(t *testing.T) {
	f := &fixture{exports: &stubExports{}}
	f.serve(t, pagedSenders(300*time.Millisecond))
	sess := &shared.Session{ID: "s1"}
	require.Equal(t, http.StatusOK, f.do(t, sess, http.MethodGet, "/reports/sender?page=1", nil).Code)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- f.do(t, sess, http.MethodGet, "/reports/sender/export.csv?page=2", nil)
	}()
	time.Sleep(50 * time.Millisecond)
	page3 := f.do(t, sess, http.MethodGet, "/reports/sender?page=3", nil)
	require.Equal(t, http.StatusOK, page3.Code)
	assert.Contains(t, page3.Body.String(), "PAGE-3")

	rr := <-done
	require.Equal(t, http.StatusOK, rr.Code)
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "PAGE-2,"), lines[1])
}

func TestExportLeavesSessionTableAlone(t *testing.T) {
	f := &fixture{exports: &stubExports{}}
	f.serve(t, pagedSenders(0))
	sess := &shared.Session{ID: "s1"}
	require.Equal(t, http.StatusOK, f.do(t, sess, http.MethodGet, "/reports/sender?page=3", nil).Code)
	require.Equal(t, http.StatusOK, f.do(t, sess, http.MethodGet, "/reports/sender/export.csv?page=2", nil).Code)

	rr := f.do(t, sess, http.MethodGet, "/reports/sender/rows/PAGE-3", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestExportBackendFailure(t *testing.T) {
	f := newFixture(t)
	f.status.Store(http.StatusInternalServerError)
	f.body.Store(`{"message":"boom"}`)
	rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodGet, "/reports/sender/export.csv", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestExportUnknownFormat(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodGet, "/reports/sender/export.doc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportPDFWithoutRenderer(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodGet, "/reports/sender/export.pdf", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestDrilldown(t *testing.T) {
	f := newFixture(t)
	sess := &shared.Session{ID: "s1"}
	require.Equal(t, http.StatusOK, f.do(t, sess, http.MethodGet, "/reports/sender", nil).Code)

	rr := f.do(t, sess, http.MethodGet, "/reports/sender/rows/S-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "C-1")
	assert.Contains(t, body, "Books")

	rr = f.do(t, sess, http.MethodGet, "/reports/sender/rows/S-2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No consignments found")

	rr = f.do(t, sess, http.MethodGet, "/reports/sender/rows/S-404", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDrilldownWithoutLoadedTable(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, &shared.Session{ID: "fresh"}, http.MethodGet, "/reports/sender/rows/S-1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExportAllStartsJob(t *testing.T) {
	f := newFixture(t)
	sess := &shared.Session{ID: "s1"}
	sess.SetToken("tok")
	sess.SetUser("admin-1")
	form := url.Values{"format": {"xlsx"}, "q": {" anita "}, "status": {"Completed"}}
	rr := f.do(t, sess, http.MethodPost, "/reports/sender/export-all", form)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/exports/exp-1", rr.Header().Get("Location"))

	require.Len(t, f.exports.reqs, 1)
	req := f.exports.reqs[0]
	assert.Equal(t, report.Sender, req.Report)
	assert.Equal(t, "xlsx", req.Format)
	assert.Equal(t, "tok", req.Token)
	assert.Equal(t, "anita", req.Search)
	assert.Equal(t, "Completed", req.Status)
	assert.Equal(t, "admin-1", req.RequestedBy)
}

func TestExportAllRejectsBadFormat(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, &shared.Session{ID: "s1"}, http.MethodPost, "/reports/sender/export-all", url.Values{"format": {"txt"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, f.exports.reqs)
}

func TestExportAllRequiresAdminIdentity(t *testing.T) {
	f := newFixture(t)
	sess := &shared.Session{ID: "s1"}
	sess.SetToken("tok")
	rr := f.do(t, sess, http.MethodPost, "/reports/sender/export-all", url.Values{"format": {"csv"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/reports/sender", rr.Header().Get("Location"))
	assert.Empty(t, f.exports.reqs)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "error", flash.Kind)
}

func TestReturnPath(t *testing.T) {
	assert.Equal(t, "/drivers?page=2", reporthttp.ReturnPath("/drivers?page=2", "/drivers"))
	assert.Equal(t, "/drivers", reporthttp.ReturnPath("/drivers", "/drivers"))
	assert.Equal(t, "/drivers", reporthttp.ReturnPath("https://evil.example/drivers", "/drivers"))
	assert.Equal(t, "/drivers", reporthttp.ReturnPath("/driversx", "/drivers"))
	assert.Equal(t, "/drivers", reporthttp.ReturnPath("", "/drivers"))
}
