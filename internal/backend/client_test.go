package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (o *recordingObserver) ObserveBackend(endpoint, outcome string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string]string)
	}
	o.outcomes[endpoint] = outcome
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	client, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return client
}

func TestReportSendsHeadersAndPaging(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"data":[{"senderId":"S1","totalAmount":1250.5}],"pagination":{"currentPage":2,"totalPages":3,"totalRecords":21,"recordsPerPage":10}}`))
	})

	page, err := client.Authed("tok-1").Report(context.Background(), ReportSender, 2, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/report/sender-report", got.URL.Path)
	assert.Equal(t, "2", got.URL.Query().Get("page"))
	assert.Equal(t, "10", got.URL.Query().Get("limit"))
	assert.Equal(t, "Bearer tok-1", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))

	require.Len(t, page.Data, 1)
	assert.Equal(t, json.Number("1250.5"), page.Data[0]["totalAmount"])
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, 21, page.Pagination.TotalRecords)
}

func TestReportOmitsZeroPaging(t *testing.T) {
	var rawQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[],"pagination":{}}`))
	})
	_, err := client.Authed("").Report(context.Background(), ReportTraveler, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, rawQuery)
}

func TestEmptyTokenStillSendsHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"no token"}`))
	})
	_, err := client.Authed("").DashboardStats(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "no token")
}

func TestMalformedResponse(t *testing.T) {
	observer := &recordingObserver{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}, WithObserver(observer))
	_, err := client.Authed("t").TotalUsers(context.Background())
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, "malformed", observer.outcomes["total-users"])
}

func TestTransportErrorReturnedUnmodified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	client, err := NewClient(base, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	_, err = client.Authed("t").TotalEarnings(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestUpdateFareDetailsSendsFullRecord(t *testing.T) {
	want := FareConfig{
		TE: 1.5, DeliveryFee: 40, Margin: 12.25,
		WeightRateTrain: 3, WeightRateAirplane: 9.75, DistanceRateAirplane: 4.1,
		DistanceRateTrain: DistanceRateTrain{Base: 1, Mid: 2, High: 3.5},
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/admin/updateFareDetails", r.URL.Path)
		var got FareConfig
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, want, got)
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	res, err := client.Authed("t").UpdateFareDetails(context.Background(), want)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestTravelSummariesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "3", q.Get("page"))
		assert.Equal(t, "15", q.Get("limit"))
		assert.Equal(t, "ravi", q.Get("driverName"))
		assert.Equal(t, "", q.Get("date"))
		assert.True(t, q.Has("search"))
		_, _ = w.Write([]byte(`{"data":[{"travelId":"T1"}],"pagination":{"total":31}}`))
	})
	out, err := client.Authed("t").TravelSummaries(context.Background(), 3, 15, TravelSummaryFilter{DriverName: "ravi"})
	require.NoError(t, err)
	assert.Equal(t, 31, out.Pagination.Total)
}

func TestLoginUsesConfiguredPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/admin", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ops@tne.local", body.Email)
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}, WithLoginPath("/auth/admin"))
	token, err := client.Login(context.Background(), "ops@tne.local", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestDeletePathsEscapeIDs(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})
	authed := client.Authed("t")
	require.NoError(t, authed.DeleteDriver(context.Background(), "d 1"))
	require.NoError(t, authed.DeleteAdmin(context.Background(), "a/2"))
	assert.Equal(t, []string{"/editp/delete/d%201", "/admin/deleteAdmin/a%2F2"}, paths)
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient("localhost:5002")
	require.Error(t, err)
}
