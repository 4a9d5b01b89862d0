package fare_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/fare"
	"github.com/travelearn/tne-admin/internal/shared"
	"github.com/travelearn/tne-admin/internal/view"
)

type fareBackend struct {
	mu      sync.Mutex
	current backend.FareConfig
	puts    int
	reply   string
	status  int
}

func (b *fareBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/admin/getFareDetails":
		_ = json.NewEncoder(w).Encode(b.current)
	case r.Method == http.MethodPut && r.URL.Path == "/admin/updateFareDetails":
		b.puts++
		if b.status != 0 {
			w.WriteHeader(b.status)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&b.current); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reply := b.reply
		if reply == "" {
			reply = `{"success":true,"message":"ok"}`
		}
		_, _ = w.Write([]byte(reply))
	default:
		http.NotFound(w, r)
	}
}

func sampleConfig() backend.FareConfig {
	return backend.FareConfig{
		TE:                   1.5,
		DeliveryFee:          40,
		Margin:               0.12,
		WeightRateTrain:      2,
		WeightRateAirplane:   5.25,
		DistanceRateAirplane: 7,
		DistanceRateTrain:    backend.DistanceRateTrain{Base: 1, Mid: 0.8, High: 0.6},
	}
}

func newRouter(t *testing.T, b *fareBackend) http.Handler {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api, err := backend.NewClient(srv.URL, backend.WithLogger(logger))
	require.NoError(t, err)
	templates, err := view.NewEngine()
	require.NoError(t, err)

	h := fare.NewHandler(logger, templates, api, shared.NewCSRFManager("secret"))
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func validForm() url.Values {
	form := url.Values{}
	form.Set("te", "2")
	form.Set("delivery_fee", "45.5")
	form.Set("margin", "0.1")
	form.Set("weight_rate_train", "3")
	form.Set("weight_rate_airplane", "6")
	form.Set("distance_rate_airplane", "8")
	form.Set("distance_rate_train_base", "1.1")
	form.Set("distance_rate_train_mid", "0.9")
	form.Set("distance_rate_train_high", "0")
	return form
}

func post(router http.Handler, sess *shared.Session, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/fare", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestShowFareDisplaysCurrency(t *testing.T) {
	router := newRouter(t, &fareBackend{current: sampleConfig()})
	req := httptest.NewRequest(http.MethodGet, "/fare", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), &shared.Session{ID: "s1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Delivery Fee")
	assert.Contains(t, body, "₹40.00")
	assert.Contains(t, body, "Distance Rate Train High")
	assert.Contains(t, body, "₹0.60")
}

func TestEditPrefillsExactValues(t *testing.T) {
	router := newRouter(t, &fareBackend{current: sampleConfig()})
	req := httptest.NewRequest(http.MethodGet, "/fare/edit", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), &shared.Session{ID: "s1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `name="weight_rate_airplane"`)
	assert.Contains(t, body, `value="5.25"`)
	assert.Contains(t, body, `value="0.12"`)
}

func TestUpdateSuccessRedirectsWithFlash(t *testing.T) {
	b := &fareBackend{current: sampleConfig()}
	router := newRouter(t, b)
	sess := &shared.Session{ID: "s1"}

	rr := post(router, sess, validForm())

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/fare", rr.Header().Get("Location"))
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Pricing updated successfully!", flash.Message)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, 1, b.puts)
	assert.InDelta(t, 45.5, b.current.DeliveryFee, 1e-9)
	assert.InDelta(t, 0.9, b.current.DistanceRateTrain.Mid, 1e-9)
	assert.Zero(t, b.current.DistanceRateTrain.High)
}

func TestUpdateRejectsInvalidValuesBeforeRequest(t *testing.T) {
	b := &fareBackend{current: sampleConfig()}
	router := newRouter(t, b)

	for name, value := range map[string]string{
		"negative": "-1",
		"text":     "abc",
		"empty":    "",
		"infinite": "Inf",
		"nan":      "NaN",
	} {
		t.Run(name, func(t *testing.T) {
			form := validForm()
			form.Set("margin", value)
			rr := post(router, &shared.Session{ID: "s1"}, form)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Contains(t, rr.Body.String(), `name="margin"`)
		})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Zero(t, b.puts)
}

func TestUpdateFailureKeepsDraft(t *testing.T) {
	b := &fareBackend{current: sampleConfig(), reply: `{"success":false,"message":"locked"}`}
	router := newRouter(t, b)

	rr := post(router, &shared.Session{ID: "s1"}, validForm())

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Update failed. Please try again.")
	assert.Contains(t, body, `value="45.5"`)
}

func TestUpdateBackendErrorShowsMessage(t *testing.T) {
	b := &fareBackend{current: sampleConfig(), status: http.StatusInternalServerError}
	router := newRouter(t, b)

	rr := post(router, &shared.Session{ID: "s1"}, validForm())

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Error updating pricing.")
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), &shared.Session{ID: "s1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestUpdateThenShowRoundTripsEveryField(t *testing.T) {
	b := &fareBackend{current: sampleConfig()}
	router := newRouter(t, b)

	submitted := []struct {
		name, label, raw, shown string
	}{
		{"te", "TE", "2.25", "₹2.25"},
		{"delivery_fee", "Delivery Fee", "1234.5", "₹1,234.50"},
		{"margin", "Margin", "0.15", "₹0.15"},
		{"weight_rate_train", "Weight Rate Train", "3.75", "₹3.75"},
		{"weight_rate_airplane", "Weight Rate Airplane", "6.5", "₹6.50"},
		{"distance_rate_airplane", "Distance Rate Airplane", "8.05", "₹8.05"},
		{"distance_rate_train_base", "Distance Rate Train Base", "1.2", "₹1.20"},
		{"distance_rate_train_mid", "Distance Rate Train Mid", "0.95", "₹0.95"},
		{"distance_rate_train_high", "Distance Rate Train High", "0.7", "₹0.70"},
	}
	form := url.Values{}
	for _, f := range submitted {
		form.Set(f.name, f.raw)
	}
	require.Equal(t, http.StatusSeeOther, post(router, &shared.Session{ID: "s1"}, form).Code)

	rr := get(router, "/fare")
	require.Equal(t, http.StatusOK, rr.Code)
	shown := rr.Body.String()
	rr = get(router, "/fare/edit")
	require.Equal(t, http.StatusOK, rr.Code)
	edit := rr.Body.String()
	for _, f := range submitted {
		assert.Contains(t, shown, "<dt>"+f.label+"</dt><dd>"+f.shown+"</dd>", f.name)
		assert.Contains(t, edit, `value="`+f.raw+`"`, f.name)
	}
}

func TestUpdateSendsNegativeZeroAsZero(t *testing.T) {
	b := &fareBackend{current: sampleConfig()}
	router := newRouter(t, b)
	form := validForm()
	form.Set("margin", "-0")

	require.Equal(t, http.StatusSeeOther, post(router, &shared.Session{ID: "s1"}, form).Code)
	b.mu.Lock()
	defer b.mu.Unlock()
	assert.False(t, math.Signbit(b.current.Margin))
}

func TestDraftRoundTrip(t *testing.T) {
	cfg := sampleConfig()
	draft := fare.DraftFromConfig(cfg)
	assert.Empty(t, draft.Validate(fare.NewValidator()))

	got, err := draft.Config()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidateReportsFieldNames(t *testing.T) {
	draft := fare.DraftFromConfig(sampleConfig())
	draft.TE = ""
	draft.DistanceRateTrainBase = "-0.5"

	errs := draft.Validate(fare.NewValidator())
	assert.Equal(t, "This field is required.", errs["te"])
	assert.Equal(t, "Enter a non-negative number.", errs["distance_rate_train_base"])
	assert.Len(t, errs, 2)
}
