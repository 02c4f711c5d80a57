package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/delivery-eta-service/internal/adapter/http"
	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/couchcryptid/delivery-eta-service/internal/observability"
	"github.com/couchcryptid/delivery-eta-service/internal/pipeline"
	"github.com/couchcryptid/delivery-eta-service/internal/refdata"
	"github.com/couchcryptid/delivery-eta-service/internal/session"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPredictor struct {
	eta   float64
	err   error
	ready error
}

func (m *mockPredictor) Predict(_ context.Context, _ domain.OrderFeatures) (float64, error) {
	return m.eta, m.err
}

func (m *mockPredictor) CheckReadiness(_ context.Context) error { return m.ready }

func testReference() refdata.Reference {
	zips, stats := domain.NewZipTable([]domain.ZipRow{
		{Prefix: "1001", City: "sao paulo", State: "SP", Lat: "-23.55", Lng: "-46.63"},
		{Prefix: "20040", City: "rio de janeiro", State: "RJ", Lat: "-22.90", Lng: "-43.20"},
	})
	return refdata.Reference{
		Catalog: domain.NewCatalog(
			[]string{"sao paulo", "rio de janeiro", "curitiba"},
			[]string{"bed_bath_table", "health_beauty", "toys"},
			domain.Coordinates{Lat: -23.23, Lng: -46.63},
		),
		Zips:     zips,
		ZipStats: stats,
	}
}

func newTestServerWith(ref refdata.Reference, pred *mockPredictor) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	est := pipeline.New(ref, domain.FeatureSchema{}, pred, nil, logger, metrics)
	return httpadapter.NewServer(":0", est, session.NewStore(10, metrics), logger)
}

func newTestServer(readyErr error) *httpadapter.Server {
	return newTestServerWith(testReference(), &mockPredictor{eta: 7.5, ready: readyErr})
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type sessionBody struct {
	Session struct {
		ID       string               `json:"id"`
		Location domain.LocationState `json:"location"`
	} `json:"session"`
	Advisory string `json:"advisory"`
}

func createSession(t *testing.T, srv http.Handler) sessionBody {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[sessionBody](t, rec)
}

// --- operational endpoints ---

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(t, newTestServer(fmt.Errorf("model artifact missing")), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "model artifact missing", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- reference data ---

func TestOptions(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/api/v1/options", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		CatalogLoaded   bool               `json:"catalog_loaded"`
		Cities          []string           `json:"cities"`
		Categories      []string           `json:"categories"`
		States          []string           `json:"states"`
		Defaults        domain.Coordinates `json:"defaults"`
		DefaultOrder    domain.OrderFields `json:"default_order"`
		ZipTableEntries int                `json:"zip_table_entries"`
		Columns         []string           `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.CatalogLoaded)
	assert.Equal(t, []string{"curitiba", "rio de janeiro", "sao paulo"}, body.Cities)
	assert.Len(t, body.States, 27)
	assert.Equal(t, domain.Coordinates{Lat: -23.23, Lng: -46.63}, body.Defaults)
	assert.Equal(t, 2, body.DefaultOrder.TotalItems)
	assert.Equal(t, 2, body.ZipTableEntries)
	assert.Len(t, body.Columns, 14)
}

func TestOptions_AbsentCatalog(t *testing.T) {
	srv := newTestServerWith(refdata.Reference{Catalog: domain.CatalogAbsent{}}, &mockPredictor{})
	rec := do(t, srv, http.MethodGet, "/api/v1/options", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["catalog_loaded"])
	assert.Equal(t, []any{}, body["cities"])
	assert.InDelta(t, 0, body["zip_table_entries"], 0)
}

func TestResolve(t *testing.T) {
	srv := newTestServer(nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/zip/20040", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Match    domain.LocationMatch `json:"match"`
		Advisory string               `json:"advisory"`
	}](t, rec)
	assert.True(t, body.Match.Found)
	assert.Equal(t, "rio de janeiro", body.Match.Location.City)
	assert.Contains(t, body.Advisory, "rio de janeiro (RJ)")

	rec = do(t, srv, http.MethodGet, "/api/v1/zip/99999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"found":false`)
	assert.Contains(t, rec.Body.String(), "not found")

	for _, bad := range []string{"abc", "-1", "100000"} {
		rec = do(t, srv, http.MethodGet, "/api/v1/zip/"+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

// --- sessions ---

func TestSession_CreateAndGet(t *testing.T) {
	srv := newTestServer(nil)
	created := createSession(t, srv)

	assert.NotEmpty(t, created.Session.ID)
	assert.Equal(t, domain.DefaultZipPrefix, created.Session.Location.ZipPrefix)
	assert.InDelta(t, -23.23, created.Session.Location.Lat, 1e-9)

	rec := do(t, srv, http.MethodGet, "/api/v1/sessions/"+created.Session.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Session.ID, decode[sessionBody](t, rec).Session.ID)

	rec = do(t, srv, http.MethodGet, "/api/v1/sessions/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_Delete(t *testing.T) {
	srv := newTestServer(nil)
	id := createSession(t, srv).Session.ID

	rec := do(t, srv, http.MethodDelete, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_SetZip(t *testing.T) {
	srv := newTestServer(nil)
	id := createSession(t, srv).Session.ID

	rec := do(t, srv, http.MethodPut, "/api/v1/sessions/"+id+"/zip", `{"zip_code_prefix":20040}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[sessionBody](t, rec)
	assert.Equal(t, "rio de janeiro", body.Session.Location.City)
	assert.Equal(t, "RJ", body.Session.Location.State)
	assert.Contains(t, body.Advisory, "found")

	rec = do(t, srv, http.MethodPut, "/api/v1/sessions/"+id+"/zip", `{"zip_code_prefix":99999}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[sessionBody](t, rec)
	assert.Equal(t, 99999, body.Session.Location.ZipPrefix)
	assert.Equal(t, "rio de janeiro", body.Session.Location.City, "a miss keeps the previous location")
	assert.Contains(t, body.Advisory, "not found")
}

func TestSession_SetZipValidation(t *testing.T) {
	srv := newTestServer(nil)
	id := createSession(t, srv).Session.ID

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing field", `{}`, "zip_code_prefix"},
		{"negative", `{"zip_code_prefix":-5}`, "zip_code_prefix"},
		{"six digits", `{"zip_code_prefix":100000}`, "zip_code_prefix"},
		{"unknown field", `{"zip":1001}`, ""},
		{"not json", `zip=1001`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPut, "/api/v1/sessions/"+id+"/zip", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			if tt.field != "" {
				body := decode[map[string]any](t, rec)
				fields, ok := body["fields"].(map[string]any)
				require.True(t, ok, rec.Body.String())
				assert.Contains(t, fields, tt.field)
			}
		})
	}
}

func TestSession_EditLocation(t *testing.T) {
	srv := newTestServer(nil)
	id := createSession(t, srv).Session.ID
	path := "/api/v1/sessions/" + id

	rec := do(t, srv, http.MethodPatch, path+"/location", `{"city":"curitiba","state":"PR"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPut, path+"/advanced", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[sessionBody](t, rec).Session.Location.Advanced)

	rec = do(t, srv, http.MethodPatch, path+"/location", `{"city":"Curitiba","state":"pr","lat":-25.43,"lng":-49.27}`)
	require.Equal(t, http.StatusOK, rec.Code)
	loc := decode[sessionBody](t, rec).Session.Location
	assert.Equal(t, "curitiba", loc.City)
	assert.Equal(t, "PR", loc.State)
	assert.InDelta(t, -25.43, loc.Lat, 1e-9)

	rec = do(t, srv, http.MethodPatch, path+"/location", `{"state":"XX"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, srv, http.MethodPatch, path+"/location", `{"city":"gotham"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, srv, http.MethodPatch, path+"/location", `{"lat":123}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, path, "")
	assert.Equal(t, "curitiba", decode[sessionBody](t, rec).Session.Location.City, "failed edits leave the session untouched")

	rec = do(t, srv, http.MethodPut, path+"/advanced", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- preview and predict ---

func TestSession_Preview(t *testing.T) {
	srv := newTestServer(nil)
	id := createSession(t, srv).Session.ID
	do(t, srv, http.MethodPut, "/api/v1/sessions/"+id+"/zip", `{"zip_code_prefix":1001}`)

	rec := do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/preview", `{"total_items":3,"main_product_category":"toys"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	f := decode[domain.OrderFeatures](t, rec)
	assert.Equal(t, 1001, f.ZipCodePrefix)
	assert.Equal(t, "sao paulo", f.CustomerCity)
	assert.Equal(t, 3, f.TotalItems)
	assert.Equal(t, "toys", f.MainProductCategory)
	assert.InDelta(t, 25.0, f.TotalFreight, 1e-9, "omitted fields keep form defaults")
	assert.Nil(t, f.OrderStatus)
}

func TestSession_PreviewValidation(t *testing.T) {
	srv := newTestServer(nil)
	id := createSession(t, srv).Session.ID

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero items", `{"total_items":0}`, "total_items"},
		{"hour out of range", `{"purchase_hour":24}`, "purchase_hour"},
		{"weekday out of range", `{"purchase_weekday":7}`, "purchase_weekday"},
		{"negative freight", `{"total_freight":-1}`, "total_freight"},
		{"zero installments", `{"payment_installments":0}`, "payment_installments"},
		{"unknown category", `{"main_product_category":"spaceships"}`, "main_product_category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/preview", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"`+tt.field+`"`)
		})
	}
}

func TestSession_Predict(t *testing.T) {
	srv := newTestServer(nil)
	id := createSession(t, srv).Session.ID

	rec := do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/predict", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		EtaDays  float64              `json:"eta_days"`
		Features domain.OrderFeatures `json:"features"`
	}](t, rec)
	assert.InDelta(t, 7.5, body.EtaDays, 1e-9)
	assert.Equal(t, domain.DefaultCategory, body.Features.MainProductCategory)
}

func TestSession_PredictFailure(t *testing.T) {
	pred := &mockPredictor{err: fmt.Errorf("%w: missing [order_status]", domain.ErrSchemaMismatch)}
	srv := newTestServerWith(testReference(), pred)
	id := createSession(t, srv).Session.ID

	rec := do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/predict", `{}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "prediction failed", body["error"])
	assert.Contains(t, body["detail"], "order_status")
	assert.Contains(t, body, "features")

	// The session survives a failed prediction and a retry succeeds.
	pred.err = nil
	pred.eta = 4
	rec = do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/predict", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSession_PredictUnknownSession(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/api/v1/sessions/nope/predict", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- HTML form ---

func postForm(t *testing.T, srv http.Handler, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.ServeHTTP(rec, req)
	return rec
}

func TestForm_Get(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	html := rec.Body.String()
	assert.Contains(t, html, `name="zip_code_prefix"`)
	assert.Contains(t, html, "<option selected>bed_bath_table</option>")
	assert.NotContains(t, html, "Estimated delivery time:")
}

func TestForm_GetFreeTextWithoutCatalog(t *testing.T) {
	srv := newTestServerWith(refdata.Reference{Catalog: domain.CatalogAbsent{}}, &mockPredictor{})
	rec := do(t, srv, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<input id="main_product_category" name="main_product_category" value="bed_bath_table">`)
	assert.Contains(t, rec.Body.String(), "zip lookup table not loaded")
}

var sessionIDField = regexp.MustCompile(`name="session_id" value="([^"]+)"`)

// formSessionID returns the session id the page carries in its hidden field.
func formSessionID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	m := sessionIDField.FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2, "page has no session_id field")
	return m[1]
}

// startForm loads the page and returns its session id.
func startForm(t *testing.T, srv http.Handler) string {
	t.Helper()
	rec := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	return formSessionID(t, rec)
}

func TestForm_LookupAndPredict(t *testing.T) {
	srv := newTestServer(nil)
	id := startForm(t, srv)

	rec := postForm(t, srv, url.Values{"session_id": {id}, "zip_code_prefix": {"20040"}, "action": {"lookup"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "autocompleted rio de janeiro (RJ)")
	assert.NotContains(t, rec.Body.String(), "Estimated delivery time:")
	assert.Equal(t, id, formSessionID(t, rec))

	rec = postForm(t, srv, url.Values{
		"session_id":      {id},
		"zip_code_prefix": {"20040"},
		"total_items":     {"4"},
		"action":          {"predict"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Estimated delivery time: <strong>7.50 days</strong>")
	assert.Contains(t, rec.Body.String(), "<td>customer_city</td><td>rio de janeiro</td>")
}

func TestForm_MissKeepsPreviousLocation(t *testing.T) {
	srv := newTestServer(nil)
	id := startForm(t, srv)

	rec := postForm(t, srv, url.Values{"session_id": {id}, "zip_code_prefix": {"20040"}, "action": {"lookup"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postForm(t, srv, url.Values{"session_id": {id}, "zip_code_prefix": {"99999"}, "action": {"lookup"}})
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "zip prefix not found")
	assert.Contains(t, html, "<td>customer_zip_code_prefix</td><td>99999</td>")
	assert.Contains(t, html, "<td>customer_city</td><td>rio de janeiro</td>")
	assert.Contains(t, html, "<td>geo_lat</td><td>-22.9</td>")
}

func TestForm_AdvancedEdit(t *testing.T) {
	srv := newTestServer(nil)
	id := startForm(t, srv)

	rec := postForm(t, srv, url.Values{
		"session_id":      {id},
		"zip_code_prefix": {"99999"},
		"advanced":        {"on"},
		"action":          {"lookup"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="lat"`)

	rec = postForm(t, srv, url.Values{
		"session_id":      {id},
		"zip_code_prefix": {"99999"},
		"advanced":        {"on"},
		"city":            {"curitiba"},
		"state":           {"PR"},
		"lat":             {"-25.43"},
		"lng":             {"-49.27"},
		"action":          {"predict"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "zip prefix not found")
	assert.Contains(t, html, "<td>customer_state</td><td>PR</td>")
	assert.Contains(t, html, "lat=-25.430000")
	assert.Contains(t, html, "Estimated delivery time:")
}

func TestForm_PrefixHitReplacesAdvancedFields(t *testing.T) {
	srv := newTestServer(nil)
	id := startForm(t, srv)

	rec := postForm(t, srv, url.Values{
		"session_id":      {id},
		"zip_code_prefix": {"20040"},
		"advanced":        {"on"},
		"action":          {"lookup"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="-22.900000"`)

	// The browser re-sends the rio fields rendered above along with the new prefix.
	rec = postForm(t, srv, url.Values{
		"session_id":      {id},
		"zip_code_prefix": {"1001"},
		"advanced":        {"on"},
		"city":            {"rio de janeiro"},
		"state":           {"RJ"},
		"lat":             {"-22.900000"},
		"lng":             {"-43.200000"},
		"action":          {"lookup"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "autocompleted sao paulo (SP)")
	assert.Contains(t, html, "<td>customer_city</td><td>sao paulo</td>")
	assert.Contains(t, html, "<td>customer_state</td><td>SP</td>")
	assert.Contains(t, html, "<td>geo_lat</td><td>-23.55</td>")

	// Re-posting the page unchanged keeps the autocompleted location.
	rec = postForm(t, srv, url.Values{
		"session_id":      {id},
		"zip_code_prefix": {"1001"},
		"advanced":        {"on"},
		"city":            {"sao paulo"},
		"state":           {"SP"},
		"lat":             {"-23.550000"},
		"lng":             {"-46.630000"},
		"action":          {"lookup"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>geo_lat</td><td>-23.55</td>")
}

func TestForm_UnknownSessionStartsFresh(t *testing.T) {
	srv := newTestServer(nil)

	rec := postForm(t, srv, url.Values{"session_id": {"expired"}, "action": {"lookup"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "expired", formSessionID(t, rec))
	assert.Contains(t, rec.Body.String(), "<td>customer_city</td><td>sao paulo</td>")
}

func TestForm_PrefixOutOfRange(t *testing.T) {
	srv := newTestServer(nil)
	id := startForm(t, srv)

	rec := postForm(t, srv, url.Values{"session_id": {id}, "zip_code_prefix": {"100000"}, "action": {"lookup"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "between 0 and 99999")
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`value="%d"`, domain.DefaultZipPrefix))
}

func TestForm_RenderDoesNotCountLookups(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	est := pipeline.New(testReference(), domain.FeatureSchema{}, &mockPredictor{}, nil, logger, metrics)
	srv := httpadapter.NewServer(":0", est, session.NewStore(10, metrics), logger)

	id := startForm(t, srv)
	for range 3 {
		postForm(t, srv, url.Values{"session_id": {id}, "zip_code_prefix": {"20040"}, "action": {"lookup"}})
	}
	do(t, srv, http.MethodPost, "/api/v1/sessions", "")

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ZipLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.ZipLookups.WithLabelValues("miss")), 0)
}

func TestForm_ValidationErrors(t *testing.T) {
	srv := newTestServer(nil)

	rec := postForm(t, srv, url.Values{"total_items": {"0"}, "purchase_hour": {"x"}, "action": {"predict"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be a whole number")
	assert.NotContains(t, rec.Body.String(), "Estimated delivery time:")
}

func TestForm_PredictError(t *testing.T) {
	srv := newTestServerWith(testReference(), &mockPredictor{err: errors.New("connection refused")})

	rec := postForm(t, srv, url.Values{"action": {"predict"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Prediction failed.")
	assert.Contains(t, rec.Body.String(), "connection refused")
}
