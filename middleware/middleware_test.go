package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediacatalog/logging"
	"mediacatalog/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestRequestID_Upstream(t *testing.T) {
	handler := RequestID(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "upstream-id", rr.Header().Get(RequestIDHeader))
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Output: &buf})
	defer logging.Init(logging.Config{})

	handler := RequestID(AccessLog(http.HandlerFunc(okHandler)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/media/3", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	out := buf.String()
	assert.Contains(t, out, `"method":"DELETE"`)
	assert.Contains(t, out, `"path":"/media/3"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"request_id"`)
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics)
	router.HandleFunc("/metrics-test/{id}", okHandler).Methods(http.MethodGet)

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/metrics-test/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/metrics-test/1", "/metrics-test/2"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusTeapot, rr.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	handler := CORS()(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS()(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/media/1", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.NotEqual(t, http.StatusTeapot, rr.Code)
}
