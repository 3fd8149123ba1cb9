package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	handler := Middleware()(mux)

	req := httptest.NewRequest("GET", "/api/test", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/test", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_UnmatchedPath(t *testing.T) {
	mux := http.NewServeMux()
	handler := Middleware()(mux)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/nowhere", http.NoBody))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404")); v < 1 {
		t.Errorf("expected unmatched request to be counted under unknown, got %f", v)
	}
}

type countingWriter struct {
	*httptest.ResponseRecorder
	headerCalls int
}

func (w *countingWriter) WriteHeader(status int) {
	w.headerCalls++
	w.ResponseRecorder.WriteHeader(status)
}

func TestMetricsMiddleware_ForwardsFirstWriteHeaderOnly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/twice", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("failed"))
	})
	handler := Middleware()(mux)

	cw := &countingWriter{ResponseRecorder: httptest.NewRecorder()}
	handler.ServeHTTP(cw, httptest.NewRequest("GET", "/api/twice", http.NoBody))

	if cw.headerCalls != 1 {
		t.Fatalf("expected one WriteHeader to reach the writer, got %d", cw.headerCalls)
	}
	if cw.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", cw.Code)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/twice", "500")); v < 1 {
		t.Errorf("expected request counted under its first status, got %f", v)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/twice", "200")); v != 0 {
		t.Errorf("expected no request counted under the later status, got %f", v)
	}
}
