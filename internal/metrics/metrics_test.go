package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, registry *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}
	return string(body)
}

func TestCollector_RecordHTTPStatus_CountsByCode(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	body := scrape(t, registry)
	if !strings.Contains(body, `miniblog_http_status_total{status_code="200"} 2`) {
		t.Errorf("expected 2 responses with status 200, got:\n%s", body)
	}
	if !strings.Contains(body, `miniblog_http_status_total{status_code="404"} 1`) {
		t.Errorf("expected 1 response with status 404, got:\n%s", body)
	}
}

func TestCollector_RecordRequestLatency_ObservesHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordRequestLatency(50 * time.Millisecond)

	body := scrape(t, registry)
	if !strings.Contains(body, "miniblog_request_latency_seconds_count 1") {
		t.Errorf("expected 1 latency observation, got:\n%s", body)
	}
}

func TestCollector_BusinessCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordLoginSuccess()
	c.RecordLoginFailure()
	c.RecordLoginFailure()
	c.RecordRegistration()
	c.RecordPostCreated()
	c.RecordCommentCreated()

	body := scrape(t, registry)
	tests := []struct {
		metric string
		want   string
	}{
		{"miniblog_login_success_total", "miniblog_login_success_total 1"},
		{"miniblog_login_failure_total", "miniblog_login_failure_total 2"},
		{"miniblog_registrations_total", "miniblog_registrations_total 1"},
		{"miniblog_posts_created_total", "miniblog_posts_created_total 1"},
		{"miniblog_comments_created_total", "miniblog_comments_created_total 1"},
	}
	for _, tt := range tests {
		if !strings.Contains(body, tt.want) {
			t.Errorf("metric %s: expected %q in scrape output", tt.metric, tt.want)
		}
	}
}

func TestHTTPMiddleware_RecordsStatusAndLatency(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	handler := NewHTTPMiddleware(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	body := scrape(t, registry)
	if !strings.Contains(body, `miniblog_http_status_total{status_code="404"} 1`) {
		t.Errorf("expected status 404 to be recorded, got:\n%s", body)
	}
	if !strings.Contains(body, "miniblog_request_latency_seconds_count 1") {
		t.Errorf("expected latency to be recorded, got:\n%s", body)
	}
}

// WriteHeader未呼び出しのハンドラーは200として記録されること
func TestHTTPMiddleware_ImplicitOK_Records200(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	handler := NewHTTPMiddleware(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	body := scrape(t, registry)
	if !strings.Contains(body, `miniblog_http_status_total{status_code="200"} 1`) {
		t.Errorf("expected status 200 to be recorded, got:\n%s", body)
	}
}
