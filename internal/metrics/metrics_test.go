package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginSuccess()
	c.RecordLoginSuccess()
	c.RecordLoginFailure()
	c.RecordTaskOperation("create")
	c.RecordTaskOperation("create")
	c.RecordTaskOperation("delete")
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := testutil.ToFloat64(c.loginSuccess); got != 2 {
		t.Errorf("login_success_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.loginFail); got != 1 {
		t.Errorf("login_fail_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.taskOps.WithLabelValues("create")); got != 2 {
		t.Errorf("task_operations_total{op=create} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.taskOps.WithLabelValues("delete")); got != 1 {
		t.Errorf("task_operations_total{op=delete} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("http_status_total{status_code=404} = %v, want 1", got)
	}
}

func TestNewHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginSuccess()
	c.RecordRequestLatency(50 * time.Millisecond)

	rec := httptest.NewRecorder()
	NewHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, name := range []string{
		"taskboard_login_success_total",
		"taskboard_request_latency_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("メトリクス %s が公開されていない", name)
		}
	}
}
