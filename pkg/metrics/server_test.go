package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestWorkerHandlerServesMetricsAndLiveness(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCronJobMetrics(reg).ObserveRun("token_expiry", time.Second, nil)
	h := WorkerHandler(reg, "cron-worker")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `boost_cron_job_runs_total{job="token_expiry",result="success"} 1`) {
		t.Fatalf("missing cron series:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "cron-worker ok") {
		t.Fatalf("liveness: %d %q", rec.Code, rec.Body.String())
	}
}
