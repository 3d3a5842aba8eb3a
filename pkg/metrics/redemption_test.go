package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRedemptionMetricsCountsByResult(t *testing.T) {
	m := NewRedemptionMetrics(prometheus.NewRegistry())
	m.IncOutcome("success")
	m.IncOutcome("success")
	m.IncOutcome("cap_reached")

	if got := testutil.ToFloat64(m.outcomes.WithLabelValues("success")); got != 2 {
		t.Fatalf("expected success=2, got %v", got)
	}
	if got := testutil.ToFloat64(m.outcomes.WithLabelValues("cap_reached")); got != 1 {
		t.Fatalf("expected cap_reached=1, got %v", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var redemption *RedemptionMetrics
	redemption.IncOutcome("success")
	NewRedemptionMetrics(nil).IncOutcome("success")
	NewOutboxMetrics(nil).IncPublished("redemption.recorded")
	NewCronJobMetrics(nil).ObserveRun("token_expiry", time.Second, nil)
}

func TestOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("merchant.deleted")
	m.IncFailed("merchant.deleted")
	m.IncFailed("")
	m.SetBatchSize(3)

	if got := testutil.ToFloat64(m.published.WithLabelValues("merchant.deleted")); got != 1 {
		t.Fatalf("expected published=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.failed.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected unknown failure=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.backlog); got != 3 {
		t.Fatalf("expected batch size 3, got %v", got)
	}
	if n := testutil.CollectAndCount(reg, "boost_outbox_publish_failures_total"); n != 2 {
		t.Fatalf("expected two failure series, got %d", n)
	}
}
