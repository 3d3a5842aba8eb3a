package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("token_expiry", 250*time.Millisecond, nil)
	m.ObserveRun("token_expiry", 10*time.Millisecond, errors.New("db down"))
	m.ObserveRun("", time.Millisecond, nil)

	if got := testutil.ToFloat64(m.runs.WithLabelValues("token_expiry", "success")); got != 1 {
		t.Fatalf("success runs = %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("token_expiry", "failure")); got != 1 {
		t.Fatalf("failure runs = %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("unknown", "success")); got != 1 {
		t.Fatalf("empty job name should map to unknown, got %v", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess.WithLabelValues("token_expiry")); got <= 0 {
		t.Fatalf("expected last success timestamp, got %v", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	hist := findHistogram(mfs, "boost_cron_job_duration_seconds", "token_expiry")
	if hist == nil || hist.GetSampleCount() != 2 {
		t.Fatalf("expected two duration samples, got %v", hist)
	}
}

func TestCronJobMetricsSkipped(t *testing.T) {
	m := NewCronJobMetrics(prometheus.NewRegistry())
	m.IncSkipped()
	m.IncSkipped()
	if got := testutil.ToFloat64(m.skipped); got != 2 {
		t.Fatalf("skipped = %v", got)
	}

	var none *CronJobMetrics
	none.IncSkipped()
	none.ObserveRun("x", time.Second, nil)
}

func findHistogram(mfs []*dto.MetricFamily, name, job string) *dto.Histogram {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "job" && label.GetValue() == job {
					return metric.GetHistogram()
				}
			}
		}
	}
	return nil
}
