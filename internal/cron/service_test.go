package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/multierr"

	"github.com/angelmondragon/boost-backend/pkg/logger"
	"github.com/angelmondragon/boost-backend/pkg/metrics"
)

type fakeLock struct {
	held      bool
	extends   int
	extendErr error
	released  bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Extend(context.Context) error {
	f.extends++
	return f.extendErr
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.released = true
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func registryOf(t *testing.T, every time.Duration, jobs ...Job) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, j := range jobs {
		if err := r.Register(j, every); err != nil {
			t.Fatalf("register %s: %v", j.Name(), err)
		}
	}
	return r
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "token_expiry"}
	bad := &testJob{name: "outbox_retention", err: errors.New("boom")}
	lock := &fakeLock{}
	svc, err := NewService(ServiceParams{Logger: quietLogger(), Registry: registryOf(t, 0, bad, ok), Lock: lock})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = svc.runCycle(context.Background())
	if got := len(multierr.Errors(err)); got != 1 {
		t.Fatalf("expected 1 job error, got %d (%v)", got, err)
	}
	if ok.runs != 1 || bad.runs != 1 {
		t.Fatalf("expected each job once, got ok=%d bad=%d", ok.runs, bad.runs)
	}
	if lock.extends != 1 {
		t.Fatalf("expected lease extended between jobs, got %d", lock.extends)
	}
	if !lock.released {
		t.Fatalf("expected lease released")
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "token_expiry"}
	reg := prometheus.NewRegistry()
	m := metrics.NewCronJobMetrics(reg)
	svc, _ := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: registryOf(t, 0, job),
		Lock:     &fakeLock{held: true},
		Metrics:  m,
	})

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
	if n := testutil.CollectAndCount(reg, "boost_cron_cycles_skipped_total"); n != 1 {
		t.Fatalf("expected skipped counter, got %d series", n)
	}
}

func TestRunCycleHonoursJobSpacing(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	hourly := &testJob{name: "outbox_retention"}
	every := &testJob{name: "token_expiry"}
	reg := NewRegistry()
	_ = reg.Register(every, 0)
	_ = reg.Register(hourly, time.Hour)

	svc, _ := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: reg,
		Lock:     &fakeLock{},
		Now:      func() time.Time { return now },
	})
	ctx := context.Background()

	_ = svc.runCycle(ctx)
	now = now.Add(5 * time.Minute)
	_ = svc.runCycle(ctx)
	if every.runs != 2 || hourly.runs != 1 {
		t.Fatalf("after 5m: every=%d hourly=%d", every.runs, hourly.runs)
	}

	now = now.Add(time.Hour)
	_ = svc.runCycle(ctx)
	if hourly.runs != 2 {
		t.Fatalf("expected hourly job due again, ran %d", hourly.runs)
	}
}

func TestRunCycleRetriesFailedSpacedJob(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	job := &testJob{name: "outbox_retention", err: errors.New("db down")}
	svc, _ := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: registryOf(t, time.Hour, job),
		Lock:     &fakeLock{},
		Now:      func() time.Time { return now },
	})

	_ = svc.runCycle(context.Background())
	now = now.Add(time.Minute)
	_ = svc.runCycle(context.Background())
	if job.runs != 2 {
		t.Fatalf("failed job should stay due, ran %d", job.runs)
	}
}

func TestRunCycleStopsWhenLeaseLost(t *testing.T) {
	first := &testJob{name: "token_expiry"}
	second := &testJob{name: "outbox_retention"}
	svc, _ := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: registryOf(t, 0, first, second),
		Lock:     &fakeLock{extendErr: ErrLockLost},
	})

	err := svc.runCycle(context.Background())
	if !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected ErrLockLost, got %v", err)
	}
	if first.runs != 1 || second.runs != 0 {
		t.Fatalf("expected only the first job, got first=%d second=%d", first.runs, second.runs)
	}
}

func TestRunCycleRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: registryOf(t, 0, &testJob{name: "outbox_retention"}, &testJob{name: "token_expiry", err: errors.New("boom")}),
		Lock:     &fakeLock{},
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	_ = svc.runCycle(context.Background())

	if n := testutil.CollectAndCount(reg, "boost_cron_job_runs_total"); n != 2 {
		t.Fatalf("expected two run series, got %d", n)
	}
	if n := testutil.CollectAndCount(reg, "boost_cron_job_last_success_timestamp_seconds"); n != 1 {
		t.Fatalf("expected one last-success series, got %d", n)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{Registry: NewRegistry(), Lock: &fakeLock{}}); err == nil {
		t.Fatalf("expected logger error")
	}
	if _, err := NewService(ServiceParams{Logger: quietLogger(), Registry: NewRegistry()}); err == nil {
		t.Fatalf("expected lock error")
	}
	if _, err := NewService(ServiceParams{Logger: quietLogger(), Lock: &fakeLock{}}); err == nil {
		t.Fatalf("expected registry error")
	}
}
