package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/possaas/internal/clock"
	"github.com/smallbiznis/possaas/internal/observability/metrics"
	provisioningdomain "github.com/smallbiznis/possaas/internal/provisioning/domain"
	"go.uber.org/zap"
)

type fakeProvisioning struct {
	provisioningdomain.Service

	limits []int
	result *provisioningdomain.RetryResult
	err    error
	block  bool
}

func (f *fakeProvisioning) RetryPending(ctx context.Context, limit int) (*provisioningdomain.RetryResult, error) {
	f.limits = append(f.limits, limit)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &provisioningdomain.RetryResult{}, nil
	}
	return f.result, nil
}

func newTestScheduler(t *testing.T, prov *fakeProvisioning, cfg Config) (*Scheduler, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	s, err := New(Params{
		Provisioning: prov,
		Log:          zap.NewNop(),
		Clock:        clock.NewFakeClock(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)),
		Metrics:      m,
		Config:       cfg,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s, registry
}

func TestRunOnceRetriesOutboxWithBatchSize(t *testing.T) {
	prov := &fakeProvisioning{result: &provisioningdomain.RetryResult{Processed: 2, Succeeded: 1, Failed: 1}}
	s, registry := newTestScheduler(t, prov, Config{OutboxBatchSize: 7})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(prov.limits) != 1 || prov.limits[0] != 7 {
		t.Fatalf("expected one retry with limit 7, got %v", prov.limits)
	}
	labels := map[string]string{"job": JobOutboxRetry, "result": "success"}
	if got := getCounterValue(t, registry, "possaas_scheduler_job_runs_total", labels); got != 1 {
		t.Fatalf("expected success count 1, got %v", got)
	}
}

func TestRunOnceReturnsJobErrors(t *testing.T) {
	prov := &fakeProvisioning{err: errors.New("db down")}
	s, registry := newTestScheduler(t, prov, Config{})

	err := s.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	labels := map[string]string{"job": JobOutboxRetry, "result": "error"}
	if got := getCounterValue(t, registry, "possaas_scheduler_job_runs_total", labels); got != 1 {
		t.Fatalf("expected error count 1, got %v", got)
	}
}

func TestRunJobTimeoutDoesNotReturnError(t *testing.T) {
	prov := &fakeProvisioning{block: true}
	s, registry := newTestScheduler(t, prov, Config{JobTimeout: 5 * time.Millisecond})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	labels := map[string]string{"job": JobOutboxRetry, "result": "timeout"}
	if got := getCounterValue(t, registry, "possaas_scheduler_job_runs_total", labels); got != 1 {
		t.Fatalf("expected timeout count 1, got %v", got)
	}
}

func TestDisabledJobIsSkipped(t *testing.T) {
	prov := &fakeProvisioning{}
	s, _ := newTestScheduler(t, prov, Config{DisabledJobs: []string{JobOutboxRetry}})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(prov.limits) != 0 {
		t.Fatalf("expected no retries, got %v", prov.limits)
	}
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	prov := &fakeProvisioning{}
	s, _ := newTestScheduler(t, prov, Config{RunInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunForever(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	if len(prov.limits) == 0 {
		t.Fatal("expected an immediate first run")
	}
}

func TestNewRequiresProvisioning(t *testing.T) {
	if _, err := New(Params{Log: zap.NewNop(), Clock: clock.System{}}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			if metric.Counter == nil {
				t.Fatalf("metric %s is not a counter", name)
			}
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
