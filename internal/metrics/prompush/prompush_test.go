package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/TheF1rstPancake/hubspot/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("x", ""); err == nil {
		t.Fatalf("expected error for empty gateway URL")
	}
	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.job != DefaultJob {
		t.Fatalf("job = %q; want %q", b.job, DefaultJob)
	}
}

func TestIncCounterRoutesByName(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("hubetl", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "fetch", "status": "success"})
	b.IncCounter(metrics.RecordsTotal, 250, metrics.Labels{"kind": metrics.KindFetched})
	b.IncCounter(metrics.PagesTotal, 3, nil)
	b.IncCounter(metrics.APIRequestTotal, 2, metrics.Labels{"endpoint": "/e", "status": "failure"})
	b.IncCounter("unknown_metric", 10, nil)

	if got := counterValue(t, b.steps.WithLabelValues("fetch", "success")); got != 1 {
		t.Fatalf("steps = %v; want 1", got)
	}
	if got := counterValue(t, b.records.WithLabelValues(metrics.KindFetched)); got != 250 {
		t.Fatalf("records = %v; want 250", got)
	}
	if got := counterValue(t, b.pages); got != 3 {
		t.Fatalf("pages = %v; want 3", got)
	}
	if got := counterValue(t, b.requests.WithLabelValues("/e", "failure")); got != 2 {
		t.Fatalf("requests = %v; want 2", got)
	}
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("hubetl", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.ObserveHistogram(metrics.StepDuration, 1.5, metrics.Labels{"step": "write", "status": "success"})
	b.ObserveHistogram("other", 9, metrics.Labels{"step": "write", "status": "success"})

	m := &dto.Metric{}
	if err := b.stepDuration.WithLabelValues("write", "success").(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if s := m.GetSummary(); s.GetSampleCount() != 1 || s.GetSampleSum() != 1.5 {
		t.Fatalf("summary count=%d sum=%v; want 1, 1.5", s.GetSampleCount(), s.GetSampleSum())
	}
}

// TestFlush pushes to a fake Pushgateway and checks the job grouping path.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method, path string
		body         int
	}
	ch := make(chan pushed, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- pushed{r.Method, r.URL.Path, len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend("hubetl-test", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.PagesTotal, 1, nil)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got := <-ch
	if got.method != http.MethodPut {
		t.Fatalf("method = %s; want PUT", got.method)
	}
	if !strings.Contains(got.path, "/job/hubetl-test") {
		t.Fatalf("path = %q", got.path)
	}
	if got.body == 0 {
		t.Fatalf("empty push body")
	}
}

func TestFlushGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend("hubetl", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if err := b.Flush(); err == nil || !strings.Contains(err.Error(), "prompush") {
		t.Fatalf("Flush error = %v; want prompush error", err)
	}
}
