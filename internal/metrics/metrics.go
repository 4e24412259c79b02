// Package metrics records run-level counters and timings for the ingestion
// pipeline behind a pluggable Backend. The default backend discards
// everything, so callers never need to check whether metrics are enabled.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal       = "hubetl_step_total"
	StepDuration    = "hubetl_step_duration_seconds"
	RecordsTotal    = "hubetl_records_total"
	PagesTotal      = "hubetl_pages_total"
	APIRequestTotal = "hubetl_api_requests_total"
)

// Record kinds used with RecordRow.
const (
	KindFetched    = "fetched"
	KindInserted   = "inserted"
	KindDuplicates = "duplicates"
	KindReported   = "reported"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is implemented by concrete metric systems.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. A nil b restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the installed backend.
func Flush() error {
	return current().Flush()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordStep counts one execution of a pipeline step (schema, fetch, write,
// report) and records how long it took.
func RecordStep(job, step string, err error, d time.Duration) {
	lbls := Labels{"job": job, "step": step, "status": status(err)}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta to the record counter of the given kind. Non-positive
// deltas are ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordPages counts fetched pages.
func RecordPages(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(PagesTotal, float64(delta), Labels{"job": job})
}

// RecordRequest counts one API request by endpoint and outcome.
func RecordRequest(job, endpoint string, err error) {
	current().IncCounter(APIRequestTotal, 1, Labels{
		"job":      job,
		"endpoint": endpoint,
		"status":   status(err),
	})
}
