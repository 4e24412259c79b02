// Package prompush pushes pipeline metrics to a Prometheus Pushgateway.
// A batch job has no long-lived endpoint to scrape, so the registry is pushed
// once when the run flushes.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/TheF1rstPancake/hubspot/internal/metrics"
)

// DefaultJob is the Pushgateway grouping job when none is configured.
const DefaultJob = "hubetl"

// Backend is a metrics.Backend backed by a private Prometheus registry.
type Backend struct {
	gatewayURL string
	job        string
	reg        *prometheus.Registry

	steps        *prometheus.CounterVec
	stepDuration *prometheus.SummaryVec
	records      *prometheus.CounterVec
	pages        prometheus.Counter
	requests     *prometheus.CounterVec
}

// NewBackend registers the pipeline collectors on a fresh registry.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if job == "" {
		job = DefaultJob
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		job:        job,
		reg:        prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Pipeline step duration in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Engagement records by kind (fetched, inserted, duplicates, reported).",
		}, []string{"kind"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.PagesTotal,
			Help: "Pages fetched from the engagements endpoint.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.APIRequestTotal,
			Help: "HubSpot API requests by endpoint and status.",
		}, []string{"endpoint", "status"}),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":    b.steps,
		"step summary":    b.stepDuration,
		"record counter":  b.records,
		"page counter":    b.pages,
		"request counter": b.requests,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter routes known metric names to their collectors; unknown names
// are dropped.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.steps.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RecordsTotal:
		b.records.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.PagesTotal:
		b.pages.Add(delta)
	case metrics.APIRequestTotal:
		b.requests.WithLabelValues(labels["endpoint"], labels["status"]).Add(delta)
	}
}

// ObserveHistogram records step durations; other names are dropped.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry, replacing the previous push for the job.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.job).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
