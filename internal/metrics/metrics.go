// Package metrics exposes Prometheus collectors for the archive pipeline.
package metrics

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch attempt outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeClientError  = "client_error"
	OutcomeServerError  = "server_error"
	OutcomeNetworkError = "network_error"
	OutcomeOtherStatus  = "other_status"
)

var (
	fetchAttemptsTotal    *prometheus.CounterVec
	fetchRetriesTotal     prometheus.Counter
	fetchDurationSeconds  *prometheus.HistogramVec
	renderTotal           *prometheus.CounterVec
	itemsRenderedTotal    prometheus.Counter
	pipelineErrorsTotal   *prometheus.CounterVec
	retryWaitSecondsTotal prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archivist_fetch_attempts_total",
				Help: "Total number of archive data fetch attempts, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "archivist_fetch_retries_total",
				Help: "Total number of fetch retries scheduled after a transient failure.",
			},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "archivist_fetch_duration_seconds",
				Help:    "Histogram of single fetch attempt latencies, labeled by site.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"site"},
		)

		retryWaitSecondsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "archivist_fetch_retry_wait_seconds_total",
				Help: "Total time spent waiting between fetch retries.",
			},
		)

		renderTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archivist_render_total",
				Help: "Total number of list renders, labeled by the list state found in the page.",
			},
			[]string{"state"},
		)

		itemsRenderedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "archivist_items_rendered_total",
				Help: "Total number of archive items rendered into list rows.",
			},
		)

		pipelineErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archivist_pipeline_errors_total",
				Help: "Total number of pipeline runs that ended on the error panel, labeled by kind.",
			},
			[]string{"kind"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveFetchAttempt records one fetch attempt and its latency.
func ObserveFetchAttempt(rawURL, outcome string, duration time.Duration) {
	Init()
	site := SanitizeSite(rawURL)
	fetchAttemptsTotal.WithLabelValues(site, outcome).Inc()
	fetchDurationSeconds.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveRetry records a scheduled retry and the wait before it.
func ObserveRetry(wait time.Duration) {
	Init()
	fetchRetriesTotal.Inc()
	retryWaitSecondsTotal.Add(wait.Seconds())
}

// ObserveRender records a list render for the given list state and item count.
func ObserveRender(state string, items int) {
	Init()
	renderTotal.WithLabelValues(state).Inc()
	if items > 0 {
		itemsRenderedTotal.Add(float64(items))
	}
}

// ObservePipelineError records a pipeline failure.
func ObservePipelineError(kind string) {
	Init()
	pipelineErrorsTotal.WithLabelValues(kind).Inc()
}

// WriteTextfile writes every registered metric to path in the Prometheus text
// format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	Init()
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
