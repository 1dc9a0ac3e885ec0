// Package metrics collects and exposes Prometheus metrics for promptlist.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/promptlist/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "promptlist"

// Collector records promptlist metrics. It implements [tasks.Observer].
type Collector struct {
	exports      *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	resolutions  *prometheus.CounterVec
	callbacks    *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  prometheus.Histogram
}

var _ tasks.Observer = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Finished playlist exports by outcome.",
		}, []string{"outcome"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_stage_duration_seconds",
			Help:      "Duration of each export stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "track_resolutions_total",
			Help:      "Track searches by whether a match was found.",
		}, []string{"found"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_callbacks_total",
			Help:      "Authorization callbacks by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by status code.",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.exports,
		c.stageLatency,
		c.resolutions,
		c.callbacks,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) ObserveStage(stage tasks.Stage, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.stageLatency.WithLabelValues(string(stage), result).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveResolution(found bool) {
	c.resolutions.WithLabelValues(strconv.FormatBool(found)).Inc()
}

func (c *Collector) ObserveExport(kind tasks.FailureKind) {
	outcome := "success"
	if kind != "" {
		outcome = string(kind)
	}
	c.exports.WithLabelValues(outcome).Inc()
}

// RecordCallback records the outcome of an authorization callback ("success" or an error class).
func (c *Collector) RecordCallback(outcome string) {
	c.callbacks.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records a served HTTP response.
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
