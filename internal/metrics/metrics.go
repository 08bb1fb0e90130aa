// Package metrics defines devnull's Prometheus instrumentation,
// generalizing the teacher's internal/edge/metrics collector to this
// server's request/reload surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// Metrics wraps a private prometheus.Registry so test instances never
// collide with the default global registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsMatched   *prometheus.CounterVec
	requestsUnmatched prometheus.Counter
	reloadTotal       *prometheus.CounterVec
	renderErrors      prometheus.Counter
	requestDuration   *prometheus.HistogramVec

	logger     *zap.Logger
	httpHandle fasthttp.RequestHandler
}

// New registers and returns devnull's metric collectors.
func New(logger *zap.Logger) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestsMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devnull_requests_matched_total",
			Help: "Requests matched to a payload, labeled by payload id.",
		}, []string{"payload_id"}),
		requestsUnmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devnull_requests_unmatched_total",
			Help: "Requests that matched no payload (served the default 404).",
		}),
		reloadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devnull_reload_total",
			Help: "Config reload attempts, labeled by result.",
		}, []string{"result"}),
		renderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devnull_render_errors_total",
			Help: "Template render failures swallowed into an error body.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devnull_request_duration_seconds",
			Help:    "End-to-end request handling latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		logger: logger,
	}

	reg.MustRegister(
		m.requestsMatched,
		m.requestsUnmatched,
		m.reloadTotal,
		m.renderErrors,
		m.requestDuration,
	)

	m.httpHandle = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return m
}

func (m *Metrics) ObserveMatch(payloadID string) {
	m.requestsMatched.WithLabelValues(payloadID).Inc()
}

func (m *Metrics) ObserveUnmatched() {
	m.requestsUnmatched.Inc()
}

func (m *Metrics) ObserveReload(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.reloadTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRenderError() {
	m.renderErrors.Inc()
}

func (m *Metrics) ObserveRequestDuration(status int, d time.Duration) {
	m.requestDuration.WithLabelValues(statusClass(status)).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// ServeHTTP exposes this registry's metrics in the Prometheus text
// exposition format, matching the teacher's
// internal/edge/metrics.PrometheusMetrics.ServeHTTP adaptor shape.
func (m *Metrics) ServeHTTP(ctx *fasthttp.RequestCtx) {
	m.httpHandle(ctx)
}
