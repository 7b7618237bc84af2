// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the application collectors. A nil *Metrics is valid and
// records nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	registry *prometheus.Registry

	rateLimitRejections *prometheus.CounterVec
	rateLimitStoreErrs  *prometheus.CounterVec
	aiAnswers           *prometheus.CounterVec
	quotaDenials        *prometheus.CounterVec
	documentsGenerated  prometheus.Counter
	requestDuration     *prometheus.HistogramVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		rateLimitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complianceai_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"class"}),
		rateLimitStoreErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complianceai_rate_limit_store_errors_total",
			Help: "Rate limit store failures that let the request through.",
		}, []string{"class"}),
		aiAnswers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complianceai_ai_answers_total",
			Help: "Assistant answers by source and whether they were degraded.",
		}, []string{"source", "degraded"}),
		quotaDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complianceai_quota_denials_total",
			Help: "Document generations refused by the subscription gate.",
		}, []string{"reason"}),
		documentsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "complianceai_documents_generated_total",
			Help: "Documents generated successfully.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complianceai_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rateLimitRejections,
		m.rateLimitStoreErrs,
		m.aiAnswers,
		m.quotaDenials,
		m.documentsGenerated,
		m.requestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RateLimitRejected(class string) {
	if m == nil {
		return
	}
	m.rateLimitRejections.WithLabelValues(class).Inc()
}

func (m *Metrics) RateLimitStoreError(class string) {
	if m == nil {
		return
	}
	m.rateLimitStoreErrs.WithLabelValues(class).Inc()
}

// AIAnswer counts one assistant answer.
func (m *Metrics) AIAnswer(source string, degraded bool) {
	if m == nil {
		return
	}
	d := "false"
	if degraded {
		d = "true"
	}
	m.aiAnswers.WithLabelValues(source, d).Inc()
}

func (m *Metrics) QuotaDenied(reason string) {
	if m == nil {
		return
	}
	m.quotaDenials.WithLabelValues(reason).Inc()
}

func (m *Metrics) DocumentGenerated() {
	if m == nil {
		return
	}
	m.documentsGenerated.Inc()
}

func (m *Metrics) ObserveRequest(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, status).Observe(seconds)
}
