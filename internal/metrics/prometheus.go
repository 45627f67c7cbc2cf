package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobquest"

// PrometheusRecorder exports metrics through its own Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	authRejected   *prometheus.CounterVec
	jobs           *prometheus.CounterVec
	applications   prometheus.Counter
	premiums       prometheus.Counter
	paymentIntents *prometheus.CounterVec
	countsRepaired prometheus.Counter
}

// NewPrometheus creates a recorder with process and Go runtime collectors
// registered alongside the application metrics.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		authRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "rejected_total",
			Help:      "Session credentials rejected by the access guard.",
		}, []string{"reason"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_writes_total",
			Help:      "Job postings created, updated or deleted.",
		}, []string{"op"}),
		applications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_submitted_total",
			Help:      "Applications submitted.",
		}),
		premiums: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "premium_records_total",
			Help:      "Premium records stored.",
		}),
		paymentIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "intents_total",
			Help:      "Payment intent attempts by outcome.",
		}, []string{"status"}),
		countsRepaired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "applicant_counts_repaired_total",
			Help:      "Jobs whose applicant counter was rewritten by the reconciler.",
		}),
	}

	p.registry.MustRegister(
		p.httpRequests,
		p.httpDuration,
		p.authRejected,
		p.jobs,
		p.applications,
		p.premiums,
		p.paymentIntents,
		p.countsRepaired,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return p
}

// Handler returns an HTTP handler exposing the registered metrics.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncAuthRejected(reason string) {
	p.authRejected.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) IncJobCreated() { p.jobs.WithLabelValues("create").Inc() }
func (p *PrometheusRecorder) IncJobUpdated() { p.jobs.WithLabelValues("update").Inc() }
func (p *PrometheusRecorder) IncJobDeleted() { p.jobs.WithLabelValues("delete").Inc() }

func (p *PrometheusRecorder) IncApplicationSubmitted() { p.applications.Inc() }
func (p *PrometheusRecorder) IncPremiumRecorded()      { p.premiums.Inc() }

func (p *PrometheusRecorder) IncPaymentIntent(status string) {
	p.paymentIntents.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) AddApplicantCountsRepaired(n int64) {
	p.countsRepaired.Add(float64(n))
}
