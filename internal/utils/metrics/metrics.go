package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Upload metrics
	UploadsTotal     *prometheus.CounterVec
	UploadBytesTotal prometheus.Counter
	WaitAttempts     prometheus.Histogram

	// Presign metrics
	PresignedURLsTotal *prometheus.CounterVec

	// Token service metrics
	RoleAssumptionsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance registered on the default registry.
func New(namespace string) *Metrics {
	return NewWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a new Metrics instance registered on reg.
func NewWithRegisterer(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "filelink"
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "files_uploaded_total",
				Help:      "Total number of file uploads",
			},
			[]string{"status"},
		),
		UploadBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "upload_bytes_total",
				Help:      "Total number of bytes uploaded",
			},
		),
		WaitAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "wait_attempts",
				Help:      "Visibility checks needed before an uploaded object was readable",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 20},
			},
		),

		PresignedURLsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "presigned_urls_total",
				Help:      "Total number of presigned URLs generated",
			},
			[]string{"mode", "status"},
		),

		RoleAssumptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sts",
				Name:      "role_assumptions_total",
				Help:      "Total number of role assumptions",
			},
			[]string{"status"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.HTTPRequestsInFlight,
			m.UploadsTotal,
			m.UploadBytesTotal,
			m.WaitAttempts,
			m.PresignedURLsTotal,
			m.RoleAssumptionsTotal,
		)
	}

	return m
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpload records an upload attempt.
func (m *Metrics) RecordUpload(success bool, bytes int64) {
	m.UploadsTotal.WithLabelValues(statusLabel(success)).Inc()
	if success && bytes > 0 {
		m.UploadBytesTotal.Add(float64(bytes))
	}
}

// RecordWait records how many visibility checks an upload needed.
func (m *Metrics) RecordWait(attempts int) {
	m.WaitAttempts.Observe(float64(attempts))
}

// RecordPresign records a presign attempt. mode is "direct" or "role".
func (m *Metrics) RecordPresign(mode string, success bool) {
	m.PresignedURLsTotal.WithLabelValues(mode, statusLabel(success)).Inc()
}

// RecordRoleAssumption records a role assumption attempt.
func (m *Metrics) RecordRoleAssumption(success bool) {
	m.RoleAssumptionsTotal.WithLabelValues(statusLabel(success)).Inc()
}
