package module

import (
	"net/http"
	"strconv"
	"time"

	"github.com/GoCodeAlone/modular"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig holds the naming of the ContentStudio metrics.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" json:"namespace"`
	Subsystem string `yaml:"subsystem" json:"subsystem"`
}

// DefaultMetricsConfig returns the default configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Namespace: "contentstudio", Subsystem: "api"}
}

// ContentStudioMetrics records API call outcomes on a private Prometheus
// registry. A nil *ContentStudioMetrics is valid and records nothing.
type ContentStudioMetrics struct {
	name     string
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LoadOptions     *prometheus.CounterVec
	ItemsProcessed  *prometheus.CounterVec
}

// NewContentStudioMetrics creates the collectors and registers them.
func NewContentStudioMetrics(name string, cfg MetricsConfig) *ContentStudioMetrics {
	reg := prometheus.NewRegistry()
	m := &ContentStudioMetrics{
		name:     name,
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of ContentStudio API requests",
		}, []string{"resource", "operation", "status_code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of ContentStudio API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "operation"}),
		LoadOptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "load_options_total",
			Help:      "Total number of dropdown option loads",
		}, []string{"method", "status"}),
		ItemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "items_processed_total",
			Help:      "Total number of node items executed",
		}, []string{"resource", "operation", "status"}),
	}
	reg.MustRegister(m.Requests, m.RequestDuration, m.LoadOptions, m.ItemsProcessed)
	return m
}

// Name returns the service name.
func (m *ContentStudioMetrics) Name() string { return m.name }

// Registry exposes the private registry.
func (m *ContentStudioMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an HTTP handler that serves the collected metrics.
func (m *ContentStudioMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one API call. statusCode is 0 when no response was
// received.
func (m *ContentStudioMetrics) RecordRequest(resource, operation string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.Requests.WithLabelValues(resource, operation, code).Inc()
	m.RequestDuration.WithLabelValues(resource, operation).Observe(duration.Seconds())
}

// RecordLoadOptions records a dropdown load.
func (m *ContentStudioMetrics) RecordLoadOptions(method string, err error) {
	if m == nil {
		return
	}
	m.LoadOptions.WithLabelValues(method, outcome(err)).Inc()
}

// RecordItem records the outcome of one executed item.
func (m *ContentStudioMetrics) RecordItem(resource, operation string, err error) {
	if m == nil {
		return
	}
	m.ItemsProcessed.WithLabelValues(resource, operation, outcome(err)).Inc()
}

// ProvidesServices returns the metrics service.
func (m *ContentStudioMetrics) ProvidesServices() []modular.ServiceProvider {
	return []modular.ServiceProvider{
		{Name: m.name, Description: "Prometheus metrics for ContentStudio API calls", Instance: m},
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
