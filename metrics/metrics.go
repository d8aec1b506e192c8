package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"

	namePrefix = "kvstore"
)

// RequestsCounterMetric counts requests by transport, method and result code.
func RequestsCounterMetric() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namePrefix + "_requests_total",
			Help: "Total number of requests by transport, method, service and code.",
		},
		[]string{"transport", "method", "service", "code"},
	)
}

// RequestsLatencyMetric measures an SLA "95% of all requests must be made in less than 100ms" and to
// plot average response latency and the apdex score.
// https://www.bookstack.cn/read/prometheus-en/1e87bb1c6ea1f003.md
// bucket limits are in seconds...
func RequestsLatencyMetric() *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    namePrefix + "_requests_latency",
			Help:    "Histogram of time to reply to request.",
			Buckets: []float64{.001, .0025, .005, .01, .02, .04, .08, .16, .32},
		},
		[]string{"transport", "method", "service"},
	)
}

// Metrics. Only those metrics specified
// are returned. The GoCollector and ProcessCollector metrics are omitted by
// using our own registry.
//
// A nil *Metrics is valid and disables all instrumentation.
type Metrics struct {
	serviceName string
	port        string
	registry    *prometheus.Registry
	observers   *LatencyObservers
	log         Logger
}

type MetricsOption func(*Metrics)

// WithPort sets the port the prometheus endpoint is served on.
func WithPort(port string) MetricsOption {
	return func(m *Metrics) {
		m.port = port
	}
}

func New(log Logger, serviceName string, opts ...MetricsOption) *Metrics {
	m := Metrics{
		log:         log,
		serviceName: strings.ToLower(serviceName),
		registry:    prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.observers = NewLatencyObservers(&m)
	return &m
}

// NewFromConfig returns nil unless metrics are enabled and a port is given.
func NewFromConfig(log Logger, serviceName string, enabled bool, port string) *Metrics {
	if !enabled || port == "" {
		log.Infof("metrics disabled")
		return nil
	}
	return New(log, serviceName, WithPort(port))
}

func (m *Metrics) String() string {
	return m.serviceName
}

func (m *Metrics) Register(cs ...prometheus.Collector) {
	m.registry.MustRegister(cs...)
}

func (m *Metrics) Port() string {
	if m != nil {
		return m.port
	}
	return ""
}

// NewPromHandler - this handler is used on the endpoint that serves metrics endpoint
// which is provided on a different port to the service.
// The default InstrumentMetricHandler is suppressed.
func (m *Metrics) NewPromHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
