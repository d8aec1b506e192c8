package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Latency observers
type LatencyObservers struct {
	requestsCounter *prometheus.CounterVec
	requestsLatency *prometheus.HistogramVec
	serviceName     string
	log             Logger
}

// NewLatencyObservers creates and registers the request metrics.
func NewLatencyObservers(m *Metrics) *LatencyObservers {
	o := LatencyObservers{
		log:             m.log,
		requestsCounter: RequestsCounterMetric(),
		requestsLatency: RequestsLatencyMetric(),
		serviceName:     m.serviceName,
	}

	m.Register(o.requestsCounter, o.requestsLatency)
	return &o
}

func (o *LatencyObservers) ObserveRequestsCount(transport, method, code string) {
	o.requestsCounter.WithLabelValues(transport, method, o.serviceName, code).Inc()
}

func (o *LatencyObservers) ObserveRequestsLatency(elapsed float64, transport, method string) {
	o.log.Debugf("Latency %v %s: %s", elapsed, transport, method)
	o.requestsLatency.WithLabelValues(transport, method, o.serviceName).Observe(elapsed)
}
