package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// we have to intercept the ResponseWriter in order to get the statuscode
type LoggingResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.StatusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// NewLatencyMetricsHandler counts and times every http request. The method
// label is the http method so that the label cardinality does not depend on
// the keys requested.
func (m *Metrics) NewLatencyMetricsHandler(h http.Handler) http.Handler {
	if m == nil {
		return h
	}
	m.log.Debugf("NewLatencyMetricsHandler")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WriteHeader(int) is not called if our response implicitly returns 200 OK, so
		// we default to that status code.
		lrw := &LoggingResponseWriter{
			ResponseWriter: w,
			StatusCode:     http.StatusOK,
		}

		start := time.Now()
		h.ServeHTTP(lrw, r)
		latency := time.Since(start).Seconds()

		m.observers.ObserveRequestsCount(TransportHTTP, r.Method, strconv.Itoa(lrw.StatusCode))
		m.observers.ObserveRequestsLatency(latency, TransportHTTP, r.Method)
	})
}
