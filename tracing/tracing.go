// Package tracing configures the global opentracing tracer (zipkin) and
// provides the http middleware and span helper used by the gateway.
package tracing

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	grpc_otrace "github.com/grpc-ecosystem/go-grpc-middleware/tracing/opentracing"
	otnethttp "github.com/opentracing-contrib/go-stdlib/nethttp"
	opentracing "github.com/opentracing/opentracing-go"
	"google.golang.org/grpc"

	zipkinot "github.com/openzipkin-contrib/zipkin-go-opentracing"
	zipkin "github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"

	"github.com/datatrails/go-datatrails-kvstore/logger"
)

const (
	prefixTracerState = "x-b3-"
	TraceID           = prefixTracerState + "traceid"
)

func HTTPMiddleware(h http.Handler) http.Handler {
	return otnethttp.Middleware(
		opentracing.GlobalTracer(),
		h,
		otnethttp.OperationNameFunc(func(r *http.Request) string {
			return "HTTP " + r.Method + " " + r.URL.EscapedPath()
		}),
	)
}

// GRPCDialTracingOptions returns DialOptions enabling open tracing for
// grpc client connections.
func GRPCDialTracingOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithChainStreamInterceptor(grpc_otrace.StreamClientInterceptor()),
		grpc.WithChainUnaryInterceptor(grpc_otrace.UnaryClientInterceptor()),
	}
}

// NewFromEnv initialises tracing when an endpoint is configured and tracing
// is not disabled. It returns nil, and leaves the no-op global tracer in
// place, otherwise.
func NewFromEnv(service string, host string, endpoint string, disabled bool) (io.Closer, error) {
	if disabled {
		logger.Sugar.Infof("zipkin disabled")
		return nil, nil
	}
	if endpoint == "" {
		logger.Sugar.Infof("no zipkin endpoint, tracing disabled")
		return nil, nil
	}
	return New(service, host, endpoint)
}

// New initialises tracing using the zipkin client tracer.
func New(service string, host string, zipkinEndpoint string) (io.Closer, error) {
	localEndpoint, err := zipkin.NewEndpoint(service, host)
	if err != nil {
		return nil, fmt.Errorf("unable to create zipkin local endpoint service '%s' - host '%s': %w", service, host, err)
	}

	zipkinLogger := log.New(os.Stdout, "zipkin", log.Ldate|log.Ltime|log.Lmicroseconds|log.Llongfile)
	reporter := zipkinhttp.NewReporter(zipkinEndpoint, zipkinhttp.Logger(zipkinLogger))

	nativeTracer, err := zipkin.NewTracer(
		reporter,
		zipkin.WithLocalEndpoint(localEndpoint),
		zipkin.WithSharedSpans(false),
	)
	if err != nil {
		_ = reporter.Close()
		return nil, fmt.Errorf("unable to create zipkin tracer: %w", err)
	}

	// use zipkin-go-opentracing to wrap our tracer
	opentracing.SetGlobalTracer(zipkinot.Wrap(nativeTracer))
	logger.Sugar.Infof("zipkin tracing to %s as %s", zipkinEndpoint, service)

	return reporter, nil
}
