package logger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	opentracing "github.com/opentracing/opentracing-go"

	"github.com/datatrails/go-datatrails-kvstore/correlationid"
)

var (
	Plain      *zap.Logger
	Sugar      *WrappedLogger
	undoLogger func()
	Recorded   *observer.ObservedLogs
)

const (
	serviceNameKey   = "servicename"
	correlationIDKey = "correlationid"
	// We repeat this constant here as we don't want the circular dependency
	// of importing our tracing package
	TraceIDKey = "x-b3-traceid"
)

// so we dont have to import zap everywhere
type Option = zap.Option

type WrappedLogger struct {
	*zap.SugaredLogger
}

func keyVals(args []any) []any {
	kv := make([]any, 0, 2*len(args))
	for i, v := range args {
		kv = append(kv, fmt.Sprintf("arg%d", i), v)
	}
	return kv
}

func (l *WrappedLogger) ErrorR(msg string, args ...any) {
	l.WithOptions(zap.AddCallerSkip(1)).Errorw(msg, keyVals(args)...)
}

func (l *WrappedLogger) InfoR(msg string, args ...any) {
	l.WithOptions(zap.AddCallerSkip(1)).Infow(msg, keyVals(args)...)
}

func (l *WrappedLogger) DebugR(msg string, args ...any) {
	l.WithOptions(zap.AddCallerSkip(1)).Debugw(msg, keyVals(args)...)
}

// OnExit should be deferred immediately after calling the
// New() method.
func OnExit() {
	if Sugar != nil {
		_ = Sugar.Sync()
	}
	if Plain != nil {
		_ = Plain.Sync()
	}
	if undoLogger != nil {
		undoLogger()
		undoLogger = nil
	}
	Recorded = nil
}

// New creates 2 loggers (plain and sugared) as global variables according
// to the desired loglevel ("DEBUG", "NOOP", "TEST", default is "INFO").
// Additionally log output from other loggers in 3rd-party packages
// is redirected to the INFO label of these loggers.
func New(level string, zopts ...zap.Option) {
	var err error
	// Use opinionated presets for now.
	switch strings.ToUpper(level) {
	case DebugLevel:
		cfg := zap.NewDevelopmentConfig()
		Plain, err = cfg.Build(zopts...)
		if err != nil {
			log.Panicf("cannot initialise zap logger: %v", err)
		}

	case NoopLevel:
		Plain = zap.NewNop()

	case TestLevel:
		core, recorded := observer.New(zapcore.DebugLevel)

		ram := zap.WrapCore(
			func(zapcore.Core) zapcore.Core {
				return core
			},
		)

		cfg := zap.NewDevelopmentConfig()
		var plain *zap.Logger
		plain, err = cfg.Build(zopts...)
		if err != nil {
			log.Panicf("cannot initialise zap logger: %v", err)
		}
		Plain = plain.WithOptions(ram)
		Recorded = recorded

	default:
		cfg := zap.NewProductionConfig()
		Plain, err = cfg.Build(zopts...)
		if err != nil {
			log.Panicf("cannot initialise zap logger: %v", err)
		}
	}
	undoLogger = zap.RedirectStdLog(Plain)
	Sugar = &WrappedLogger{
		Plain.Sugar(),
	}

	Sugar.Debugf("Go version %s", runtime.Version())
}

func valueFromCarrier(carrier opentracing.TextMapCarrier, key string) string {
	value, found := carrier[key]
	if !found || value == "" {
		return ""
	}
	return value
}

// FromContext returns a child logger carrying the request's correlation id
// and the trace id of the current span, when they exist. Called on entry to
// anything with a context.Context so that every line of a request can be
// matched to the id returned to the caller.
func (wl *WrappedLogger) FromContext(ctx context.Context) *WrappedLogger {
	var fields []any
	if cid := correlationid.FromContext(ctx); cid != "" {
		fields = append(fields, zap.String(correlationIDKey, cid))
	}
	if traceID := traceIDFromContext(wl, ctx); traceID != "" {
		fields = append(fields, zap.String(TraceIDKey, traceID))
	}
	if len(fields) == 0 {
		return wl
	}
	return &WrappedLogger{
		SugaredLogger: wl.With(fields...),
	}
}

func traceIDFromContext(wl *WrappedLogger, ctx context.Context) string {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	carrier := opentracing.TextMapCarrier{}
	err := opentracing.GlobalTracer().Inject(span.Context(), opentracing.TextMap, carrier)
	if err != nil {
		wl.Debugf("FromContext: can't inject span: %v", err)
		return ""
	}
	return valueFromCarrier(carrier, TraceIDKey)
}

func (wl *WrappedLogger) WithServiceName(servicename string) *WrappedLogger {
	return wl.WithIndex(serviceNameKey, servicename)
}

func (wl *WrappedLogger) WithIndex(key, value string) *WrappedLogger {
	return &WrappedLogger{
		SugaredLogger: wl.With(zap.String(key, strings.ToLower(value))),
	}
}

// WithOptions keeps any fields already attached to this logger.
func (wl *WrappedLogger) WithOptions(opts ...Option) *WrappedLogger {
	return &WrappedLogger{
		SugaredLogger: wl.SugaredLogger.WithOptions(opts...),
	}
}

// Close attempts to flush any buffered log entries.
func (wl *WrappedLogger) Close() {
	err := wl.Sync()

	// not alot we can do other than log that we couldn't flush the log
	// This is usually an error 'sync /dev/stderr invalid argument'
	// which is pointless
	if err != nil && !errors.Is(err, syscall.EINVAL) {
		wl.Debugf("Close: Failed to flush log: %v", err)
	}
}
