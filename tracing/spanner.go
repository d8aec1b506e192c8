package tracing

import (
	"context"

	"github.com/datatrails/go-datatrails-kvstore/logger"
	opentracing "github.com/opentracing/opentracing-go"
	opentracinglog "github.com/opentracing/opentracing-go/log"
)

// Span hides the opentracing span so that callers do not import
// opentracing-go directly.
type Span struct {
	span opentracing.Span
	log  logger.Logger
}

func (s *Span) Close() {
	if s.span != nil {
		s.span.Finish()
		s.span = nil
	}
}

func (s *Span) SetTag(key string, value any) {
	if s.span != nil {
		s.span.SetTag(key, value)
	}
}

func (s *Span) LogField(key string, value any) {
	if s.span == nil {
		return
	}
	switch v := value.(type) {
	case bool:
		s.span.LogFields(opentracinglog.Bool(key, v))
	case error:
		s.span.LogFields(opentracinglog.Error(v))
	case int:
		s.span.LogFields(opentracinglog.Int(key, v))
	case int64:
		s.span.LogFields(opentracinglog.Int64(key, v))
	case string:
		s.span.LogFields(opentracinglog.String(key, v))
	default:
		s.span.LogFields(opentracinglog.Object(key, v))
	}
}

// SetError marks the span failed. A nil error is ignored.
func (s *Span) SetError(err error) {
	if s.span == nil || err == nil {
		return
	}
	s.span.SetTag("error", true)
	s.LogField("error", err)
}

func (s *Span) TraceID() string {
	if s.span == nil {
		return ""
	}
	carrier := opentracing.TextMapCarrier{}
	err := opentracing.GlobalTracer().Inject(s.span.Context(), opentracing.TextMap, carrier)
	if err != nil {
		return ""
	}
	return carrier[TraceID]
}

// StartSpanFromContext starts a child of any span already in ctx.
func StartSpanFromContext(ctx context.Context, log logger.Logger, name string) (*Span, context.Context) {
	log.Debugf("StartSpanFromContext %s", name)
	span, ctx := opentracing.StartSpanFromContext(ctx, name)
	return &Span{span: span, log: log}, ctx
}
