// Package correlationid attaches a per-request identifier to incoming
// contexts so that errors returned to callers can be matched to log lines.
package correlationid

// Do not import the logger here, it would create an import cycle.
import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
)

const (
	CorrelationIDKey = "kvstore-correlation-id"
	RequestIDKey     = "x-request-id"
	TraceIDKey       = "x-b3-traceid"
)

// Order is important here - first one found is used
var fallbackKeys = []string{TraceIDKey, RequestIDKey}

func first(md metadata.MD, key string) string {
	v := md.Get(key)
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// FromContext returns the correlation id in the incoming metadata, or the
// empty string.
func FromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return first(md, CorrelationIDKey)
}

// Context returns a context whose incoming metadata carries a correlation
// id. An existing non-empty id is kept. Otherwise the trace id or request id
// is adopted, and failing those a new uuid is minted. Idempotent.
func Context(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.MD{}
	}
	if first(md, CorrelationIDKey) != "" {
		return ctx
	}

	cid := ""
	for _, key := range fallbackKeys {
		if id := first(md, key); id != "" {
			cid = id
			break
		}
	}
	if cid == "" {
		cid = uuid.New().String()
	}
	return ContextWithCorrelationID(ctx, cid)
}

// ContextWithCorrelationID sets the correlation id in the incoming metadata,
// along with the request id when none is present.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		// incoming metadata must not be modified in place
		md = md.Copy()
	} else {
		md = metadata.MD{}
	}
	md.Set(CorrelationIDKey, correlationID)
	if first(md, RequestIDKey) == "" {
		md.Set(RequestIDKey, correlationID)
	}
	return metadata.NewIncomingContext(ctx, md)
}

// FromRequest derives the incoming context for an http request, adopting the
// X-Request-Id or B3 trace id header when the caller supplied one.
func FromRequest(r *http.Request) context.Context {
	md := metadata.MD{}
	for _, key := range append([]string{CorrelationIDKey}, fallbackKeys...) {
		if v := r.Header.Get(key); v != "" {
			md.Set(key, v)
		}
	}
	ctx := r.Context()
	if len(md) > 0 {
		ctx = metadata.NewIncomingContext(ctx, md)
	}
	return Context(ctx)
}
