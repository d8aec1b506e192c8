package correlationid

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

// Test_Context tests that a suitable correlationID is emitted
// when traceID, requestID and correlationID may or may not exist.
func Test_Context(t *testing.T) {
	incoming := func(md metadata.MD) context.Context {
		return metadata.NewIncomingContext(context.Background(), md)
	}
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
		length   int
	}{
		{name: "no metadata", ctx: context.Background(), length: 36},
		{name: "unrelated metadata", ctx: incoming(metadata.MD{"somekey": {"somekey"}}), length: 36},
		{name: "trace id", ctx: incoming(metadata.MD{TraceIDKey: {"traceid"}}), expected: "traceid"},
		{name: "empty traceid", ctx: incoming(metadata.MD{TraceIDKey: {""}}), length: 36},
		{name: "request id", ctx: incoming(metadata.MD{RequestIDKey: {"requestid"}}), expected: "requestid"},
		{name: "null requestid", ctx: incoming(metadata.MD{RequestIDKey: {}}), length: 36},
		{name: "empty correlationid", ctx: incoming(metadata.MD{CorrelationIDKey: {""}}), length: 36},
		{name: "correlationid", ctx: incoming(metadata.MD{CorrelationIDKey: {"correlationid"}}), expected: "correlationid"},
		{
			name:     "traceid wins over requestid",
			ctx:      incoming(metadata.MD{RequestIDKey: {"requestid"}, TraceIDKey: {"traceid"}}),
			expected: "traceid",
		},
		{
			name:     "empty traceid and requestid",
			ctx:      incoming(metadata.MD{RequestIDKey: {"requestid"}, TraceIDKey: {""}}),
			expected: "requestid",
		},
		{
			name: "correlationid wins",
			ctx: incoming(metadata.MD{
				CorrelationIDKey: {"correlationid"},
				RequestIDKey:     {"requestid"},
				TraceIDKey:       {"traceid"},
			}),
			expected: "correlationid",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := Context(test.ctx)
			actual := FromContext(ctx)
			if test.expected != "" {
				assert.Equal(t, test.expected, actual)
			} else {
				assert.Len(t, actual, test.length)
			}
			// idempotent
			assert.Equal(t, actual, FromContext(Context(ctx)))
		})
	}
}

func TestContextDoesNotModifyIncomingMetadata(t *testing.T) {
	md := metadata.MD{TraceIDKey: {"traceid"}}
	ctx := metadata.NewIncomingContext(context.Background(), md)

	_ = Context(ctx)

	_, found := md[CorrelationIDKey]
	assert.False(t, found)
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/k", nil)
	r.Header.Set("X-Request-Id", "abc")
	assert.Equal(t, "abc", FromContext(FromRequest(r)))

	r = httptest.NewRequest("GET", "/k", nil)
	assert.Len(t, FromContext(FromRequest(r)), 36)
}
