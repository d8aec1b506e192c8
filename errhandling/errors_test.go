package errhandling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/datatrails/go-datatrails-kvstore/correlationid"
	"github.com/datatrails/go-datatrails-kvstore/logger"
)

var allKinds = []Kind{
	KindInternal, KindBackend, KindUnauthorized, KindKeyNotFound, KindInvalidRequest, KindEncoding,
}

// TestProjectionsAgree checks that the HTTP projection of every kind is the
// status the grpc gateway would choose for its gRPC projection.
func TestProjectionsAgree(t *testing.T) {
	for _, k := range allKinds {
		t.Run(k.String(), func(t *testing.T) {
			assert.Equal(t, runtime.HTTPStatusFromCode(GRPCCode(k)), HTTPStatus(k))
		})
	}
}

func TestProjectionTable(t *testing.T) {
	table := []struct {
		err    error
		code   codes.Code
		status int
		msg    string
	}{
		{BackendError(errors.New("dial tcp: refused"), "get"), codes.Internal, 500, "Database error"},
		{Unauthorized("no token"), codes.Unauthenticated, 401, "Unauthorized"},
		{KeyNotFound("foo"), codes.NotFound, 404, "Key not found"},
		{InvalidRequest("ttl must be positive"), codes.InvalidArgument, 400, "ttl must be positive"},
		{EncodingError(errors.New("bad utf8")), codes.Internal, 500, "Encoding error"},
		{Internal(nil, "boom"), codes.Internal, 500, "Internal error"},
		{errors.New("not classified"), codes.Internal, 500, "Internal error"},
	}
	for _, test := range table {
		t.Run(test.err.Error(), func(t *testing.T) {
			k := KindOf(test.err)
			assert.Equal(t, test.code, GRPCCode(k))
			assert.Equal(t, test.status, HTTPStatus(k))
			assert.Equal(t, test.msg, PublicMessage(test.err))
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", KeyNotFound("foo"))
	assert.Equal(t, KindKeyNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindKeyNotFound))
	assert.False(t, IsKind(nil, KindKeyNotFound))
}

func TestKindOfStatusError(t *testing.T) {
	assert.Equal(t, KindUnauthorized, KindOf(status.Error(codes.Unauthenticated, "x")))
	assert.Equal(t, KindKeyNotFound, KindOf(status.Error(codes.NotFound, "x")))
	assert.Equal(t, KindInvalidRequest, KindOf(status.Error(codes.InvalidArgument, "x")))
	assert.Equal(t, KindInternal, KindOf(status.Error(codes.Unavailable, "x")))
}

func TestBackendDetailIsNotForwarded(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	err := BackendError(errors.New("secret-host:6379 refused"), "scan")

	st, ok := status.FromError(GRPCError(context.Background(), err))
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.NotContains(t, st.Message(), "secret-host")

	rec := httptest.NewRecorder()
	WriteHTTPError(context.Background(), rec, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-host")
}

func TestWriteHTTPErrorEnvelope(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	rec := httptest.NewRecorder()
	WriteHTTPError(context.Background(), rec, KeyNotFound("foo"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrorBody{Error: "Key not found", Status: 404}, body)
}

func TestGRPCErrorCarriesCorrelationID(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
	ctx = correlationid.ContextWithCorrelationID(ctx, "cid-1")

	err := GRPCError(ctx, Unauthorized("bad token"))

	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "cid-1", CorrelationIDFromStatus(err))
}

func TestGRPCErrorPassesStatusThrough(t *testing.T) {
	in := status.Error(codes.Canceled, "gone")
	assert.Same(t, in, GRPCError(context.Background(), in))
	assert.Nil(t, GRPCError(context.Background(), nil))
}

func TestHTTPStatusFromForeignStatus(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusFromError(status.Error(codes.Unavailable, "x")))
}
