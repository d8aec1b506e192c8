package errhandling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/datatrails/go-datatrails-kvstore/logger"
)

type projection struct {
	code       codes.Code
	httpStatus int
	message    string
}

// The one table both projections read. An empty message means the caller's
// own message is returned.
var projections = [...]projection{
	KindInternal:       {codes.Internal, http.StatusInternalServerError, "Internal error"},
	KindBackend:        {codes.Internal, http.StatusInternalServerError, "Database error"},
	KindUnauthorized:   {codes.Unauthenticated, http.StatusUnauthorized, "Unauthorized"},
	KindKeyNotFound:    {codes.NotFound, http.StatusNotFound, "Key not found"},
	KindInvalidRequest: {codes.InvalidArgument, http.StatusBadRequest, ""},
	KindEncoding:       {codes.Internal, http.StatusInternalServerError, "Encoding error"},
}

func projectionOf(k Kind) projection {
	if k < 0 || int(k) >= len(projections) {
		return projections[KindInternal]
	}
	return projections[k]
}

// ErrorBody is the JSON envelope of every HTTP failure.
type ErrorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// HTTPStatus is the HTTP projection of the taxonomy.
func HTTPStatus(k Kind) int {
	return projectionOf(k).httpStatus
}

// HTTPStatusFromError projects any error onto an HTTP status. Errors that
// carry a gRPC status but are not part of the taxonomy use the gateway's
// canonical code mapping.
func HTTPStatusFromError(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return HTTPStatus(e.Kind)
	}
	if s, ok := status.FromError(err); ok && err != nil {
		return runtime.HTTPStatusFromCode(s.Code())
	}
	return HTTPStatus(KindInternal)
}

// PublicMessage is the text a caller is allowed to see for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		p := projectionOf(e.Kind)
		if p.message == "" {
			return e.Message
		}
		return p.message
	}
	if s, ok := status.FromError(err); ok && err != nil {
		if k := kindFromCode(s.Code()); k == KindInvalidRequest {
			return s.Message()
		}
		return projectionOf(kindFromCode(s.Code())).message
	}
	return projections[KindInternal].message
}

// WriteHTTPError logs err and writes the JSON envelope.
func WriteHTTPError(ctx context.Context, w http.ResponseWriter, err error) {
	logError(ctx, "http", err)

	code := HTTPStatusFromError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	jerr := json.NewEncoder(w).Encode(ErrorBody{
		Error:  PublicMessage(err),
		Status: code,
	})
	if jerr != nil {
		logger.Sugar.FromContext(ctx).Infof("failed to write error body: %v", jerr)
	}
}

// logError logs at the transport boundary. Server side failures are errors,
// caller mistakes are informational.
func logError(ctx context.Context, transport string, err error) {
	log := logger.Sugar.FromContext(ctx).WithIndex("transport", transport)
	switch KindOf(err) {
	case KindBackend, KindEncoding, KindInternal:
		log.Errorf("request failed: %v", err)
	case KindKeyNotFound:
		log.Debugf("request failed: %v", err)
	default:
		log.Infof("request failed: %v", err)
	}
}
