package errhandling

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/datatrails/go-datatrails-kvstore/correlationid"
	"github.com/datatrails/go-datatrails-kvstore/logger"
)

// so we dont have to import status package everywhere
type Status = status.Status

// GRPCCode is the gRPC projection of the taxonomy.
func GRPCCode(k Kind) codes.Code {
	return projectionOf(k).code
}

// GRPCStatus builds the status returned to an RPC caller. Backend detail is
// never included in the message.
func GRPCStatus(ctx context.Context, err error) *Status {
	k := KindOf(err)
	s := status.New(GRPCCode(k), PublicMessage(err))
	return StatusWithCorrelationIDFromContext(ctx, s)
}

// GRPCError logs err and converts it into a status error. Errors that are
// already status errors and are not part of the taxonomy pass through, as
// do nil errors.
func GRPCError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		if _, ok := status.FromError(err); ok {
			return err
		}
	}
	logError(ctx, "grpc", err)
	return GRPCStatus(ctx, err).Err()
}

// StatusWithCorrelationIDFromContext attaches the correlation id, if any, as
// a RequestInfo detail.
func StatusWithCorrelationIDFromContext(ctx context.Context, s *Status) *Status {
	correlationID := correlationid.FromContext(ctx)
	if correlationID == "" {
		return s
	}
	st, err := s.WithDetails(&errdetails.RequestInfo{
		RequestId: correlationID,
	})
	if err != nil {
		logger.Sugar.Infof("cannot add correlationID %s: %v", correlationID, err)
		return s
	}
	return st
}

// CorrelationIDFromStatus returns the RequestInfo id attached to a status
// error, or the empty string.
func CorrelationIDFromStatus(err error) string {
	st := status.Convert(err)
	for _, detail := range st.Details() {
		if v, ok := detail.(*errdetails.RequestInfo); ok {
			return v.GetRequestId()
		}
	}
	return ""
}
