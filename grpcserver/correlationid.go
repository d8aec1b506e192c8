package grpcserver

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/datatrails/go-datatrails-kvstore/correlationid"
)

// the health service is polled constantly and does not need ids
const healthPrefix = "/grpc.health"

// CorrelationIDUnaryServerInterceptor returns a new unary server interceptor that inserts correlationID into context
func CorrelationIDUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthPrefix) {
			return handler(ctx, req)
		}
		return handler(withCorrelationID(ctx), req)
	}
}

// CorrelationIDStreamServerInterceptor does the same for streaming rpcs.
func CorrelationIDStreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if strings.HasPrefix(info.FullMethod, healthPrefix) {
			return handler(srv, ss)
		}
		return handler(srv, &contextStream{ServerStream: ss, ctx: withCorrelationID(ss.Context())})
	}
}

// withCorrelationID also returns the id to the caller as a response header.
func withCorrelationID(ctx context.Context) context.Context {
	ctx = correlationid.Context(ctx)
	_ = grpc.SetHeader(ctx, metadata.Pairs(correlationid.CorrelationIDKey, correlationid.FromContext(ctx)))
	return ctx
}

type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextStream) Context() context.Context {
	return s.ctx
}
