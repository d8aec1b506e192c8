package rpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/datatrails/go-datatrails-kvstore/auth"
	"github.com/datatrails/go-datatrails-kvstore/errhandling"
	"github.com/datatrails/go-datatrails-kvstore/grpcserver"
	"github.com/datatrails/go-datatrails-kvstore/kvstore"
)

const (
	okMessage        = "OK"
	unhealthyMessage = "Unhealthy"
)

// Store is the part of the store facade the RPC surface needs.
type Store interface {
	auth.TokenValidator
	Get(ctx context.Context, credential, key string) (string, error)
	Set(ctx context.Context, credential, key, value string, ttl *int64) error
	Delete(ctx context.Context, credential, key string) error
	List(ctx context.Context, credential, prefix string) *kvstore.KeyStream
	HealthCheck(ctx context.Context) (bool, error)
}

// Server implements KVStoreServer. There is no shared auth stage for RPCs,
// every method checks its own token.
type Server struct {
	log   Logger
	store Store
}

func NewServer(log Logger, store Store) *Server {
	return &Server{
		log:   log.WithIndex("transport", "grpc"),
		store: store,
	}
}

// Register returns a grpcserver.RegisterServer installing the KVStore
// service backed by store.
func Register(log Logger, store Store) grpcserver.RegisterServer {
	return func(g *grpc.Server) {
		g.RegisterService(&ServiceDesc, NewServer(log, store))
	}
}

// check authenticates and then validates. Validation must not run first: a
// bad credential is Unauthenticated whatever the request holds, as it is
// over HTTP where the auth stage runs before the body is read.
func (s *Server) check(ctx context.Context, token string, req any) error {
	if err := auth.Check(ctx, s.store, token); err != nil {
		return err
	}
	if v, ok := req.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

func (s *Server) Get(ctx context.Context, in *GetRequest) (*GetResponse, error) {
	log := s.log.FromContext(ctx)
	log.Infof("GET %s (token: %s)", in.Key, auth.Redact(in.Token))

	if err := s.check(ctx, in.Token, in); err != nil {
		return nil, errhandling.GRPCError(ctx, err)
	}
	value, err := s.store.Get(ctx, in.Token, in.Key)
	if errhandling.IsKind(err, errhandling.KindKeyNotFound) {
		return &GetResponse{Found: false}, nil
	}
	if err != nil {
		return nil, errhandling.GRPCError(ctx, err)
	}
	return &GetResponse{Value: value, Found: true}, nil
}

func (s *Server) Set(ctx context.Context, in *SetRequest) (*SetResponse, error) {
	log := s.log.FromContext(ctx)
	log.Infof("SET %s (token: %s, ttl: %v)", in.Key, auth.Redact(in.Token), ttlString(in.TtlSeconds))

	if err := s.check(ctx, in.Token, in); err != nil {
		return nil, errhandling.GRPCError(ctx, err)
	}
	if err := s.store.Set(ctx, in.Token, in.Key, in.Value, in.TtlSeconds); err != nil {
		return nil, errhandling.GRPCError(ctx, err)
	}
	return &SetResponse{Success: true, Message: okMessage}, nil
}

func (s *Server) Delete(ctx context.Context, in *DeleteRequest) (*DeleteResponse, error) {
	log := s.log.FromContext(ctx)
	log.Infof("DELETE %s (token: %s)", in.Key, auth.Redact(in.Token))

	if err := s.check(ctx, in.Token, in); err != nil {
		return nil, errhandling.GRPCError(ctx, err)
	}
	if err := s.store.Delete(ctx, in.Token, in.Key); err != nil {
		return nil, errhandling.GRPCError(ctx, err)
	}
	return &DeleteResponse{Success: true, Message: okMessage}, nil
}

// List streams one message per key. A failed send means the client has gone
// away; closing the key stream stops the backend scan.
func (s *Server) List(in *ListRequest, stream ListServer) error {
	ctx := stream.Context()
	log := s.log.FromContext(ctx)
	log.Infof("LIST %s (token: %s)", in.Prefix, auth.Redact(in.Token))

	if err := s.check(ctx, in.Token, in); err != nil {
		return errhandling.GRPCError(ctx, err)
	}

	keys := s.store.List(ctx, in.Token, in.Prefix)
	defer keys.Close()

	sent := 0
	for {
		key, ok := keys.Next()
		if !ok {
			break
		}
		if err := stream.Send(&ListResponse{Key: key}); err != nil {
			log.Infof("LIST abandoned after %d keys: %v", sent, err)
			return err
		}
		sent++
	}
	if err := keys.Err(); err != nil {
		return errhandling.GRPCError(ctx, err)
	}
	log.Debugf("LIST sent %d keys", sent)
	return nil
}

func (s *Server) HealthCheck(ctx context.Context, _ *HealthCheckRequest) (*HealthCheckResponse, error) {
	s.log.FromContext(ctx).Debugf("health check")

	healthy, err := s.store.HealthCheck(ctx)
	if err != nil {
		return nil, errhandling.GRPCError(ctx, err)
	}
	if !healthy {
		return &HealthCheckResponse{Healthy: false, Message: unhealthyMessage}, nil
	}
	return &HealthCheckResponse{Healthy: true, Message: okMessage}, nil
}

func ttlString(ttl *int64) string {
	if ttl == nil {
		return "none"
	}
	return fmt.Sprintf("%ds", *ttl)
}
