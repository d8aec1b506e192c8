package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_otrace "github.com/grpc-ecosystem/go-grpc-middleware/tracing/opentracing"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/datatrails/go-datatrails-kvstore/grpchealth"
	"github.com/datatrails/go-datatrails-kvstore/logger"
	grpcHealth "google.golang.org/grpc/health/grpc_health_v1"
)

// so we dont have to import grpc when using this package.
type grpcServer = grpc.Server
type grpcUnaryServerInterceptor = grpc.UnaryServerInterceptor
type grpcStreamServerInterceptor = grpc.StreamServerInterceptor
type ServerOption = grpc.ServerOption

type RegisterServer func(*grpcServer)

func defaultRegisterServer(g *grpcServer) {}

type GRPCServer struct {
	name               string
	log                Logger
	listenStr          string
	listener           net.Listener
	health             bool
	healthOptions      []grpchealth.Option
	healthService      *grpchealth.HealthCheckingService
	interceptors       []grpcUnaryServerInterceptor
	streamInterceptors []grpcStreamServerInterceptor
	serverOptions      []ServerOption
	register           RegisterServer
	server             *grpcServer
	reflection         bool
}

type GRPCServerOption func(*GRPCServer)

func WithAppendedInterceptor(i grpcUnaryServerInterceptor) GRPCServerOption {
	return func(g *GRPCServer) {
		g.interceptors = append(g.interceptors, i)
	}
}

func WithAppendedStreamInterceptor(i grpcStreamServerInterceptor) GRPCServerOption {
	return func(g *GRPCServer) {
		g.streamInterceptors = append(g.streamInterceptors, i)
	}
}

// WithServerOptions passes options, such as a forced codec, to grpc.NewServer.
func WithServerOptions(opts ...ServerOption) GRPCServerOption {
	return func(g *GRPCServer) {
		g.serverOptions = append(g.serverOptions, opts...)
	}
}

func WithRegisterServer(r RegisterServer) GRPCServerOption {
	return func(g *GRPCServer) {
		g.register = r
	}
}

func WithoutHealth() GRPCServerOption {
	return func(g *GRPCServer) {
		g.health = false
	}
}

// WithHealthProbe makes the readiness check depend on probe.
func WithHealthProbe(probe grpchealth.Probe) GRPCServerOption {
	return func(g *GRPCServer) {
		g.healthOptions = append(g.healthOptions, grpchealth.WithProbe(probe))
	}
}

func WithReflection(r bool) GRPCServerOption {
	return func(g *GRPCServer) {
		g.reflection = r
	}
}

// WithListener serves on an existing listener instead of the port. Used by
// tests with bufconn.
func WithListener(l net.Listener) GRPCServerOption {
	return func(g *GRPCServer) {
		g.listener = l
	}
}

func tracingFilter(ctx context.Context, fullMethodName string) bool {
	return !strings.HasPrefix(fullMethodName, healthPrefix)
}

func recoveryHandler(p any) error {
	logger.Sugar.Errorf("recovered from panic: %v", p)
	return status.Error(codes.Internal, "Internal error")
}

// New creates a new GRPCServer that is bound to a specific GRPC API. This object complies with
// the standard Listener service and can be managed by the startup.Listeners object.
func New(log Logger, name string, port string, opts ...GRPCServerOption) *GRPCServer {
	g := GRPCServer{
		name:      strings.ToLower(name),
		listenStr: fmt.Sprintf(":%s", port),
		register:  defaultRegisterServer,
		interceptors: []grpc.UnaryServerInterceptor{
			CorrelationIDUnaryServerInterceptor(),
			grpc_recovery.UnaryServerInterceptor(grpc_recovery.WithRecoveryHandler(recoveryHandler)),
			grpc_otrace.UnaryServerInterceptor(grpc_otrace.WithFilterFunc(tracingFilter)),
			grpc_zap.UnaryServerInterceptor(logger.Plain),
		},
		streamInterceptors: []grpc.StreamServerInterceptor{
			CorrelationIDStreamServerInterceptor(),
			grpc_recovery.StreamServerInterceptor(grpc_recovery.WithRecoveryHandler(recoveryHandler)),
			grpc_otrace.StreamServerInterceptor(grpc_otrace.WithFilterFunc(tracingFilter)),
			grpc_zap.StreamServerInterceptor(logger.Plain),
		},
		health: true,
	}
	for _, opt := range opts {
		opt(&g)
	}
	serverOptions := append([]grpc.ServerOption{
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(g.interceptors...)),
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(g.streamInterceptors...)),
	}, g.serverOptions...)
	server := grpc.NewServer(serverOptions...)

	g.register(server)

	if g.health {
		g.healthService = grpchealth.New(log, g.healthOptions...)
		grpcHealth.RegisterHealthServer(server, g.healthService)
	}

	if g.reflection {
		reflection.Register(server)
	}

	g.server = server
	g.log = log.WithIndex("grpcserver", g.String())
	return &g
}

func (g *GRPCServer) String() string {
	// No logging in this method please.
	return fmt.Sprintf("%s%s", g.name, g.listenStr)
}

func (g *GRPCServer) Listen() error {
	listen := g.listener
	if listen == nil {
		var err error
		listen, err = net.Listen("tcp", g.listenStr)
		if err != nil {
			return fmt.Errorf("failed to listen %s: %w", g, err)
		}
	}

	if g.healthService != nil {
		g.healthService.Ready() // readiness
	}

	g.log.Infof("Listen")
	err := g.server.Serve(listen)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve %s: %w", g, err)
	}
	return nil
}

func (g *GRPCServer) Shutdown(_ context.Context) error {
	g.log.Infof("Shutdown")
	if g.healthService != nil {
		g.healthService.NotReady() // readiness
		g.healthService.Dead()     // liveness
	}
	g.server.GracefulStop()
	return nil
}
