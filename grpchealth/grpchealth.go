// Package grpchealth package provides server implementing Check rpc that meets https://github.com/grpc/grpc/blob/master/doc/health-checking.md
package grpchealth

import (
	"context"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/datatrails/go-datatrails-kvstore/logger"
)

type Logger = logger.Logger

const (
	livenessServiceName  = "liveness"
	readinessServiceName = "readiness"
)

// Probe checks a dependency. A non nil error makes the service not ready.
type Probe func(ctx context.Context) error

type HealthCheckingService struct {
	grpc_health_v1.UnimplementedHealthServer
	sync.RWMutex
	healthStatus map[string]grpc_health_v1.HealthCheckResponse_ServingStatus
	probe        Probe
	log          Logger
}

type Option func(*HealthCheckingService)

// WithProbe consults probe on every readiness check, so that the service
// reports NOT_SERVING while its backend is unreachable.
func WithProbe(probe Probe) Option {
	return func(s *HealthCheckingService) {
		s.probe = probe
	}
}

func New(log Logger, opts ...Option) *HealthCheckingService {
	s := &HealthCheckingService{
		healthStatus: map[string]grpc_health_v1.HealthCheckResponse_ServingStatus{
			livenessServiceName:  grpc_health_v1.HealthCheckResponse_SERVING,
			readinessServiceName: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HealthCheckingService) serving(service string) {
	s.Lock()
	defer s.Unlock()
	s.healthStatus[service] = grpc_health_v1.HealthCheckResponse_SERVING
	s.log.Infof("Health set to 'SERVING': %s", service)
}

func (s *HealthCheckingService) notServing(service string) {
	s.Lock()
	defer s.Unlock()
	s.healthStatus[service] = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	s.log.Infof("Health set to 'NOT_SERVING': %s", service)
}

// Dead - changes status of service to dead
func (s *HealthCheckingService) Dead() {
	s.notServing(livenessServiceName)
}

// NotReady - changes status of service to not ready
func (s *HealthCheckingService) NotReady() {
	s.notServing(readinessServiceName)
}

// Ready - changes status of service to ready
func (s *HealthCheckingService) Ready() {
	s.serving(readinessServiceName)
}

func (s *HealthCheckingService) status(ctx context.Context, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, bool) {
	s.RLock()
	stat, ok := s.healthStatus[service]
	s.RUnlock()
	if !ok || service != readinessServiceName || stat != grpc_health_v1.HealthCheckResponse_SERVING || s.probe == nil {
		return stat, ok
	}
	if err := s.probe(ctx); err != nil {
		s.log.Infof("Health Check '%s' probe failed: %v", service, err)
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING, true
	}
	return stat, true
}

// Check implements `service Health`. The empty service name is SERVING only
// if every service is.
func (s *HealthCheckingService) Check(ctx context.Context, in *grpc_health_v1.HealthCheckRequest) (
	*grpc_health_v1.HealthCheckResponse, error) {

	if in.Service == "" {
		for _, service := range []string{livenessServiceName, readinessServiceName} {
			v, _ := s.status(ctx, service)
			if v != grpc_health_v1.HealthCheckResponse_SERVING {
				s.log.Infof("Health Check '%s' is NOT SERVING: '%s'", service, v.String())
				return &grpc_health_v1.HealthCheckResponse{
					Status: v,
				}, nil
			}
		}
		s.log.Debugf("Health Check is SERVING")
		return &grpc_health_v1.HealthCheckResponse{
			Status: grpc_health_v1.HealthCheckResponse_SERVING,
		}, nil
	}
	if stat, ok := s.status(ctx, in.Service); ok {
		s.log.Debugf("Health Check '%s' is `%s'", in.Service, stat)
		return &grpc_health_v1.HealthCheckResponse{
			Status: stat,
		}, nil
	}
	err := status.Error(codes.NotFound, "unknown service: "+in.Service)

	s.log.Infof("Health Check failed: %v", err)
	return nil, err
}

func (s *HealthCheckingService) Watch(in *grpc_health_v1.HealthCheckRequest, w grpc_health_v1.Health_WatchServer) error {
	s.log.Infof("Health Check watch not supported")
	return status.Error(codes.Unimplemented, "watch not supported")
}
