// Command kvstore serves the namespaced key-value gateway over HTTP and gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/datatrails/go-datatrails-kvstore/config"
	"github.com/datatrails/go-datatrails-kvstore/grpcserver"
	"github.com/datatrails/go-datatrails-kvstore/httpapi"
	"github.com/datatrails/go-datatrails-kvstore/httpserver"
	"github.com/datatrails/go-datatrails-kvstore/kvstore"
	"github.com/datatrails/go-datatrails-kvstore/logger"
	"github.com/datatrails/go-datatrails-kvstore/metrics"
	"github.com/datatrails/go-datatrails-kvstore/readiness"
	"github.com/datatrails/go-datatrails-kvstore/redis"
	"github.com/datatrails/go-datatrails-kvstore/rpcapi"
	"github.com/datatrails/go-datatrails-kvstore/startup"
	"github.com/datatrails/go-datatrails-kvstore/tracing"
)

const (
	serviceName         = "kvstore"
	redisConnectBackoff = 2 * time.Second
)

var errUnhealthy = errors.New("backend did not answer PONG")

func main() {
	startup.Run(serviceName, run)
}

func run(log logger.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	closer, err := tracing.NewFromEnv(serviceName, "localhost:"+cfg.GRPCPort, cfg.ZipkinEndpoint, cfg.DisableZipkin)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	redisCfg, err := redis.NewConfig(log, cfg.RedisURL)
	if err != nil {
		return err
	}
	client, err := redis.NewRedisClient(redisCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	// refuse to start against a backend that never answers
	err = readiness.Repeat(context.Background(), cfg.RedisConnectAttempts, redisConnectBackoff, func(ctx context.Context) error {
		return redis.Ping(ctx, client)
	})
	if err != nil {
		return fmt.Errorf("backend %s not healthy: %w", redisCfg.URL(), err)
	}
	log.Infof("connected to %s", redisCfg.URL())

	store := kvstore.New(log, client, kvstore.WithTokensKey(cfg.TokensKey))
	m := metrics.NewFromConfig(log, serviceName, cfg.UseMetrics, cfg.MetricsPort)

	var listeners []startup.Listener
	if cfg.EnableHTTP {
		listeners = append(listeners, httpserver.New(log, "http", cfg.HTTPPort,
			httpapi.NewHandler(log, store),
			httpserver.WithHandlers(tracing.HTTPMiddleware, m.NewLatencyMetricsHandler),
		))
	}
	if cfg.EnableGRPC {
		if cfg.Reflection {
			if err := rpcapi.RegisterDescriptor(); err != nil {
				return err
			}
		}
		listeners = append(listeners, grpcserver.New(log, "grpc", cfg.GRPCPort,
			grpcserver.WithRegisterServer(rpcapi.Register(log, store)),
			grpcserver.WithServerOptions(rpcapi.ServerOptions()...),
			grpcserver.WithHealthProbe(probe(store)),
			grpcserver.WithReflection(cfg.Reflection),
			grpcserver.WithAppendedInterceptor(m.UnaryServerInterceptor()),
			grpcserver.WithAppendedStreamInterceptor(m.StreamServerInterceptor()),
		))
	}
	if m != nil {
		listeners = append(listeners, httpserver.New(log, "metrics", m.Port(), m.NewPromHandler()))
	}

	l := startup.NewListeners(log, serviceName, startup.WithListeners(listeners))
	return l.Listen(context.Background())
}

func probe(store *kvstore.Store) func(context.Context) error {
	return func(ctx context.Context) error {
		healthy, err := store.HealthCheck(ctx)
		if err != nil {
			return err
		}
		if !healthy {
			return errUnhealthy
		}
		return nil
	}
}
