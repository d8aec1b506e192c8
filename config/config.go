// Package config reads the process configuration from the environment once
// at startup.
package config

import (
	"errors"
	"fmt"

	"github.com/datatrails/go-datatrails-kvstore/environment"
	"github.com/datatrails/go-datatrails-kvstore/kvstore"
	"github.com/datatrails/go-datatrails-kvstore/redis"
)

const (
	HTTPPortEnv             = "HTTP_PORT"
	GRPCPortEnv             = "GRPC_PORT"
	EnableHTTPEnv           = "ENABLE_HTTP"
	EnableGRPCEnv           = "ENABLE_GRPC"
	TokensKeyEnv            = "REDIS_TOKENS_KEY"
	RedisConnectAttemptsEnv = "REDIS_CONNECT_ATTEMPTS"
	UseMetricsEnv           = "USE_METRICS"
	MetricsPortEnv          = "METRICS_PORT"
	ZipkinEndpointEnv       = "ZIPKIN_ENDPOINT"
	DisableZipkinEnv        = "DISABLE_ZIPKIN"
	EnableReflectionEnv     = "ENABLE_GRPC_REFLECTION"

	DefaultHTTPPort             = "3000"
	DefaultGRPCPort             = "50051"
	DefaultMetricsPort          = "9090"
	DefaultRedisConnectAttempts = 5
)

var ErrNoTransport = errors.New("at least one of HTTP or gRPC must be enabled")

type Config struct {
	RedisURL             string
	TokensKey            string
	RedisConnectAttempts int

	HTTPPort   string
	GRPCPort   string
	EnableHTTP bool
	EnableGRPC bool
	Reflection bool

	UseMetrics  bool
	MetricsPort string

	ZipkinEndpoint string
	DisableZipkin  bool
}

// get treats a variable set to the empty string as unset.
func get(key, fallback string) string {
	if value := environment.GetWithDefault(key, fallback); value != "" {
		return value
	}
	return fallback
}

// FromEnv reads every setting, applying defaults for those unset. It is an
// error to disable both transports.
func FromEnv() (Config, error) {
	var err error
	cfg := Config{
		RedisURL:       get(redis.RedisURLEnv, redis.DefaultRedisURL),
		TokensKey:      get(TokensKeyEnv, kvstore.DefaultTokensKey),
		HTTPPort:       get(HTTPPortEnv, DefaultHTTPPort),
		GRPCPort:       get(GRPCPortEnv, DefaultGRPCPort),
		MetricsPort:    get(MetricsPortEnv, DefaultMetricsPort),
		ZipkinEndpoint: get(ZipkinEndpointEnv, ""),
		UseMetrics:     environment.GetTruthy(UseMetricsEnv),
		DisableZipkin:  environment.GetTruthy(DisableZipkinEnv),
		Reflection:     environment.GetTruthy(EnableReflectionEnv),
	}

	cfg.RedisConnectAttempts, err = environment.GetInt(RedisConnectAttemptsEnv, DefaultRedisConnectAttempts)
	if err != nil {
		return Config{}, err
	}
	if cfg.RedisConnectAttempts < 1 {
		return Config{}, fmt.Errorf("%s must be at least 1, got %d", RedisConnectAttemptsEnv, cfg.RedisConnectAttempts)
	}

	cfg.EnableHTTP, err = environment.GetBool(EnableHTTPEnv, true)
	if err != nil {
		return Config{}, err
	}
	cfg.EnableGRPC, err = environment.GetBool(EnableGRPCEnv, true)
	if err != nil {
		return Config{}, err
	}
	if !cfg.EnableHTTP && !cfg.EnableGRPC {
		return Config{}, ErrNoTransport
	}
	return cfg, nil
}
