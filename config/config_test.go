package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"REDIS_URL", TokensKeyEnv, HTTPPortEnv, GRPCPortEnv, EnableHTTPEnv, EnableGRPCEnv,
		RedisConnectAttemptsEnv, UseMetricsEnv, MetricsPortEnv, ZipkinEndpointEnv, DisableZipkinEnv,
		EnableReflectionEnv,
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{
		RedisURL:             "redis://127.0.0.1:6379",
		TokensKey:            "tokens",
		RedisConnectAttempts: 5,
		HTTPPort:             "3000",
		GRPCPort:             "50051",
		EnableHTTP:           true,
		EnableGRPC:           true,
		MetricsPort:          "9090",
	}, cfg)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6380/2")
	t.Setenv(TokensKeyEnv, "registered")
	t.Setenv(HTTPPortEnv, "8080")
	t.Setenv(GRPCPortEnv, "9000")
	t.Setenv(EnableHTTPEnv, "false")
	t.Setenv(EnableGRPCEnv, "true")
	t.Setenv(RedisConnectAttemptsEnv, "2")
	t.Setenv(UseMetricsEnv, "1")
	t.Setenv(MetricsPortEnv, "9100")
	t.Setenv(ZipkinEndpointEnv, "http://zipkin:9411/api/v2/spans")
	t.Setenv(DisableZipkinEnv, "")
	t.Setenv(EnableReflectionEnv, "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{
		RedisURL:             "redis://cache:6380/2",
		TokensKey:            "registered",
		RedisConnectAttempts: 2,
		HTTPPort:             "8080",
		GRPCPort:             "9000",
		EnableHTTP:           false,
		EnableGRPC:           true,
		Reflection:           true,
		UseMetrics:           true,
		MetricsPort:          "9100",
		ZipkinEndpoint:       "http://zipkin:9411/api/v2/spans",
	}, cfg)
}

func TestFromEnvErrors(t *testing.T) {
	table := []struct {
		name string
		env  map[string]string
		err  error
	}{
		{name: "no transport", env: map[string]string{EnableHTTPEnv: "false", EnableGRPCEnv: "0"}, err: ErrNoTransport},
		{name: "bad bool", env: map[string]string{EnableHTTPEnv: "maybe"}},
		{name: "bad attempts", env: map[string]string{RedisConnectAttemptsEnv: "many"}},
		{name: "zero attempts", env: map[string]string{RedisConnectAttemptsEnv: "0"}},
	}
	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv(EnableHTTPEnv, "")
			t.Setenv(EnableGRPCEnv, "")
			t.Setenv(RedisConnectAttemptsEnv, "")
			for k, v := range test.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
			}
		})
	}
}
