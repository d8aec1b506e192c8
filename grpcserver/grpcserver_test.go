package grpcserver

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpcHealth "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/datatrails/go-datatrails-kvstore/logger"
)

func startServer(t *testing.T, opts ...GRPCServerOption) grpcHealth.HealthClient {
	t.Helper()
	logger.New("NOOP")
	t.Cleanup(logger.OnExit)

	lis := bufconn.Listen(1 << 20)
	g := New(logger.Sugar, "test", "0", append(opts, WithListener(lis))...)
	go func() {
		_ = g.Listen()
	}()
	t.Cleanup(func() { _ = g.Shutdown(context.Background()) })

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return grpcHealth.NewHealthClient(conn)
}

func TestHealthServing(t *testing.T) {
	client := startServer(t)

	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &grpcHealth.HealthCheckRequest{})
		return err == nil && resp.Status == grpcHealth.HealthCheckResponse_SERVING
	}, testTimeout, testTick)
}

func TestHealthProbeFailing(t *testing.T) {
	client := startServer(t, WithHealthProbe(func(ctx context.Context) error {
		return errors.New("backend down")
	}))

	resp, err := client.Check(context.Background(), &grpcHealth.HealthCheckRequest{Service: "readiness"})
	require.NoError(t, err)
	assert.Equal(t, grpcHealth.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestString(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	g := New(logger.Sugar, "KVStore", "50051", WithoutHealth())
	assert.Equal(t, "kvstore:50051", g.String())
}
