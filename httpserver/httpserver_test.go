package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatrails/go-datatrails-kvstore/logger"
)

func TestListenAndShutdown(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hello")
	})
	s := New(logger.Sugar, "Test", "0", handler, WithListener(lis), WithHandlers(mw("outer"), mw("inner")))
	assert.Equal(t, "test:0", s.String())

	done := make(chan error, 1)
	go func() {
		done <- s.Listen()
	}()

	resp, err := http.Get("http://" + lis.Addr().String() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, []string{"outer", "inner"}, order)

	require.NoError(t, s.Shutdown(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after Shutdown")
	}
}
