package kvstore

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatrails/go-datatrails-kvstore/errhandling"
	"github.com/datatrails/go-datatrails-kvstore/logger"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	logger.New("NOOP")
	t.Cleanup(logger.OnExit)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(logger.Sugar, client, opts...), mr
}

func ttl(seconds int64) *int64 {
	return &seconds
}

func TestSetGetRoundTrip(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tok", "user:123:name", "alice", nil))

	value, err := s.Get(ctx, "tok", "user:123:name")
	require.NoError(t, err)
	assert.Equal(t, "alice", value)

	stored, err := mr.Get("tok:user:123:name")
	require.NoError(t, err)
	assert.Equal(t, "alice", stored)
}

func TestNamespaceIsolation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "c1", "k", "one", nil))
	require.NoError(t, s.Set(ctx, "c2", "k", "two", nil))

	v1, err := s.Get(ctx, "c1", "k")
	require.NoError(t, err)
	v2, err := s.Get(ctx, "c2", "k")
	require.NoError(t, err)
	assert.Equal(t, "one", v1)
	assert.Equal(t, "two", v2)

	_, err = s.Get(ctx, "c3", "k")
	assert.Equal(t, errhandling.KindKeyNotFound, errhandling.KindOf(err))
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "tok", "absent")

	require.Error(t, err)
	assert.Equal(t, errhandling.KindKeyNotFound, errhandling.KindOf(err))
}

func TestGetInvalidUTF8(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("tok:bin", "\xff\xfe"))

	_, err := s.Get(context.Background(), "tok", "bin")

	require.Error(t, err)
	assert.Equal(t, errhandling.KindEncoding, errhandling.KindOf(err))
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tok", "a", "1", nil))
	require.NoError(t, s.Delete(ctx, "tok", "a"))
	require.NoError(t, s.Delete(ctx, "tok", "a"))

	_, err := s.Get(ctx, "tok", "a")
	assert.Equal(t, errhandling.KindKeyNotFound, errhandling.KindOf(err))
}

func TestSetTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tok", "session", "x", ttl(10)))
	assert.Equal(t, 10*time.Second, mr.TTL("tok:session"))

	value, err := s.Get(ctx, "tok", "session")
	require.NoError(t, err)
	assert.Equal(t, "x", value)

	mr.FastForward(11 * time.Second)

	_, err = s.Get(ctx, "tok", "session")
	assert.Equal(t, errhandling.KindKeyNotFound, errhandling.KindOf(err))
}

func TestSetWithoutTTLClearsExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tok", "k", "v1", ttl(10)))
	require.NoError(t, s.Set(ctx, "tok", "k", "v2", nil))

	assert.Equal(t, time.Duration(0), mr.TTL("tok:k"))
	mr.FastForward(time.Minute)

	value, err := s.Get(ctx, "tok", "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}

func TestSetRejectsNonPositiveTTL(t *testing.T) {
	s, mr := newTestStore(t)

	for _, seconds := range []int64{0, -5} {
		err := s.Set(context.Background(), "tok", "k", "v", ttl(seconds))
		require.Error(t, err)
		assert.Equal(t, errhandling.KindInvalidRequest, errhandling.KindOf(err))
	}
	assert.False(t, mr.Exists("tok:k"))
}

func TestSetTTLBounds(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tok", "longest", "v", ttl(MaxTTLSeconds)))
	assert.Equal(t, time.Duration(MaxTTLSeconds)*time.Second, mr.TTL("tok:longest"))

	// these overflowed into a short or absent expiry when multiplied out
	for _, seconds := range []int64{MaxTTLSeconds + 1, 18446744074, math.MaxInt64} {
		err := s.Set(ctx, "tok", "k", "v", ttl(seconds))
		require.Error(t, err, "ttl %d", seconds)
		assert.Equal(t, errhandling.KindInvalidRequest, errhandling.KindOf(err))
	}
	assert.False(t, mr.Exists("tok:k"))
}

func TestValidateToken(t *testing.T) {
	s, mr := newTestStore(t)
	_, err := mr.SAdd(DefaultTokensKey, "tok")
	require.NoError(t, err)

	ok, err := s.ValidateToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ValidateToken(context.Background(), "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateTokenCustomSet(t *testing.T) {
	s, mr := newTestStore(t, WithTokensKey("credentials"))
	_, err := mr.SAdd("credentials", "tok")
	require.NoError(t, err)

	ok, err := s.ValidateToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBackendFailure(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	mr.SetError("ERR backend unavailable")

	_, err := s.ValidateToken(ctx, "tok")
	assert.Equal(t, errhandling.KindBackend, errhandling.KindOf(err))

	_, err = s.Get(ctx, "tok", "k")
	assert.Equal(t, errhandling.KindBackend, errhandling.KindOf(err))

	err = s.Set(ctx, "tok", "k", "v", nil)
	assert.Equal(t, errhandling.KindBackend, errhandling.KindOf(err))

	err = s.Delete(ctx, "tok", "k")
	assert.Equal(t, errhandling.KindBackend, errhandling.KindOf(err))

	_, err = s.Keys(ctx, "tok", "")
	assert.Equal(t, errhandling.KindBackend, errhandling.KindOf(err))
}

func TestHealthCheck(t *testing.T) {
	s, mr := newTestStore(t)

	healthy, err := s.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, healthy)

	mr.Close()
	healthy, err = s.HealthCheck(context.Background())
	require.Error(t, err)
	assert.False(t, healthy)
	assert.Equal(t, errhandling.KindBackend, errhandling.KindOf(err))
}

// TestScenario walks a single credential through the full lifecycle of a key.
func TestScenario(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	_, err := mr.SAdd(DefaultTokensKey, "tok")
	require.NoError(t, err)

	ok, err := s.ValidateToken(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Set(ctx, "tok", "a", "1", nil))

	value, err := s.Get(ctx, "tok", "a")
	require.NoError(t, err)
	assert.Equal(t, "1", value)

	keys, err := s.Keys(ctx, "tok", "")
	require.NoError(t, err)
	assert.Contains(t, keys, "a")

	require.NoError(t, s.Delete(ctx, "tok", "a"))

	_, err = s.Get(ctx, "tok", "a")
	assert.Equal(t, errhandling.KindKeyNotFound, errhandling.KindOf(err))
}
