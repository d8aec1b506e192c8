// Package kvstore maps namespaced logical keys onto a shared redis backend.
// A credential is its own namespace: every physical key is the credential,
// the delimiter and the logical key.
package kvstore

import (
	"context"
	"errors"
	"math"
	"time"
	"unicode/utf8"

	"github.com/go-redis/redis/v8"

	"github.com/datatrails/go-datatrails-kvstore/auth"
	"github.com/datatrails/go-datatrails-kvstore/errhandling"
	kvredis "github.com/datatrails/go-datatrails-kvstore/redis"
	"github.com/datatrails/go-datatrails-kvstore/tracing"
)

const (
	// MaxTTLSeconds is the longest expiry that still fits a time.Duration.
	MaxTTLSeconds = math.MaxInt64 / int64(time.Second)

	DefaultTokensKey  = "tokens"
	defaultListBuffer = 64
	defaultScanCount  = 100
)

// Store is safe for concurrent use. The client is shared by every request
// and is never locked by the gateway.
type Store struct {
	log        Logger
	client     kvredis.Client
	tokensKey  string
	listBuffer int
	scanCount  int64
}

type Option func(*Store)

// WithTokensKey names the backend set holding registered credentials.
func WithTokensKey(name string) Option {
	return func(s *Store) {
		s.tokensKey = name
	}
}

// WithListBuffer bounds the number of keys a List producer may run ahead of
// its consumer.
func WithListBuffer(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.listBuffer = n
		}
	}
}

// WithScanCount sets the COUNT hint for each SCAN batch.
func WithScanCount(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.scanCount = n
		}
	}
}

func New(log Logger, client kvredis.Client, opts ...Option) *Store {
	s := &Store{
		log:        log.WithIndex("component", "kvstore"),
		client:     client,
		tokensKey:  DefaultTokensKey,
		listBuffer: defaultListBuffer,
		scanCount:  defaultScanCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) span(ctx context.Context, name string) (*tracing.Span, context.Context, Logger) {
	span, ctx := tracing.StartSpanFromContext(ctx, s.log, name)
	return span, ctx, s.log.FromContext(ctx)
}

// ValidateToken reports whether credential is a member of the tokens set.
func (s *Store) ValidateToken(ctx context.Context, credential string) (bool, error) {
	span, ctx, log := s.span(ctx, "kvstore.ValidateToken")
	defer span.Close()

	log.Debugf("ValidateToken: %s", auth.Redact(credential))
	ok, err := s.client.SIsMember(ctx, s.tokensKey, credential).Result()
	if err != nil {
		err = errhandling.BackendError(err, "sismember %s", s.tokensKey)
		span.SetError(err)
		return false, err
	}
	return ok, nil
}

// Get returns the value of key in the credential's namespace.
func (s *Store) Get(ctx context.Context, credential, key string) (string, error) {
	span, ctx, log := s.span(ctx, "kvstore.Get")
	defer span.Close()

	physical := PhysicalKey(credential, key)
	log.Debugf("Get: %s", PhysicalKey(auth.Redact(credential), key))
	span.SetTag("key", key)

	value, err := s.client.Get(ctx, physical).Result()
	if errors.Is(err, redis.Nil) {
		return "", errhandling.KeyNotFound(key)
	}
	if err != nil {
		err = errhandling.BackendError(err, "get %s", key)
		span.SetError(err)
		return "", err
	}
	if !utf8.ValidString(value) {
		err = errhandling.EncodingError(errors.New("value is not valid utf-8"))
		span.SetError(err)
		return "", err
	}
	return value, nil
}

// CheckTTL accepts an absent ttl or one between 1 and MaxTTLSeconds.
func CheckTTL(ttl *int64) error {
	if ttl == nil {
		return nil
	}
	if *ttl <= 0 {
		return errhandling.InvalidRequest("ttl_seconds must be a positive number of seconds, got %d", *ttl)
	}
	if *ttl > MaxTTLSeconds {
		return errhandling.InvalidRequest("ttl_seconds must be at most %d, got %d", MaxTTLSeconds, *ttl)
	}
	return nil
}

// Set stores value under key. With a ttl the key expires after that many
// seconds, without one any previous expiry is cleared.
func (s *Store) Set(ctx context.Context, credential, key, value string, ttl *int64) error {
	span, ctx, log := s.span(ctx, "kvstore.Set")
	defer span.Close()

	if err := CheckTTL(ttl); err != nil {
		return err
	}
	var expiration time.Duration
	if ttl != nil {
		expiration = time.Duration(*ttl) * time.Second
	}
	log.Debugf("Set: %s ttl %v", PhysicalKey(auth.Redact(credential), key), expiration)
	span.SetTag("key", key)

	err := s.client.Set(ctx, PhysicalKey(credential, key), value, expiration).Err()
	if err != nil {
		err = errhandling.BackendError(err, "set %s", key)
		span.SetError(err)
		return err
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, credential, key string) error {
	span, ctx, log := s.span(ctx, "kvstore.Delete")
	defer span.Close()

	log.Debugf("Delete: %s", PhysicalKey(auth.Redact(credential), key))
	span.SetTag("key", key)

	err := s.client.Del(ctx, PhysicalKey(credential, key)).Err()
	if err != nil {
		err = errhandling.BackendError(err, "del %s", key)
		span.SetError(err)
		return err
	}
	return nil
}

// HealthCheck is true only if the backend answers PONG.
func (s *Store) HealthCheck(ctx context.Context) (bool, error) {
	span, ctx, _ := s.span(ctx, "kvstore.HealthCheck")
	defer span.Close()

	reply, err := s.client.Ping(ctx).Result()
	if err != nil {
		err = errhandling.BackendError(err, "ping")
		span.SetError(err)
		return false, err
	}
	return reply == "PONG", nil
}

// Keys collects List into a slice.
func (s *Store) Keys(ctx context.Context, credential, prefix string) ([]string, error) {
	stream := s.List(ctx, credential, prefix)
	defer stream.Close()

	keys := []string{}
	for {
		key, ok := stream.Next()
		if !ok {
			break
		}
		keys = append(keys, key)
	}
	return keys, stream.Err()
}
