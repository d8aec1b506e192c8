package redis

// Defines Mocks for the redis Client

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/mock"
)

// MockClient is a mock redis Client. Replies are built with the go-redis
// NewXxxResult helpers.
type MockClient struct {
	mock.Mock
}

func (mc *MockClient) Get(ctx context.Context, key string) *redis.StringCmd {
	arguments := mc.Called(key)
	return arguments.Get(0).(*redis.StringCmd)
}

func (mc *MockClient) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	arguments := mc.Called(key, value, expiration)
	return arguments.Get(0).(*redis.StatusCmd)
}

func (mc *MockClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	arguments := mc.Called(keys)
	return arguments.Get(0).(*redis.IntCmd)
}

func (mc *MockClient) SIsMember(ctx context.Context, key string, member any) *redis.BoolCmd {
	arguments := mc.Called(key, member)
	return arguments.Get(0).(*redis.BoolCmd)
}

func (mc *MockClient) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	arguments := mc.Called(cursor, match, count)
	return arguments.Get(0).(*redis.ScanCmd)
}

func (mc *MockClient) Ping(ctx context.Context) *redis.StatusCmd {
	arguments := mc.Called()
	return arguments.Get(0).(*redis.StatusCmd)
}

func (mc *MockClient) Close() error {
	arguments := mc.Called()
	return arguments.Error(0)
}
