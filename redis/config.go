package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/datatrails/go-datatrails-kvstore/readiness"
)

const (
	RedisURLEnv     = "REDIS_URL"
	DefaultRedisURL = "redis://127.0.0.1:6379"

	// The default implementation does  10 * GOMAXPROCS(0). GOMAXPROCS is
	// problematic in containers.
	poolSize = 10
)

// RedisConfig describes how to reach a single backend node.
type RedisConfig interface {
	GetOptions() (*redis.Options, error)
	// URL is safe to log, it never contains the password.
	URL() string
	Log() Logger
}

// Client is the subset of the go-redis client the gateway uses. Every call
// is a single backend command.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SIsMember(ctx context.Context, key string, member any) *redis.BoolCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

type config struct {
	log     Logger
	url     string
	options *redis.Options
}

// NewConfig parses a redis:// or rediss:// url.
func NewConfig(log Logger, url string) (RedisConfig, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, URLError(err, RedisURLEnv)
	}
	options.PoolSize = poolSize
	return &config{
		log:     log,
		url:     url,
		options: options,
	}, nil
}

func (cfg *config) Log() Logger {
	return cfg.log
}

func (cfg *config) GetOptions() (*redis.Options, error) {
	if cfg.options == nil {
		return nil, fmt.Errorf("redis config has no options")
	}
	return cfg.options, nil
}

func (cfg *config) URL() string {
	scheme := "redis"
	if cfg.options.TLSConfig != nil {
		scheme = "rediss"
	}
	return fmt.Sprintf("%s://%s/%d", scheme, cfg.options.Addr, cfg.options.DB)
}

// NewRedisClient creates the pooled client. It does not contact the server,
// use readiness to wait for it.
func NewRedisClient(cfg RedisConfig) (Client, error) {
	opts, err := cfg.GetOptions()
	if err != nil {
		return nil, ConnectError(err, cfg.URL())
	}
	cfg.Log().Infof("connecting to redis: %s", cfg.URL())
	return redis.NewClient(opts), nil
}

// Ping returns nil only if the server answered PONG. A rejected
// credential is wrapped with readiness.NewUnrecoverableError so that
// startup retries give up at once.
func Ping(ctx context.Context, c Client) error {
	reply, err := c.Ping(ctx).Result()
	if err != nil {
		err = PingError(err, "ping")
		if isAuthError(err) {
			return readiness.NewUnrecoverableError(err)
		}
		return err
	}
	if reply != "PONG" {
		return PingError(fmt.Errorf("%w: %q", ErrUnexpectedReply, reply), "ping")
	}
	return nil
}
