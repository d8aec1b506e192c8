package redis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

var (
	ErrRedisURL        = errors.New("redis url error")
	ErrRedisConnect    = errors.New("redis connect error")
	ErrRedisPing       = errors.New("redis ping error")
	ErrUnexpectedReply = errors.New("unexpected reply")
)

func URLError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisURL, name, err)
}

func ConnectError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisConnect, name, err)
}

func PingError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisPing, name, err)
}

// authErrorPrefixes are the reply prefixes of a server rejecting the
// connection's credentials.
var authErrorPrefixes = []string{"NOAUTH", "WRONGPASS", "ERR invalid password", "ERR AUTH"}

func isAuthError(err error) bool {
	var rerr redis.Error
	if !errors.As(err, &rerr) {
		return false
	}
	for _, prefix := range authErrorPrefixes {
		if strings.HasPrefix(rerr.Error(), prefix) {
			return true
		}
	}
	return false
}
