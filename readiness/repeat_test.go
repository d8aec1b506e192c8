package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/datatrails/go-datatrails-kvstore/logger"
)

var errNotYet = errors.New("not yet")

func TestRepeat(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	table := []struct {
		name      string
		attempts  int
		succeedOn int
		calls     int
		err       error
	}{
		{name: "first time", attempts: 3, succeedOn: 1, calls: 1},
		{name: "third time", attempts: 3, succeedOn: 3, calls: 3},
		{name: "exhausted", attempts: 3, succeedOn: 4, calls: 3, err: errNotYet},
		{name: "single attempt", attempts: 1, succeedOn: 2, calls: 1, err: errNotYet},
	}
	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			calls := 0
			err := Repeat(context.Background(), test.attempts, time.Millisecond, func(context.Context) error {
				calls++
				if calls >= test.succeedOn {
					return nil
				}
				return errNotYet
			})
			assert.Equal(t, test.calls, calls)
			assert.ErrorIs(t, err, test.err)
		})
	}
}

func TestRepeatUnrecoverable(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	calls := 0
	err := Repeat(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return NewUnrecoverableError(errNotYet)
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errNotYet)
	assert.True(t, IsUnrecoverable(err))
	assert.False(t, IsUnrecoverable(errNotYet))
	assert.Equal(t, "unrecoverable: not yet", err.Error())
}

func TestRepeatCancelled(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Repeat(ctx, -1, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errNotYet
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errNotYet)
}
