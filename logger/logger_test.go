package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/metadata"

	"github.com/datatrails/go-datatrails-kvstore/correlationid"
)

func TestWithIndexLowercasesValue(t *testing.T) {
	New(TestLevel)
	defer OnExit()
	Recorded.TakeAll()

	log := Sugar.WithIndex("transport", "HTTP")
	log.Infof("hello %s", "world")

	entries := Recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello world", entries[0].Message)
	assert.Equal(t, "http", entries[0].ContextMap()["transport"])
}

func TestRecordedLevels(t *testing.T) {
	New(TestLevel)
	defer OnExit()
	Recorded.TakeAll()

	Sugar.Debugf("debug")
	Sugar.Warnf("warn")
	Sugar.ErrorR("boom", "first")

	entries := Recorded.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "first", entries[2].ContextMap()["arg0"])
}

func TestFromContextWithoutSpan(t *testing.T) {
	New(NoopLevel)
	defer OnExit()

	log := Sugar.FromContext(context.Background())
	assert.Same(t, Sugar, log)
}

func TestFromContextCorrelationID(t *testing.T) {
	New(TestLevel)
	defer OnExit()
	Recorded.TakeAll()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
	ctx = correlationid.ContextWithCorrelationID(ctx, "cid-7")
	Sugar.FromContext(ctx).Infof("request")

	entries := Recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "cid-7", entries[0].ContextMap()["correlationid"])
}

func BenchmarkWrappedLogger_FromContext(b *testing.B) {
	New(NoopLevel)
	ctx := context.Background()
	for n := 0; n < b.N; n++ {
		func(inctx context.Context) {
			log := Sugar.FromContext(inctx)
			defer log.Close()
		}(ctx)
	}
}
