package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNamedAndRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Named("mqtt").Info("connected")
	WithRequestID("req-1").Warn("slow")
	Info("plain", zap.String("event", "element_status_changed"))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "mqtt", entries[0].LoggerName)
	assert.Equal(t, "req-1", entries[1].ContextMap()["request_id"])
	assert.Equal(t, "element_status_changed", entries[2].ContextMap()["event"])
}

func TestSetNilFallsBackToNop(t *testing.T) {
	Set(nil)
	assert.NotPanics(t, func() { Error("ignored") })
}
