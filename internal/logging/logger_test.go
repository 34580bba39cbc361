package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := L()
	SetBase(zap.New(core))
	t.Cleanup(func() { SetBase(prev) })
	return logs
}

func TestFromContext_RequestID(t *testing.T) {
	logs := observe(t)

	ctx := WithRequestID(context.Background(), "rid-123")
	FromContext(ctx).LogInfof("generate", "generated %s", "Communication Plan")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "generated Communication Plan", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "rid-123", fields["request_id"])
	assert.Equal(t, "generate", fields["operation"])
}

func TestFromContext_UnknownRequestID(t *testing.T) {
	logs := observe(t)

	FromContext(context.Background()).LogError("bundle", errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "unknown", entry.ContextMap()["request_id"])
	assert.Equal(t, "boom", entry.ContextMap()["error"])
}

func TestInit_RejectsBadLevel(t *testing.T) {
	prev := L()
	t.Cleanup(func() { SetBase(prev) })

	_, err := Init("development", "loud")
	assert.Error(t, err)

	l, err := Init("production", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}
