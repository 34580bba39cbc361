// Package logging wraps zap with the request-scoped helpers used by services
// and handlers. The request id is attached by the HTTP middleware.
package logging

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type requestIDKey struct{}

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init builds the process logger. Production uses JSON output, anything
// else uses the console encoder.
func Init(environment, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	SetBase(l)
	return l, nil
}

// SetBase replaces the process logger. Tests use it with zaptest or zap.NewNop.
func SetBase(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
}

// L returns the process logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID extracts the request id from ctx, or "" when none was set.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// Logger provides structured logging for services
type Logger struct {
	z *zap.Logger
}

// FromContext creates a logger tagged with the request id carried by ctx.
func FromContext(ctx context.Context) *Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{z: L().With(zap.String("request_id", requestID))}
}

// With returns a logger with extra fields attached.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

func (l *Logger) LogError(operation string, err error) {
	l.z.Error("operation failed", zap.String("operation", operation), zap.Error(err))
}

func (l *Logger) LogErrorf(operation string, format string, args ...interface{}) {
	l.z.Error(fmt.Sprintf(format, args...), zap.String("operation", operation))
}

func (l *Logger) LogInfo(operation string, message string, fields ...zap.Field) {
	l.z.Info(message, append([]zap.Field{zap.String("operation", operation)}, fields...)...)
}

func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	l.z.Info(fmt.Sprintf(format, args...), zap.String("operation", operation))
}

func (l *Logger) LogWarn(operation string, message string, fields ...zap.Field) {
	l.z.Warn(message, append([]zap.Field{zap.String("operation", operation)}, fields...)...)
}

func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	l.z.Warn(fmt.Sprintf(format, args...), zap.String("operation", operation))
}
