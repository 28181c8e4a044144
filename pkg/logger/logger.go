package logger

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type key string

const (
	// KeyForLogger is used to store Logger in a context.Context
	KeyForLogger key = "logger"
	// KeyForRequestID is used to store some request ID in a context.Context, purely optional to use
	KeyForRequestID key = "request_id"
)

// Logger wraps zap.Logger and enriches every entry with request and trace ids
// taken from the context.
type Logger struct {
	l *zap.Logger
}

var (
	fallbackOnce sync.Once
	fallback     *Logger
)

// NewLogger creates a new production Logger, might return an error because of zap
func NewLogger() (*Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{l: l}, nil
}

// Wrap adapts an existing zap logger, e.g. zap.NewNop() in tests.
func Wrap(l *zap.Logger) *Logger {
	return &Logger{l: l}
}

// New creates a new context.Context with a new logger placed in it
func New(ctx context.Context) (context.Context, error) {
	l, err := NewLogger()
	if err != nil {
		return nil, err
	}
	return WithLogger(ctx, l), nil
}

func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, KeyForLogger, l)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, KeyForRequestID, requestID)
}

// GetLoggerFromCtx returns the Logger stored in ctx or nil
func GetLoggerFromCtx(ctx context.Context) *Logger {
	l, _ := ctx.Value(KeyForLogger).(*Logger)
	return l
}

// GetOrCreateLoggerFromCtx is a safe version of GetLoggerFromCtx that falls back to a shared production logger
func GetOrCreateLoggerFromCtx(ctx context.Context) *Logger {
	if l := GetLoggerFromCtx(ctx); l != nil {
		return l
	}
	fallbackOnce.Do(func() {
		l, err := NewLogger()
		if err != nil {
			l = Wrap(zap.NewNop())
		}
		fallback = l
	})
	return fallback
}

// appendContextFields adds request_id and trace_id when ctx carries them
func appendContextFields(ctx context.Context, fields []zap.Field) []zap.Field {
	if requestID, ok := ctx.Value(KeyForRequestID).(string); ok && requestID != "" {
		fields = append(fields, zap.String(string(KeyForRequestID), requestID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	return fields
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Debug(msg, appendContextFields(ctx, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Info(msg, appendContextFields(ctx, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Warn(msg, appendContextFields(ctx, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Error(msg, appendContextFields(ctx, fields)...)
}

func (l *Logger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Fatal(msg, appendContextFields(ctx, fields)...)
}

// Sync flushes buffered entries; call it before exit
func (l *Logger) Sync() error {
	return l.l.Sync()
}
