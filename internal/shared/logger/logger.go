package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a service-scoped structured logger. Every entry carries the
// service name, hostname, an action tag, and the request id from the context.
type Logger struct {
	zl *zap.Logger
}

// New creates a structured JSON logger writing to stdout.
func New(service string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.MessageKey = "message"

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	zl := zap.Must(cfg.Build(zap.WithCaller(false))).With(
		zap.String("service", service),
		zap.String("hostname", hostname),
	)

	return &Logger{zl: zl}
}

// Sync flushes buffered entries. Call it before process exit.
func (logger *Logger) Sync() {
	_ = logger.zl.Sync()
}

// Define an unexported type for context keys.
type ctxKey string

// requestIDKey is the context key for the request ID.
const requestIDKey ctxKey = "request_id"

// WithRequestID returns a context carrying a request id (useful for HTTP/mq hops).
func (logger *Logger) WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// requestIDFrom returns a value saved in the context.
func requestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (logger *Logger) fields(ctx context.Context, action string, details map[string]any) []zap.Field {
	fields := []zap.Field{zap.String("action", action)}
	if rid := requestIDFrom(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if details != nil {
		fields = append(fields, zap.Any("details", details))
	}
	return fields
}

// -- Logger helper functions --

func (logger *Logger) Debug(ctx context.Context, action, msg string, details map[string]any) {
	logger.zl.Debug(msg, logger.fields(ctx, action, details)...)
}

func (logger *Logger) Info(ctx context.Context, action, msg string, details map[string]any) {
	logger.zl.Info(msg, logger.fields(ctx, action, details)...)
}

func (logger *Logger) Warn(ctx context.Context, action, msg string, details map[string]any) {
	logger.zl.Warn(msg, logger.fields(ctx, action, details)...)
}

func (logger *Logger) Error(ctx context.Context, action, msg string, err error) {
	fields := logger.fields(ctx, action, nil)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.zl.Error(msg, fields...)
}
