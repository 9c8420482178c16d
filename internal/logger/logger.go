package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

type ctxKey struct{}

// ParseLevel maps a config level name to a slog level. Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Initialize installs the process logger writing to stdout.
func Initialize(level, format string) {
	InitializeWithWriter(os.Stdout, level, format)
}

// InitializeWithWriter installs the process logger writing to w. Format is
// "json" or "text".
func InitializeWithWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	slog.SetDefault(l)
}

func Get() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		Initialize("info", "text")
		return Get()
	}
	return l
}

// WithRequestID stores the request id so that context aware log calls pick it up.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromContext returns the process logger annotated with the request id, if any.
func FromContext(ctx context.Context) *slog.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return Get().With("request_id", id)
	}
	return Get()
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).ErrorContext(ctx, msg, args...)
}

// WithComponent tags every record with the emitting component.
func WithComponent(name string) *slog.Logger {
	return Get().With("component", name)
}

// EnterMethod and the Exit helpers trace a call at debug level.
func EnterMethod(method string, args ...any) {
	Get().Debug("enter", append([]any{"method", method}, args...)...)
}

func ExitMethod(method string, args ...any) {
	Get().Debug("exit", append([]any{"method", method}, args...)...)
}

func ExitMethodWithError(method string, err error, args ...any) {
	Get().Error("exit with error", append([]any{"method", method, "error", err}, args...)...)
}

// DatabaseCall records a statement about to run.
func DatabaseCall(operation, query string, args ...any) {
	Get().Debug("db call", append([]any{"operation", operation, "query", query}, args...)...)
}

func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	all := append([]any{"operation", operation, "rows_affected", rowsAffected}, args...)
	if err != nil {
		Get().Error("db call failed", append(all, "error", err)...)
		return
	}
	Get().Debug("db call done", all...)
}

func ExternalServiceCall(service, operation string, args ...any) {
	Get().Debug("external call", append([]any{"service", service, "operation", operation}, args...)...)
}

func ExternalServiceResult(service, operation string, err error, args ...any) {
	all := append([]any{"service", service, "operation", operation}, args...)
	if err != nil {
		Get().Error("external call failed", append(all, "error", err)...)
		return
	}
	Get().Debug("external call done", all...)
}
