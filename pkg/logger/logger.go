// Package logger 基于 slog 的结构化日志，自动带上 trace 与请求上下文
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ContextKey 日志上下文键
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	ProjectIDKey ContextKey = "project_id"
)

var defaultLogger *slog.Logger

// Init 输出到标准输出；attrs 为每条日志都带的固定字段，如 service、env
func Init(level, format string, attrs ...any) {
	InitWithWriter(os.Stdout, level, format, attrs...)
}

func InitWithWriter(w io.Writer, level, format string, attrs ...any) {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		AddSource:   true,
		ReplaceAttr: shortSource,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler).With(attrs...)
	slog.SetDefault(defaultLogger)
}

// shortSource 源码位置只保留 目录/文件:行
func shortSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok || src == nil {
		return a
	}
	file := filepath.Join(filepath.Base(filepath.Dir(src.File)), filepath.Base(src.File))
	return slog.String(slog.SourceKey, file+":"+strconv.Itoa(src.Line))
}

func parseLevel(level string) slog.Level {
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

func Default() *slog.Logger {
	if defaultLogger == nil {
		Init("info", "json")
	}
	return defaultLogger
}

// FromContext 带上 trace_id、span_id 与上下文中的请求字段
func FromContext(ctx context.Context) *slog.Logger {
	l := Default()
	if ctx == nil {
		return l
	}

	var attrs []any
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	for _, key := range []ContextKey{RequestIDKey, UserIDKey, ProjectIDKey} {
		if v := ctx.Value(key); v != nil {
			attrs = append(attrs, string(key), v)
		}
	}
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}

func WithContext(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// emit 跳过本包的包装帧，source 指向真正的调用方
func emit(ctx context.Context, level slog.Level, msg string, args ...any) {
	l := FromContext(ctx)
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}

func Info(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, args...)
}

// Error err 非空时追加 error 字段
func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	emit(ctx, slog.LevelError, msg, args...)
}

// Fatal 记录后以状态码 1 退出
func Fatal(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	emit(ctx, slog.LevelError, msg, args...)
	os.Exit(1)
}
