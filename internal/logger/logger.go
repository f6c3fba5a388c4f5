package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Level is slog.Level with two extra severities, TRACE and FATAL
type Level = slog.Level

const (
	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
	LevelFatal   = slog.Level(12)
)

// Options configures the process logger
type Options struct {
	Level Level
	// ErrorSampleRate logs 1 out of every N warnings and errors
	ErrorSampleRate int
	OTELEnabled     bool
	ServiceName     string
}

var (
	Logger          *slog.Logger
	errorSampleRate int32 = 100
	programLevel          = new(slog.LevelVar)
	shutdownFunc    func(context.Context) error // nil unless OTEL is in use
)

// counts is incremented regardless of sampling
var counts struct {
	errors, warnings            atomic.Int64
	http5xx, http4xx            atomic.Int64
	http400, http404            atomic.Int64
	unparsable, fallbackReplies atomic.Int64
	explainerRetries            atomic.Int64
}

func init() {
	programLevel.Set(slog.LevelInfo)
	setupJSONLogging(os.Stdout)
}

// Init replaces the default JSON logger according to opts.
// When OTEL setup fails the JSON logger stays in place and the error is returned.
func Init(ctx context.Context, opts Options) error {
	programLevel.Set(opts.Level)
	if opts.ErrorSampleRate > 0 {
		atomic.StoreInt32(&errorSampleRate, int32(opts.ErrorSampleRate))
	}

	if !opts.OTELEnabled {
		setupJSONLogging(os.Stdout)
		return nil
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "titanic-whatif"
	}

	shutdown, err := setupOTELLogging(ctx, serviceName)
	if err != nil {
		setupJSONLogging(os.Stdout)
		return fmt.Errorf("failed to setup OTEL logging, using JSON: %w", err)
	}
	shutdownFunc = shutdown
	return nil
}

func setupJSONLogging(w io.Writer) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: programLevel,
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func setupOTELLogging(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// endpoint and credentials come from the standard OTEL_EXPORTER_OTLP_* variables
	exporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)

	otelHandler := otelslog.NewHandler(
		serviceName,
		otelslog.WithLoggerProvider(loggerProvider),
	)

	// the OTEL bridge does not filter, so the level is applied here
	Logger = slog.New(minLevelHandler{Handler: otelHandler, min: programLevel})
	slog.SetDefault(Logger)

	return loggerProvider.Shutdown, nil
}

type minLevelHandler struct {
	slog.Handler
	min slog.Leveler
}

func (h minLevelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min.Level()
}

func (h minLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return minLevelHandler{Handler: h.Handler.WithAttrs(attrs), min: h.min}
}

func (h minLevelHandler) WithGroup(name string) slog.Handler {
	return minLevelHandler{Handler: h.Handler.WithGroup(name), min: h.min}
}

// Shutdown flushes the OTEL exporter; it is a no-op for JSON logging
func Shutdown(ctx context.Context) error {
	if shutdownFunc != nil {
		return shutdownFunc(ctx)
	}
	return nil
}

// SetLevel sets the minimum log level for the logger
func SetLevel(level slog.Level) {
	programLevel.Set(level)
}

// GetLevel returns the current minimum log level
func GetLevel() slog.Level {
	return programLevel.Level()
}

var levelNames = map[string]slog.Level{
	"TRACE":   LevelTrace,
	"DEBUG":   LevelDebug,
	"":        LevelInfo,
	"INFO":    LevelInfo,
	"WARN":    LevelWarning,
	"WARNING": LevelWarning,
	"ERROR":   LevelError,
	"FATAL":   LevelFatal,
}

// ParseLevel maps a LOG_LEVEL value to a level; unknown names fall back to INFO with an error
func ParseLevel(name string) (slog.Level, error) {
	if level, ok := levelNames[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return level, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q, using INFO", name)
}

// shouldSample reports whether this warning or error gets written (1 out of every N)
func shouldSample() bool {
	rate := atomic.LoadInt32(&errorSampleRate)
	if rate <= 1 {
		return true
	}
	return rand.Intn(int(rate)) == 0
}

// Trace logs a trace-level message
func Trace(msg string, args ...any) {
	Logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs a debug-level message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info-level message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a sampled warning; the counter is always incremented
func Warn(msg string, args ...any) {
	counts.warnings.Add(1)
	if shouldSample() {
		Logger.Warn(msg, args...)
	}
}

// Error logs a sampled error; the counter is always incremented
func Error(msg string, args ...any) {
	counts.errors.Add(1)
	if shouldSample() {
		Logger.Error(msg, args...)
	}
}

// Fatal logs and exits, flushing OTEL first
func Fatal(msg string, args ...any) {
	Logger.Log(context.Background(), LevelFatal, msg, args...)
	if shutdownFunc != nil {
		_ = shutdownFunc(context.Background())
	}
	os.Exit(1)
}

// ErrorHttp5xx counts an HTTP 5xx response
func ErrorHttp5xx() {
	counts.http5xx.Add(1)
	counts.errors.Add(1)
}

// WarnHttp4xx counts an HTTP 4xx response
func WarnHttp4xx(status int) {
	counts.http4xx.Add(1)
	counts.warnings.Add(1)

	switch status {
	case 400:
		counts.http400.Add(1)
	case 404:
		counts.http404.Add(1)
	}
}

// CountUnparsable counts a chat message naming neither a sex nor a class
func CountUnparsable() {
	counts.unparsable.Add(1)
}

// CountFallbackReply counts a chat reply no cohort matched
func CountFallbackReply() {
	counts.fallbackReplies.Add(1)
}

// WarnExplainerRetry logs a retried explainer call
func WarnExplainerRetry(attempt int, err error) {
	counts.explainerRetries.Add(1)
	Warn("explainer request failed, retrying", "attempt", attempt, "error", err)
}

// CounterSnapshot is a point-in-time copy of the counters, reported by the health check
type CounterSnapshot struct {
	Errors            int64 `json:"errors"`
	Warnings          int64 `json:"warnings"`
	HTTP5xx           int64 `json:"http5xx"`
	HTTP4xx           int64 `json:"http4xx"`
	HTTP400           int64 `json:"http400"`
	HTTP404           int64 `json:"http404"`
	UnparsableQueries int64 `json:"unparsableQueries"`
	FallbackReplies   int64 `json:"fallbackReplies"`
	ExplainerRetries  int64 `json:"explainerRetries"`
}

func Counters() CounterSnapshot {
	return CounterSnapshot{
		Errors:            counts.errors.Load(),
		Warnings:          counts.warnings.Load(),
		HTTP5xx:           counts.http5xx.Load(),
		HTTP4xx:           counts.http4xx.Load(),
		HTTP400:           counts.http400.Load(),
		HTTP404:           counts.http404.Load(),
		UnparsableQueries: counts.unparsable.Load(),
		FallbackReplies:   counts.fallbackReplies.Load(),
		ExplainerRetries:  counts.explainerRetries.Load(),
	}
}
