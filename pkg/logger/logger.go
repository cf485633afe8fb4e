package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance
var log = zerolog.Nop()

// ContextKey for storing logger in context
type ctxKey struct{}

// Init initializes the global logger
func Init(env string, logLevel string) {
	InitWithWriter(env, logLevel, os.Stdout)
}

// InitWithWriter initializes the global logger on out
func InitWithWriter(env string, logLevel string, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	output := out
	// Pretty console output for development
	if env == "development" || env == "dev" || env == "" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	zerolog.SetGlobalLevel(ParseLevel(logLevel))

	log = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info
func ParseLevel(logLevel string) zerolog.Level {
	switch logLevel {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger
func Get() *zerolog.Logger {
	return &log
}

// WithContext returns the request logger stored in ctx, or the global logger
func WithContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &log
}

// NewContext creates a new context with the logger
func NewContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithRequestID adds a request ID to the logger
func WithRequestID(requestID string) zerolog.Logger {
	return log.With().Str("request_id", requestID).Logger()
}

// --- Structured Logging Helpers ---

// StoreCall logs a store operation at debug level, or its failure at error level
func StoreCall(ctx context.Context, op string, duration time.Duration, err error) {
	l := WithContext(ctx)
	if err != nil {
		l.Error().Str("op", op).Dur("duration_ms", duration).Err(err).Msg("Store Call Failed")
		return
	}
	l.Debug().Str("op", op).Dur("duration_ms", duration).Msg("Store Call")
}

// ServiceStart logs service startup
func ServiceStart(name, store, port string) {
	log.Info().
		Str("service", name).
		Str("store", store).
		Str("port", port).
		Msg("Service Started")
}

// ServiceStop logs service shutdown
func ServiceStop(name string) {
	log.Info().
		Str("service", name).
		Msg("Service Stopped")
}
