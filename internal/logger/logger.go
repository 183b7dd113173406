package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Init initializes the global logger based on environment
// Development: Text format with Debug level
// Production: JSON format with Info level
// Errors are forwarded to Sentry when a DSN is configured
func Init(isDev bool, sentryDSN, environment string) {
	Log = New(os.Stdout, isDev, sentryHandler(sentryDSN, environment))
	slog.SetDefault(Log)
}

// New builds a logger writing to w. Extra handlers (Sentry) are fanned out
// alongside the stdout handler.
func New(w io.Writer, isDev bool, extra ...slog.Handler) *slog.Logger {
	var base slog.Handler
	if isDev {
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	handlers := []slog.Handler{base}
	for _, h := range extra {
		if h != nil {
			handlers = append(handlers, h)
		}
	}

	if len(handlers) == 1 {
		return slog.New(base).With("app", "korusync")
	}
	return slog.New(slogmulti.Fanout(handlers...)).With("app", "korusync")
}

func sentryHandler(dsn, environment string) slog.Handler {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		slog.Warn("sentry init failed, continuing without error tracking", "error", err)
		return nil
	}

	return slogsentry.Option{Level: slog.LevelError}.NewSentryHandler()
}
