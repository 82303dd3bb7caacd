// Package logging configures log/slog for the feed service.
//
// Loggers are scoped in two layers. The chi RequestID middleware gives every
// request a request_id, and a feed build adds build_id and kind on top. Code
// deep inside a build (sheet reads, store lookups) calls FromContext and gets
// both without passing a logger around.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type loggerKey struct{}

// Setup installs the process-wide logger writing to stdout.
//
// Level is one of "debug", "info", "warn" or "error" and defaults to info.
// Format "json" selects the JSON handler; anything else selects text.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger for w with the given level and format.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
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

// FromContext returns the most specific logger for ctx: the build logger
// when one was installed by WithBuild, otherwise the default logger with
// the chi request id attached.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// WithBuild scopes logging to one feed build. The returned context carries
// the logger, so FromContext calls made during the build include build_id
// and kind.
func WithBuild(ctx context.Context, buildID, kind string) (context.Context, *slog.Logger) {
	l := FromContext(ctx).With("build_id", buildID, "kind", kind)
	return context.WithValue(ctx, loggerKey{}, l), l
}

// WithFields returns the context logger with extra fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
