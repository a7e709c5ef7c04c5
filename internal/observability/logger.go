package observability

import (
	"log/slog"
	"os"
)

// NewLogger returns the process logger: JSON in production, text elsewhere,
// debug level outside production. Every record carries the service name so
// the api and worker binaries are distinguishable in shared output.
func NewLogger(env, service string) *slog.Logger {
	var handler slog.Handler
	if env == "prod" || env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler).With(slog.String("service", service))
}
