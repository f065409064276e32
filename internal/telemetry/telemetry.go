package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/DD-DeCaF/metabolic-ninja/internal/config"
)

// SetupLogger installs the default logger for the given settings: a JSON
// handler at INFO in deployed environments, a text handler at DEBUG
// everywhere else.
func SetupLogger(settings config.Settings) *slog.Logger {
	var handler slog.Handler
	if settings.Deployed() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// SetupSentry initializes error tracking when a DSN is configured. The
// returned flush must be called before the process exits so pending events
// are delivered.
func SetupSentry(settings config.Settings) (func(), error) {
	if settings.SentryDSN == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         settings.SentryDSN,
		Environment: settings.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing sentry: %w", err)
	}

	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError reports err to Sentry (no-op without a DSN) and returns it
// unchanged so call sites can keep their error flow.
func CaptureError(err error) error {
	if err != nil {
		sentry.CaptureException(err)
	}
	return err
}
