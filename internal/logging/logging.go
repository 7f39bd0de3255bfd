// internal/logging/logging.go
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/neptun-bridge/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init builds the process logger and installs it as log.Logger.
// The returned closer releases the log file, if any.
func Init(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("logging: open %s: %w", cfg.File, err)
		}
		out, closer = f, f
	}

	logger := New(out, cfg)
	log.Logger = logger

	if logger.GetLevel() == zerolog.DebugLevel {
		logger.Debug().Msg("log level set to debug")
	}
	return logger, closer, nil
}

// New builds a logger on w without touching the global logger.
func New(w io.Writer, cfg config.LoggingConfig) zerolog.Logger {
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: cfg.File != ""}
	}
	return zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
