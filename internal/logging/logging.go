// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shelepuginivan/sunshift/internal/config"
)

// Setup points the global logger at stderr and, if cfg.File.Path is set, at a
// rotated log file. The returned closer closes the log file.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	return setup(cfg, os.Stderr)
}

func setup(cfg config.LogConfig, stderr io.Writer) (io.Closer, error) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = stderr
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !cfg.Colors,
		}
	}

	var closer io.Closer = nopCloser{}

	if cfg.File.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0o755); err != nil {
			return nil, err
		}

		file := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}

		// The file always gets JSON lines.
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	return closer, nil
}

// ParseLevel maps a config level name to a zerolog level. Unknown names map to
// info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
