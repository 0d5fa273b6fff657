// Package logging builds slog loggers from configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the log level, output target, and format.
type Options struct {
	Level  string // "debug", "info", "warn", "error"; "" keeps the handler default
	File   string // "" or "-" = stderr/stdout, os.DevNull discards, else append to file
	Format string // "text" or "json"
}

func level(option string) (slog.Leveler, bool) {
	switch strings.ToLower(option) {
	case "":
		return nil, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return nil, false
	}
}

// New builds a logger from options. Unparseable options degrade to
// defaults with a warning on the resulting logger rather than failing,
// so a bad config never blocks the command itself.
func New(options Options) *slog.Logger {
	lvl, ok := level(options.Level)
	if !ok {
		bad := options.Level
		options.Level = ""
		logger := New(options)
		logger.Warn("could not parse logger level", "level", bad)
		return logger
	}
	opts := slog.HandlerOptions{Level: lvl}

	var output io.Writer
	switch options.File {
	case "":
		output = os.Stderr
	case "-":
		output = os.Stdout
	case os.DevNull:
		return slog.New(slog.DiscardHandler)
	default:
		var err error
		output, err = os.OpenFile(options.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			options.File = ""
			logger := New(options)
			logger.Warn("could not open logger file", "err", err)
			return logger
		}
	}

	switch strings.ToLower(options.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(output, &opts))
	case "json":
		return slog.New(slog.NewJSONHandler(output, &opts))
	default:
		options.Format = "text"
		logger := New(options)
		logger.Warn("could not parse logger format")
		return logger
	}
}
