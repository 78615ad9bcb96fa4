package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how logs are written.
type Options struct {
	// Level is a zerolog level name (trace, debug, info, warn, error).
	Level string
	// Format is "pretty" for console output, anything else for JSON.
	Format string
	// File, when set, also writes JSON logs to a rotating file.
	File string
	// Out overrides stdout. Used by terminal tools that own the screen.
	Out io.Writer
}

// Setup builds a logger from level and format strings, writing to stdout.
func Setup(level, format string) zerolog.Logger {
	return New(Options{Level: level, Format: format})
}

// New builds a logger and sets the global level.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var writer io.Writer = out
	if opts.Format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	if opts.File != "" {
		writer = zerolog.MultiLevelWriter(writer, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()
}
