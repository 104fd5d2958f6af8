package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alparslanahmed/huidu-client/internal/config"
)

// newLogger builds the process logger from the logging section.
// Output "stderr" writes to stderr, "stdout" to stdout, anything else is a file path.
func newLogger(cfg config.LoggingConfig, stderr io.Writer) (*slog.Logger, error) {
	level := cfg.SlogLevel()

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output io.Writer
	switch cfg.Output {
	case "stderr", "":
		output = stderr
	case "stdout":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.Output, err)
		}
		output = file
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler), nil
}
