// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Level is a zerolog level name
// ("debug", "info", "warn", "error"). Format is "json" for structured
// output or "console" for human-readable development output.
func Setup(level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	switch format {
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	case "json", "":
		// zerolog's default output is already JSON on stderr.
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}
