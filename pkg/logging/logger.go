// Package logging configures the process-wide zerolog logger used
// across the matching engine, replay simulator, and live loop.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

// RunIDKey is the key used to store a replay/live run identifier in
// context, so log lines from concurrent runs can be told apart.
const RunIDKey contextKey = "run_id"

// Config defines logging configuration.
type Config struct {
	// Level is the logging level (debug, info, warn, error).
	Level string
	// Pretty determines if logs should be formatted for human readability.
	Pretty bool
	// Output is where logs are written (defaults to os.Stdout).
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Pretty: false,
		Output: os.Stdout,
	}
}

// Setup configures the global zerolog logger based on cfg.
func Setup(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// FromContext extracts a logger annotated with ctx's run id, if any.
func FromContext(ctx context.Context) zerolog.Logger {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return log.With().Str("run_id", runID).Logger()
	}
	return log.Logger
}

// WithRunID returns a context carrying runID for FromContext to pick up.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}
