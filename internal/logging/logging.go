// Package logging initializes the global zerolog logger for tubescope.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the package-level zerolog logger used throughout the pipeline.
var Logger zerolog.Logger

func init() {
	// A usable default so library code can log before Init runs (tests).
	Logger = newLogger(zerolog.InfoLevel)
}

// Init sets up the global logger with human-readable console output.
// Level is parsed from the given string (e.g. "debug", "info", "warn").
func Init(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	Logger = newLogger(lvl)
}

func newLogger(lvl zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
