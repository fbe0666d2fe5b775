package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LevelEnv overrides the level picked from the environment name.
const LevelEnv = "CLAIMS_LOG_LEVEL"

// New builds the service logger. Production writes JSON lines at info level;
// every other environment gets a console writer at debug level.
func New(environment string) zerolog.Logger {
	return newLogger(environment, os.Stdout)
}

func newLogger(environment string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.DebugLevel
	out := w
	if environment == "production" {
		level = zerolog.InfoLevel
	} else {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	if lvl, err := zerolog.ParseLevel(os.Getenv(LevelEnv)); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("env", environment).
		Str("service", "claims-navigator").
		Logger()
}
