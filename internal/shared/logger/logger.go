package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New initializes the root logger. devMode switches to a human-readable
// console writer at debug level; otherwise JSON at info level.
func New(devMode bool) zerolog.Logger {
	if devMode {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		return zerolog.New(consoleWriter).Level(zerolog.DebugLevel).
			With().Timestamp().Str("service", "naijaauto").Logger()
	}

	return zerolog.New(os.Stderr).Level(zerolog.InfoLevel).
		With().Timestamp().Str("service", "naijaauto").Logger()
}
