package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the root logger. Level comes from LOG_LEVEL (default info);
// LOG_FORMAT=console switches to the human-readable writer for local runs.
func New() zerolog.Logger {
	var w io.Writer = os.Stderr
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	level := zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
