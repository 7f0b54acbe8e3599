// Package logger builds the zerolog logger shared by the import run.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the given level. Pretty output uses the
// console writer for human-readable progress lines; otherwise one JSON object
// is written per line. Unknown levels fall back to info.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if pretty {
		colored := w == io.Writer(os.Stdout) || w == io.Writer(os.Stderr)
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !colored}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop discards everything, for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
