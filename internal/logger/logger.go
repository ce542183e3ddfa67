// Package logger builds the zerolog logger of uptrack.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	FormatAuto    = "auto"
	FormatJSON    = "json"
	FormatConsole = "console"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// New makes a logger that writes to w.
//
// The format "auto" uses the human readable console format if w is a terminal, and JSON lines otherwise.
// An unknown level falls back to info.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if useConsole(w, format) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

func useConsole(w io.Writer, format string) bool {
	switch strings.ToLower(format) {
	case FormatConsole:
		return true
	case FormatJSON:
		return false
	}

	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
