// Package enginelog wraps a zerolog.Logger for the engine's driver-facing
// diagnostics. The engine logs lot exhaustion through it; balance
// underflow and method resolution are reported only as returned errors.
// The engine itself never panics; the logger records what happened, the
// returned error is what the caller acts on.
package enginelog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the handle passed explicitly by the driver to every engine
// entry point. There is no process-wide logger in this module.
type Logger struct {
	zerolog.Logger
}

// New returns a Logger writing zerolog's JSON lines to w, suitable for
// machine consumption. Pass a zerolog.ConsoleWriter as w for
// human-readable output, as Default does for stderr.
func New(w io.Writer) Logger {
	return Logger{Logger: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a Logger that discards everything, for callers (e.g. tests)
// that don't want diagnostic output.
func Nop() Logger {
	return Logger{Logger: zerolog.Nop()}
}

// Default returns a Logger writing human-readable console output to stderr.
func Default() Logger {
	return Logger{Logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()}
}
