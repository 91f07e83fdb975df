// Package cudagraphlog provides the single zerolog logger shared by the
// executor and cuda packages.
package cudagraphlog

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the package-wide logger, written to stderr in console form.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Caller().Logger()

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// SetLevel adjusts the global verbosity. Callers embedding this module in a
// larger program can silence it entirely with zerolog.Disabled.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
