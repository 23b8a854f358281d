// Package logging wires the driver's trace/warn/error output to zerolog,
// leveled by the QOR_CC_LOG environment variable.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const envVar = "QOR_CC_LOG"

// New builds a console-formatted zerolog.Logger writing to w, at the level
// named by QOR_CC_LOG (defaulting to "trace" when unset or unrecognized).
func New(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv(envVar))
	if err != nil || os.Getenv(envVar) == "" {
		level = zerolog.TraceLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}
