// Package logging builds the leveled key/value logger used across a run.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

// New returns a logger writing timestamped key/value lines to w.
func New(w io.Writer, level string) (*log.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = DefaultLevel
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "wikichunk",
	}), nil
}

// Discard returns a logger that drops everything, for tests and library
// callers that do not want output.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
