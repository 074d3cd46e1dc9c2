// Package logging builds the stderr logger shared by the CLI and the
// knowledge base.
package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Levels lists the accepted level names.
var Levels = []string{"debug", "info", "warn", "error"}

// New returns a logger writing to w at the named level. Timestamps are off;
// the output is meant for an interactive terminal.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: false,
		Level:           lvl,
	}), nil
}
