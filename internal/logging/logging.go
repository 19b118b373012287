package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New builds the process logger. Production emits JSON lines, every other
// environment gets the human readable text format.
func New(appEnv, level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "donation-network",
	})
	if appEnv == "production" {
		logger.SetFormatter(log.JSONFormatter)
	}

	if parsed, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	return logger
}
