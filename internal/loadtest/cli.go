package loadtest

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/elimvote/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to stdout and, when logFile is not empty, to
// that file as well.
func SetupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.InitWith(w, logger.FormatText); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`elimvote load test
==================

Casts many ballots concurrently against a running service, each from a fresh
voter cookie, and checks the server counted exactly what was accepted.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -voters int
        Number of ballots to generate and submit (default 1000)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -secret string
        Admin secret; enables counter verification (default $ELIMVOTE_ADMIN_SECRET)
  -revote
        Every accepted voter tries a second ballot, which must be refused
  -finalize
        Close and publish the round afterwards and verify the standings
  -output string
        Output file for generated ballots (default: none)
  -log string
        Also write logs to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Cast 5000 ballots and verify the counters
  go run ./cmd/loadtest -voters 5000 -secret admin123

  # Check the one-ballot rule under load, then publish
  go run ./cmd/loadtest -revote -finalize -secret admin123
`)
}
