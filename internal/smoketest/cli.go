package smoketest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/symptomly/triage/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "smoke_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the smoke test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Triage Smoke Test Tool
======================

Checks a running triage service end to end: public routes, the /check
scenario table, and the decision shapes coming back.

Usage:
  go run cmd/smoke/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for the run report (default: smoke_report_TIMESTAMP.json)
  -log string
        Log file for run output (default: smoke_log_TIMESTAMP.log)
  -skip-ai
        Skip scenarios that need live embedding/chat services
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Smoke a local service with default settings
  go run cmd/smoke/main.go

  # Smoke a remote deployment without model services
  go run cmd/smoke/main.go -url http://triage.internal:8000 -skip-ai
`)
}
