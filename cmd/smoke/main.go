package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/symptomly/triage/internal/smoketest"
)

// Default configuration constants.
const (
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8000", "Base URL of the service")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for the run report (default: smoke_report_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for run output (default: smoke_log_TIMESTAMP.log)")
		skipAI     = flag.Bool("skip-ai", false, "Skip scenarios that need live embedding/chat services")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoketest.ShowHelp()
		return
	}

	// Setup logging
	if err := smoketest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create run configuration
	config := &smoketest.Config{
		BaseURL:    *baseURL,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		SkipAI:     *skipAI,
		Verbose:    *verbose,
	}

	// Run the smoke test
	if err := smoketest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Smoke test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
