// Package smoketest drives a running triage service end to end: it checks
// every public route, posts a table of symptom scenarios to /check and
// verifies each decision's stage and risk band.
package smoketest

import (
	"time"

	"github.com/symptomly/triage/internal/domain/types"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for the run report
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging
	SkipAI     bool          // Skip scenarios that need live model services
}

// Scenario is one /check expectation. A scenario passes when the decision's
// method and risk are members of the allowed sets; empty sets allow anything.
type Scenario struct {
	Name          string            `json:"name"`
	Symptoms      string            `json:"symptoms"`
	WantMethods   []types.Method    `json:"want_methods,omitempty"`
	WantRisks     []types.RiskLevel `json:"want_risks,omitempty"`
	MinSimilarity float64           `json:"min_similarity,omitempty"`
	NeedsAI       bool              `json:"needs_ai,omitempty"`
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario Scenario       `json:"scenario"`
	Decision types.Decision `json:"decision"`
	Pass     bool           `json:"pass"`
	Reason   string         `json:"reason,omitempty"`
	Latency  time.Duration  `json:"latency_ns"`
}

// Stats holds run statistics.
type Stats struct {
	RoutesChecked    int
	ScenariosRun     int
	ScenariosPassed  int
	ScenariosFailed  int
	ScenariosSkipped int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
