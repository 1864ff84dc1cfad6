package smoketest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/symptomly/triage/internal/domain/types"
	"github.com/symptomly/triage/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// Run executes the complete smoke test against a running service.
func Run(ctx context.Context, config *Config) error {
	runID := uuid.NewString()
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting triage smoke test",
		logger.String("runID", runID),
		logger.String("baseURL", config.BaseURL),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("skipAI", config.SkipAI),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: service must be up
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: every public route answers
	if err := checkRoutes(ctx, client, config, stats); err != nil {
		return fmt.Errorf("route check failed: %w", err)
	}

	// Step 3: /check scenario table
	results := runScenarios(ctx, client, config, stats)

	// Step 4: save the run report
	if err := saveReport(ctx, config, runID, results); err != nil {
		logger.Get().Warn(ctx, "failed to save run report", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if stats.ScenariosFailed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", stats.ScenariosFailed, stats.ScenariosRun)
	}
	logger.Get().Info(ctx, "smoke test completed successfully", logger.String("runID", runID))
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Any 200 counts as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != 200 {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// checkRoutes requires a 200 from every public path.
func checkRoutes(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) error {
	for _, path := range DefaultRoutes() {
		resp, err := client.Get(ctx, config.BaseURL+path)
		if err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != 200 {
			return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
		stats.RoutesChecked++
		if config.Verbose {
			logger.Get().Info(ctx, "route ok", logger.String("path", path))
		}
	}
	logger.Get().Info(ctx, "all routes answered", logger.Int("routes", stats.RoutesChecked))
	return nil
}

// runScenarios posts every scenario to /check and verifies the decision.
func runScenarios(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) []Result {
	scenarios := DefaultScenarios()
	results := make([]Result, 0, len(scenarios))
	url := config.BaseURL + "/check"

	for _, sc := range scenarios {
		if sc.NeedsAI && config.SkipAI {
			stats.ScenariosSkipped++
			logger.Get().Info(ctx, "scenario skipped", logger.String("name", sc.Name))
			continue
		}

		start := time.Now()
		var decision types.Decision
		status, err := client.PostJSON(ctx, url, map[string]string{"symptoms": sc.Symptoms}, &decision)
		result := Result{Scenario: sc, Decision: decision, Latency: time.Since(start)}

		switch {
		case err != nil:
			result.Reason = err.Error()
		case status != 200:
			result.Reason = fmt.Sprintf("status %d", status)
		default:
			result.Pass, result.Reason = verify(sc, decision)
		}

		stats.ScenariosRun++
		if result.Pass {
			stats.ScenariosPassed++
			logger.Get().Info(ctx, "scenario passed",
				logger.String("name", sc.Name),
				logger.String("method", string(decision.Method)),
				logger.String("risk", string(decision.Risk)))
		} else {
			stats.ScenariosFailed++
			logger.Get().Error(ctx, "scenario failed",
				logger.String("name", sc.Name),
				logger.String("reason", result.Reason),
				logger.String("method", string(decision.Method)),
				logger.String("risk", string(decision.Risk)))
		}
		results = append(results, result)
	}
	return results
}

// verify checks a decision against a scenario's expectations.
func verify(sc Scenario, d types.Decision) (bool, string) {
	if len(sc.WantMethods) > 0 && !slices.Contains(sc.WantMethods, d.Method) {
		return false, fmt.Sprintf("method %s not in %v", d.Method, sc.WantMethods)
	}
	if len(sc.WantRisks) > 0 && !slices.Contains(sc.WantRisks, d.Risk) {
		return false, fmt.Sprintf("risk %s not in %v", d.Risk, sc.WantRisks)
	}
	if sc.MinSimilarity > 0 && d.Method == types.MethodSimilarity {
		ev, ok := d.Evidence.(types.SimilarityEvidence)
		if !ok {
			return false, "similarity decision without similarity evidence"
		}
		if ev.Similarity < sc.MinSimilarity {
			return false, fmt.Sprintf("similarity %.2f below %.2f", ev.Similarity, sc.MinSimilarity)
		}
	}
	return true, ""
}

// saveReport writes the scenario results to a JSON file.
func saveReport(ctx context.Context, config *Config, runID string, results []Result) error {
	filename := config.OutputFile
	if filename == "" {
		filename = "smoke_report_" + time.Now().Format("20060102_150405") + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	report := struct {
		RunID   string   `json:"run_id"`
		Results []Result `json:"results"`
	}{RunID: runID, Results: results}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Get().Info(ctx, "report saved", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("routesChecked", stats.RoutesChecked),
		logger.Int("scenariosRun", stats.ScenariosRun),
		logger.Int("scenariosPassed", stats.ScenariosPassed),
		logger.Int("scenariosFailed", stats.ScenariosFailed),
		logger.Int("scenariosSkipped", stats.ScenariosSkipped),
		logger.String("duration", stats.Duration.String()))
}
