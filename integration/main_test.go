//go:build integration
// +build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/scene-engine/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")
var runsFlag = flag.Int("runs", 1, "Number of times to run each test suite")
var startFlag = flag.String("start", "", "Override the start location for all test cases (e.g., 'day2#morning')")

func TestMain(m *testing.M) {
	fmt.Printf("Running Scene Engine Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())

	os.Exit(m.Run())
}

func TestIntegrationSuites(t *testing.T) {
	if *caseFlag != "" {
		t.Skip("Skipping bulk run (-case given)")
	}

	testFiles, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(testFiles) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	runSuites(t, testFiles, runner.ErrorHandlingContinue, 1)
}

// TestSingleSuite allows running individual test suites for debugging
// Supports multiple cases comma-separated: -case "case1,case2,case3"
func TestSingleSuite(t *testing.T) {
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}

	var suiteFiles []string
	for _, caseName := range strings.Split(*caseFlag, ",") {
		caseName = strings.TrimSpace(caseName)
		if caseName == "" {
			continue
		}
		suiteFile := filepath.Join("cases", caseName)
		if !strings.HasSuffix(suiteFile, ".json") {
			suiteFile += ".json"
		}
		suiteFiles = append(suiteFiles, suiteFile)
	}
	if len(suiteFiles) == 0 {
		t.Fatalf("No valid test cases found in -case flag: %s", *caseFlag)
	}

	mode := runner.ErrorHandlingMode(*errFlag)
	if mode != runner.ErrorHandlingExit && mode != runner.ErrorHandlingContinue {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}
	if *runsFlag < 1 {
		t.Fatalf("Number of runs must be >= 1, got: %d", *runsFlag)
	}

	runSuites(t, suiteFiles, mode, *runsFlag)
}

func runSuites(t *testing.T, suiteFiles []string, mode runner.ErrorHandlingMode, runs int) {
	t.Helper()

	testRunner := runner.NewRunner(apiBaseURL())
	testRunner.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	testRunner.ErrorHandlingMode = mode
	testRunner.StartOverride = *startFlag
	testRunner.Logger = func(format string, args ...interface{}) {
		fmt.Printf(format+"\n", args...)
	}
	if testRunner.StartOverride != "" {
		t.Logf("Start override enabled: %s", testRunner.StartOverride)
	}

	var jobs []runner.TestJob
	for _, file := range suiteFiles {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var failures []failureDetail
	passes := 0
	for run := 1; run <= runs; run++ {
		if runs > 1 {
			t.Logf("=== RUN %d/%d ===", run, runs)
		}
		for i, job := range jobs {
			t.Logf("[%d/%d] Running test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))

			result, err := testRunner.RunSuite(ctx, job.Suite)
			if err != nil && result.Error == nil {
				result.Error = err
			}
			t.Logf("Session ID: %s", result.Session.String())

			for _, stepResult := range result.Results {
				switch {
				case stepResult.Success && stepResult.IsRestart:
					t.Logf("   ↻ %s (%v)", stepResult.StepName, stepResult.Duration)
				case stepResult.Success:
					t.Logf("   ✓ %s (%v)", stepResult.StepName, stepResult.Duration)
				default:
					t.Errorf("   ✗ %s: %v", stepResult.StepName, stepResult.Error)
					failures = append(failures, failureDetail{
						caseName: job.Name,
						stepName: stepResult.StepName,
						error:    stepResult.Error.Error(),
						run:      run,
					})
				}
			}

			if result.Error != nil {
				t.Errorf("[%d/%d] FAILED: Test suite '%s' failed: %v", i+1, len(jobs), job.Name, result.Error)
				if mode == runner.ErrorHandlingExit {
					t.FailNow()
				}
				continue
			}
			passes++
			t.Logf("[%d/%d] PASSED: Test suite '%s' completed in %v", i+1, len(jobs), job.Name, result.Duration)
		}
	}

	total := runs * len(jobs)
	t.Logf("Integration Test Summary: %d/%d suites passed", passes, total)
	if len(failures) > 0 {
		t.Log(buildFailureReport(failures))
	}
}

// failureDetail tracks information about a specific step failure
type failureDetail struct {
	caseName string
	stepName string
	error    string
	run      int
}

// buildFailureReport groups step failures by case for the final log
func buildFailureReport(failures []failureDetail) string {
	byCase := make(map[string][]failureDetail)
	for _, f := range failures {
		byCase[f.caseName] = append(byCase[f.caseName], f)
	}
	caseNames := make([]string, 0, len(byCase))
	for name := range byCase {
		caseNames = append(caseNames, name)
	}
	sort.Strings(caseNames)

	var sb strings.Builder
	sb.WriteString("\n========================================\n")
	sb.WriteString("Detailed Failure Report\n")
	sb.WriteString("========================================\n")
	for _, name := range caseNames {
		fmt.Fprintf(&sb, "\n%s (%d step failure(s)):\n", name, len(byCase[name]))
		for _, f := range byCase[name] {
			fmt.Fprintf(&sb, "  ✗ %s (run %d):\n      %s\n", f.stepName, f.run, f.error)
		}
	}
	return sb.String()
}

// Helper functions

func apiBaseURL() string {
	if u := os.Getenv("API_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func discoverTestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func getIntEnv(name string, defaultValue int) int {
	val, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return defaultValue
	}
	return val
}
