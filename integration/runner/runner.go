package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays test suites against a running scene-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	StartOverride     string // If set, overrides the start location for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite plays a complete test suite in a fresh session
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	startRef := suite.Start
	if r.StartOverride != "" {
		startRef = r.StartOverride
	}

	snap, err := CreateSession(ctx, r.Client, r.BaseURL, startRef)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = snap.ID
	defer func() {
		if err := DeleteSession(context.WithoutCancel(ctx), r.Client, r.BaseURL, snap.ID); err != nil {
			r.Logger("    Warning: failed to delete session %s: %v", snap.ID, err)
		}
	}()

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, snap.ID, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep performs one action and checks its expectations
func (r *Runner) runStep(ctx context.Context, id uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName:  step.Name,
		IsRestart: step.Choose == RestartPrompt,
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	before, err := GetSession(ctx, r.Client, r.BaseURL, id)
	if err != nil {
		result.Error = fmt.Errorf("failed to get session before step: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	var (
		after  *Snapshot
		status = http.StatusOK
	)
	switch {
	case step.Choose == RestartPrompt:
		after, err = RestartSession(ctx, r.Client, r.BaseURL, id)
	case step.Index != nil:
		after, err = SelectChoice(ctx, r.Client, r.BaseURL, id, *step.Index)
	case step.Choose != "":
		index, findErr := findChoice(before, step.Choose)
		if findErr != nil {
			result.Error = findErr
			result.Duration = time.Since(start)
			return result
		}
		after, err = SelectChoice(ctx, r.Client, r.BaseURL, id, index)
	default:
		after = before
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Status
		err = nil
	}
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	if status != http.StatusOK {
		// A rejected action must leave the session as it was.
		after, err = GetSession(ctx, r.Client, r.BaseURL, id)
		if err != nil {
			result.Error = fmt.Errorf("failed to get session after rejected step: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		if after.Location != before.Location || after.Turns != before.Turns {
			result.Error = fmt.Errorf("rejected step moved the session from %s to %s", before.Location, after.Location)
			result.Duration = time.Since(start)
			return result
		}
	}

	if err := checkExpectations(step.Expectations, status, after); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// findChoice returns the index of the displayed choice whose text is text.
// Locked choices match on the text before their locked suffix.
func findChoice(snap *Snapshot, text string) (int, error) {
	if snap.Frame.Model == nil {
		return 0, fmt.Errorf("no scene displayed to choose %q from", text)
	}
	for _, c := range snap.Frame.Model.Choices {
		if c.Label == text || strings.HasPrefix(c.Label, text+" (") {
			return c.Index, nil
		}
	}
	return 0, fmt.Errorf("no choice %q at %s", text, snap.Location)
}

// checkExpectations validates the expectations against the session after a step
func checkExpectations(exp Expectations, status int, snap *Snapshot) error {
	wantStatus := http.StatusOK
	if exp.Status != nil {
		wantStatus = *exp.Status
	}
	if status != wantStatus {
		return fmt.Errorf("expected status %d, got %d", wantStatus, status)
	}

	if exp.Location != nil && snap.Location.String() != *exp.Location {
		return fmt.Errorf("expected location %s, got %s", *exp.Location, snap.Location)
	}

	if exp.Turns != nil && snap.Turns != *exp.Turns {
		return fmt.Errorf("expected turns to be %d, got %d", *exp.Turns, snap.Turns)
	}

	for key, expectedValue := range exp.Vars {
		actualValue, exists := snap.State[key]
		if !exists {
			return fmt.Errorf("expected variable %s to be set, but it doesn't exist", key)
		}
		if fmt.Sprint(actualValue) != expectedValue {
			return fmt.Errorf("expected variable %s to be %s, got %v", key, expectedValue, actualValue)
		}
	}
	for _, key := range exp.Unset {
		if v, exists := snap.State[key]; exists {
			return fmt.Errorf("expected variable %s to be unset, got %v", key, v)
		}
	}

	if exp.ErrorKind != nil {
		if snap.Frame.Error == nil {
			return fmt.Errorf("expected a %s error, but the scene rendered", *exp.ErrorKind)
		}
		if snap.Frame.Error.Kind != *exp.ErrorKind {
			return fmt.Errorf("expected error kind %s, got %s", *exp.ErrorKind, snap.Frame.Error.Kind)
		}
		if snap.Frame.Model != nil {
			return fmt.Errorf("error frame should not carry a scene")
		}
		return nil
	}

	model := snap.Frame.Model
	if model == nil {
		if snap.Frame.Error != nil {
			return fmt.Errorf("scene failed to render: %s: %s", snap.Frame.Error.Kind, snap.Frame.Error.Message)
		}
		return fmt.Errorf("no scene displayed")
	}

	if exp.DayTitle != nil && model.DayTitle != *exp.DayTitle {
		return fmt.Errorf("expected day title %q, got %q", *exp.DayTitle, model.DayTitle)
	}
	if exp.SceneTitle != nil && model.SceneTitle != *exp.SceneTitle {
		return fmt.Errorf("expected scene title %q, got %q", *exp.SceneTitle, model.SceneTitle)
	}
	if exp.Terminal != nil && model.Terminal != *exp.Terminal {
		return fmt.Errorf("expected terminal to be %t, got %t", *exp.Terminal, model.Terminal)
	}

	var enabled, locked []string
	for _, c := range model.Choices {
		if c.Enabled {
			enabled = append(enabled, c.Label)
		} else {
			locked = append(locked, c.Label)
		}
	}
	for _, label := range exp.Enabled {
		if !slices.Contains(enabled, label) {
			return fmt.Errorf("expected choice %q to be enabled. Enabled: %v", label, enabled)
		}
	}
	for _, label := range exp.Locked {
		if !slices.Contains(locked, label) {
			return fmt.Errorf("expected choice %q to be locked. Locked: %v", label, locked)
		}
	}

	lowerDescription := strings.ToLower(model.Description)
	for _, expectedText := range exp.DescriptionContains {
		if !strings.Contains(lowerDescription, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected description to contain '%s', but it didn't", expectedText)
		}
	}

	return nil
}
