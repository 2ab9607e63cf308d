package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special choose values that trigger non-choice actions
const (
	RestartPrompt = "RESTART"
)

// TestSuite defines a complete playthrough
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Start string     `json:"start,omitempty"` // e.g. "day1#morning"; empty uses the server default
	Steps []TestStep `json:"steps,omitempty"`
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single interaction and its expected outcomes.
// Choose names the choice by its text; use choose: "RESTART" to restart the
// session, or leave it empty to only check the displayed scene.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Choose       string       `json:"choose,omitempty"`
	Index        *int         `json:"index,omitempty"` // Selects by position instead of text
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a step executes
type Expectations struct {
	Status *int `json:"status,omitempty"` // HTTP status of the action; defaults to 200

	Location   *string           `json:"location,omitempty"` // "source#scene"
	DayTitle   *string           `json:"day_title,omitempty"`
	SceneTitle *string           `json:"scene_title,omitempty"`
	Turns      *int              `json:"turns,omitempty"`
	Terminal   *bool             `json:"terminal,omitempty"`
	Vars       map[string]string `json:"vars,omitempty"`   // Compared by display form
	Unset      []string          `json:"unset,omitempty"` // Keys that must not be set

	// Choice labels as displayed, including any locked suffix
	Enabled []string `json:"enabled,omitempty"`
	Locked  []string `json:"locked,omitempty"`

	ErrorKind           *string  `json:"error_kind,omitempty"`
	DescriptionContains []string `json:"description_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName  string
	StepName  string
	Success   bool
	Error     error
	Duration  time.Duration
	IsRestart bool
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}

// Snapshot mirrors the session resource returned by the API.
type Snapshot struct {
	ID       uuid.UUID      `json:"id"`
	Location Location       `json:"location"`
	Frame    Frame          `json:"frame"`
	State    map[string]any `json:"state"`
	Loading  bool           `json:"loading"`
	Turns    int            `json:"turns"`
}

type Location struct {
	Source string `json:"source"`
	Scene  string `json:"scene"`
}

func (l Location) String() string {
	return l.Source + "#" + l.Scene
}

type Frame struct {
	Model *Model      `json:"model"`
	Error *FrameError `json:"error"`
}

type Model struct {
	DayTitle    string   `json:"dayTitle"`
	SceneTitle  string   `json:"sceneTitle"`
	Description string   `json:"description"`
	Choices     []Choice `json:"choices"`
	Terminal    bool     `json:"terminal"`
}

type Choice struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

type FrameError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
