package scene

import "fmt"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding from Validate.
type Issue struct {
	Severity Severity `json:"severity"`
	Scene    string   `json:"scene,omitempty"`
	Choice   int      `json:"choice"` // -1 when the issue is about the scene itself
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	switch {
	case i.Scene == "":
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	case i.Choice < 0:
		return fmt.Sprintf("%s: scene %s: %s", i.Severity, i.Scene, i.Message)
	default:
		return fmt.Sprintf("%s: scene %s choice %d: %s", i.Severity, i.Scene, i.Choice, i.Message)
	}
}

// Validate lints a source. Targets into other sources are parsed but not
// followed; the caller checks those against their own sources.
// Scenes without choices are reported as warnings since they render as
// terminal scenes.
func Validate(src *Source) []Issue {
	var issues []Issue
	add := func(sev Severity, scene string, choice int, format string, args ...any) {
		issues = append(issues, Issue{
			Severity: sev,
			Scene:    scene,
			Choice:   choice,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if len(src.Scenes) == 0 {
		add(SeverityError, "", -1, "source has no scenes")
		return issues
	}

	for _, key := range src.SceneKeys() {
		body := src.Scenes[key]
		if body.Title == "" {
			add(SeverityError, key, -1, "missing title")
		}
		if body.IsTerminal() {
			add(SeverityWarning, key, -1, "no choices; scene is a dead end")
		}

		for i, choice := range body.Choices {
			if choice.Text == "" {
				add(SeverityError, key, i, "missing text")
			}
			target, err := ParseTarget(choice.Target)
			if err != nil {
				add(SeverityError, key, i, "%v", err)
				continue
			}
			if target.IsLocal() {
				if _, ok := src.Scenes[target.SceneKey]; !ok {
					add(SeverityError, key, i, "target scene %q does not exist", target.SceneKey)
				}
			}
		}
	}

	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
