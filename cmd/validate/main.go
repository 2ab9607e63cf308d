package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/content"
	"github.com/jwebster45206/scene-engine/pkg/scene"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <source.json|source.yaml|dir>...\n", os.Args[0])
		os.Exit(1)
	}

	files, err := expandArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	failed := false
	for _, filename := range files {
		validator := &SourceValidator{}
		if err := validator.validateFile(context.Background(), filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, w := range validator.warnings {
			fmt.Println(w)
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

// expandArgs replaces directories with the story sources they contain.
func expandArgs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		ids, err := content.NewFileLoader(arg, nil).List(context.Background())
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			files = append(files, filepath.Join(arg, filepath.FromSlash(id)))
		}
	}
	return files, nil
}

type SourceValidator struct {
	errors   []string
	warnings []string
}

func (v *SourceValidator) validateFile(ctx context.Context, filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("source file must have a .json, .yaml or .yml extension: %s", baseName)
	}

	sourceID := strings.TrimSuffix(baseName, ext)
	if !isValidSourceID(sourceID) {
		return fmt.Errorf("source filename '%s' must be lowercase snake_case (e.g., day_one.json, not Day-One.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil
	v.warnings = nil

	src, err := content.DecodeWith(sourceID, data, content.FormatFromPath(filename), content.DecodeOptions{Strict: true})
	if err != nil {
		return fmt.Errorf("file %s failed strict decoding: %w", filename, err)
	}

	v.validateSource(src)
	v.validateForeignTargets(ctx, src, content.NewFileLoader(filepath.Dir(filename), nil))

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *SourceValidator) validateSource(src *scene.Source) {
	for _, issue := range scene.Validate(src) {
		if issue.Severity == scene.SeverityError {
			v.addError(issue.String())
		} else {
			v.addWarning(issue.String())
		}
	}

	for _, key := range src.SceneKeys() {
		if !isValidSceneKey(key) {
			v.addError(fmt.Sprintf("scene key '%s' cannot be targeted; use letters, digits, '_' or '-'", key))
		}
		for i, choice := range src.Scenes[key].Choices {
			for name := range choice.Conditions {
				v.validateVarName(name, key, i)
			}
			for name := range choice.SetState {
				v.validateVarName(name, key, i)
			}
		}
	}
}

// validateForeignTargets checks targets into other sources against the
// files next to the one being validated.
func (v *SourceValidator) validateForeignTargets(ctx context.Context, src *scene.Source, siblings content.Loader) {
	type result struct {
		src *scene.Source
		err error
	}
	seen := make(map[string]result)

	for _, key := range src.SceneKeys() {
		for i, choice := range src.Scenes[key].Choices {
			target, err := scene.ParseTarget(choice.Target)
			if err != nil || target.IsLocal() {
				continue // reported by scene.Validate
			}

			var other *scene.Source
			if target.SourceID == src.ID {
				other = src
			} else {
				r, ok := seen[target.SourceID]
				if !ok {
					r.src, r.err = siblings.Load(ctx, target.SourceID)
					seen[target.SourceID] = r
				}
				switch {
				case errors.Is(r.err, scene.ErrMalformedSource):
					v.addError(fmt.Sprintf("scene %s choice %d: target source %q is malformed", key, i, target.SourceID))
					continue
				case r.err != nil:
					v.addWarning(fmt.Sprintf("scene %s choice %d: target source %q not found next to this file", key, i, target.SourceID))
					continue
				}
				other = r.src
			}

			if _, ok := other.Scenes[target.SceneKey]; !ok {
				v.addError(fmt.Sprintf("scene %s choice %d: target %q does not exist", key, i, choice.Target))
			}
		}
	}
}

func (v *SourceValidator) validateVarName(name, sceneKey string, choice int) {
	if !isValidVariableName(name) {
		v.addError(fmt.Sprintf("scene %s choice %d: invalid variable name '%s'", sceneKey, choice, name))
	}
}

func (v *SourceValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *SourceValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  ~ "+msg)
}

var (
	validSourceRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validSceneRegex  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	validVarRegex    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

func isValidSourceID(id string) bool {
	// Allow 'x.' prefix for experimental sources
	id = strings.TrimPrefix(id, "x.")
	return validSourceRegex.MatchString(id)
}

func isValidSceneKey(key string) bool {
	return validSceneRegex.MatchString(key)
}

func isValidVariableName(name string) bool {
	return validVarRegex.MatchString(name)
}
