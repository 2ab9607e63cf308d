package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// FileLoader reads sources from a content root directory.
type FileLoader struct {
	root   string
	mapper SourceMapper
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader creates a loader rooted at dir. A nil mapper uses DefaultMapper.
func NewFileLoader(root string, mapper SourceMapper) *FileLoader {
	if root == "" {
		root = "./data/stories"
	}
	if mapper == nil {
		mapper = DefaultMapper
	}
	return &FileLoader{root: root, mapper: mapper}
}

func (l *FileLoader) Load(ctx context.Context, sourceID string) (*scene.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", scene.ErrSourceUnavailable, sourceID, err)
	}

	rel, err := l.mapper(sourceID)
	if err != nil {
		return nil, err
	}

	data, rel, err := l.read(rel, path.Ext(strings.TrimSpace(sourceID)) == "")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: no such file %s", scene.ErrSourceUnavailable, sourceID, filepath.Join(l.root, filepath.FromSlash(rel)))
		}
		return nil, fmt.Errorf("%w: %s: %v", scene.ErrSourceUnavailable, sourceID, err)
	}

	return Decode(sourceID, data, FormatFromPath(rel))
}

// read returns the file at rel. With probe set, a missing file is retried
// under the other supported extensions, so "day2" finds day2.yaml.
func (l *FileLoader) read(rel string, probe bool) ([]byte, string, error) {
	candidates := []string{rel}
	if probe {
		base := strings.TrimSuffix(rel, path.Ext(rel))
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			if c := base + ext; c != rel {
				candidates = append(candidates, c)
			}
		}
	}

	var firstErr error
	for _, c := range candidates {
		data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(c)))
		if err == nil {
			return data, c, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, c, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, rel, firstErr
}

// List returns the source ids found under the content root, relative to it,
// using forward slashes.
func (l *FileLoader) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(p) {
		case ".json", ".yaml", ".yml":
		default:
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list content root %s: %w", l.root, err)
	}
	return ids, nil
}
