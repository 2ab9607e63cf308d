// Command import loads a directory of story sources into a SQLite content
// store for the sqlite content backend.
package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/content"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <content dir> <sqlite path>\n", os.Args[0])
		os.Exit(1)
	}

	store, err := content.OpenSQLite(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	n, err := importDir(context.Background(), store, os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d sources into %s\n", n, os.Args[2])
}

type sourceStore interface {
	Put(ctx context.Context, id string, format content.Format, payload []byte) error
}

// importDir stores every source under root, keyed by its path without the
// extension. It stops at the first source that fails to decode.
func importDir(ctx context.Context, store sourceStore, root string) (int, error) {
	files, err := content.NewFileLoader(root, nil).List(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]string, len(files))
	for _, rel := range files {
		id := strings.TrimSuffix(rel, path.Ext(rel))
		if prev, ok := seen[id]; ok {
			return 0, fmt.Errorf("source %s is defined by both %s and %s", id, prev, rel)
		}
		seen[id] = rel
	}

	for i, rel := range files {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return i, err
		}
		id := strings.TrimSuffix(rel, path.Ext(rel))
		if err := store.Put(ctx, id, content.FormatFromPath(rel), data); err != nil {
			return i, fmt.Errorf("%s: %w", rel, err)
		}
	}
	return len(files), nil
}
