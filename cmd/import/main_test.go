package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/scene-engine/pkg/content"
	"github.com/jwebster45206/scene-engine/pkg/scene"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestImportDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "day1.json", `{"scenes":{"morning":{"title":"Morning","description":"Up.","choices":[]}}}`)
	writeFile(t, root, "week2/day8.yaml", "scenes:\n  dusk:\n    title: Dusk\n    description: Late.\n    choices: []\n")
	writeFile(t, root, "README.md", "not a source")

	store, err := content.OpenSQLite(filepath.Join(t.TempDir(), "content.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	n, err := importDir(ctx, store, root)
	if err != nil {
		t.Fatalf("importDir: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d, want 2", n)
	}

	src, err := store.Load(ctx, "week2/day8")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.Scenes["dusk"].Title != "Dusk" {
		t.Errorf("title = %q", src.Scenes["dusk"].Title)
	}
	if _, err := store.Load(ctx, "day1"); err != nil {
		t.Errorf("Load day1: %v", err)
	}
}

func TestImportDir_Malformed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "day1.json", `{"scenes":`)

	store, err := content.OpenSQLite(filepath.Join(t.TempDir(), "content.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	if _, err := importDir(context.Background(), store, root); !errors.Is(err, scene.ErrMalformedSource) {
		t.Errorf("expected ErrMalformedSource, got %v", err)
	}
}

func TestImportDir_DuplicateID(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "day1.json", `{"scenes":{}}`)
	writeFile(t, root, "day1.yaml", "scenes: {}\n")

	store, err := content.OpenSQLite(filepath.Join(t.TempDir(), "content.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	if _, err := importDir(context.Background(), store, root); err == nil {
		t.Error("expected an error for a source defined twice")
	}
}
