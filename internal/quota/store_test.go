package quota

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Setenv("CANVAS_CONFIG_DIR", t.TempDir())

	store, err := NewFileStore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Set([]byte(`{"day":"2026-08-29","count":3}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := store.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"day":"2026-08-29","count":3}` {
		t.Errorf("unexpected record: %s", data)
	}
}

func TestFileStoreMissingRecord(t *testing.T) {
	t.Setenv("CANVAS_CONFIG_DIR", t.TempDir())

	store, err := NewFileStore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = store.Get()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist for missing record, got %v", err)
	}
}

func TestFileStorePathUsesConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CANVAS_CONFIG_DIR", dir)

	store, err := NewFileStore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := filepath.Join(dir, "quota.json")
	if store.Path() != expected {
		t.Errorf("expected path %q, got %q", expected, store.Path())
	}
}

func TestFileStoreDefaultsToHomeDir(t *testing.T) {
	t.Setenv("CANVAS_CONFIG_DIR", "")
	t.Setenv("HOME", t.TempDir())

	store, err := NewFileStore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".canvas-cli", "quota.json")
	if store.Path() != expected {
		t.Errorf("expected path %q, got %q", expected, store.Path())
	}
}
