package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_SaveAndDelete(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewLocalStore(root)
	ctx := context.Background()

	ref, err := store.Save(ctx, "employee-docs/emp-1/cv.pdf", strings.NewReader("resume body"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if ref != "employee-docs/emp-1/cv.pdf" {
		t.Fatalf("unexpected reference %s", ref)
	}

	b, err := os.ReadFile(filepath.Join(root, "employee-docs", "emp-1", "cv.pdf"))
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if string(b) != "resume body" {
		t.Fatalf("unexpected file content %q", b)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "employee-docs", "emp-1", "cv.pdf")); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, got %v", err)
	}
}

func TestLocalStore_DeleteMissingFile(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(t.TempDir())

	if err := store.Delete(context.Background(), "employee-docs/emp-1/missing.pdf"); err != nil {
		t.Fatalf("expected missing file delete to succeed, got %v", err)
	}
}

func TestLocalStore_RejectsPathEscape(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(t.TempDir())

	if _, err := store.Save(context.Background(), "../outside.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for path escaping the root")
	}

	if _, err := store.Save(context.Background(), "docs/../../outside.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for nested path escape")
	}
}
