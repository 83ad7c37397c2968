package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subtrack/internal/storage"
)

func TestRoundTripAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Set(ctx, "subscriptions", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "subscriptions")
	if err != nil || string(got) != `[{"id":"1"}]` {
		t.Fatalf("get = %q, %v", got, err)
	}

	if _, err := os.Stat(filepath.Join(dir, "subscriptions.json")); err != nil {
		t.Fatalf("expected subscriptions.json on disk: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "userSettings"); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "userSettings"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if err := s.Set(ctx, "userSettings", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "userSettings"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "userSettings"); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestRejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "..", "../etc/passwd", `a\b`} {
		if err := s.Set(ctx, key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Set(%q) err=%v, want ErrInvalidKey", key, err)
		}
	}
}
