package memory

import (
	"context"
	"errors"
	"testing"

	"subtrack/internal/storage"
)

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Get(ctx, "subscriptions"); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Set(ctx, "subscriptions", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "subscriptions")
	if err != nil || string(got) != "[]" {
		t.Fatalf("get = %q, %v", got, err)
	}
	if err := s.Delete(ctx, "subscriptions"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "subscriptions"); err != nil {
		t.Fatalf("deleting a missing key should succeed: %v", err)
	}
	if _, err := s.Get(ctx, "subscriptions"); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	in := []byte("abc")
	s := NewWithData(map[string][]byte{"k": in})
	in[0] = 'x'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("store shares caller buffer: %q", got)
	}
	got[1] = 'y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("store exposes internal buffer: %q", again)
	}
}
