package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("got %v, want ErrKeyNotFound", err)
	}

	if err := s.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "1" {
		t.Fatalf("got %q, want 1", v)
	}

	// last write wins
	if err := s.Set(ctx, "a", []byte("2")); err != nil {
		t.Fatal(err)
	}
	v, _ = s.Get(ctx, "a")
	if string(v) != "2" {
		t.Fatalf("got %q, want 2", v)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("got %v after delete, want ErrKeyNotFound", err)
	}
	// deleting an absent key is not an error
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStoreScanPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, k := range []string{"email:3", "email:1", "account:1", "email:2"} {
		if err := s.Set(ctx, k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.ScanPrefix(ctx, "email:")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"email:1", "email:2", "email:3"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Key != want[i] {
			t.Fatalf("entry %d key = %q, want %q (ordered by key)", i, e.Key, want[i])
		}
	}

	entries, err = s.ScanPrefix(ctx, "nothing:")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries for unused prefix, want 0", len(entries))
	}
}

func TestMemoryStoreValueIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buf := []byte("original")
	if err := s.Set(ctx, "k", buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'X'

	v, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "original" {
		t.Fatalf("stored value mutated through caller slice: %q", v)
	}
}
