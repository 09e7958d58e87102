package kv

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// storeTest exercises the Store contract against any implementation.
func storeTest(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "emb/0001", []byte("a")); err != nil {
		t.Fatal(err)
	}
	val, err := s.Get(ctx, "emb/0001")
	if err != nil || string(val) != "a" {
		t.Fatalf("Get = (%q, %v), want (a, nil)", val, err)
	}

	// Overwrite.
	if err := s.Set(ctx, "emb/0001", []byte("b")); err != nil {
		t.Fatal(err)
	}
	val, _ = s.Get(ctx, "emb/0001")
	if string(val) != "b" {
		t.Errorf("overwrite: got %q, want b", val)
	}

	// Batch writes under a shared prefix, plus an unrelated key.
	err = s.BatchSet(ctx, []Entry{
		{Key: "emb/0003", Value: []byte("three")},
		{Key: "emb/0002", Value: []byte("two")},
		{Key: "meta/dim", Value: []byte("192")},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Scan yields only the prefix, in ascending key order.
	var keys []string
	for e, err := range s.Scan(ctx, "emb/") {
		if err != nil {
			t.Fatal(err)
		}
		keys = append(keys, e.Key)
	}
	want := []string{"emb/0001", "emb/0002", "emb/0003"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Errorf("Scan keys = %v, want %v", keys, want)
	}

	// Delete is idempotent.
	if err := s.Delete(ctx, "emb/0002"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "emb/0002"); err != nil {
		t.Errorf("second delete errored: %v", err)
	}

	if err := s.BatchDelete(ctx, []string{"emb/0001", "emb/0003"}); err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, err := range s.Scan(ctx, "emb/") {
		if err != nil {
			t.Fatal(err)
		}
		count++
	}
	if count != 0 {
		t.Errorf("entries after BatchDelete = %d, want 0", count)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	storeTest(t, s)
}

func TestBadgerStoreInMemory(t *testing.T) {
	s, err := NewBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	storeTest(t, s)
}

func TestBadgerStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBadger(BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Set(ctx, "emb/0001", []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen and confirm durability.
	s, err = NewBadger(BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	val, err := s.Get(ctx, "emb/0001")
	if err != nil || string(val) != "persisted" {
		t.Errorf("after reopen: (%q, %v), want (persisted, nil)", val, err)
	}
}

func TestBadgerRequiresDir(t *testing.T) {
	if _, err := NewBadger(BadgerOptions{}); err == nil {
		t.Error("expected error for on-disk mode without Dir")
	}
}
