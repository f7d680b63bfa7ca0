// Package kvtest is a compliance suite for kv.Store implementations.
package kvtest

import (
	"context"
	"errors"
	"testing"

	"github.com/huddle-app/backend/pkg/kv"
)

// Run exercises a kv.Store. makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) kv.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := makeStore(t)
		if _, err := s.Get(ctx, "absent"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("Get absent: want ErrNotFound, got %v", err)
		}
	})

	t.Run("set get overwrite", func(t *testing.T) {
		s := makeStore(t)
		if err := s.Set(ctx, "doc", []byte(`{"v":1}`)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := s.Get(ctx, "doc")
		if err != nil || string(got) != `{"v":1}` {
			t.Fatalf("Get: got=%q err=%v", got, err)
		}
		if err := s.Set(ctx, "doc", []byte(`{"v":2}`)); err != nil {
			t.Fatalf("Set overwrite: %v", err)
		}
		got, err = s.Get(ctx, "doc")
		if err != nil || string(got) != `{"v":2}` {
			t.Fatalf("Get after overwrite: got=%q err=%v", got, err)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := makeStore(t)
		if err := s.Set(ctx, "a", []byte("1")); err != nil {
			t.Fatalf("Set a: %v", err)
		}
		if err := s.Set(ctx, "b", []byte("2")); err != nil {
			t.Fatalf("Set b: %v", err)
		}
		if err := s.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete a: %v", err)
		}
		if _, err := s.Get(ctx, "a"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("Get deleted: want ErrNotFound, got %v", err)
		}
		if got, err := s.Get(ctx, "b"); err != nil || string(got) != "2" {
			t.Fatalf("Get b: got=%q err=%v", got, err)
		}
	})

	t.Run("delete missing", func(t *testing.T) {
		s := makeStore(t)
		if err := s.Delete(ctx, "never-set"); err != nil {
			t.Fatalf("Delete missing: %v", err)
		}
	})

	t.Run("returned bytes are a copy", func(t *testing.T) {
		s := makeStore(t)
		in := []byte("abc")
		if err := s.Set(ctx, "k", in); err != nil {
			t.Fatalf("Set: %v", err)
		}
		in[0] = 'z'
		got, err := s.Get(ctx, "k")
		if err != nil || string(got) != "abc" {
			t.Fatalf("Get after caller mutation: got=%q err=%v", got, err)
		}
	})
}
