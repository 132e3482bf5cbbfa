// Package storetest provides shared helpers for tests that exercise
// store.Store implementations and their callers.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alfredjeanlab/parish/internal/store"
	"github.com/alfredjeanlab/parish/internal/store/memory"
)

// ErrInjected is returned by FaultyStore operations that are set to fail.
var ErrInjected = errors.New("storetest: injected failure")

// FaultyStore wraps an in-memory store and fails selected operations.
type FaultyStore struct {
	*memory.Store

	mu         sync.Mutex
	failGet    bool
	failSet    bool
	failRemove bool
	// dropSet makes Set report success without storing anything.
	dropSet bool
	sets    int
}

// NewFaultyStore returns a FaultyStore with every operation succeeding.
func NewFaultyStore() *FaultyStore {
	return &FaultyStore{Store: memory.New()}
}

// FailGet makes Get return ErrInjected while on is true.
func (f *FaultyStore) FailGet(on bool) { f.mu.Lock(); f.failGet = on; f.mu.Unlock() }

// FailSet makes Set return ErrInjected while on is true.
func (f *FaultyStore) FailSet(on bool) { f.mu.Lock(); f.failSet = on; f.mu.Unlock() }

// FailRemove makes Remove return ErrInjected while on is true.
func (f *FaultyStore) FailRemove(on bool) { f.mu.Lock(); f.failRemove = on; f.mu.Unlock() }

// DropSet makes Set silently discard writes while on is true.
func (f *FaultyStore) DropSet(on bool) { f.mu.Lock(); f.dropSet = on; f.mu.Unlock() }

// Sets returns the number of Set calls that reached the store.
func (f *FaultyStore) Sets() int { f.mu.Lock(); defer f.mu.Unlock(); return f.sets }

func (f *FaultyStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Store.Get(ctx, key)
}

func (f *FaultyStore) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail, drop := f.failSet, f.dropSet
	if !fail {
		f.sets++
	}
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	if drop {
		return nil
	}
	return f.Store.Set(ctx, key, value)
}

func (f *FaultyStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failRemove
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Store.Remove(ctx, key)
}

// RunConformance checks the behavior every store.Store must share.
func RunConformance(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		if _, err := s.Get(ctx, "conformance_missing"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		want := []byte(`[{"id":"e1"}]`)
		if err := s.Set(ctx, "conformance_key", want); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := s.Get(ctx, "conformance_key")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get = %s, want %s", got, want)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := s.Set(ctx, "conformance_over", []byte(`"a"`)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := s.Set(ctx, "conformance_over", []byte(`"b"`)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := s.Get(ctx, "conformance_over")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != `"b"` {
			t.Fatalf("Get = %s, want \"b\"", got)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := s.Set(ctx, "conformance_rm", []byte(`1`)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := s.Remove(ctx, "conformance_rm"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, err := s.Get(ctx, "conformance_rm"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get after Remove error = %v, want ErrNotFound", err)
		}
	})

	t.Run("RemoveMissing", func(t *testing.T) {
		if err := s.Remove(ctx, "conformance_never_set"); err != nil {
			t.Fatalf("Remove(missing) = %v, want nil", err)
		}
	})
}
