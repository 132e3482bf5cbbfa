package memory_test

import (
	"context"
	"testing"

	"github.com/alfredjeanlab/parish/internal/store/memory"
	"github.com/alfredjeanlab/parish/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformance(t, memory.New())
}

func TestValuesAreCopied(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	buf := []byte("abc")
	if err := s.Set(ctx, "k", buf); err != nil {
		t.Fatalf("Set: %v", err)
	}
	buf[0] = 'z'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("stored value changed through caller buffer: %q", got)
	}

	got[1] = 'z'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value changed through returned buffer: %q", again)
	}
}
