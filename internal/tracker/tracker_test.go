package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/parish/internal/store"
	"github.com/alfredjeanlab/parish/internal/store/memory"
	"github.com/alfredjeanlab/parish/internal/store/storetest"
)

func newTestTracker(t *testing.T) (*Tracker, *memory.Store) {
	t.Helper()
	s := memory.New()
	return New(s, store.NewKeyMutex(), "u1", nil), s
}

func TestCursor_DefaultsToEpoch(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	for name, get := range map[string]func(context.Context) (time.Time, error){
		"event":     tr.LastEventCheck,
		"broadcast": tr.LastBroadcastCheck,
	} {
		got, err := get(ctx)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !got.Equal(Epoch) {
			t.Errorf("%s cursor = %v, want epoch", name, got)
		}
	}
}

func TestCursor_Monotonic(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()

	later := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	if err := tr.AdvanceEventCheck(ctx, later); err != nil {
		t.Fatalf("AdvanceEventCheck: %v", err)
	}
	if err := tr.AdvanceEventCheck(ctx, earlier); err != nil {
		t.Fatalf("AdvanceEventCheck(earlier): %v", err)
	}

	got, err := tr.LastEventCheck(ctx)
	if err != nil {
		t.Fatalf("LastEventCheck: %v", err)
	}
	if !got.Equal(later) {
		t.Errorf("cursor = %v, want %v", got, later)
	}

	raw, _ := s.Get(ctx, "lastEventCheckTime_u1")
	if string(raw) != "2026-10-17T12:00:00.000Z" {
		t.Errorf("stored cursor = %q", raw)
	}
}

func TestCursor_MalformedFallsBackToEpoch(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()
	_ = s.Set(ctx, "lastBroadcastCheckTime_u1", []byte("yesterday-ish"))

	got, err := tr.LastBroadcastCheck(ctx)
	if err != nil {
		t.Fatalf("LastBroadcastCheck: %v", err)
	}
	if !got.Equal(Epoch) {
		t.Errorf("cursor = %v, want epoch", got)
	}
}

func TestProcessedBroadcasts_AppendOnly(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "A"} {
		if err := tr.MarkBroadcastProcessed(ctx, id); err != nil {
			t.Fatalf("MarkBroadcastProcessed(%s): %v", id, err)
		}
	}

	set, err := tr.ProcessedBroadcasts(ctx)
	if err != nil {
		t.Fatalf("ProcessedBroadcasts: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("set = %v, want {A, B}", set)
	}
	raw, _ := s.Get(ctx, "processed_broadcasts_u1")
	if string(raw) != `["A","B"]` {
		t.Errorf("stored = %s", raw)
	}
}

func TestMarkBroadcastProcessed_Concurrent(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := tr.MarkBroadcastProcessed(ctx, id); err != nil {
				t.Errorf("Mark(%s): %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	set, _ := tr.ProcessedBroadcasts(ctx)
	if len(set) != len(ids) {
		t.Errorf("set has %d ids, want %d (lost update)", len(set), len(ids))
	}
}

func TestMarkBroadcastProcessed_EmptyID(t *testing.T) {
	tr, _ := newTestTracker(t)
	if err := tr.MarkBroadcastProcessed(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestRemindersSent(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	if err := tr.MarkReminderSent(ctx, "e1"); err != nil {
		t.Fatalf("MarkReminderSent: %v", err)
	}
	set, err := tr.RemindersSent(ctx)
	if err != nil {
		t.Fatalf("RemindersSent: %v", err)
	}
	if _, ok := set["e1"]; !ok || len(set) != 1 {
		t.Errorf("set = %v", set)
	}
}

func TestResetFlag(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()

	if on, _ := tr.ResetRequested(ctx); on {
		t.Fatal("reset requested before RequestReset")
	}
	if err := tr.RequestReset(ctx); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	raw, _ := s.Get(ctx, "reset_notifications_u1")
	if string(raw) != "true" {
		t.Errorf("stored flag = %q, want \"true\"", raw)
	}
	if on, _ := tr.ResetRequested(ctx); !on {
		t.Fatal("reset not requested after RequestReset")
	}
	if err := tr.ClearResetRequest(ctx); err != nil {
		t.Fatalf("ClearResetRequest: %v", err)
	}
	if on, _ := tr.ResetRequested(ctx); on {
		t.Fatal("reset still requested after clear")
	}
}

func TestResetFlag_OtherValuesIgnored(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()
	_ = s.Set(ctx, "reset_notifications_u1", []byte("false"))
	if on, _ := tr.ResetRequested(ctx); on {
		t.Fatal("\"false\" treated as a reset request")
	}
}

func TestReset(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()

	_ = tr.MarkBroadcastProcessed(ctx, "A")
	_ = tr.MarkReminderSent(ctx, "e1")
	_ = tr.AdvanceBroadcastCheck(ctx, time.Now())
	_ = tr.AdvanceEventCheck(ctx, time.Now())
	_ = s.Set(ctx, "notifications_u1", []byte(`[]`))

	if err := tr.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Keys() != 1 {
		t.Errorf("keys left = %d, want only the notification list", s.Keys())
	}
	if got, _ := tr.LastEventCheck(ctx); !got.Equal(Epoch) {
		t.Errorf("event cursor after reset = %v", got)
	}
}

func TestReadFailuresReturned(t *testing.T) {
	s := storetest.NewFaultyStore()
	tr := New(s, nil, "u1", nil)
	s.FailGet(true)
	ctx := context.Background()

	if _, err := tr.ProcessedBroadcasts(ctx); !errors.Is(err, storetest.ErrInjected) {
		t.Errorf("ProcessedBroadcasts error = %v", err)
	}
	if _, err := tr.LastEventCheck(ctx); !errors.Is(err, storetest.ErrInjected) {
		t.Errorf("LastEventCheck error = %v", err)
	}
	if err := tr.MarkBroadcastProcessed(ctx, "A"); !errors.Is(err, storetest.ErrInjected) {
		t.Errorf("MarkBroadcastProcessed error = %v", err)
	}
}
