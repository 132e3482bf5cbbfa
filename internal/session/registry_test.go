package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/schedule"
)

type fakeWorker struct {
	mu      sync.Mutex
	started int
	stopped int
	changes int
}

func (w *fakeWorker) Start()         { w.mu.Lock(); w.started++; w.mu.Unlock() }
func (w *fakeWorker) Stop()          { w.mu.Lock(); w.stopped++; w.mu.Unlock() }
func (w *fakeWorker) EventsChanged() { w.mu.Lock(); w.changes++; w.mu.Unlock() }

type fakeFactory struct {
	mu      sync.Mutex
	workers map[string][]*fakeWorker
	err     error
}

func (f *fakeFactory) build(u model.User) (Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	w := &fakeWorker{}
	f.workers[u.ID] = append(f.workers[u.ID], w)
	return w, nil
}

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newTestRegistry() (*Registry, *fakeFactory, *schedule.Manual) {
	f := &fakeFactory{workers: make(map[string][]*fakeWorker)}
	clock := schedule.NewManual(t0)
	return New(f.build, clock, nil, nil), f, clock
}

func TestTouch_StartsOnce(t *testing.T) {
	r, f, clock := newTestRegistry()
	ctx := context.Background()
	alice := model.User{ID: "alice", Role: "member"}

	e, created, err := r.Touch(ctx, alice)
	if err != nil || !created {
		t.Fatalf("first Touch = %v, %v", created, err)
	}
	if e.SessionID == "" || e.Touches != 1 {
		t.Errorf("entry = %+v", e)
	}

	clock.Advance(time.Minute)
	e2, created, err := r.Touch(ctx, alice)
	if err != nil || created {
		t.Fatalf("second Touch = %v, %v", created, err)
	}
	if e2.SessionID != e.SessionID || e2.Touches != 2 || !e2.LastSeen.Equal(t0.Add(time.Minute)) {
		t.Errorf("entry after refresh = %+v", e2)
	}

	ws := f.workers["alice"]
	if len(ws) != 1 || ws[0].started != 1 {
		t.Fatalf("workers = %+v", ws)
	}
}

func TestTouch_RoleChangeRestarts(t *testing.T) {
	r, f, _ := newTestRegistry()
	ctx := context.Background()

	_, _, _ = r.Touch(ctx, model.User{ID: "bob", Role: "member"})
	_, created, err := r.Touch(ctx, model.User{ID: "bob", Role: "admin"})
	if err != nil || !created {
		t.Fatalf("Touch with new role = %v, %v", created, err)
	}
	ws := f.workers["bob"]
	if len(ws) != 2 || ws[0].stopped != 1 || ws[1].started != 1 {
		t.Fatalf("workers = %+v", ws)
	}
	if roster := r.Roster(); len(roster) != 1 || roster[0].Role != "admin" {
		t.Errorf("roster = %+v", roster)
	}
}

func TestRefresh_KeepsRole(t *testing.T) {
	r, f, _ := newTestRegistry()
	ctx := context.Background()

	_, _, _ = r.Touch(ctx, model.User{ID: "pastor", Role: "admin"})
	e, created, err := r.Refresh(ctx, "pastor")
	if err != nil || created {
		t.Fatalf("Refresh = %v, %v", created, err)
	}
	if e.Role != "admin" || e.Touches != 2 {
		t.Errorf("entry = %+v", e)
	}
	if ws := f.workers["pastor"]; len(ws) != 1 || ws[0].stopped != 0 {
		t.Errorf("worker restarted: %+v", ws)
	}

	e, created, err = r.Refresh(ctx, "carol")
	if err != nil || !created || e.Role != "" {
		t.Errorf("Refresh new user = %+v, %v, %v", e, created, err)
	}
}

func TestTouch_Errors(t *testing.T) {
	r, f, _ := newTestRegistry()
	if _, _, err := r.Touch(context.Background(), model.User{}); err == nil {
		t.Error("expected error for empty id")
	}
	f.err = errors.New("no store")
	if _, _, err := r.Touch(context.Background(), model.User{ID: "x"}); err == nil {
		t.Error("expected factory error")
	}
	if len(r.Roster()) != 0 {
		t.Error("failed session left in roster")
	}
}

func TestEnd(t *testing.T) {
	r, f, _ := newTestRegistry()
	ctx := context.Background()
	_, _, _ = r.Touch(ctx, model.User{ID: "alice"})

	if !r.End(ctx, "alice", "logout") {
		t.Fatal("End returned false for running session")
	}
	if r.End(ctx, "alice", "logout") {
		t.Fatal("End returned true twice")
	}
	if f.workers["alice"][0].stopped != 1 {
		t.Error("worker not stopped")
	}
}

func TestRoster_Order(t *testing.T) {
	r, _, clock := newTestRegistry()
	ctx := context.Background()
	_, _, _ = r.Touch(ctx, model.User{ID: "alice"})
	clock.Advance(time.Second)
	_, _, _ = r.Touch(ctx, model.User{ID: "bob"})
	clock.Advance(time.Second)

	roster := r.Roster()
	if len(roster) != 2 || roster[0].UserID != "bob" || roster[1].UserID != "alice" {
		t.Fatalf("roster = %+v", roster)
	}
	if roster[1].IdleSecs != 2 {
		t.Errorf("alice idle = %v, want 2", roster[1].IdleSecs)
	}
}

func TestEventsChanged_FansOut(t *testing.T) {
	r, f, _ := newTestRegistry()
	ctx := context.Background()
	_, _, _ = r.Touch(ctx, model.User{ID: "alice"})
	_, _, _ = r.Touch(ctx, model.User{ID: "bob"})

	r.EventsChanged()
	for _, id := range []string{"alice", "bob"} {
		if got := f.workers[id][0].changes; got != 1 {
			t.Errorf("%s changes = %d", id, got)
		}
	}
}

func TestSweep_EndsIdleSessions(t *testing.T) {
	r, f, clock := newTestRegistry()
	ctx := context.Background()
	_, _, _ = r.Touch(ctx, model.User{ID: "alice"})
	clock.Advance(20 * time.Minute)
	_, _, _ = r.Touch(ctx, model.User{ID: "bob"})
	clock.Advance(15 * time.Minute)

	ended := r.sweep(30 * time.Minute)
	if len(ended) != 1 || ended[0] != "alice" {
		t.Fatalf("ended = %v, want [alice]", ended)
	}
	if f.workers["alice"][0].stopped != 1 {
		t.Error("idle worker not stopped")
	}
	if roster := r.Roster(); len(roster) != 1 || roster[0].UserID != "bob" {
		t.Errorf("roster = %+v", roster)
	}
}

func TestSweep_SparesSessionTouchedAfterScan(t *testing.T) {
	r, f, clock := newTestRegistry()
	ctx := context.Background()
	_, _, _ = r.Touch(ctx, model.User{ID: "alice"})
	clock.Advance(31 * time.Minute)

	isIdle := r.idleFor(30 * time.Minute)
	_, _, _ = r.Refresh(ctx, "alice")

	if r.endIf(ctx, "alice", "idle", isIdle) {
		t.Fatal("refreshed session was ended")
	}
	if f.workers["alice"][0].stopped != 0 {
		t.Error("worker stopped")
	}
	if len(r.Roster()) != 1 {
		t.Error("session missing from roster")
	}
}

func TestStop_EndsAllSessions(t *testing.T) {
	r, f, _ := newTestRegistry()
	ctx := context.Background()
	_, _, _ = r.Touch(ctx, model.User{ID: "alice"})
	_, _, _ = r.Touch(ctx, model.User{ID: "bob"})

	r.StartReaper(&ReaperConfig{SweepInterval: 10 * time.Millisecond})
	r.Stop()
	r.Stop()

	if len(r.Roster()) != 0 {
		t.Error("sessions left after Stop")
	}
	for _, id := range []string{"alice", "bob"} {
		if f.workers[id][0].stopped != 1 {
			t.Errorf("%s worker not stopped", id)
		}
	}
}
