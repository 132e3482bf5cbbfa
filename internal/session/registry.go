// Package session keeps the roster of users with a running synchronizer.
//
// A session starts on the first Touch for a user and stays alive while
// the user keeps touching it. A background reaper ends sessions that have
// been idle longer than a threshold, stopping their synchronizer.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/parish/internal/events"
	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/schedule"
)

// Worker is the per-session background process.
type Worker interface {
	Start()
	Stop()
	EventsChanged()
}

// Factory builds the worker for a user.
type Factory func(user model.User) (Worker, error)

// Entry is a snapshot of one session.
type Entry struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role,omitempty"`
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	LastSeen  time.Time `json:"last_seen"`
	IdleSecs  float64   `json:"idle_secs"`
	Touches   int64     `json:"touches"`
}

// ReaperConfig configures the background idle-session reaper.
type ReaperConfig struct {
	// IdleThreshold is how long a session may go untouched.
	// Default: 30 minutes.
	IdleThreshold time.Duration

	// SweepInterval is how often the reaper scans for idle sessions.
	// Default: 60 seconds.
	SweepInterval time.Duration
}

// Registry maintains the running sessions.
type Registry struct {
	factory Factory
	clock   schedule.Clock
	pub     events.Publisher
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*state

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type state struct {
	user      model.User
	sessionID string
	startedAt time.Time
	lastSeen  time.Time
	touches   int64
	worker    Worker
}

// New creates an empty registry.
func New(factory Factory, clock schedule.Clock, pub events.Publisher, logger *slog.Logger) *Registry {
	if clock == nil {
		clock = schedule.Real{}
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory:  factory,
		clock:    clock,
		pub:      pub,
		logger:   logger,
		sessions: make(map[string]*state),
	}
}

// Touch starts a session for user or refreshes an existing one. A role
// change restarts the worker so it picks up the new identity. It reports
// whether a new worker was started.
func (r *Registry) Touch(ctx context.Context, user model.User) (Entry, bool, error) {
	return r.touch(ctx, user, false)
}

// Refresh is Touch without a role: a running session keeps its role, and
// a new session starts with none.
func (r *Registry) Refresh(ctx context.Context, userID string) (Entry, bool, error) {
	return r.touch(ctx, model.User{ID: userID}, true)
}

func (r *Registry) touch(ctx context.Context, user model.User, keepRole bool) (Entry, bool, error) {
	if user.ID == "" {
		return Entry{}, false, fmt.Errorf("session: empty user id")
	}
	now := r.clock.Now()

	r.mu.Lock()
	st, ok := r.sessions[user.ID]
	if ok && (keepRole || st.user.Role == user.Role) {
		st.lastSeen = now
		st.touches++
		e := st.entry(now)
		r.mu.Unlock()
		return e, false, nil
	}
	var replaced Worker
	if ok {
		replaced = st.worker
	}
	worker, err := r.factory(user)
	if err != nil {
		r.mu.Unlock()
		return Entry{}, false, fmt.Errorf("session: start %s: %w", user.ID, err)
	}
	st = &state{
		user:      user,
		sessionID: uuid.NewString(),
		startedAt: now,
		lastSeen:  now,
		touches:   1,
		worker:    worker,
	}
	r.sessions[user.ID] = st
	e := st.entry(now)
	r.mu.Unlock()

	if replaced != nil {
		replaced.Stop()
	}
	worker.Start()
	r.logger.Info("session: started", "user_id", user.ID, "session_id", e.SessionID)
	if err := r.pub.Publish(ctx, events.TopicSessionStarted, events.SessionStarted{UserID: user.ID, SessionID: e.SessionID}); err != nil {
		r.logger.Warn("session: publish failed", "err", err)
	}
	return e, true, nil
}

// End stops the user's session. It reports whether one was running.
func (r *Registry) End(ctx context.Context, userID, reason string) bool {
	return r.endIf(ctx, userID, reason, nil)
}

// endIf ends the session only if cond, checked under the lock, holds.
func (r *Registry) endIf(ctx context.Context, userID, reason string, cond func(*state) bool) bool {
	r.mu.Lock()
	st, ok := r.sessions[userID]
	if ok && cond != nil && !cond(st) {
		ok = false
	}
	if ok {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	st.worker.Stop()
	r.logger.Info("session: ended", "user_id", userID, "session_id", st.sessionID, "reason", reason)
	msg := events.SessionEnded{UserID: userID, SessionID: st.sessionID, Reason: reason}
	if err := r.pub.Publish(ctx, events.TopicSessionEnded, msg); err != nil {
		r.logger.Warn("session: publish failed", "err", err)
	}
	return true
}

// Roster returns a snapshot of all sessions, most recently active first.
func (r *Registry) Roster() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	entries := make([]Entry, 0, len(r.sessions))
	for _, st := range r.sessions {
		entries = append(entries, st.entry(now))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastSeen.Equal(entries[j].LastSeen) {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return entries
}

// EventsChanged forwards a live-event change to every running worker.
func (r *Registry) EventsChanged() {
	r.mu.Lock()
	workers := make([]Worker, 0, len(r.sessions))
	for _, st := range r.sessions {
		workers = append(workers, st.worker)
	}
	r.mu.Unlock()
	for _, w := range workers {
		w.EventsChanged()
	}
}

func (st *state) entry(now time.Time) Entry {
	return Entry{
		UserID:    st.user.ID,
		Role:      st.user.Role,
		SessionID: st.sessionID,
		StartedAt: st.startedAt,
		LastSeen:  st.lastSeen,
		IdleSecs:  now.Sub(st.lastSeen).Seconds(),
		Touches:   st.touches,
	}
}

// StartReaper launches a background goroutine that periodically ends
// idle sessions. Call Stop() to shut it down.
func (r *Registry) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.IdleThreshold == 0 {
		cfg.IdleThreshold = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 60 * time.Second
	}

	r.reaperStop = make(chan struct{})
	r.reaperDone = make(chan struct{})

	go r.reapLoop(cfg)
	r.logger.Info("session: reaper started",
		"idle_threshold", cfg.IdleThreshold,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper and ends every session.
func (r *Registry) Stop() {
	if r.reaperStop != nil {
		close(r.reaperStop)
		<-r.reaperDone
		r.reaperStop = nil
		r.reaperDone = nil
	}

	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.End(context.Background(), id, "shutdown")
	}
}

func (r *Registry) reapLoop(cfg *ReaperConfig) {
	defer close(r.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.reaperStop:
			return
		case <-ticker.C:
			r.sweep(cfg.IdleThreshold)
		}
	}
}

// sweep ends sessions idle longer than threshold and returns their users.
func (r *Registry) sweep(threshold time.Duration) []string {
	isIdle := r.idleFor(threshold)

	var idle []string
	r.mu.Lock()
	for id, st := range r.sessions {
		if isIdle(st) {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()

	sort.Strings(idle)
	var ended []string
	for _, id := range idle {
		// Re-checked under the lock: a Touch may have landed since the scan.
		if r.endIf(context.Background(), id, "idle", isIdle) {
			ended = append(ended, id)
		}
	}
	return ended
}

// idleFor reports whether a session has gone untouched longer than
// threshold at the time it is called.
func (r *Registry) idleFor(threshold time.Duration) func(*state) bool {
	return func(st *state) bool {
		return r.clock.Now().Sub(st.lastSeen) > threshold
	}
}
