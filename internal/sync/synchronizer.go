// Package sync reconciles one user's notification list against the
// broadcast log and the live event list. Three passes run on their own
// timers: a broadcast scan, a debounced new-event scan, and a day-before
// reminder scan. Passes are serialized and each is safe to repeat.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/parish/internal/broadcast"
	"github.com/alfredjeanlab/parish/internal/events"
	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/notify"
	"github.com/alfredjeanlab/parish/internal/schedule"
	"github.com/alfredjeanlab/parish/internal/store"
	"github.com/alfredjeanlab/parish/internal/tracker"
)

// Default cadence.
const (
	DefaultBroadcastInterval = 5 * time.Second
	DefaultReminderDelay     = 500 * time.Millisecond
	DefaultReminderInterval  = 60 * time.Minute
	DefaultEventDebounce     = 100 * time.Millisecond
)

// errNoUser is returned by a pass when the user source has no identity.
var errNoUser = errors.New("sync: no current user")

// Config controls pass cadence and the reminder calendar.
type Config struct {
	BroadcastInterval time.Duration
	ReminderDelay     time.Duration
	ReminderInterval  time.Duration
	EventDebounce     time.Duration
	// Location defines calendar days for reminders and zone-less dates.
	// Nil means time.Local.
	Location *time.Location
}

func (c Config) withDefaults() Config {
	if c.BroadcastInterval <= 0 {
		c.BroadcastInterval = DefaultBroadcastInterval
	}
	if c.ReminderDelay <= 0 {
		c.ReminderDelay = DefaultReminderDelay
	}
	if c.ReminderInterval <= 0 {
		c.ReminderInterval = DefaultReminderInterval
	}
	if c.EventDebounce <= 0 {
		c.EventDebounce = DefaultEventDebounce
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// Deps are the collaborators of a Synchronizer. Store, Log, Events and
// User are required.
type Deps struct {
	Store     store.Store
	Locks     *store.KeyMutex
	Log       *broadcast.Log
	Events    EventSource
	User      UserSource
	Scheduler schedule.Scheduler
	Publisher events.Publisher
	Logger    *slog.Logger
}

// Synchronizer materializes notifications for one user session.
type Synchronizer struct {
	cfg   Config
	deps  Deps
	sched schedule.Scheduler

	// pass serializes scans and guards the session sets below.
	pass            sync.Mutex
	seenEvents      map[string]struct{}
	seenBroadcasts  map[string]struct{}
	remindersIssued map[string]struct{}

	mu        sync.Mutex
	started   bool
	stopped   bool
	timers    []schedule.Timer
	debouncer *schedule.Debouncer
	inflight  sync.WaitGroup
}

// New returns a stopped Synchronizer.
func New(cfg Config, deps Deps) (*Synchronizer, error) {
	if deps.Store == nil || deps.Log == nil || deps.Events == nil || deps.User == nil {
		return nil, errors.New("sync: store, log, events and user are required")
	}
	if deps.Locks == nil {
		deps.Locks = store.NewKeyMutex()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = schedule.Real{}
	}
	if deps.Publisher == nil {
		deps.Publisher = &events.NoopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Synchronizer{
		cfg:             cfg.withDefaults(),
		deps:            deps,
		sched:           deps.Scheduler,
		seenEvents:      make(map[string]struct{}),
		seenBroadcasts:  make(map[string]struct{}),
		remindersIssued: make(map[string]struct{}),
	}, nil
}

// Start schedules the passes: a broadcast scan now and on every
// BroadcastInterval, a reminder scan after ReminderDelay and then every
// ReminderInterval, and one debounced new-event scan. Calling Start again,
// or after Stop, does nothing.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	s.timers = append(s.timers,
		s.sched.AfterFunc(0, s.guard("broadcast", s.ScanBroadcasts)),
		s.sched.Every(s.cfg.BroadcastInterval, s.guard("broadcast", s.ScanBroadcasts)),
		s.sched.AfterFunc(s.cfg.ReminderDelay, s.startReminders),
	)
	s.debouncer = schedule.NewDebouncer(s.sched, s.cfg.EventDebounce, s.guard("new_events", s.ScanNewEvents))
	s.debouncer.Trigger()
}

func (s *Synchronizer) startReminders() {
	s.guard("reminders", s.ScanReminders)()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.timers = append(s.timers, s.sched.Every(s.cfg.ReminderInterval, s.guard("reminders", s.ScanReminders)))
}

// EventsChanged requests a debounced new-event scan. It is a no-op
// before Start and after Stop.
func (s *Synchronizer) EventsChanged() {
	s.mu.Lock()
	d := s.debouncer
	stopped := s.stopped
	s.mu.Unlock()
	if d != nil && !stopped {
		d.Trigger()
	}
}

// Stop cancels future passes and waits for a running pass to finish.
// It is safe to call more than once.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	if s.debouncer != nil {
		s.debouncer.Stop()
	}
	s.mu.Unlock()

	s.inflight.Wait()
}

// guard wraps a pass for timer use: it is skipped once Stop has been
// called and tracked so Stop can wait for it.
func (s *Synchronizer) guard(name string, pass func(context.Context) (int, error)) func() {
	return func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.inflight.Add(1)
		s.mu.Unlock()
		defer s.inflight.Done()

		n, err := pass(context.Background())
		if err != nil && !errors.Is(err, errNoUser) {
			s.deps.Logger.Warn("sync: pass failed", "pass", name, "err", err)
			return
		}
		if n > 0 {
			s.deps.Logger.Info("sync: pass produced notifications", "pass", name, "count", n)
		}
	}
}

// session resolves the current user and reports whether passes apply.
func (s *Synchronizer) session(ctx context.Context) (model.User, bool, error) {
	u, err := s.deps.User.CurrentUser(ctx)
	if err != nil {
		return model.User{}, false, fmt.Errorf("current user: %w", err)
	}
	if u.ID == "" {
		return model.User{}, false, errNoUser
	}
	return u, !u.IsAdmin(), nil
}

func (s *Synchronizer) center(userID string) *notify.Center {
	return notify.NewCenter(s.deps.Store, s.deps.Locks, s.sched, s.deps.Publisher, s.deps.Logger, userID)
}

func (s *Synchronizer) tracker(userID string) *tracker.Tracker {
	return tracker.New(s.deps.Store, s.deps.Locks, userID, s.deps.Logger)
}
