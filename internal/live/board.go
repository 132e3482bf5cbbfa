// Package live holds the current list of upcoming events that
// synchronizers scan for new events and reminders. The list is replaced
// wholesale by an admin and persisted under store.LiveEventsKey.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/parish/internal/events"
	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/store"
)

// Board is the live event list.
type Board struct {
	store  store.Store
	locks  *store.KeyMutex
	pub    events.Publisher
	logger *slog.Logger

	mu        sync.Mutex
	nextID    int
	listeners map[int]func()
}

// NewBoard returns a board backed by s.
func NewBoard(s store.Store, locks *store.KeyMutex, pub events.Publisher, logger *slog.Logger) *Board {
	if locks == nil {
		locks = store.NewKeyMutex()
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{store: s, locks: locks, pub: pub, logger: logger, listeners: make(map[int]func())}
}

// Events returns the current list. Read failures yield an empty list.
func (b *Board) Events(ctx context.Context) []model.Event {
	var evs []model.Event
	if _, err := store.LoadJSON(ctx, b.store, store.LiveEventsKey, &evs); err != nil {
		b.logger.Error("live: read failed", "err", err)
		return nil
	}
	return evs
}

// Replace stores evs as the new list and notifies listeners.
func (b *Board) Replace(ctx context.Context, evs []model.Event) error {
	if evs == nil {
		evs = []model.Event{}
	}
	unlock := b.locks.Lock(store.LiveEventsKey)
	err := store.SaveJSON(ctx, b.store, store.LiveEventsKey, evs)
	unlock()
	if err != nil {
		return fmt.Errorf("live: replace: %w", err)
	}

	b.logger.Info("live: events replaced", "count", len(evs))
	if err := b.pub.Publish(ctx, events.TopicEventsChanged, events.EventsChanged{Count: len(evs)}); err != nil {
		b.logger.Warn("live: publish failed", "err", err)
	}

	b.mu.Lock()
	fns := make([]func(), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

// OnChange registers fn to run after every successful Replace. The
// returned function unregisters it.
func (b *Board) OnChange(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}
