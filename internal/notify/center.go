// Package notify owns a user's materialized notification list and the
// operations the UI performs on it.
package notify

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/parish/internal/events"
	"github.com/alfredjeanlab/parish/internal/idgen"
	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/schedule"
	"github.com/alfredjeanlab/parish/internal/store"
)

// InsertResult describes the outcome of Insert.
type InsertResult int

const (
	Inserted InsertResult = iota + 1
	// Duplicate means a notification with the same dedup key exists.
	Duplicate
	// Failed means the list could not be read or written.
	Failed
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Center is one user's notification list. Every mutation rewrites the
// whole list under the user's key lock. Storage failures are logged and
// reported as false; reads fall back to an empty list.
type Center struct {
	store  store.Store
	locks  *store.KeyMutex
	clock  schedule.Clock
	pub    events.Publisher
	logger *slog.Logger
	userID string
	key    string
}

// NewCenter returns the notification center for userID.
func NewCenter(s store.Store, locks *store.KeyMutex, clock schedule.Clock, pub events.Publisher, logger *slog.Logger, userID string) *Center {
	if locks == nil {
		locks = store.NewKeyMutex()
	}
	if clock == nil {
		clock = schedule.Real{}
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{
		store:  s,
		locks:  locks,
		clock:  clock,
		pub:    pub,
		logger: logger.With("user_id", userID),
		userID: userID,
		key:    store.NotificationsKey(userID),
	}
}

// UserID returns the owner of the list.
func (c *Center) UserID() string { return c.userID }

// List returns the notifications newest first.
func (c *Center) List(ctx context.Context) []model.Notification {
	list, err := c.load(ctx)
	if err != nil {
		c.logger.Error("notify: read failed", "err", err)
		return []model.Notification{}
	}
	return list
}

// UnreadCount is the number of unread entries in List.
func (c *Center) UnreadCount(ctx context.Context) int {
	return CountUnread(c.List(ctx))
}

// CountUnread counts the unread entries of list.
func CountUnread(list []model.Notification) int {
	n := 0
	for _, x := range list {
		if !x.Read {
			n++
		}
	}
	return n
}

// MarkRead marks notification id as read. An unknown id leaves the list
// unchanged and still reports true.
func (c *Center) MarkRead(ctx context.Context, id string) bool {
	return c.mutate(ctx, "mark_read", func(list []model.Notification) []model.Notification {
		for i := range list {
			if list[i].ID == id {
				list[i].Read = true
			}
		}
		return list
	})
}

// MarkAllRead marks every notification read.
func (c *Center) MarkAllRead(ctx context.Context) bool {
	return c.mutate(ctx, "mark_all_read", func(list []model.Notification) []model.Notification {
		for i := range list {
			list[i].Read = true
		}
		return list
	})
}

// Delete removes notification id.
func (c *Center) Delete(ctx context.Context, id string) bool {
	return c.mutate(ctx, "delete", func(list []model.Notification) []model.Notification {
		out := list[:0]
		for _, x := range list {
			if x.ID != id {
				out = append(out, x)
			}
		}
		return out
	})
}

// ClearAll removes every notification.
func (c *Center) ClearAll(ctx context.Context) bool {
	return c.mutate(ctx, "clear_all", func([]model.Notification) []model.Notification {
		return []model.Notification{}
	})
}

// Insert prepends n unless a notification with the same dedup key exists.
// Notifications without an event id are never considered duplicates.
func (c *Center) Insert(ctx context.Context, n model.Notification) InsertResult {
	unlock := c.locks.Lock(c.key)
	list, err := c.load(ctx)
	if err != nil {
		unlock()
		c.logger.Error("notify: read failed", "op", "insert", "err", err)
		return Failed
	}
	key := n.Key()
	for _, x := range list {
		if n.EventID != "" && x.Key() == key {
			unlock()
			c.logger.Debug("notify: duplicate suppressed", "event_id", n.EventID, "reminder", n.IsReminder)
			return Duplicate
		}
	}
	list = append([]model.Notification{n}, list...)
	if err := store.SaveJSON(ctx, c.store, c.key, list); err != nil {
		unlock()
		c.logger.Error("notify: write failed", "op", "insert", "err", err)
		return Failed
	}
	unlock()

	msg := events.NotificationCreated{UserID: c.userID, Notification: n}
	if err := c.pub.Publish(ctx, events.TopicNotificationCreated, msg); err != nil {
		c.logger.Warn("notify: publish failed", "id", n.ID, "err", err)
	}
	return Inserted
}

// AddEventNotification synthesizes and inserts the notification for ev.
// It reports false for duplicates and failures alike.
func (c *Center) AddEventNotification(ctx context.Context, ev model.Event, isReminder bool) bool {
	return c.InsertEvent(ctx, ev, isReminder) == Inserted
}

// InsertEvent is AddEventNotification with the detailed result.
func (c *Center) InsertEvent(ctx context.Context, ev model.Event, isReminder bool) InsertResult {
	if ev.ID == "" {
		c.logger.Warn("notify: event without id skipped", "title", ev.DisplayTitle())
		return Failed
	}
	id, err := idgen.Notification()
	if err != nil {
		c.logger.Error("notify: id generation failed", "err", err)
		return Failed
	}
	return c.Insert(ctx, model.NewEventNotification(id, ev, isReminder, c.clock.Now()))
}

// AddSystemNotification inserts a notification not tied to an event.
func (c *Center) AddSystemNotification(ctx context.Context, title, message string) bool {
	id, err := idgen.Notification()
	if err != nil {
		c.logger.Error("notify: id generation failed", "err", err)
		return false
	}
	return c.Insert(ctx, model.NewSystemNotification(id, title, message, c.clock.Now())) == Inserted
}

func (c *Center) load(ctx context.Context) ([]model.Notification, error) {
	var list []model.Notification
	if _, err := store.LoadJSON(ctx, c.store, c.key, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, nil
}

func (c *Center) mutate(ctx context.Context, op string, apply func([]model.Notification) []model.Notification) bool {
	defer c.locks.Lock(c.key)()
	list, err := c.load(ctx)
	if err != nil {
		c.logger.Error("notify: read failed", "op", op, "err", err)
		return false
	}
	if err := store.SaveJSON(ctx, c.store, c.key, apply(list)); err != nil {
		c.logger.Error("notify: write failed", "op", op, "err", err)
		return false
	}
	return true
}
