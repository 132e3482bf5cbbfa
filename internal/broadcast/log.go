// Package broadcast maintains the shared broadcast log: a bounded list of
// event records that every user's synchronizer turns into notifications.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/parish/internal/events"
	"github.com/alfredjeanlab/parish/internal/idgen"
	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/schedule"
	"github.com/alfredjeanlab/parish/internal/store"
	"github.com/alfredjeanlab/parish/internal/tracker"
)

// Capacity is the number of most recent records the log keeps. Older
// records are evicted even if a slow reader has not processed them yet.
const Capacity = 20

// AppendResult describes the outcome of adding a record to the log.
type AppendResult int

const (
	// Appended means the record was written and read back.
	Appended AppendResult = iota + 1
	// AlreadyPresent means a record with the same id was in the log.
	AlreadyPresent
	// Unverified means the write succeeded but reading the log back
	// returned nothing. Retrying is safe: a landed write reports
	// AlreadyPresent.
	Unverified
)

func (r AppendResult) String() string {
	switch r {
	case Appended:
		return "appended"
	case AlreadyPresent:
		return "already_present"
	case Unverified:
		return "unverified"
	}
	return "unknown"
}

// OK reports whether the record is known to be in the log.
func (r AppendResult) OK() bool {
	return r == Appended || r == AlreadyPresent
}

// Log is the broadcast log stored under store.BroadcastKey.
type Log struct {
	store    store.Store
	locks    *store.KeyMutex
	clock    schedule.Clock
	pub      events.Publisher
	logger   *slog.Logger
	origin   string
	capacity int
}

// NewLog returns a Log over s. A nil publisher disables announcements.
func NewLog(s store.Store, locks *store.KeyMutex, clock schedule.Clock, pub events.Publisher, logger *slog.Logger) *Log {
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
	return &Log{
		store:    s,
		locks:    locks,
		clock:    clock,
		pub:      pub,
		logger:   logger,
		origin:   uuid.NewString(),
		capacity: Capacity,
	}
}

// Origin identifies this instance on the event bus.
func (l *Log) Origin() string { return l.origin }

// Append normalizes ev into a record and adds it to the log. Appending an
// id that is already present is a no-op reported as AlreadyPresent. An
// error is returned only when the log could not be read or written.
func (l *Log) Append(ctx context.Context, ev model.Event) (AppendResult, error) {
	now := l.clock.Now()
	fallbackID, err := idgen.Event(now)
	if err != nil {
		return 0, err
	}
	rec := model.NewBroadcastRecord(ev, fallbackID, now)

	res, err := l.insert(ctx, rec)
	if err != nil {
		l.logger.Error("broadcast: append failed", "id", rec.ID, "err", err)
		return 0, err
	}
	if res == Appended {
		msg := events.BroadcastCreated{Origin: l.origin, Record: rec}
		if err := l.pub.Publish(ctx, events.TopicBroadcastCreated, msg); err != nil {
			l.logger.Warn("broadcast: publish failed", "id", rec.ID, "err", err)
		}
	}
	l.logger.Info("broadcast: append", "id", rec.ID, "result", res.String())
	return res, nil
}

// Ingest adds a record received from another instance. The record keeps
// its original broadcast time and is not re-announced.
func (l *Log) Ingest(ctx context.Context, rec model.BroadcastRecord) (AppendResult, error) {
	if rec.ID == "" {
		return 0, errors.New("broadcast: record without id")
	}
	return l.insert(ctx, rec)
}

func (l *Log) insert(ctx context.Context, rec model.BroadcastRecord) (AppendResult, error) {
	unlock := l.locks.Lock(store.BroadcastKey)
	defer unlock()

	var records []model.BroadcastRecord
	if _, err := store.LoadJSON(ctx, l.store, store.BroadcastKey, &records); err != nil {
		return 0, fmt.Errorf("read log: %w", err)
	}
	for _, r := range records {
		if r.ID == rec.ID {
			return AlreadyPresent, nil
		}
	}

	records = append(records, rec)
	if len(records) > l.capacity {
		evicted := len(records) - l.capacity
		l.logger.Debug("broadcast: evicting oldest records", "count", evicted)
		records = records[evicted:]
	}
	if err := store.SaveJSON(ctx, l.store, store.BroadcastKey, records); err != nil {
		return 0, fmt.Errorf("write log: %w", err)
	}

	data, err := l.store.Get(ctx, store.BroadcastKey)
	if err != nil || len(data) == 0 {
		l.logger.Warn("broadcast: write not visible on read-back", "id", rec.ID, "err", err)
		return Unverified, nil
	}
	return Appended, nil
}

// List returns the log oldest first. Absent, malformed, and unreadable
// logs all read as empty.
func (l *Log) List(ctx context.Context) []model.BroadcastRecord {
	var records []model.BroadcastRecord
	if _, err := store.LoadJSON(ctx, l.store, store.BroadcastKey, &records); err != nil {
		l.logger.Error("broadcast: read log failed", "err", err)
		return nil
	}
	return records
}

// ResetUser clears userID's processed markers and cursors so the whole
// log is offered to them again. The log itself is untouched.
func (l *Log) ResetUser(ctx context.Context, userID string) error {
	if err := tracker.New(l.store, l.locks, userID, l.logger).Reset(ctx); err != nil {
		return fmt.Errorf("reset %s: %w", userID, err)
	}
	l.logger.Info("broadcast: reset user", "user_id", userID)
	return nil
}
