// Package tracker persists the per-user scan state that makes
// notification synchronization idempotent across restarts: the
// processed-broadcast id set, the reminder id set, two scan cursors, and
// the one-shot reset flag.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/store"
)

// resetFlag is the stored value that requests a reset.
const resetFlag = "true"

// Epoch is the cursor value when no scan has completed yet.
var Epoch = time.Unix(0, 0).UTC()

// Tracker reads and writes one user's scan state.
type Tracker struct {
	store  store.Store
	locks  *store.KeyMutex
	userID string
	logger *slog.Logger
}

// New returns a tracker for userID. Read-modify-write cycles are
// serialized through locks, which must be shared with every other writer
// of the same store.
func New(s store.Store, locks *store.KeyMutex, userID string, logger *slog.Logger) *Tracker {
	if locks == nil {
		locks = store.NewKeyMutex()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: s, locks: locks, userID: userID, logger: logger}
}

// UserID returns the user this tracker belongs to.
func (t *Tracker) UserID() string { return t.userID }

// LastEventCheck returns the new-event scan cursor, or Epoch.
func (t *Tracker) LastEventCheck(ctx context.Context) (time.Time, error) {
	return t.cursor(ctx, store.LastEventCheckKey(t.userID))
}

// AdvanceEventCheck moves the new-event cursor to at unless it already
// points later.
func (t *Tracker) AdvanceEventCheck(ctx context.Context, at time.Time) error {
	return t.advance(ctx, store.LastEventCheckKey(t.userID), at)
}

// LastBroadcastCheck returns the broadcast scan cursor, or Epoch.
func (t *Tracker) LastBroadcastCheck(ctx context.Context) (time.Time, error) {
	return t.cursor(ctx, store.LastBroadcastCheckKey(t.userID))
}

// AdvanceBroadcastCheck moves the broadcast cursor to at unless it
// already points later.
func (t *Tracker) AdvanceBroadcastCheck(ctx context.Context, at time.Time) error {
	return t.advance(ctx, store.LastBroadcastCheckKey(t.userID), at)
}

// ClearBroadcastCheck deletes the broadcast cursor.
func (t *Tracker) ClearBroadcastCheck(ctx context.Context) error {
	return t.remove(ctx, store.LastBroadcastCheckKey(t.userID))
}

func (t *Tracker) cursor(ctx context.Context, key string) (time.Time, error) {
	raw, err := store.LoadString(ctx, t.store, key)
	if err != nil {
		return Epoch, err
	}
	if raw == "" {
		return Epoch, nil
	}
	ts, ok := model.ParseTimestamp(raw, time.UTC)
	if !ok {
		t.logger.Warn("tracker: ignoring malformed cursor", "key", key, "value", raw)
		return Epoch, nil
	}
	return ts, nil
}

func (t *Tracker) advance(ctx context.Context, key string, at time.Time) error {
	unlock := t.locks.Lock(key)
	defer unlock()

	current, err := t.cursor(ctx, key)
	if err != nil {
		return err
	}
	if !at.After(current) {
		return nil
	}
	return store.SaveString(ctx, t.store, key, model.FormatTimestamp(at))
}

// ProcessedBroadcasts returns the ids of broadcasts already materialized
// for this user.
func (t *Tracker) ProcessedBroadcasts(ctx context.Context) (map[string]struct{}, error) {
	return t.idSet(ctx, store.ProcessedBroadcastsKey(t.userID))
}

// MarkBroadcastProcessed adds id to the processed set and persists it
// immediately.
func (t *Tracker) MarkBroadcastProcessed(ctx context.Context, id string) error {
	return t.addID(ctx, store.ProcessedBroadcastsKey(t.userID), id)
}

// RemindersSent returns the ids of events a reminder was produced for.
func (t *Tracker) RemindersSent(ctx context.Context) (map[string]struct{}, error) {
	return t.idSet(ctx, store.RemindersSentKey(t.userID))
}

// MarkReminderSent records that the reminder for event id exists.
func (t *Tracker) MarkReminderSent(ctx context.Context, id string) error {
	return t.addID(ctx, store.RemindersSentKey(t.userID), id)
}

func (t *Tracker) idSet(ctx context.Context, key string) (map[string]struct{}, error) {
	var ids []string
	if _, err := store.LoadJSON(ctx, t.store, key, &ids); err != nil {
		return map[string]struct{}{}, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// addID appends id to the list stored at key. The list only grows.
func (t *Tracker) addID(ctx context.Context, key, id string) error {
	if id == "" {
		return errors.New("tracker: empty id")
	}
	unlock := t.locks.Lock(key)
	defer unlock()

	var ids []string
	if _, err := store.LoadJSON(ctx, t.store, key, &ids); err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return store.SaveJSON(ctx, t.store, key, append(ids, id))
}

// ResetRequested reports whether a reset was requested for this user.
func (t *Tracker) ResetRequested(ctx context.Context) (bool, error) {
	v, err := store.LoadString(ctx, t.store, store.ResetKey(t.userID))
	if err != nil {
		return false, err
	}
	return v == resetFlag, nil
}

// RequestReset sets the one-shot reset flag.
func (t *Tracker) RequestReset(ctx context.Context) error {
	return store.SaveString(ctx, t.store, store.ResetKey(t.userID), resetFlag)
}

// ClearResetRequest removes the reset flag.
func (t *Tracker) ClearResetRequest(ctx context.Context) error {
	return t.remove(ctx, store.ResetKey(t.userID))
}

// Reset clears every processed marker and cursor for the user. The
// notification list and the broadcast log are left alone.
func (t *Tracker) Reset(ctx context.Context) error {
	var errs []error
	for _, key := range []string{
		store.ProcessedBroadcastsKey(t.userID),
		store.RemindersSentKey(t.userID),
		store.LastBroadcastCheckKey(t.userID),
		store.LastEventCheckKey(t.userID),
	} {
		if err := t.remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tracker) remove(ctx context.Context, key string) error {
	unlock := t.locks.Lock(key)
	defer unlock()
	if err := t.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
