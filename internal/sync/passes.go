package sync

import (
	"context"
	"time"

	"github.com/alfredjeanlab/parish/internal/notify"
)

// ScanNewEvents notifies the user of live events created since the last
// new-event scan, then moves the cursor to now. It returns the number of
// notifications inserted.
func (s *Synchronizer) ScanNewEvents(ctx context.Context) (int, error) {
	s.pass.Lock()
	defer s.pass.Unlock()

	user, eligible, err := s.session(ctx)
	if err != nil || !eligible {
		return 0, err
	}
	logger := s.deps.Logger.With("user_id", user.ID, "pass", "new_events")
	tr := s.tracker(user.ID)
	center := s.center(user.ID)

	since, err := tr.LastEventCheck(ctx)
	if err != nil {
		return 0, err
	}
	now := s.sched.Now()

	inserted := 0
	for _, ev := range s.deps.Events.Events(ctx) {
		if ev.ID == "" {
			logger.Warn("sync: event without id skipped", "title", ev.DisplayTitle())
			continue
		}
		if _, seen := s.seenEvents[ev.ID]; seen {
			continue
		}
		created, ok := ev.Created(s.cfg.Location)
		if !ok {
			logger.Debug("sync: event without creation time skipped", "event_id", ev.ID)
			continue
		}
		if !created.After(since) {
			continue
		}
		switch center.InsertEvent(ctx, ev, false) {
		case notify.Inserted:
			inserted++
			s.seenEvents[ev.ID] = struct{}{}
		case notify.Duplicate:
			s.seenEvents[ev.ID] = struct{}{}
		case notify.Failed:
			logger.Warn("sync: new event notification not stored", "event_id", ev.ID)
		}
	}

	if err := tr.AdvanceEventCheck(ctx, now); err != nil {
		logger.Warn("sync: cursor not advanced", "err", err)
	}
	return inserted, nil
}

// ScanBroadcasts turns every broadcast the user has not processed into a
// notification. Only the persisted id set decides what is new; the
// broadcast cursor is recorded for diagnostics.
func (s *Synchronizer) ScanBroadcasts(ctx context.Context) (int, error) {
	s.pass.Lock()
	defer s.pass.Unlock()

	user, eligible, err := s.session(ctx)
	if err != nil || !eligible {
		return 0, err
	}
	logger := s.deps.Logger.With("user_id", user.ID, "pass", "broadcasts")
	tr := s.tracker(user.ID)

	reset, err := tr.ResetRequested(ctx)
	if err != nil {
		logger.Warn("sync: reset flag unreadable", "err", err)
	}
	if reset {
		s.seenBroadcasts = make(map[string]struct{})
		if err := tr.ClearBroadcastCheck(ctx); err != nil {
			logger.Warn("sync: clear cursor failed", "err", err)
		}
		if err := tr.ClearResetRequest(ctx); err != nil {
			logger.Warn("sync: clear reset flag failed", "err", err)
		}
		logger.Info("sync: reset request honored")
	}

	records := s.deps.Log.List(ctx)
	if len(records) == 0 {
		return 0, nil
	}
	processed, err := tr.ProcessedBroadcasts(ctx)
	if err != nil {
		return 0, err
	}

	center := s.center(user.ID)
	now := s.sched.Now()
	inserted := 0
	for _, rec := range records {
		if rec.ID == "" {
			logger.Warn("sync: broadcast without id skipped", "title", rec.Title)
			continue
		}
		if _, done := processed[rec.ID]; done {
			continue
		}
		if _, done := s.seenBroadcasts[rec.ID]; done {
			continue
		}

		switch center.InsertEvent(ctx, rec.Normalized().Event(), false) {
		case notify.Inserted:
			inserted++
		case notify.Duplicate:
		default:
			logger.Warn("sync: broadcast notification not stored", "broadcast_id", rec.ID)
			continue
		}
		s.seenBroadcasts[rec.ID] = struct{}{}
		if err := tr.MarkBroadcastProcessed(ctx, rec.ID); err != nil {
			logger.Warn("sync: processed id not persisted", "broadcast_id", rec.ID, "err", err)
		}
	}

	if err := tr.AdvanceBroadcastCheck(ctx, now); err != nil {
		logger.Warn("sync: cursor not advanced", "err", err)
	}
	return inserted, nil
}

// ScanReminders issues a reminder for each live event scheduled tomorrow,
// at most once per event.
func (s *Synchronizer) ScanReminders(ctx context.Context) (int, error) {
	s.pass.Lock()
	defer s.pass.Unlock()

	user, eligible, err := s.session(ctx)
	if err != nil || !eligible {
		return 0, err
	}
	evs := s.deps.Events.Events(ctx)
	if len(evs) == 0 {
		return 0, nil
	}
	logger := s.deps.Logger.With("user_id", user.ID, "pass", "reminders")
	tr := s.tracker(user.ID)
	center := s.center(user.ID)

	sent, err := tr.RemindersSent(ctx)
	if err != nil {
		logger.Warn("sync: reminder set unreadable, using session set", "err", err)
	}

	from, to := ReminderWindow(s.sched.Now(), s.cfg.Location)
	inserted := 0
	for _, ev := range evs {
		if ev.ID == "" {
			continue
		}
		if _, done := s.remindersIssued[ev.ID]; done {
			continue
		}
		if _, done := sent[ev.ID]; done {
			s.remindersIssued[ev.ID] = struct{}{}
			continue
		}
		at, ok := ev.ScheduledAt(s.cfg.Location)
		if !ok {
			logger.Debug("sync: event without date skipped", "event_id", ev.ID)
			continue
		}
		if at.Before(from) || !at.Before(to) {
			continue
		}

		switch center.InsertEvent(ctx, ev, true) {
		case notify.Inserted:
			inserted++
		case notify.Duplicate:
		default:
			logger.Warn("sync: reminder not stored", "event_id", ev.ID)
			continue
		}
		s.remindersIssued[ev.ID] = struct{}{}
		if err := tr.MarkReminderSent(ctx, ev.ID); err != nil {
			logger.Warn("sync: reminder id not persisted", "event_id", ev.ID, "err", err)
		}
	}
	return inserted, nil
}

// ReminderWindow returns [tomorrow 00:00, the day after 00:00) in loc.
func ReminderWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc), time.Date(y, m, d+2, 0, 0, 0, 0, loc)
}
