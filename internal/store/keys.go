package store

// Storage keys. The formats are shared with existing clients and must not
// change.
const (
	// BroadcastKey holds the shared broadcast log (not user-scoped).
	BroadcastKey = "broadcast_events"
	// LiveEventsKey holds the current live event list.
	LiveEventsKey = "live_events"
)

// NotificationsKey holds a user's notification list.
func NotificationsKey(userID string) string { return "notifications_" + userID }

// ProcessedBroadcastsKey holds the ids of broadcasts already materialized for a user.
func ProcessedBroadcastsKey(userID string) string { return "processed_broadcasts_" + userID }

// LastBroadcastCheckKey holds the broadcast scan cursor.
func LastBroadcastCheckKey(userID string) string { return "lastBroadcastCheckTime_" + userID }

// LastEventCheckKey holds the new-event scan cursor.
func LastEventCheckKey(userID string) string { return "lastEventCheckTime_" + userID }

// ResetKey holds the one-shot reset request flag.
func ResetKey(userID string) string { return "reset_notifications_" + userID }

// RemindersSentKey holds the ids of events a reminder was already produced for.
func RemindersSentKey(userID string) string { return "reminders_sent_" + userID }
