package model

import (
	"fmt"
	"time"
)

// NotificationType distinguishes event-derived from system notifications.
type NotificationType string

const (
	NotificationEvent  NotificationType = "event"
	NotificationSystem NotificationType = "system"
)

// String returns the string representation of the notification type.
func (t NotificationType) String() string {
	return string(t)
}

// IsValid checks whether the type is a known value.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationEvent, NotificationSystem:
		return true
	}
	return false
}

// ReminderPrefix is prepended to the title of day-before reminders.
const ReminderPrefix = "Reminder: "

// EventDetails is a snapshot of the event taken when the notification was
// created. It is not kept in sync with later edits.
type EventDetails struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`
}

// Notification is one entry in a user's notification list.
type Notification struct {
	ID           string           `json:"id"`
	Type         NotificationType `json:"type"`
	EventID      string           `json:"eventId,omitempty"`
	EventDate    string           `json:"eventDate,omitempty"`
	IsReminder   bool             `json:"isReminder"`
	EventDetails *EventDetails    `json:"eventDetails,omitempty"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	Timestamp    string           `json:"timestamp"`
	Read         bool             `json:"read"`
}

// DedupKey identifies the subject of a notification. At most one
// notification per key may exist in a user's list.
type DedupKey struct {
	EventID    string
	Type       NotificationType
	IsReminder bool
}

// Key returns the notification's dedup key.
func (n Notification) Key() DedupKey {
	return DedupKey{EventID: n.EventID, Type: n.Type, IsReminder: n.IsReminder}
}

// NewEventNotification synthesizes the notification for ev. Title and
// message depend on whether this is a day-before reminder.
func NewEventNotification(id string, ev Event, isReminder bool, now time.Time) Notification {
	title := ev.DisplayTitle()
	if title == "" {
		title = DefaultTitle
	}
	location := ev.Location
	if location == "" {
		location = DefaultLocation
	}
	date := ev.DateString()

	n := Notification{
		ID:         id,
		Type:       NotificationEvent,
		EventID:    ev.ID,
		EventDate:  date,
		IsReminder: isReminder,
		EventDetails: &EventDetails{
			Title:       title,
			Date:        date,
			Location:    location,
			Description: ev.Description,
		},
		Timestamp: FormatTimestamp(now),
	}
	if isReminder {
		n.Title = ReminderPrefix + title
		n.Message = fmt.Sprintf("%s is tomorrow%s at %s.", title, clockSuffix(ev), location)
	} else {
		n.Title = "New Event: " + title
		n.Message = fmt.Sprintf("%s has been scheduled for %s at %s.", title, describeWhen(ev), location)
	}
	return n
}

// NewSystemNotification builds a notification that is not tied to an event.
func NewSystemNotification(id, title, message string, now time.Time) Notification {
	return Notification{
		ID:        id,
		Type:      NotificationSystem,
		Title:     title,
		Message:   message,
		Timestamp: FormatTimestamp(now),
	}
}

// describeWhen renders the event date for display, keeping the wall clock
// of the original value.
func describeWhen(ev Event) string {
	t, ok := ev.ScheduledAt(time.UTC)
	if !ok {
		if s := ev.DateString(); s != "" {
			return s
		}
		return "a date to be announced"
	}
	if hasClock(ev) {
		return t.Format("Mon, Jan 2 at 3:04 PM")
	}
	return t.Format("Mon, Jan 2")
}

func clockSuffix(ev Event) string {
	t, ok := ev.ScheduledAt(time.UTC)
	if !ok || !hasClock(ev) {
		return ""
	}
	return " at " + t.Format("3:04 PM")
}

// hasClock reports whether the raw date carries a time of day.
func hasClock(ev Event) bool {
	return len(ev.DateString()) > len("2006-01-02")
}
