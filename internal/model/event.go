package model

import (
	"strings"
	"time"
)

// Event is an event-like record supplied by the event catalog. Display name
// may arrive as either Title or Name, and the scheduled time as either Date
// or StartTime; both spellings are accepted everywhere.
type Event struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Name        string `json:"name,omitempty"`
	Date        string `json:"date,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// DisplayTitle returns Title, falling back to Name.
func (e Event) DisplayTitle() string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return strings.TrimSpace(e.Name)
}

// DateString returns the raw scheduled time, preferring Date over StartTime.
func (e Event) DateString() string {
	if e.Date != "" {
		return e.Date
	}
	return e.StartTime
}

// ScheduledAt resolves the event's scheduled time. Date-only and zone-less
// values are interpreted in loc.
func (e Event) ScheduledAt(loc *time.Location) (time.Time, bool) {
	if t, ok := ParseTimestamp(e.Date, loc); ok {
		return t, true
	}
	return ParseTimestamp(e.StartTime, loc)
}

// Created resolves the event's creation timestamp.
func (e Event) Created(loc *time.Location) (time.Time, bool) {
	return ParseTimestamp(e.CreatedAt, loc)
}
