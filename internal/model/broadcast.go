package model

import (
	"strings"
	"time"
)

// Display fallbacks for records missing optional fields.
const (
	DefaultTitle    = "New Event"
	DefaultLocation = "TBD"
)

// BroadcastRecord is the fan-out copy of an event stored in the broadcast
// log. It is never mutated after being appended.
type BroadcastRecord struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Name          string `json:"name,omitempty"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime,omitempty"`
	Location      string `json:"location"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	BroadcastTime string `json:"broadcastTime"`
}

// NewBroadcastRecord normalizes ev into a record stamped at now. fallbackID
// is used when ev carries no id.
func NewBroadcastRecord(ev Event, fallbackID string, now time.Time) BroadcastRecord {
	stamp := FormatTimestamp(now)

	r := BroadcastRecord{
		ID:            strings.TrimSpace(ev.ID),
		Title:         strings.TrimSpace(ev.Title),
		Name:          strings.TrimSpace(ev.Name),
		Date:          ev.Date,
		StartTime:     ev.StartTime,
		Location:      strings.TrimSpace(ev.Location),
		Description:   ev.Description,
		CreatedAt:     ev.CreatedAt,
		BroadcastTime: stamp,
	}
	if r.ID == "" {
		r.ID = fallbackID
	}
	if r.Title == "" {
		r.Title = r.Name
	}
	if r.Name == "" {
		r.Name = r.Title
	}
	if r.Date == "" {
		r.Date = r.StartTime
	}
	if r.StartTime == "" {
		r.StartTime = r.Date
	}
	if r.Date == "" {
		r.Date = stamp
		r.StartTime = stamp
	}
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	return r
}

// Normalized fills display fields missing from records written by older or
// foreign clients.
func (r BroadcastRecord) Normalized() BroadcastRecord {
	if r.Title == "" {
		r.Title = r.Name
	}
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.Date == "" {
		r.Date = r.StartTime
	}
	if r.Date == "" {
		r.Date = r.BroadcastTime
	}
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	return r
}

// Event converts the record back into the event shape used for
// notification synthesis.
func (r BroadcastRecord) Event() Event {
	return Event{
		ID:          r.ID,
		Title:       r.Title,
		Name:        r.Name,
		Date:        r.Date,
		StartTime:   r.StartTime,
		Location:    r.Location,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}
