package events

import (
	"context"

	"github.com/alfredjeanlab/parish/internal/model"
)

// Event topic constants
const (
	TopicBroadcastCreated    = "parish.broadcast.created"
	TopicNotificationCreated = "parish.notification.created"

	// Live event list replaced by an admin.
	TopicEventsChanged = "parish.events.changed"

	// Synchronizer session lifecycle.
	TopicSessionStarted = "parish.session.started"
	TopicSessionEnded   = "parish.session.ended"
)

// Event types

// BroadcastCreated announces a record appended to an instance's log.
// Origin identifies the publishing instance so it can skip its own echo.
type BroadcastCreated struct {
	Origin string                `json:"origin"`
	Record model.BroadcastRecord `json:"record"`
}

type NotificationCreated struct {
	UserID       string             `json:"user_id"`
	Notification model.Notification `json:"notification"`
}

type EventsChanged struct {
	Count int `json:"count"`
}

type SessionStarted struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type SessionEnded struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
