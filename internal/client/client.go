// Package client provides the parish API interface used by the CLI and an
// HTTP/JSON implementation of it.
package client

import (
	"context"

	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/session"
)

// Client is the interface all parish CLI commands use to talk to the
// server.
type Client interface {
	// Broadcasts
	Broadcast(ctx context.Context, ev model.Event) (*BroadcastResult, error)
	ListBroadcasts(ctx context.Context) ([]model.BroadcastRecord, error)

	// Live events
	SetEvents(ctx context.Context, evs []model.Event) (int, error)
	ListEvents(ctx context.Context) ([]model.Event, error)

	// Notifications
	ListNotifications(ctx context.Context, userID string) (*NotificationList, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	AddEventNotification(ctx context.Context, userID string, ev model.Event, isReminder bool) (string, error)
	AddSystemNotification(ctx context.Context, userID, title, message string) error
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, id string) error
	ClearNotifications(ctx context.Context, userID string) error

	// Sessions
	StartSession(ctx context.Context, userID, role string) (*session.Entry, error)
	EndSession(ctx context.Context, userID string) error
	ListSessions(ctx context.Context) ([]session.Entry, error)
	RequestReset(ctx context.Context, userID string) error

	// Health
	Health(ctx context.Context) (string, error)
}

// BroadcastResult is the outcome of appending to the broadcast log.
type BroadcastResult struct {
	Result string `json:"result"`
	OK     bool   `json:"ok"`
}

// NotificationList is a user's notifications with the derived unread count.
type NotificationList struct {
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
}
