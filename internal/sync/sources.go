package sync

import (
	"context"

	"github.com/alfredjeanlab/parish/internal/model"
)

// EventSource supplies the live list of upcoming events.
type EventSource interface {
	Events(ctx context.Context) []model.Event
}

// EventList is a fixed EventSource.
type EventList []model.Event

func (l EventList) Events(context.Context) []model.Event { return l }

// UserSource identifies the user a synchronizer works for. It is asked
// on every pass so role changes take effect without a restart.
type UserSource interface {
	CurrentUser(ctx context.Context) (model.User, error)
}

// StaticUser is a fixed UserSource.
type StaticUser model.User

func (u StaticUser) CurrentUser(context.Context) (model.User, error) { return model.User(u), nil }
