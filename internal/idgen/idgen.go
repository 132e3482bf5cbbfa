// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the two kinds of generated identifiers.
const (
	NotificationPrefix = "notification_"
	EventPrefix        = "event_"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Notification returns a new notification id.
func Notification() (string, error) {
	return WithPrefix(NotificationPrefix)
}

// Event returns an id for an event that arrived without one. The creation
// time is embedded so ids sort by when they were assigned.
func Event(now time.Time) (string, error) {
	suffix, err := nanoid.Generate(Alphabet, 6)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return fmt.Sprintf("%s%d_%s", EventPrefix, now.UnixMilli(), suffix), nil
}

// WithPrefix returns a new unique ID with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
