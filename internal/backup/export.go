package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/parish/internal/model"
)

// BroadcastSource lists the broadcast log.
type BroadcastSource interface {
	List(ctx context.Context) []model.BroadcastRecord
}

// EventSource lists the live event board.
type EventSource interface {
	Events(ctx context.Context) []model.Event
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version        string    `json:"version"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	BroadcastCount int       `json:"broadcast_count"`
	EventCount     int       `json:"event_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes the broadcast log (oldest first) and then the live
// events to w, one JSON object per line after a header. events may be nil.
func ExportJSONL(ctx context.Context, broadcasts BroadcastSource, events EventSource, now time.Time, w io.Writer) error {
	records := broadcasts.List(ctx)
	var evs []model.Event
	if events != nil {
		evs = events.Events(ctx)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:        "1",
		Type:           "header",
		Timestamp:      now.UTC(),
		BroadcastCount: len(records),
		EventCount:     len(evs),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for _, r := range records {
		if err := enc.Encode(record{Type: "broadcast", Data: r}); err != nil {
			return fmt.Errorf("encode broadcast %s: %w", r.ID, err)
		}
	}
	for _, ev := range evs {
		if err := enc.Encode(record{Type: "event", Data: ev}); err != nil {
			return fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
	}
	return nil
}
