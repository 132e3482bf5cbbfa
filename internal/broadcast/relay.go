package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/parish/internal/events"
)

// Relay copies broadcasts announced by other instances into the local
// log. Announcements carrying the local log's origin are skipped.
type Relay struct {
	log *Log
}

// NewRelay returns a relay feeding log.
func NewRelay(log *Log) *Relay {
	return &Relay{log: log}
}

// Run subscribes to broadcast announcements and ingests them. It blocks
// until ctx is cancelled or the subscription closes.
func (r *Relay) Run(ctx context.Context, sub events.Subscriber) error {
	ch, cancel, err := sub.Subscribe(events.TopicBroadcastCreated)
	if err != nil {
		return fmt.Errorf("broadcast relay: subscribe: %w", err)
	}
	defer cancel()

	logger := r.log.logger
	logger.Info("broadcast relay: started", "origin", r.log.origin)

	for {
		select {
		case <-ctx.Done():
			logger.Info("broadcast relay: stopping")
			return nil
		case raw, ok := <-ch:
			if !ok {
				logger.Info("broadcast relay: subscription closed")
				return nil
			}
			r.handle(ctx, raw)
		}
	}
}

func (r *Relay) handle(ctx context.Context, raw []byte) {
	logger := r.log.logger

	var msg events.BroadcastCreated
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Warn("broadcast relay: bad payload", "err", err)
		return
	}
	if msg.Origin == r.log.origin {
		return
	}
	res, err := r.log.Ingest(ctx, msg.Record)
	if err != nil {
		logger.Warn("broadcast relay: ingest failed", "id", msg.Record.ID, "origin", msg.Origin, "err", err)
		return
	}
	logger.Info("broadcast relay: ingested", "id", msg.Record.ID, "origin", msg.Origin, "result", res.String())
}
