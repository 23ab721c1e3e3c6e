// Package notify delivers fire-and-forget operational events. The core
// never blocks on delivery; a failed notification is logged and dropped.
package notify

import (
	"context"

	"partsync/pkg/logger"
)

// Event is an operational notification payload.
type Event struct {
	Kind    string         // e.g. "mrp.run", "audit.completed"
	Message string
	Fields  map[string]any
}

// Notifier delivers events to an external channel.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// LogNotifier writes events to the structured log. It stands in for
// external channels (mail, messengers) in deployments without one.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the event. Never returns an error; delivery is best-effort.
func (n *LogNotifier) Notify(ctx context.Context, event Event) {
	args := []any{"kind", event.Kind}
	for k, v := range event.Fields {
		args = append(args, k, v)
	}
	logger.Info(ctx, event.Message, args...)
}
