package event

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Publisher pushes an event to an external stream. Satisfied by
// *kafka.Producer through a small adapter in main.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Worker consumes events from the recorder's queue, archives them, and
// optionally publishes them. Archive or publish failures are logged and
// skipped; the lifecycle itself already committed and must not be affected.
type Worker struct {
	store     Store
	publisher Publisher
	inbox     <-chan Event
	logger    *slog.Logger
}

func NewWorker(store Store, publisher Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, publisher: publisher, inbox: inbox, logger: logger}
}

// Run processes events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-w.inbox:
			w.handle(ctx, e)
		}
	}
}

func (w *Worker) handle(ctx context.Context, e Event) {
	if err := w.store.Append(ctx, e); err != nil {
		w.logger.Error("archiving lifecycle event failed",
			"event_id", e.ID,
			"type", string(e.Type),
			"error", err,
		)
	}
	if w.publisher == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		w.logger.Error("encoding lifecycle event failed", "event_id", e.ID, "error", err)
		return
	}
	if err := w.publisher.Publish(ctx, e.IdentityKey, payload); err != nil {
		w.logger.Error("publishing lifecycle event failed",
			"event_id", e.ID,
			"type", string(e.Type),
			"error", err,
		)
	}
}
