package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and fans them out to the
// configured sinks. A failing sink is logged and skipped: the audit trail is
// best-effort from the worker's perspective, the store of record for the
// decision itself lives in the decision table.
type Worker struct {
	sinks  []Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{sinks: sinks, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit sink append failed",
						"event_id", event.ID,
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
