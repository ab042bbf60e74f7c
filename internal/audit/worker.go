package audit

import (
	"context"
	"log/slog"
	"time"
)

// ChannelPublisher decouples emitters from sink latency: Emit enqueues and
// returns, the Worker drains. A full inbox drops the event rather than
// blocking an admission scan.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, event dropped", "action", event.Action)
		}
	}
	return nil
}

// Inbox exposes the receive side for the worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}

// Worker consumes audit events from a channel and forwards them to sinks.
type Worker struct {
	sinks  []Publisher
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Publisher) *Worker {
	return &Worker{sinks: sinks, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. Sink failures are
// logged and skipped; audit delivery is best-effort past the inbox.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Emit(ctx, event); err != nil && w.logger != nil {
					w.logger.ErrorContext(ctx, "audit sink failed",
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
