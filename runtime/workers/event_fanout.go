package workers

import (
	"context"
	"log/slog"
	"time"

	"sus-lab/contract"
	"sus-lab/domain/event"
)

// EventFanout delivers session events to their audience.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering across sinks, durability, or retries. EventFanout is not a
// message broker.
//
// Permanent sinks (telemetry, storage) receive every event regardless of
// audience; connection sinks only receive what the event's audience allows.
type EventFanout struct {
	log            *slog.Logger
	registry       contract.IRegistry
	domainEvents   chan event.DomainEvent
	telemetryChan  chan event.DomainEvent
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	domainEvents, telemetryChan chan event.DomainEvent,
	permanentSinks []contract.EventSink, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:            log,
		registry:       registry,
		domainEvents:   domainEvents,
		telemetryChan:  telemetryChan,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return ctx.Err()
		case evt := <-w.domainEvents:
			w.Fanout(ctx, evt)
			select {
			case w.telemetryChan <- evt:
			default:
				w.log.Debug("Telemetry event lost")
			}
		}
	}
}

// Fanout delivers one event to every eligible sink. A slow sink only gets
// sinkTimeout of our time; the game never waits for a stuck connection.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := make([]contract.EventSink, 0, len(w.permanentSinks))
	sinks = append(sinks, w.permanentSinks...)
	sinks = append(sinks, w.registry.SinksFor(evt.Audience)...)
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Debug("Sink refused event", "event", evt.Name, "error", err)
		}
		cancel()
	}
}
