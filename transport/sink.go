package transport

import (
	"context"

	"sus-lab/contract"
	"sus-lab/domain/event"
)

var _ contract.EventSink = (*WebsocketSink)(nil)

// WebsocketSink buffers events between the fanout worker and one
// connection's write pump.
type WebsocketSink struct {
	Events chan event.DomainEvent
}

func NewWebsocketSink(bufferSize int) *WebsocketSink {
	return &WebsocketSink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the fanout. A full buffer means the client cannot
// keep up; the event is dropped for this connection rather than stalling
// the game for everyone else.
func (s *WebsocketSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
