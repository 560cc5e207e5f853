// Package sink provides EventSink implementations on both ends of the fanout:
// per-connection channels for live subscribers and permanent sinks feeding
// the search index and the timeline projection.
package sink

import (
	"chispa/domain/event"
	"context"
)

// ChannelSink bridges the fanout to one connected client, typically a
// websocket writer loop draining Events. Consume blocks at most until the
// fanout's per-sink deadline: a subscriber that cannot drain its buffer in
// time loses the event instead of stalling the pipeline.
type ChannelSink struct {
	events chan event.DomainEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan event.DomainEvent, buffer)}
}

func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is drained by the connection's writer loop.
func (s *ChannelSink) Events() <-chan event.DomainEvent {
	return s.events
}
