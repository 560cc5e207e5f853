package sink

import (
	"chispa/domain/event"
	"chispa/repositories"
	"context"
	"log/slog"
)

// SearchSink feeds persisted text messages into the full-text index. It is a
// permanent sink: it sees every MessageSent regardless of who is connected.
// Indexing lags persistence by design, a failed index write is logged and the
// message stays findable through the paginated stream.
type SearchSink struct {
	index repositories.IMessageIndex
	log   *slog.Logger
}

func NewSearchSink(index repositories.IMessageIndex, log *slog.Logger) *SearchSink {
	return &SearchSink{index: index, log: log}
}

func (s *SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	sent, ok := e.(event.MessageSent)
	if !ok {
		return nil
	}
	if err := s.index.Index(sent.Message); err != nil {
		s.log.Error("Message indexing failed",
			"message_id", sent.Message.ID, "error", err)
		return err
	}
	return nil
}
