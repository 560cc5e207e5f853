package api

import (
	"chispa/auth"
	"chispa/domain"
	"chispa/domain/event"
	"chispa/sink"

	"github.com/gofiber/contrib/websocket"
	"github.com/samber/lo"
)

const wsSinkBuffer = 32

type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleWS serves one live subscription: the recent history as a snapshot
// first, then deltas as they are fanned out. The client renders the snapshot
// and applies events on top, there is no replay of what happened in between.
func (s *Server) handleWS(c *websocket.Conn) {
	defer func() { _ = c.Close() }()

	session, _ := c.Locals(sessionKey).(auth.Session)
	conversationID := c.Params("id")

	messages, _, err := s.chat.GetMessages(session.UserID, conversationID, nil)
	if err != nil {
		_ = c.WriteJSON(wsEnvelope{Type: "error", Data: "subscription rejected"})
		return
	}
	if err = c.WriteJSON(wsEnvelope{
		Type: "snapshot",
		Data: lo.Map(messages, func(message domain.Message, _ int) messageResponse {
			return toMessageResponse(message)
		}),
	}); err != nil {
		return
	}

	live := sink.NewChannelSink(wsSinkBuffer)
	if err = s.chat.Join(session.UserID, conversationID, live); err != nil {
		return
	}
	defer s.chat.Leave(session.UserID, conversationID)

	// The read loop only watches for the peer going away, clients do not send
	// anything over this socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e := <-live.Events():
			if err := s.writeEvent(c, e); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) writeEvent(c *websocket.Conn, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		return c.WriteJSON(wsEnvelope{Type: "message", Data: toMessageResponse(evt.Message)})
	case event.ConversationUpdated:
		return c.WriteJSON(wsEnvelope{Type: "conversation", Data: toConversationResponse(evt.Conversation)})
	default:
		return nil
	}
}
