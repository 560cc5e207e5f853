package runtime

import (
	"chispa/contract"
	"chispa/domain/event"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopSink struct{ name string }

func (nopSink) Consume(context.Context, event.DomainEvent) error { return nil }

func Test_Registry_Resolves_Conversation_Sinks(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	ana := nopSink{name: "ana"}
	ben := nopSink{name: "ben"}
	registry.Subscribe("ana", "conv-1", ana)
	registry.Subscribe("ben", "conv-1", ben)
	registry.Subscribe("carol", "conv-2", nopSink{name: "carol"})

	sinks := registry.GetSinksForConversation("conv-1")
	req.Len(sinks, 2)
	req.ElementsMatch([]contract.EventSink{ana, ben}, sinks)
}

func Test_Registry_Unknown_Conversation_Has_No_Sinks(t *testing.T) {
	require.Nil(t, NewRegistry().GetSinksForConversation("nope"))
}

func Test_Registry_Unsubscribe_Cleans_Up(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Subscribe("ana", "conv-1", nopSink{name: "ana"})
	registry.Unsubscribe("ana", "conv-1")

	req.Empty(registry.GetSinksForConversation("conv-1"))
	req.Empty(registry.members)
	req.Empty(registry.sessions)
}

func Test_Registry_One_Session_Many_Conversations(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	ana := nopSink{name: "ana"}
	registry.Subscribe("ana", "conv-1", ana)
	registry.Subscribe("ana", "conv-2", ana)

	req.Len(registry.GetSinksForConversation("conv-1"), 1)
	req.Len(registry.GetSinksForConversation("conv-2"), 1)
}
