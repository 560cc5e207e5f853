package workers

import (
	"chispa/contract"
	"chispa/domain"
	"chispa/domain/event"
	"chispa/mocks"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Fanout_Delivers_To_Permanent_And_Conversation_Sinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	evt := event.MessageSent{Message: domain.Message{ConversationID: "conv-1", Text: "hola"}}

	permanent := mocks.NewMockEventSink(ctrl)
	permanent.EXPECT().Consume(gomock.Any(), evt).Return(nil)

	subscriber := mocks.NewMockEventSink(ctrl)
	subscriber.EXPECT().Consume(gomock.Any(), evt).Return(nil)

	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().GetSinksForConversation("conv-1").
		Return([]contract.EventSink{subscriber})

	fanout := NewEventFanout(discardLogger(), registry, nil, nil,
		[]contract.EventSink{permanent}, time.Second)
	fanout.Fanout(context.Background(), evt)
}

func Test_Fanout_Skips_Registry_For_Unscoped_Events(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	evt := event.ProcessStats{Goroutines: 7}

	permanent := mocks.NewMockEventSink(ctrl)
	permanent.EXPECT().Consume(gomock.Any(), evt).Return(nil)

	// No GetSinksForConversation expectation: telemetry has no conversation.
	registry := mocks.NewMockIRegistry(ctrl)

	fanout := NewEventFanout(discardLogger(), registry, nil, nil,
		[]contract.EventSink{permanent}, time.Second)
	fanout.Fanout(context.Background(), evt)
}

func Test_Fanout_Survives_A_Failing_Sink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	evt := event.MessageSent{Message: domain.Message{ConversationID: "conv-1"}}

	failing := mocks.NewMockEventSink(ctrl)
	failing.EXPECT().Consume(gomock.Any(), evt).Return(context.DeadlineExceeded)

	healthy := mocks.NewMockEventSink(ctrl)
	healthy.EXPECT().Consume(gomock.Any(), evt).Return(nil)

	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().GetSinksForConversation("conv-1").Return(nil)

	fanout := NewEventFanout(discardLogger(), registry, nil, nil,
		[]contract.EventSink{failing, healthy}, time.Second)
	fanout.Fanout(context.Background(), evt)
}

func Test_Fanout_Run_Forwards_To_Telemetry_Stream(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().GetSinksForConversation("conv-1").Return(nil).AnyTimes()

	domainEvents := make(chan event.DomainEvent, 1)
	telemetryEvents := make(chan event.DomainEvent, 1)
	fanout := NewEventFanout(discardLogger(), registry,
		domainEvents, telemetryEvents, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	evt := event.MessageSent{Message: domain.Message{ConversationID: "conv-1", Text: "hola"}}
	domainEvents <- evt

	select {
	case forwarded := <-telemetryEvents:
		req.Equal(evt, forwarded)
	case <-time.After(3 * time.Second):
		t.Fatal("event was not forwarded to the telemetry stream")
	}
}
