package services

import (
	"chispa/contract"
	"chispa/domain"
	"chispa/media"
	"chispa/repositories"
	"chispa/runtime"
	"context"
	"log/slog"
)

type IChatService interface {
	OpenConversation(a, b string) (domain.Conversation, error)
	ListConversations(userID string) ([]domain.Conversation, error)
	GetConversation(conversationID, userID string) (domain.Conversation, error)
	SendText(cmd domain.SendTextCommand) (domain.Message, error)
	SendMedia(cmd domain.SendMediaCommand) (domain.Message, error)
	GetMessages(requesterID, conversationID string, cursor *string) ([]domain.Message, *string, error)
	Search(ctx context.Context, requesterID, conversationID, query string, limit int) ([]repositories.SearchHit, error)
	Join(participantID, conversationID string, sink contract.EventSink) error
	Leave(participantID, conversationID string)
	RecordAudio(device media.CaptureDevice, tier domain.Tier) (*media.RecordingSession, error)
}

// ChatService is the application facade the transport talks to. Sending and
// reading delegate to the orchestrator, search goes straight to the index
// after the same membership check.
type ChatService struct {
	orchestrator *runtime.Orchestrator
	index        repositories.IMessageIndex
	log          *slog.Logger
}

func NewChatService(orchestrator *runtime.Orchestrator, index repositories.IMessageIndex, log *slog.Logger) *ChatService {
	return &ChatService{orchestrator: orchestrator, index: index, log: log}
}

func (s *ChatService) OpenConversation(a, b string) (domain.Conversation, error) {
	return s.orchestrator.EnsureConversation(a, b)
}

func (s *ChatService) ListConversations(userID string) ([]domain.Conversation, error) {
	return s.orchestrator.ListConversations(userID)
}

func (s *ChatService) GetConversation(conversationID, userID string) (domain.Conversation, error) {
	return s.orchestrator.Conversation(conversationID, userID)
}

func (s *ChatService) SendText(cmd domain.SendTextCommand) (domain.Message, error) {
	return s.orchestrator.SendText(cmd)
}

func (s *ChatService) SendMedia(cmd domain.SendMediaCommand) (domain.Message, error) {
	return s.orchestrator.SendMedia(cmd)
}

func (s *ChatService) GetMessages(requesterID, conversationID string, cursor *string) ([]domain.Message, *string, error) {
	return s.orchestrator.GetMessages(requesterID, conversationID, cursor)
}

func (s *ChatService) Search(ctx context.Context, requesterID, conversationID, query string, limit int) ([]repositories.SearchHit, error) {
	if _, err := s.orchestrator.Conversation(conversationID, requesterID); err != nil {
		return nil, err
	}
	return s.index.Search(ctx, conversationID, query, limit)
}

func (s *ChatService) Join(participantID, conversationID string, sink contract.EventSink) error {
	return s.orchestrator.JoinConversation(participantID, conversationID, sink)
}

func (s *ChatService) Leave(participantID, conversationID string) {
	s.orchestrator.LeaveConversation(participantID, conversationID)
}

// RecordAudio opens a recording session clamped at the tier's audio limit.
// The caller stops it (or lets the timer fire) and sends the resulting clip
// through SendMedia.
func (s *ChatService) RecordAudio(device media.CaptureDevice, tier domain.Tier) (*media.RecordingSession, error) {
	return media.StartRecording(device, domain.LimitsFor(tier), s.log)
}
