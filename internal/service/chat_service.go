package service

import (
	"context"
	"strings"
	"time"

	"study-mitra/internal/domain"
	"study-mitra/internal/logger"
	"study-mitra/internal/util"

	"go.uber.org/zap"
)

// ChatService keeps each user's tutor transcript.
type ChatService interface {
	// Send stores the user message, asks the tutor and stores the reply.
	// On a tutor failure the user message stays and no assistant message is written.
	Send(ctx context.Context, userID, content string) ([]domain.ChatMessage, error)
	List(ctx context.Context, userID string) ([]domain.ChatMessage, error)
	Subscribe(ctx context.Context, userID string, onSnapshot func([]domain.ChatMessage)) (domain.Subscription, error)
	// Relay answers the last message of a client-held transcript without storing anything.
	Relay(ctx context.Context, transcript []domain.ChatMessage) (string, error)
}

type chatServiceImpl struct {
	repo    domain.ChatRepository
	gateway domain.ChatGateway
	feed    domain.ChatFeed
	now     func() time.Time
}

func NewChatService(repo domain.ChatRepository, gateway domain.ChatGateway, feed domain.ChatFeed) ChatService {
	return &chatServiceImpl{repo: repo, gateway: gateway, feed: feed, now: time.Now}
}

func (s *chatServiceImpl) Send(ctx context.Context, userID, content string) ([]domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ValidationErrors{domain.NewMissingFieldError("content")}
	}

	history, err := s.repo.ListMessages(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load chat history", err)
	}

	userMsg := domain.ChatMessage{
		ID:        util.NewULID(),
		UserID:    userID,
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.AppendMessage(ctx, &userMsg); err != nil {
		return nil, domain.NewInternalError("Failed to save chat message", err)
	}
	s.publish(ctx, userID)

	reply, err := s.gateway.Reply(ctx, history, userMsg)
	if err != nil {
		logger.Get().Warn("Tutor reply failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	assistantMsg := domain.ChatMessage{
		ID:        util.NewULID(),
		UserID:    userID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		CreatedAt: s.now().UTC(),
	}
	if !assistantMsg.CreatedAt.After(userMsg.CreatedAt) {
		assistantMsg.CreatedAt = userMsg.CreatedAt.Add(time.Microsecond)
	}
	if err := s.repo.AppendMessage(ctx, &assistantMsg); err != nil {
		return nil, domain.NewInternalError("Failed to save chat reply", err)
	}
	s.publish(ctx, userID)

	return []domain.ChatMessage{userMsg, assistantMsg}, nil
}

func (s *chatServiceImpl) List(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	messages, err := s.repo.ListMessages(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load chat history", err)
	}
	return messages, nil
}

func (s *chatServiceImpl) Subscribe(ctx context.Context, userID string, onSnapshot func([]domain.ChatMessage)) (domain.Subscription, error) {
	sub, err := s.feed.Subscribe(ctx, userID, onSnapshot)
	if err != nil {
		return nil, domain.NewInternalError("Failed to subscribe to chat", err)
	}
	return sub, nil
}

func (s *chatServiceImpl) Relay(ctx context.Context, transcript []domain.ChatMessage) (string, error) {
	if len(transcript) == 0 {
		return "", domain.ValidationErrors{domain.NewMissingFieldError("messages")}
	}
	last := len(transcript) - 1
	return s.gateway.Reply(ctx, transcript[:last], transcript[last])
}

// publish is best effort; the write is already durable and subscribers re-read on the next notification.
func (s *chatServiceImpl) publish(ctx context.Context, userID string) {
	if err := s.feed.Publish(ctx, userID); err != nil {
		logger.Get().Warn("Failed to publish chat update", zap.String("user_id", userID), zap.Error(err))
	}
}
