package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"study-mitra/internal/cache"
	"study-mitra/internal/domain"
	"study-mitra/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	changedPayload  = "changed"
	snapshotTimeout = 5 * time.Second
)

// RedisChatFeed notifies subscribers over Redis pub/sub and re-reads the transcript from the repository,
// so every delivery is a full ordered snapshot no matter which instance wrote the message.
type RedisChatFeed struct {
	client *redis.Client
	repo   domain.ChatRepository
}

func NewRedisChatFeed(client *redis.Client, repo domain.ChatRepository) *RedisChatFeed {
	return &RedisChatFeed{client: client, repo: repo}
}

func (f *RedisChatFeed) Publish(ctx context.Context, userID string) error {
	if err := f.client.Publish(ctx, cache.ChatChannel(userID), changedPayload).Err(); err != nil {
		return fmt.Errorf("publish chat notification: %w", err)
	}
	return nil
}

// Subscribe blocks until Redis confirms the subscription, then delivers the current transcript
// followed by one snapshot per burst of notifications.
func (f *RedisChatFeed) Subscribe(ctx context.Context, userID string, onSnapshot func([]domain.ChatMessage)) (domain.Subscription, error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("onSnapshot callback required")
	}

	pubsub := f.client.Subscribe(ctx, cache.ChatChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub := &feedSubscription{pubsub: pubsub, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		f.run(runCtx, userID, pubsub.Channel(), onSnapshot)
	}()

	return sub, nil
}

func (f *RedisChatFeed) run(ctx context.Context, userID string, ch <-chan *redis.Message, onSnapshot func([]domain.ChatMessage)) {
	f.deliver(ctx, userID, onSnapshot)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if !drain(ch) {
				return
			}
			f.deliver(ctx, userID, onSnapshot)
		}
	}
}

// drain discards queued notifications; one re-read covers them all. It reports false once ch is closed.
func drain(ch <-chan *redis.Message) bool {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

func (f *RedisChatFeed) deliver(ctx context.Context, userID string, onSnapshot func([]domain.ChatMessage)) {
	readCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	messages, err := f.repo.ListMessages(readCtx, userID)
	if err != nil {
		if ctx.Err() == nil {
			logger.Get().Warn("Failed to load chat snapshot", zap.String("user_id", userID), zap.Error(err))
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	onSnapshot(messages)
}

type feedSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Unsubscribe stops deliveries and waits for an in-flight callback to return.
// It must not be called from inside onSnapshot.
func (s *feedSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		if err := s.pubsub.Close(); err != nil {
			logger.Get().Debug("Closing chat subscription", zap.Error(err))
		}
		<-s.done
	})
}
