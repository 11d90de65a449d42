package domain

import (
	"context"
	"time"
)

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

func (r ChatRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage is one entry of a user's append-only transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatGateway asks the tutor model for the next assistant reply. It never persists anything.
type ChatGateway interface {
	Reply(ctx context.Context, transcript []ChatMessage, next ChatMessage) (string, error)
}

// ChatRepository stores transcripts. ListMessages is ordered by (created_at, id) ascending.
type ChatRepository interface {
	AppendMessage(ctx context.Context, msg *ChatMessage) error
	ListMessages(ctx context.Context, userID string) ([]ChatMessage, error)
}

// Subscription ends a live transcript feed. Unsubscribe is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// ChatFeed pushes ordered transcript snapshots to subscribers after every write.
// onSnapshot is called from a single goroutine per subscription, so deliveries never overlap.
type ChatFeed interface {
	Publish(ctx context.Context, userID string) error
	Subscribe(ctx context.Context, userID string, onSnapshot func([]ChatMessage)) (Subscription, error)
}
