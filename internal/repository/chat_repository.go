package repository

import (
	"context"
	"fmt"

	"study-mitra/internal/domain"
	"study-mitra/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

type sqlxChatRepository struct {
	db *sqlx.DB
}

func NewSQLXChatRepository(db *sqlx.DB) domain.ChatRepository {
	return &sqlxChatRepository{db: db}
}

func (r *sqlxChatRepository) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	query := `INSERT INTO chat_messages (id, user_id, role, content, created_at)
	          VALUES (:id, :user_id, :role, :content, :created_at)`

	row := models.ChatMessage{
		ID:        msg.ID,
		UserID:    msg.UserID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

// ListMessages orders by created_at, then by id so equal timestamps keep insertion order.
func (r *sqlxChatRepository) ListMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	var rows []models.ChatMessage
	query := `SELECT id, user_id, role, content, created_at FROM chat_messages
	          WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	messages := make([]domain.ChatMessage, 0, len(rows))
	for _, m := range rows {
		messages = append(messages, domain.ChatMessage{
			ID:        m.ID,
			UserID:    m.UserID,
			Role:      domain.ChatRole(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return messages, nil
}
