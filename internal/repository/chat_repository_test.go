package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"study-mitra/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLXChatRepository_AppendMessage(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXChatRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chat_messages`)).
		WithArgs("m1", "user1", "user", "What is entropy?", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AppendMessage(context.Background(), &domain.ChatMessage{
		ID: "m1", UserID: "user1", Role: domain.RoleUser, Content: "What is entropy?", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXChatRepository_ListMessages(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`ORDER BY created_at ASC, id ASC`)

	t.Run("Ordered", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewSQLXChatRepository(db)
		now := time.Now()

		rows := sqlmock.NewRows([]string{"id", "user_id", "role", "content", "created_at"}).
			AddRow("m1", "user1", "user", "hi", now).
			AddRow("m2", "user1", "assistant", "hello", now)
		mock.ExpectQuery(query).WithArgs("user1").WillReturnRows(rows)

		msgs, err := repo.ListMessages(ctx, "user1")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, domain.RoleUser, msgs[0].Role)
		assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
		assert.Equal(t, "hello", msgs[1].Content)
	})

	t.Run("Empty", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewSQLXChatRepository(db)

		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role", "content", "created_at"}))

		msgs, err := repo.ListMessages(ctx, "user1")
		require.NoError(t, err)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})

	t.Run("QueryError", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewSQLXChatRepository(db)

		mock.ExpectQuery(query).WillReturnError(errors.New("boom"))

		_, err := repo.ListMessages(ctx, "user1")
		assert.Error(t, err)
	})
}
