package models

import (
	"database/sql"
	"time"
)

// Quiz is a row of the quizzes table.
type Quiz struct {
	ID             string        `db:"id"`
	UserID         string        `db:"user_id"`
	Title          string        `db:"title"`
	Subject        string        `db:"subject"`
	Difficulty     string        `db:"difficulty"`
	Questions      QuestionList  `db:"questions"`
	TotalQuestions int           `db:"total_questions"`
	Score          sql.NullInt64 `db:"score"`
	CreatedAt      time.Time     `db:"created_at"`
	CompletedAt    sql.NullTime  `db:"completed_at"`
}

// ChatMessage is a row of the chat_messages table.
type ChatMessage struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
