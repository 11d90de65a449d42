package models

import (
	"database/sql"
	"time"
)

// User is a row of the users table.
type User struct {
	ID               string         `db:"id"`
	Email            string         `db:"email"`
	DisplayName      string         `db:"display_name"`
	PhotoURL         sql.NullString `db:"photo_url"`
	PasswordHash     string         `db:"password_hash"`
	TotalQuizzes     int            `db:"total_quizzes"`
	CompletedQuizzes int            `db:"completed_quizzes"`
	ScoreSum         int            `db:"score_sum"`
	Subjects         StringSlice    `db:"subjects"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}
