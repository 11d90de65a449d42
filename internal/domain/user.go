package domain

import (
	"context"
	"math"
	"time"
)

// User is the account and profile record. Aggregates are maintained by the server
// in the same transaction as the quiz writes that change them.
type User struct {
	ID               string
	Email            string
	DisplayName      string
	PhotoURL         string
	PasswordHash     string
	TotalQuizzes     int
	CompletedQuizzes int
	ScoreSum         int
	Subjects         []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AverageScore over completed quizzes, rounded; 0 before the first completion.
func (u *User) AverageScore() int {
	if u.CompletedQuizzes == 0 {
		return 0
	}
	return int(math.Round(float64(u.ScoreSum) / float64(u.CompletedQuizzes)))
}

// ProfileUpdate merges into the stored profile; a nil field is left unchanged.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// UserRepository persists accounts. Getters return (nil, nil) when no row matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error
	// RecordQuizCreated bumps total_quizzes and adds subject to the distinct subject set.
	RecordQuizCreated(ctx context.Context, userID, subject string) error
	// RecordQuizCompleted bumps completed_quizzes and adds score to the running sum.
	RecordQuizCompleted(ctx context.Context, userID string, score int) error
}

// ErrEmailTaken is returned by CreateUser for a duplicate email.
var ErrEmailTaken = NewConflictError("an account with this email already exists")
