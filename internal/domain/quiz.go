package domain

import (
	"context"
	"errors"
	"time"
)

// Difficulty of a generated quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"

	DefaultDifficulty        = DifficultyMedium
	DefaultNumberOfQuestions = 5
)

// AllowedQuestionCounts are the quiz lengths a user may request.
var AllowedQuestionCounts = []int{5, 10, 15, 20}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ErrQuizAlreadyCompleted is returned by a CompletionWriter when the quiz was completed before.
var ErrQuizAlreadyCompleted = errors.New("quiz already completed")

// Question is a single multiple-choice item. UserAnswer and IsCorrect are only set once the quiz is completed.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	UserAnswer    *string  `json:"userAnswer,omitempty"`
	IsCorrect     *bool    `json:"isCorrect,omitempty"`
}

// HasOption reports whether answer is one of the displayed options.
func (q Question) HasOption(answer string) bool {
	for _, o := range q.Options {
		if o == answer {
			return true
		}
	}
	return false
}

// Quiz is created once from a generated quiz and completed at most once.
type Quiz struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Subject        string     `json:"subject"`
	Difficulty     Difficulty `json:"difficulty"`
	Questions      []Question `json:"questions"`
	UserID         string     `json:"userId"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Score          *int       `json:"score,omitempty"`
	TotalQuestions int        `json:"totalQuestions"`
}

func (q *Quiz) IsCompleted() bool {
	return q.CompletedAt != nil
}

// OwnedBy reports whether userID owns the quiz.
func (q *Quiz) OwnedBy(userID string) bool {
	return q.UserID == userID
}

// SortTime is completedAt for completed quizzes and createdAt otherwise.
func (q *Quiz) SortTime() time.Time {
	if q.CompletedAt != nil {
		return *q.CompletedAt
	}
	return q.CreatedAt
}

// QuizSpec is the user's request for a new quiz. Subject is already resolved from the custom sentinel.
type QuizSpec struct {
	Subject           string
	Difficulty        Difficulty
	NumberOfQuestions int
}

// GeneratedQuiz is the validated body returned by the quiz generator.
type GeneratedQuiz struct {
	Title     string     `json:"title"`
	Subject   string     `json:"subject"`
	Questions []Question `json:"questions"`
}

// QuizCompletion carries everything written when a quiz is finalized.
type QuizCompletion struct {
	QuizID      string
	UserID      string
	Subject     string
	Questions   []Question
	CompletedAt time.Time
	Score       int
}

// CompletionWriter persists a finalized quiz in one step.
type CompletionWriter interface {
	CompleteQuiz(ctx context.Context, completion QuizCompletion) error
}

// QuizGenerator turns a QuizSpec into a validated quiz body.
type QuizGenerator interface {
	Generate(ctx context.Context, spec QuizSpec) (*GeneratedQuiz, error)
}

// QuizRepository persists quiz records. GetQuizByID returns (nil, nil) when the quiz does not exist.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz *Quiz) error
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)
	ListQuizzesByUser(ctx context.Context, userID string) ([]*Quiz, error)
	// CompleteQuiz returns ErrQuizAlreadyCompleted when the quiz is missing or already completed.
	CompleteQuiz(ctx context.Context, completion QuizCompletion) error
}
