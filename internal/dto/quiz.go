package dto

import (
	"time"

	"study-mitra/internal/domain"
)

// GenerateQuizRequest is the body of the stateless quiz generation endpoint.
// @Description Request body for quiz generation
type GenerateQuizRequest struct {
	Subject           string `json:"subject"`
	Difficulty        string `json:"difficulty"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
}

// CreateQuizRequest generates and stores a quiz for the caller.
// @Description Request body for creating a quiz
type CreateQuizRequest struct {
	Subject           string `json:"subject" validate:"required,subject"`
	CustomSubject     string `json:"customSubject" validate:"required_if=Subject custom,max=100"`
	Difficulty        string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	NumberOfQuestions int    `json:"numberOfQuestions" validate:"omitempty,question_count"`
}

// CreateQuizResponse carries the id of the stored quiz.
type CreateQuizResponse struct {
	ID string `json:"id"`
}

// QuizListItem is one row of the caller's quiz list.
type QuizListItem struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Subject        string     `json:"subject"`
	Difficulty     string     `json:"difficulty"`
	TotalQuestions int        `json:"totalQuestions"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Score          *int       `json:"score,omitempty"`
}

// SelectAnswerRequest stores the transient selection for the current question.
// @Description Request body for selecting an answer
type SelectAnswerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// SessionQuestion hides the correct answer until the quiz is completed.
type SessionQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	UserAnswer    *string  `json:"userAnswer,omitempty"`
	IsCorrect     *bool    `json:"isCorrect,omitempty"`
}

// QuizSessionResponse is the view of a quiz session after every action.
// @Description Quiz session view
type QuizSessionResponse struct {
	QuizID         string              `json:"quizId"`
	Title          string              `json:"title"`
	Subject        string              `json:"subject"`
	Difficulty     domain.Difficulty   `json:"difficulty"`
	State          domain.SessionState `json:"state"`
	CurrentIndex   int                 `json:"currentIndex"`
	TotalQuestions int                 `json:"totalQuestions"`
	Progress       float64             `json:"progress"`
	IsLastQuestion bool                `json:"isLastQuestion"`
	SelectedAnswer string              `json:"selectedAnswer,omitempty"`
	Question       *SessionQuestion    `json:"question,omitempty"`
	Score          *int                `json:"score,omitempty"`
	Review         []SessionQuestion   `json:"review,omitempty"`
}
