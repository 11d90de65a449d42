package domain

import (
	"context"
	"errors"
	"math"
	"time"
)

// SessionState is derived from the session fields, never stored.
type SessionState string

const (
	SessionNotStarted SessionState = "not_started"
	SessionInProgress SessionState = "in_progress"
	SessionCompleted  SessionState = "completed"
)

var (
	ErrNoAnswerSelected = errors.New("select an answer before continuing")
	ErrCannotRetreat    = errors.New("already at the first question")
	ErrSessionCompleted = errors.New("quiz session is already completed")
	ErrNoQuestions      = errors.New("quiz has no questions")
)

// ScoreFor returns the percentage of correct answers rounded half away from zero.
// A quiz without questions scores 0.
func ScoreFor(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100 / float64(total)))
}

// QuizSession steps one user through one quiz.
// The selection is transient until Advance records it; Finalize persists everything at once.
type QuizSession struct {
	quiz         *Quiz
	currentIndex int
	selected     string
	answers      map[string]string
	completed    bool
	score        int
	now          func() time.Time
}

// SessionSnapshot is the transient part of a session kept between requests.
type SessionSnapshot struct {
	CurrentIndex   int               `json:"currentIndex"`
	SelectedAnswer string            `json:"selectedAnswer"`
	Answers        map[string]string `json:"answers"`
}

// NewQuizSession starts a session for quiz. A quiz that is already completed yields a
// Completed session rebuilt from the stored answers and score.
func NewQuizSession(quiz *Quiz) *QuizSession {
	s := &QuizSession{
		quiz:    quiz,
		answers: make(map[string]string),
		now:     time.Now,
	}
	if quiz.IsCompleted() {
		s.completed = true
		if quiz.Score != nil {
			s.score = *quiz.Score
		}
		for _, q := range quiz.Questions {
			if q.UserAnswer != nil {
				s.answers[q.ID] = *q.UserAnswer
			}
		}
	}
	return s
}

// RestoreQuizSession rebuilds an in-flight session. A snapshot that no longer fits the quiz is discarded.
func RestoreQuizSession(quiz *Quiz, snap SessionSnapshot) *QuizSession {
	s := NewQuizSession(quiz)
	if s.completed {
		return s
	}
	if snap.CurrentIndex < 0 || (len(quiz.Questions) > 0 && snap.CurrentIndex >= len(quiz.Questions)) {
		return s
	}
	ids := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		ids[q.ID] = struct{}{}
	}
	for id, ans := range snap.Answers {
		if _, ok := ids[id]; ok {
			s.answers[id] = ans
		}
	}
	s.currentIndex = snap.CurrentIndex
	s.selected = snap.SelectedAnswer
	return s
}

func (s *QuizSession) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		CurrentIndex:   s.currentIndex,
		SelectedAnswer: s.selected,
		Answers:        s.Answers(),
	}
}

func (s *QuizSession) Quiz() *Quiz {
	return s.quiz
}

func (s *QuizSession) State() SessionState {
	switch {
	case s.completed:
		return SessionCompleted
	case s.currentIndex == 0 && s.selected == "" && len(s.answers) == 0:
		return SessionNotStarted
	default:
		return SessionInProgress
	}
}

func (s *QuizSession) CurrentIndex() int {
	return s.currentIndex
}

func (s *QuizSession) SelectedAnswer() string {
	return s.selected
}

// CurrentQuestion returns false for a quiz without questions.
func (s *QuizSession) CurrentQuestion() (Question, bool) {
	if s.currentIndex >= len(s.quiz.Questions) {
		return Question{}, false
	}
	return s.quiz.Questions[s.currentIndex], true
}

func (s *QuizSession) IsLastQuestion() bool {
	return s.currentIndex >= len(s.quiz.Questions)-1
}

// Answers returns a copy of the recorded answers keyed by question id.
func (s *QuizSession) Answers() map[string]string {
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Score is only meaningful once the session is completed.
func (s *QuizSession) Score() (int, bool) {
	return s.score, s.completed
}

// Progress is the percentage shown for the current position.
func (s *QuizSession) Progress() float64 {
	n := len(s.quiz.Questions)
	if n == 0 {
		return 0
	}
	if s.completed {
		return 100
	}
	return float64(s.currentIndex+1) / float64(n) * 100
}

// SelectAnswer stores the transient choice for the current question.
// Membership in the options is not checked; an off-list answer simply scores as incorrect.
func (s *QuizSession) SelectAnswer(choice string) error {
	if s.completed {
		return ErrSessionCompleted
	}
	if len(s.quiz.Questions) == 0 {
		return ErrNoQuestions
	}
	s.selected = choice
	return nil
}

// Advance records the selection and moves forward, finalizing on the last question.
func (s *QuizSession) Advance(ctx context.Context, w CompletionWriter) error {
	if s.completed {
		return ErrSessionCompleted
	}
	if len(s.quiz.Questions) == 0 {
		return s.Finalize(ctx, w)
	}
	if s.selected == "" {
		return ErrNoAnswerSelected
	}

	current := s.quiz.Questions[s.currentIndex]
	s.answers[current.ID] = s.selected

	if s.IsLastQuestion() {
		return s.Finalize(ctx, w)
	}
	s.currentIndex++
	s.selected = s.answers[s.quiz.Questions[s.currentIndex].ID]
	return nil
}

// Retreat moves back one question and restores its recorded answer. Nothing is persisted.
func (s *QuizSession) Retreat() error {
	if s.completed {
		return ErrSessionCompleted
	}
	if s.currentIndex == 0 {
		return ErrCannotRetreat
	}
	s.currentIndex--
	s.selected = s.answers[s.quiz.Questions[s.currentIndex].ID]
	return nil
}

// Finalize scores the recorded answers and writes them through w exactly once.
// The session and the quiz only change when the write succeeds.
func (s *QuizSession) Finalize(ctx context.Context, w CompletionWriter) error {
	if s.completed {
		return ErrSessionCompleted
	}

	graded := make([]Question, len(s.quiz.Questions))
	correct := 0
	for i, q := range s.quiz.Questions {
		answer := s.answers[q.ID]
		isCorrect := answer == q.CorrectAnswer
		if isCorrect {
			correct++
		}
		q.Options = append([]string(nil), q.Options...)
		q.UserAnswer = &answer
		q.IsCorrect = &isCorrect
		graded[i] = q
	}

	completion := QuizCompletion{
		QuizID:      s.quiz.ID,
		UserID:      s.quiz.UserID,
		Subject:     s.quiz.Subject,
		Questions:   graded,
		CompletedAt: s.now().UTC(),
		Score:       ScoreFor(correct, len(graded)),
	}
	if err := w.CompleteQuiz(ctx, completion); err != nil {
		return err
	}

	s.quiz.Questions = graded
	s.quiz.CompletedAt = &completion.CompletedAt
	score := completion.Score
	s.quiz.Score = &score
	s.score = score
	s.completed = true
	s.selected = ""
	return nil
}
