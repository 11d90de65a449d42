package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"study-mitra/internal/domain"
	"study-mitra/internal/repository/models"
	"study-mitra/internal/util"

	"github.com/jmoiron/sqlx"
)

const quizColumns = `id, user_id, title, subject, difficulty, questions, total_questions, score, created_at, completed_at`

type sqlxQuizRepository struct {
	db *sqlx.DB
}

// NewSQLXQuizRepository creates a quiz repository; calls join a transaction found in ctx.
func NewSQLXQuizRepository(db *sqlx.DB) domain.QuizRepository {
	return &sqlxQuizRepository{db: db}
}

func (r *sqlxQuizRepository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	query := `INSERT INTO quizzes (id, user_id, title, subject, difficulty, questions, total_questions, created_at)
	          VALUES (:id, :user_id, :title, :subject, :difficulty, :questions, :total_questions, :created_at)`

	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, fromDomainQuiz(quiz)); err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

// GetQuizByID returns (nil, nil) when no quiz matches.
func (r *sqlxQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	var row models.Quiz
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by id: %w", err)
	}
	return toDomainQuiz(&row), nil
}

// ListQuizzesByUser returns the user's quizzes, newest first.
func (r *sqlxQuizRepository) ListQuizzesByUser(ctx context.Context, userID string) ([]*domain.Quiz, error) {
	var rows []models.Quiz
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	quizzes := make([]*domain.Quiz, 0, len(rows))
	for i := range rows {
		quizzes = append(quizzes, toDomainQuiz(&rows[i]))
	}
	return quizzes, nil
}

// CompleteQuiz writes graded questions, score and completion time in one statement.
// The completed_at IS NULL guard makes a second completion affect no row.
func (r *sqlxQuizRepository) CompleteQuiz(ctx context.Context, c domain.QuizCompletion) error {
	query := `UPDATE quizzes SET questions = $1, score = $2, completed_at = $3
	          WHERE id = $4 AND user_id = $5 AND completed_at IS NULL`

	err := execGuarded(ctx, r.db, domain.ErrQuizAlreadyCompleted, query,
		models.QuestionList(c.Questions), c.Score, c.CompletedAt, c.QuizID, c.UserID)
	if err != nil && !errors.Is(err, domain.ErrQuizAlreadyCompleted) {
		return fmt.Errorf("failed to complete quiz: %w", err)
	}
	return err
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	if m == nil {
		return nil
	}
	questions := []domain.Question(m.Questions)
	if questions == nil {
		questions = []domain.Question{}
	}
	return &domain.Quiz{
		ID:             m.ID,
		UserID:         m.UserID,
		Title:          m.Title,
		Subject:        m.Subject,
		Difficulty:     domain.Difficulty(m.Difficulty),
		Questions:      questions,
		TotalQuestions: m.TotalQuestions,
		Score:          util.NullInt64ToIntPtr(m.Score),
		CreatedAt:      m.CreatedAt,
		CompletedAt:    util.NullTimeToPtr(m.CompletedAt),
	}
}

func fromDomainQuiz(q *domain.Quiz) *models.Quiz {
	if q == nil {
		return nil
	}
	m := &models.Quiz{
		ID:             q.ID,
		UserID:         q.UserID,
		Title:          q.Title,
		Subject:        q.Subject,
		Difficulty:     string(q.Difficulty),
		Questions:      models.QuestionList(q.Questions),
		TotalQuestions: q.TotalQuestions,
		Score:          util.IntPtrToNullInt64(q.Score),
		CreatedAt:      q.CreatedAt,
	}
	if q.CompletedAt != nil {
		m.CompletedAt = util.TimeToNullTime(*q.CompletedAt)
	}
	return m
}
