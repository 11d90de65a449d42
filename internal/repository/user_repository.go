package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"study-mitra/internal/domain"
	"study-mitra/internal/repository/models"
	"study-mitra/internal/util"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const (
	userColumns = `id, email, display_name, photo_url, password_hash, total_quizzes, completed_quizzes, score_sum, subjects, created_at, updated_at`

	pgUniqueViolation = "23505"
)

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

// CreateUser inserts the account with zero aggregates. A duplicate email yields domain.ErrEmailTaken.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, email, display_name, photo_url, password_hash, total_quizzes, completed_quizzes, score_sum, subjects, created_at, updated_at)
	          VALUES (:id, :email, :display_name, :photo_url, :password_hash, 0, 0, 0, '[]'::jsonb, :created_at, :updated_at)`

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, fromDomainUser(user)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID returns (nil, nil) when no user matches.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

// GetUserByEmail matches case-insensitively and returns (nil, nil) when no user matches.
func (r *sqlxUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
}

func (r *sqlxUserRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var row models.User
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toDomainUser(&row), nil
}

// UpdateProfile merges the non-nil fields of update. sql.ErrNoRows reports an unknown user.
func (r *sqlxUserRepository) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) error {
	var displayName, photoURL sql.NullString
	if update.DisplayName != nil {
		displayName = sql.NullString{String: *update.DisplayName, Valid: true}
	}
	if update.PhotoURL != nil {
		photoURL = sql.NullString{String: *update.PhotoURL, Valid: true}
	}

	query := `UPDATE users SET
	            display_name = COALESCE($1, display_name),
	            photo_url = COALESCE($2, photo_url),
	            updated_at = $3
	          WHERE id = $4`

	return r.execOne(ctx, "update profile", query, displayName, photoURL, time.Now().UTC(), userID)
}

// RecordQuizCreated keeps subjects a distinct set.
func (r *sqlxUserRepository) RecordQuizCreated(ctx context.Context, userID, subject string) error {
	query := `UPDATE users SET
	            total_quizzes = total_quizzes + 1,
	            subjects = CASE WHEN subjects @> jsonb_build_array($1::text) THEN subjects
	                            ELSE subjects || jsonb_build_array($1::text) END,
	            updated_at = $2
	          WHERE id = $3`

	return r.execOne(ctx, "record quiz created", query, subject, time.Now().UTC(), userID)
}

func (r *sqlxUserRepository) RecordQuizCompleted(ctx context.Context, userID string, score int) error {
	query := `UPDATE users SET
	            completed_quizzes = completed_quizzes + 1,
	            score_sum = score_sum + $1,
	            updated_at = $2
	          WHERE id = $3`

	return r.execOne(ctx, "record quiz completed", query, score, time.Now().UTC(), userID)
}

func (r *sqlxUserRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	err := execGuarded(ctx, r.db, sql.ErrNoRows, query, args...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return err
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	subjects := []string(m.Subjects)
	if subjects == nil {
		subjects = []string{}
	}
	return &domain.User{
		ID:               m.ID,
		Email:            m.Email,
		DisplayName:      m.DisplayName,
		PhotoURL:         m.PhotoURL.String,
		PasswordHash:     m.PasswordHash,
		TotalQuizzes:     m.TotalQuizzes,
		CompletedQuizzes: m.CompletedQuizzes,
		ScoreSum:         m.ScoreSum,
		Subjects:         subjects,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func fromDomainUser(u *domain.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		PhotoURL:         util.StringToNullString(u.PhotoURL),
		PasswordHash:     u.PasswordHash,
		TotalQuizzes:     u.TotalQuizzes,
		CompletedQuizzes: u.CompletedQuizzes,
		ScoreSum:         u.ScoreSum,
		Subjects:         models.StringSlice(u.Subjects),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
