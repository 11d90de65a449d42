package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"study-mitra/internal/cache"
	"study-mitra/internal/domain"
	"study-mitra/internal/logger"
	"study-mitra/internal/util"

	"go.uber.org/zap"
)

// QuizService creates quizzes and drives quiz sessions. Session snapshots live in the cache
// between requests; the completed quiz in the database is authoritative.
type QuizService interface {
	// GenerateQuiz calls the generator without storing anything.
	GenerateQuiz(ctx context.Context, spec domain.QuizSpec) (*domain.GeneratedQuiz, error)
	CreateQuiz(ctx context.Context, userID string, spec domain.QuizSpec) (*domain.Quiz, error)
	GetQuiz(ctx context.Context, userID, quizID string) (*domain.Quiz, error)
	ListQuizzes(ctx context.Context, userID string) ([]*domain.Quiz, error)

	GetSession(ctx context.Context, userID, quizID string) (*domain.QuizSession, error)
	SelectAnswer(ctx context.Context, userID, quizID, answer string) (*domain.QuizSession, error)
	Advance(ctx context.Context, userID, quizID string) (*domain.QuizSession, error)
	Retreat(ctx context.Context, userID, quizID string) (*domain.QuizSession, error)
}

type quizServiceImpl struct {
	quizRepo   domain.QuizRepository
	userRepo   domain.UserRepository
	generator  domain.QuizGenerator
	cache      domain.Cache
	txManager  domain.TransactionManager
	sessionTTL time.Duration
	now        func() time.Time
}

func NewQuizService(
	quizRepo domain.QuizRepository,
	userRepo domain.UserRepository,
	generator domain.QuizGenerator,
	cache domain.Cache,
	txManager domain.TransactionManager,
	sessionTTL time.Duration,
) QuizService {
	return &quizServiceImpl{
		quizRepo:   quizRepo,
		userRepo:   userRepo,
		generator:  generator,
		cache:      cache,
		txManager:  txManager,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// normalizeSpec applies the defaults for difficulty and length.
func normalizeSpec(spec domain.QuizSpec) (domain.QuizSpec, error) {
	spec.Subject = strings.TrimSpace(spec.Subject)
	if spec.Subject == "" {
		return spec, domain.ValidationErrors{domain.NewMissingFieldError("subject")}
	}
	if spec.Difficulty == "" {
		spec.Difficulty = domain.DefaultDifficulty
	}
	if !spec.Difficulty.Valid() {
		return spec, domain.ValidationErrors{domain.NewOutOfRangeError("difficulty", spec.Difficulty, "easy, medium, hard")}
	}
	if spec.NumberOfQuestions <= 0 {
		spec.NumberOfQuestions = domain.DefaultNumberOfQuestions
	}
	return spec, nil
}

func (s *quizServiceImpl) GenerateQuiz(ctx context.Context, spec domain.QuizSpec) (*domain.GeneratedQuiz, error) {
	spec, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}
	return s.generator.Generate(ctx, spec)
}

func (s *quizServiceImpl) CreateQuiz(ctx context.Context, userID string, spec domain.QuizSpec) (*domain.Quiz, error) {
	spec, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}

	generated, err := s.generator.Generate(ctx, spec)
	if err != nil {
		return nil, err
	}

	quiz := &domain.Quiz{
		ID:             util.NewULID(),
		Title:          generated.Title,
		Subject:        spec.Subject,
		Difficulty:     spec.Difficulty,
		Questions:      generated.Questions,
		UserID:         userID,
		CreatedAt:      s.now().UTC(),
		TotalQuestions: len(generated.Questions),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quizRepo.CreateQuiz(txCtx, quiz); err != nil {
			return err
		}
		return s.userRepo.RecordQuizCreated(txCtx, userID, quiz.Subject)
	})
	if err != nil {
		return nil, domain.NewInternalError("Failed to save quiz", err)
	}

	s.invalidateDashboard(ctx, userID)
	logger.Get().Info("Quiz created",
		zap.String("quiz_id", quiz.ID),
		zap.String("user_id", userID),
		zap.String("subject", quiz.Subject),
		zap.Int("questions", quiz.TotalQuestions))
	return quiz, nil
}

// GetQuiz hides quizzes owned by someone else behind the same error as a missing quiz.
func (s *quizServiceImpl) GetQuiz(ctx context.Context, userID, quizID string) (*domain.Quiz, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz", err)
	}
	if quiz == nil || !quiz.OwnedBy(userID) {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	return quiz, nil
}

func (s *quizServiceImpl) ListQuizzes(ctx context.Context, userID string) ([]*domain.Quiz, error) {
	quizzes, err := s.quizRepo.ListQuizzesByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quizzes", err)
	}
	return quizzes, nil
}

func (s *quizServiceImpl) GetSession(ctx context.Context, userID, quizID string) (*domain.QuizSession, error) {
	return s.loadSession(ctx, userID, quizID)
}

func (s *quizServiceImpl) SelectAnswer(ctx context.Context, userID, quizID, answer string) (*domain.QuizSession, error) {
	session, err := s.loadSession(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if err := session.SelectAnswer(answer); err != nil {
		return nil, sessionActionError(quizID, err)
	}
	s.saveSession(ctx, userID, session)
	return session, nil
}

func (s *quizServiceImpl) Advance(ctx context.Context, userID, quizID string) (*domain.QuizSession, error) {
	session, err := s.loadSession(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if err := session.Advance(ctx, s); err != nil {
		if errors.Is(err, domain.ErrQuizAlreadyCompleted) {
			s.dropSession(ctx, userID, quizID)
			return nil, domain.NewQuizAlreadyCompletedError(quizID)
		}
		return nil, sessionActionError(quizID, err)
	}

	if session.State() == domain.SessionCompleted {
		s.dropSession(ctx, userID, quizID)
		s.invalidateDashboard(ctx, userID)
		score, _ := session.Score()
		logger.Get().Info("Quiz completed", zap.String("quiz_id", quizID), zap.String("user_id", userID), zap.Int("score", score))
		return session, nil
	}
	s.saveSession(ctx, userID, session)
	return session, nil
}

func (s *quizServiceImpl) Retreat(ctx context.Context, userID, quizID string) (*domain.QuizSession, error) {
	session, err := s.loadSession(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if err := session.Retreat(); err != nil {
		return nil, sessionActionError(quizID, err)
	}
	s.saveSession(ctx, userID, session)
	return session, nil
}

// CompleteQuiz implements domain.CompletionWriter. The guarded quiz update and the
// profile aggregates commit together or not at all.
func (s *quizServiceImpl) CompleteQuiz(ctx context.Context, completion domain.QuizCompletion) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quizRepo.CompleteQuiz(txCtx, completion); err != nil {
			return err
		}
		return s.userRepo.RecordQuizCompleted(txCtx, completion.UserID, completion.Score)
	})
}

func sessionActionError(quizID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionCompleted):
		return domain.NewQuizAlreadyCompletedError(quizID)
	case errors.Is(err, domain.ErrNoAnswerSelected),
		errors.Is(err, domain.ErrCannotRetreat),
		errors.Is(err, domain.ErrNoQuestions):
		return domain.NewInvalidSessionActionError(err)
	default:
		return domain.NewInternalError("Failed to complete quiz", err)
	}
}

func (s *quizServiceImpl) loadSession(ctx context.Context, userID, quizID string) (*domain.QuizSession, error) {
	quiz, err := s.GetQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.IsCompleted() {
		return domain.NewQuizSession(quiz), nil
	}

	raw, err := s.cache.Get(ctx, cache.QuizSessionKey(userID, quizID))
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Failed to read quiz session, starting over", zap.String("quiz_id", quizID), zap.Error(err))
		}
		return domain.NewQuizSession(quiz), nil
	}

	var snap domain.SessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		logger.Get().Warn("Discarding unreadable quiz session", zap.String("quiz_id", quizID), zap.Error(err))
		return domain.NewQuizSession(quiz), nil
	}
	return domain.RestoreQuizSession(quiz, snap), nil
}

func (s *quizServiceImpl) saveSession(ctx context.Context, userID string, session *domain.QuizSession) {
	quizID := session.Quiz().ID
	raw, err := json.Marshal(session.Snapshot())
	if err != nil {
		logger.Get().Error("Failed to encode quiz session", zap.String("quiz_id", quizID), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, cache.QuizSessionKey(userID, quizID), string(raw), s.sessionTTL); err != nil {
		logger.Get().Warn("Failed to store quiz session", zap.String("quiz_id", quizID), zap.Error(err))
	}
}

func (s *quizServiceImpl) dropSession(ctx context.Context, userID, quizID string) {
	if err := s.cache.Delete(ctx, cache.QuizSessionKey(userID, quizID)); err != nil {
		logger.Get().Warn("Failed to delete quiz session", zap.String("quiz_id", quizID), zap.Error(err))
	}
}

func (s *quizServiceImpl) invalidateDashboard(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, cache.DashboardKey(userID)); err != nil {
		logger.Get().Warn("Failed to invalidate dashboard", zap.String("user_id", userID), zap.Error(err))
	}
}
