package handler_test

import (
	"context"
	"io"
	"time"

	"study-mitra/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockAuthService ---
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password, displayName string) (*domain.TokenPair, *domain.User, error) {
	args := m.Called(ctx, email, password, displayName)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.TokenPair), args.Get(1).(*domain.User), args.Error(2)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.TokenPair), args.Get(1).(*domain.User), args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context, session domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// ValidateAccessToken accepts only testToken.
func (m *MockAuthService) ValidateAccessToken(_ context.Context, token string) (*domain.Session, error) {
	if token != testToken {
		return nil, domain.NewUnauthorizedError("invalid token")
	}
	return &domain.Session{UserID: testUserID, SessionID: "sid-1", Email: "ada@example.com"}, nil
}

// --- MockQuizService ---
type MockQuizService struct {
	mock.Mock
}

func (m *MockQuizService) GenerateQuiz(ctx context.Context, spec domain.QuizSpec) (*domain.GeneratedQuiz, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneratedQuiz), args.Error(1)
}

func (m *MockQuizService) CreateQuiz(ctx context.Context, userID string, spec domain.QuizSpec) (*domain.Quiz, error) {
	args := m.Called(ctx, userID, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockQuizService) GetQuiz(ctx context.Context, userID, quizID string) (*domain.Quiz, error) {
	args := m.Called(ctx, userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockQuizService) ListQuizzes(ctx context.Context, userID string) ([]*domain.Quiz, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Quiz), args.Error(1)
}

func (m *MockQuizService) session(args mock.Arguments) (*domain.QuizSession, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizSession), args.Error(1)
}

func (m *MockQuizService) GetSession(ctx context.Context, userID, quizID string) (*domain.QuizSession, error) {
	return m.session(m.Called(ctx, userID, quizID))
}

func (m *MockQuizService) SelectAnswer(ctx context.Context, userID, quizID, answer string) (*domain.QuizSession, error) {
	return m.session(m.Called(ctx, userID, quizID, answer))
}

func (m *MockQuizService) Advance(ctx context.Context, userID, quizID string) (*domain.QuizSession, error) {
	return m.session(m.Called(ctx, userID, quizID))
}

func (m *MockQuizService) Retreat(ctx context.Context, userID, quizID string) (*domain.QuizSession, error) {
	return m.session(m.Called(ctx, userID, quizID))
}

// --- MockChatService ---
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Send(ctx context.Context, userID, content string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, userID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatMessage), args.Error(1)
}

func (m *MockChatService) List(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatMessage), args.Error(1)
}

func (m *MockChatService) Subscribe(ctx context.Context, userID string, onSnapshot func([]domain.ChatMessage)) (domain.Subscription, error) {
	args := m.Called(ctx, userID, onSnapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Subscription), args.Error(1)
}

func (m *MockChatService) Relay(ctx context.Context, transcript []domain.ChatMessage) (string, error) {
	args := m.Called(ctx, transcript)
	return args.String(0), args.Error(1)
}

// --- MockProfileService ---
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockProfileService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockProfileService) UploadPhoto(ctx context.Context, userID string, body io.Reader) (*domain.User, error) {
	args := m.Called(ctx, userID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- MockDashboardService ---
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) GetDashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

// --- stubPinger ---
type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

// --- stubCache ---
type stubCache struct{ pingErr error }

func (stubCache) Get(context.Context, string) (string, error) { return "", domain.ErrCacheMiss }

func (stubCache) Set(context.Context, string, string, time.Duration) error { return nil }

func (stubCache) Delete(context.Context, string, ...string) error { return nil }

func (stubCache) Exists(context.Context, string) (bool, error) { return false, nil }

func (c stubCache) Ping(context.Context) error { return c.pingErr }
