package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"study-mitra/internal/domain"
	"study-mitra/internal/dto"
	"study-mitra/internal/handler"
	"study-mitra/internal/middleware"
	"study-mitra/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testToken  = "good-token"
	testUserID = "u1"
)

type testApp struct {
	app       *fiber.App
	auth      *MockAuthService
	quiz      *MockQuizService
	chat      *MockChatService
	profile   *MockProfileService
	dashboard *MockDashboardService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	v := validation.NewValidator()
	ta := &testApp{
		auth:      new(MockAuthService),
		quiz:      new(MockQuizService),
		chat:      new(MockChatService),
		profile:   new(MockProfileService),
		dashboard: new(MockDashboardService),
	}
	ta.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.RegisterRoutes(ta.app, handler.Handlers{
		Auth:   handler.NewAuthHandler(ta.auth, v),
		User:   handler.NewUserHandler(ta.profile, ta.dashboard, v, 64),
		Quiz:   handler.NewQuizHandler(ta.quiz, v),
		Chat:   handler.NewChatHandler(ta.chat, v, time.Second),
		Health: handler.NewHealthHandler(stubPinger{}, stubCache{}),
	}, ta.auth)
	return ta
}

// do sends a JSON request; authed adds the bearer token the mock auth service accepts.
func (ta *testApp) do(t *testing.T, method, path string, body interface{}, authed bool) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	return ta.send(t, req)
}

func (ta *testApp) send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func openQuiz() *domain.Quiz {
	return &domain.Quiz{
		ID:         "q1",
		Title:      "Mechanics",
		Subject:    "physics",
		Difficulty: domain.DifficultyEasy,
		UserID:     testUserID,
		Questions: []domain.Question{
			{ID: "1", Question: "Who wrote the Principia?", Options: []string{"Newton", "Kepler"}, CorrectAnswer: "Newton"},
			{ID: "2", Question: "p = ?", Options: []string{"mv", "ma"}, CorrectAnswer: "mv"},
		},
		TotalQuestions: 2,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestAuthHandler(t *testing.T) {
	pair := &domain.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("SignUpCreated", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("SignUp", mock.Anything, "ada@example.com", "correct horse", "Ada").
			Return(pair, &domain.User{ID: testUserID}, nil).Once()

		status, body := ta.do(t, "POST", "/api/auth/signup", dto.SignUpRequest{Email: "ada@example.com", Password: "correct horse", DisplayName: "Ada"}, false)
		assert.Equal(t, fiber.StatusCreated, status)

		var got dto.TokenResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "a", got.AccessToken)
		assert.Equal(t, "Bearer", got.TokenType)
	})

	t.Run("SignUpInvalid", func(t *testing.T) {
		ta := newTestApp(t)
		status, body := ta.do(t, "POST", "/api/auth/signup", dto.SignUpRequest{Email: "nope", Password: "correct horse", DisplayName: "Ada"}, false)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Contains(t, string(body), `"field":"email"`)
		ta.auth.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SignUpEmailTaken", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil, domain.ErrEmailTaken).Once()

		status, _ := ta.do(t, "POST", "/api/auth/signup", dto.SignUpRequest{Email: "ada@example.com", Password: "correct horse", DisplayName: "Ada"}, false)
		assert.Equal(t, fiber.StatusConflict, status)
	})

	t.Run("SignInWrongPassword", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("SignIn", mock.Anything, "ada@example.com", "nope").
			Return(nil, nil, domain.NewUnauthorizedError("Invalid email or password")).Once()

		status, _ := ta.do(t, "POST", "/api/auth/signin", dto.SignInRequest{Email: "ada@example.com", Password: "nope"}, false)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("SignOutRequiresToken", func(t *testing.T) {
		ta := newTestApp(t)
		status, _ := ta.do(t, "POST", "/api/auth/signout", nil, false)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("SignOut", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("SignOut", mock.Anything, mock.MatchedBy(func(s domain.Session) bool { return s.SessionID == "sid-1" })).Return(nil).Once()

		status, _ := ta.do(t, "POST", "/api/auth/signout", nil, true)
		assert.Equal(t, fiber.StatusOK, status)
		ta.auth.AssertExpectations(t)
	})
}

func TestQuizHandler_GenerateQuiz(t *testing.T) {
	t.Run("ReturnsParsedQuiz", func(t *testing.T) {
		ta := newTestApp(t)
		ta.quiz.On("GenerateQuiz", mock.Anything, domain.QuizSpec{Subject: "biology", Difficulty: "hard", NumberOfQuestions: 10}).
			Return(&domain.GeneratedQuiz{Title: "Cells", Subject: "biology", Questions: openQuiz().Questions}, nil).Once()

		status, body := ta.do(t, "POST", "/api/quiz", dto.GenerateQuizRequest{Subject: "biology", Difficulty: "hard", NumberOfQuestions: 10}, false)
		assert.Equal(t, fiber.StatusOK, status)

		var got domain.GeneratedQuiz
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "Cells", got.Title)
		assert.Len(t, got.Questions, 2)
		assert.Equal(t, "Newton", got.Questions[0].CorrectAnswer)
	})

	t.Run("GenerationFailure", func(t *testing.T) {
		ta := newTestApp(t)
		ta.quiz.On("GenerateQuiz", mock.Anything, mock.Anything).
			Return(nil, domain.NewInvalidLLMResponseError("not json", nil)).Once()

		status, body := ta.do(t, "POST", "/api/quiz", dto.GenerateQuizRequest{Subject: "biology"}, false)
		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.JSONEq(t, `{"error":"An error occurred while generating the quiz"}`, string(body))
	})

	t.Run("UnparseableBody", func(t *testing.T) {
		ta := newTestApp(t)
		req := httptest.NewRequest("POST", "/api/quiz", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		status, body := ta.send(t, req)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Contains(t, string(body), `"error"`)
	})
}

func TestQuizHandler_CreateQuiz(t *testing.T) {
	t.Run("CustomSubjectResolved", func(t *testing.T) {
		ta := newTestApp(t)
		ta.quiz.On("CreateQuiz", mock.Anything, testUserID, domain.QuizSpec{Subject: "Roman roads", Difficulty: "", NumberOfQuestions: 0}).
			Return(&domain.Quiz{ID: "q9"}, nil).Once()

		status, body := ta.do(t, "POST", "/api/quizzes", dto.CreateQuizRequest{Subject: "custom", CustomSubject: " Roman roads "}, true)
		assert.Equal(t, fiber.StatusCreated, status)
		assert.JSONEq(t, `{"id":"q9"}`, string(body))
	})

	t.Run("CustomSubjectMissing", func(t *testing.T) {
		ta := newTestApp(t)
		status, body := ta.do(t, "POST", "/api/quizzes", dto.CreateQuizRequest{Subject: "custom"}, true)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Contains(t, string(body), `"field":"customSubject"`)
	})

	t.Run("LLMUnavailable", func(t *testing.T) {
		ta := newTestApp(t)
		ta.quiz.On("CreateQuiz", mock.Anything, testUserID, mock.Anything).
			Return(nil, domain.NewLLMServiceError(errors.New("timeout"))).Once()

		status, _ := ta.do(t, "POST", "/api/quizzes", dto.CreateQuizRequest{Subject: "physics"}, true)
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		ta := newTestApp(t)
		status, _ := ta.do(t, "POST", "/api/quizzes", dto.CreateQuizRequest{Subject: "physics"}, false)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestQuizHandler_GetQuizHidesAnswersUntilCompleted(t *testing.T) {
	ta := newTestApp(t)
	ta.quiz.On("GetQuiz", mock.Anything, testUserID, "q1").Return(openQuiz(), nil).Once()
	ta.quiz.On("GetQuiz", mock.Anything, testUserID, "other").Return(nil, domain.NewQuizNotFoundError("other")).Once()

	status, body := ta.do(t, "GET", "/api/quizzes/q1", nil, true)
	assert.Equal(t, fiber.StatusOK, status)
	var got domain.Quiz
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Empty(t, got.Questions[0].CorrectAnswer)

	status, body = ta.do(t, "GET", "/api/quizzes/other", nil, true)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, string(body), "QUIZ_NOT_FOUND")
}

func TestQuizHandler_Session(t *testing.T) {
	t.Run("OpenSessionHidesCorrectAnswer", func(t *testing.T) {
		ta := newTestApp(t)
		qs := domain.NewQuizSession(openQuiz())
		require.NoError(t, qs.SelectAnswer("Kepler"))
		ta.quiz.On("SelectAnswer", mock.Anything, testUserID, "q1", "Kepler").Return(qs, nil).Once()

		status, body := ta.do(t, "PUT", "/api/quizzes/q1/session/selection", dto.SelectAnswerRequest{Answer: "Kepler"}, true)
		assert.Equal(t, fiber.StatusOK, status)

		var got dto.QuizSessionResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, domain.SessionInProgress, got.State)
		assert.Equal(t, "Kepler", got.SelectedAnswer)
		require.NotNil(t, got.Question)
		assert.Empty(t, got.Question.CorrectAnswer)
		assert.Equal(t, float64(50), got.Progress)
		assert.Nil(t, got.Score)
		assert.Empty(t, got.Review)
	})

	t.Run("CompletedSessionShowsReview", func(t *testing.T) {
		ta := newTestApp(t)
		quiz := openQuiz()
		done := time.Now().UTC()
		score := 50
		yes, no := true, false
		newton, ma := "Newton", "ma"
		quiz.Questions[0].UserAnswer, quiz.Questions[0].IsCorrect = &newton, &yes
		quiz.Questions[1].UserAnswer, quiz.Questions[1].IsCorrect = &ma, &no
		quiz.CompletedAt, quiz.Score = &done, &score
		ta.quiz.On("Advance", mock.Anything, testUserID, "q1").Return(domain.NewQuizSession(quiz), nil).Once()

		status, body := ta.do(t, "POST", "/api/quizzes/q1/session/advance", nil, true)
		assert.Equal(t, fiber.StatusOK, status)

		var got dto.QuizSessionResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, domain.SessionCompleted, got.State)
		require.NotNil(t, got.Score)
		assert.Equal(t, 50, *got.Score)
		require.Len(t, got.Review, 2)
		assert.Equal(t, "mv", got.Review[1].CorrectAnswer)
		assert.False(t, *got.Review[1].IsCorrect)
		assert.Nil(t, got.Question)
	})

	t.Run("AdvanceWithoutSelection", func(t *testing.T) {
		ta := newTestApp(t)
		ta.quiz.On("Advance", mock.Anything, testUserID, "q1").
			Return(nil, domain.NewInvalidSessionActionError(domain.ErrNoAnswerSelected)).Once()

		status, body := ta.do(t, "POST", "/api/quizzes/q1/session/advance", nil, true)
		assert.Equal(t, fiber.StatusConflict, status)
		assert.Contains(t, string(body), "INVALID_SESSION_ACTION")
	})

	t.Run("ListQuizzes", func(t *testing.T) {
		ta := newTestApp(t)
		ta.quiz.On("ListQuizzes", mock.Anything, testUserID).Return([]*domain.Quiz{openQuiz()}, nil).Once()

		status, body := ta.do(t, "GET", "/api/quizzes", nil, true)
		assert.Equal(t, fiber.StatusOK, status)
		var got []dto.QuizListItem
		require.NoError(t, json.Unmarshal(body, &got))
		require.Len(t, got, 1)
		assert.Equal(t, "easy", got[0].Difficulty)
		assert.Nil(t, got[0].CompletedAt)
	})
}

func TestQuizHandler_ListSubjects(t *testing.T) {
	ta := newTestApp(t)
	status, body := ta.do(t, "GET", "/api/subjects", nil, false)
	assert.Equal(t, fiber.StatusOK, status)

	var got []domain.Subject
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, domain.CustomSubjectID, got[len(got)-1].ID)
}

func TestChatHandler_Relay(t *testing.T) {
	t.Run("AnswersLastMessage", func(t *testing.T) {
		ta := newTestApp(t)
		ta.chat.On("Relay", mock.Anything, []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello"},
			{Role: domain.RoleUser, Content: "what is entropy?"},
		}).Return("A measure of disorder.", nil).Once()

		status, body := ta.do(t, "POST", "/api/chat", dto.ChatRelayRequest{Messages: []dto.RelayMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "what is entropy?"},
		}}, false)
		assert.Equal(t, fiber.StatusOK, status)
		assert.JSONEq(t, `{"response":"A measure of disorder."}`, string(body))
	})

	t.Run("TutorFailure", func(t *testing.T) {
		ta := newTestApp(t)
		ta.chat.On("Relay", mock.Anything, mock.Anything).Return("", domain.NewLLMServiceError(errors.New("down"))).Once()

		status, body := ta.do(t, "POST", "/api/chat", dto.ChatRelayRequest{Messages: []dto.RelayMessage{{Role: "user", Content: "hi"}}}, false)
		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.JSONEq(t, `{"error":"An error occurred while processing your request"}`, string(body))
	})

	t.Run("UnknownRole", func(t *testing.T) {
		ta := newTestApp(t)
		status, body := ta.do(t, "POST", "/api/chat", dto.ChatRelayRequest{Messages: []dto.RelayMessage{{Role: "system", Content: "hi"}}}, false)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Contains(t, string(body), "messages[0].role")
		ta.chat.AssertNotCalled(t, "Relay", mock.Anything, mock.Anything)
	})
}

func TestChatHandler_Messages(t *testing.T) {
	t.Run("SendReturnsBothMessages", func(t *testing.T) {
		ta := newTestApp(t)
		now := time.Now().UTC()
		ta.chat.On("Send", mock.Anything, testUserID, "Explain torque").Return([]domain.ChatMessage{
			{ID: "m1", Role: domain.RoleUser, Content: "Explain torque", CreatedAt: now},
			{ID: "m2", Role: domain.RoleAssistant, Content: "Torque is...", CreatedAt: now.Add(time.Millisecond)},
		}, nil).Once()

		status, body := ta.do(t, "POST", "/api/chat/messages", dto.SendMessageRequest{Content: "Explain torque"}, true)
		assert.Equal(t, fiber.StatusCreated, status)
		var got dto.ChatMessagesResponse
		require.NoError(t, json.Unmarshal(body, &got))
		require.Len(t, got.Messages, 2)
		assert.Equal(t, domain.RoleAssistant, got.Messages[1].Role)
	})

	t.Run("BlankMessage", func(t *testing.T) {
		ta := newTestApp(t)
		status, _ := ta.do(t, "POST", "/api/chat/messages", dto.SendMessageRequest{Content: "   "}, true)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("EmptyTranscript", func(t *testing.T) {
		ta := newTestApp(t)
		ta.chat.On("List", mock.Anything, testUserID).Return(nil, nil).Once()

		status, body := ta.do(t, "GET", "/api/chat/messages", nil, true)
		assert.Equal(t, fiber.StatusOK, status)
		assert.JSONEq(t, `{"messages":[]}`, string(body))
	})

	t.Run("StreamSubscribeFailure", func(t *testing.T) {
		ta := newTestApp(t)
		ta.chat.On("Subscribe", mock.Anything, testUserID, mock.Anything).
			Return(nil, domain.NewInternalError("Failed to subscribe to chat", errors.New("redis down"))).Once()

		status, _ := ta.do(t, "GET", "/api/chat/stream", nil, true)
		assert.Equal(t, fiber.StatusInternalServerError, status)
	})

	t.Run("StreamRequiresToken", func(t *testing.T) {
		ta := newTestApp(t)
		status, _ := ta.do(t, "GET", "/api/chat/stream", nil, false)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func photoRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("photo", "me.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/users/me/photo", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestUserHandler(t *testing.T) {
	user := &domain.User{ID: testUserID, Email: "ada@example.com", DisplayName: "Ada", TotalQuizzes: 3, CompletedQuizzes: 2, ScoreSum: 150}

	t.Run("GetProfile", func(t *testing.T) {
		ta := newTestApp(t)
		ta.profile.On("GetProfile", mock.Anything, testUserID).Return(user, nil).Once()

		status, body := ta.do(t, "GET", "/api/users/me", nil, true)
		assert.Equal(t, fiber.StatusOK, status)
		var got dto.UserProfileResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, 75, got.AverageScore)
		assert.Equal(t, []string{}, got.Subjects)
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		ta := newTestApp(t)
		name := "Ada L."
		ta.profile.On("UpdateProfile", mock.Anything, testUserID, domain.ProfileUpdate{DisplayName: &name}).Return(user, nil).Once()

		status, _ := ta.do(t, "PUT", "/api/users/me", map[string]string{"displayName": name}, true)
		assert.Equal(t, fiber.StatusOK, status)
		ta.profile.AssertExpectations(t)
	})

	t.Run("UploadPhoto", func(t *testing.T) {
		ta := newTestApp(t)
		ta.profile.On("UploadPhoto", mock.Anything, testUserID, mock.Anything).Return(user, nil).Once()

		status, _ := ta.send(t, photoRequest(t, []byte("small")))
		assert.Equal(t, fiber.StatusOK, status)
		ta.profile.AssertExpectations(t)
	})

	t.Run("UploadPhotoTooLarge", func(t *testing.T) {
		ta := newTestApp(t)
		status, _ := ta.send(t, photoRequest(t, bytes.Repeat([]byte("x"), 65)))
		assert.Equal(t, fiber.StatusRequestEntityTooLarge, status)
		ta.profile.AssertNotCalled(t, "UploadPhoto", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UploadPhotoNotAnImage", func(t *testing.T) {
		ta := newTestApp(t)
		ta.profile.On("UploadPhoto", mock.Anything, testUserID, mock.Anything).
			Return(nil, domain.NewError(domain.CodeUnsupportedMediaType, "not an image", nil)).Once()

		status, _ := ta.send(t, photoRequest(t, []byte("text")))
		assert.Equal(t, fiber.StatusUnsupportedMediaType, status)
	})

	t.Run("Dashboard", func(t *testing.T) {
		ta := newTestApp(t)
		ta.dashboard.On("GetDashboard", mock.Anything, testUserID).Return(&domain.Dashboard{TotalQuizzes: 3, RecentQuizzes: []domain.QuizSummary{}}, nil).Once()

		status, body := ta.do(t, "GET", "/api/users/me/dashboard", nil, true)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, string(body), `"totalQuizzes":3`)
	})
}

func TestHealthHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handler.NewHealthHandler(stubPinger{err: errors.New("db down")}, stubCache{}).Check)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var got handler.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "down", got.Database)
	assert.Equal(t, "ok", got.Redis)
}
