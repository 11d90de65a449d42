package handler

import (
	"study-mitra/internal/middleware"
	"study-mitra/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Quiz   *QuizHandler
	Chat   *ChatHandler
	Health *HealthHandler
}

// RegisterRoutes mounts the API under /api and the health check at /health.
func RegisterRoutes(app *fiber.App, h Handlers, authService service.AuthService) {
	if h.Health != nil {
		app.Get("/health", h.Health.Check)
	}

	api := app.Group("/api")
	protected := middleware.Protected(authService)

	// Stateless LLM endpoints
	api.Post("/chat", h.Chat.Relay)
	api.Post("/quiz", h.Quiz.GenerateQuiz)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", h.Auth.SignUp)
	authGroup.Post("/signin", h.Auth.SignIn)
	authGroup.Post("/refresh", h.Auth.RefreshToken)
	authGroup.Post("/signout", protected, h.Auth.SignOut)

	userGroup := api.Group("/users", protected)
	userGroup.Get("/me", h.User.GetMyProfile)
	userGroup.Put("/me", h.User.UpdateMyProfile)
	userGroup.Post("/me/photo", h.User.UploadMyPhoto)
	userGroup.Get("/me/dashboard", h.User.GetMyDashboard)

	api.Get("/subjects", h.Quiz.ListSubjects)

	quizGroup := api.Group("/quizzes", protected)
	quizGroup.Get("/", h.Quiz.ListQuizzes)
	quizGroup.Post("/", h.Quiz.CreateQuiz)
	quizGroup.Get("/:id", h.Quiz.GetQuiz)
	quizGroup.Get("/:id/session", h.Quiz.GetSession)
	quizGroup.Put("/:id/session/selection", h.Quiz.SelectAnswer)
	quizGroup.Post("/:id/session/advance", h.Quiz.Advance)
	quizGroup.Post("/:id/session/retreat", h.Quiz.Retreat)

	// POST /api/chat stays public, so the chat routes are protected one by one.
	chatGroup := api.Group("/chat")
	chatGroup.Get("/messages", protected, h.Chat.ListMessages)
	chatGroup.Post("/messages", protected, h.Chat.SendMessage)
	chatGroup.Get("/stream", protected, h.Chat.Stream)
}
