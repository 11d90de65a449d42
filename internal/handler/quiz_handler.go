package handler

import (
	"study-mitra/internal/domain"
	"study-mitra/internal/dto"
	"study-mitra/internal/logger"
	"study-mitra/internal/middleware"
	"study-mitra/internal/service"
	"study-mitra/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const quizGenerationFailed = "An error occurred while generating the quiz"

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service   service.QuizService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService, validator *validation.Validator) *QuizHandler {
	return &QuizHandler{service: service, validator: validator}
}

// ListSubjects godoc
// @Summary List quiz subjects
// @Description Returns the predefined subjects plus the custom entry
// @Tags quiz
// @Produce json
// @Success 200 {array} domain.Subject
// @Router /subjects [get]
func (h *QuizHandler) ListSubjects(c *fiber.Ctx) error {
	return c.JSON(domain.Subjects)
}

// GenerateQuiz godoc
// @Summary Generate a quiz without saving it
// @Description Asks the model for a multiple-choice quiz and returns it as parsed JSON
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuizRequest true "Quiz parameters"
// @Success 200 {object} domain.GeneratedQuiz
// @Failure 400 {object} dto.ErrorMessageResponse
// @Failure 500 {object} dto.ErrorMessageResponse
// @Router /quiz [post]
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorMessageResponse{Error: "Invalid request body"})
	}

	quiz, err := h.service.GenerateQuiz(c.UserContext(), domain.QuizSpec{
		Subject:           req.Subject,
		Difficulty:        domain.Difficulty(req.Difficulty),
		NumberOfQuestions: req.NumberOfQuestions,
	})
	if err != nil {
		if verrs, ok := err.(domain.ValidationErrors); ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorMessageResponse{Error: verrs.Error()})
		}
		logger.Get().Error("Failed to generate quiz", zap.String("subject", req.Subject), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorMessageResponse{Error: quizGenerationFailed})
	}
	return c.JSON(quiz)
}

// CreateQuiz godoc
// @Summary Create a quiz
// @Description Generates a quiz for the caller and stores it
// @Tags quizzes
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateQuizRequest true "Quiz parameters"
// @Success 201 {object} dto.CreateQuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse "Model returned an unusable quiz"
// @Failure 503 {object} middleware.ErrorResponse "Model unavailable"
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	var req dto.CreateQuizRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	quiz, err := h.service.CreateQuiz(c.UserContext(), session.UserID, domain.QuizSpec{
		Subject:           domain.ResolveSubject(req.Subject, req.CustomSubject),
		Difficulty:        domain.Difficulty(req.Difficulty),
		NumberOfQuestions: req.NumberOfQuestions,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateQuizResponse{ID: quiz.ID})
}

// ListQuizzes godoc
// @Summary List my quizzes
// @Description Newest first
// @Tags quizzes
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} dto.QuizListItem
// @Failure 401 {object} middleware.ErrorResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	quizzes, err := h.service.ListQuizzes(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}

	items := make([]dto.QuizListItem, 0, len(quizzes))
	for _, q := range quizzes {
		items = append(items, dto.QuizListItem{
			ID:             q.ID,
			Title:          q.Title,
			Subject:        q.Subject,
			Difficulty:     string(q.Difficulty),
			TotalQuestions: q.TotalQuestions,
			CreatedAt:      q.CreatedAt,
			CompletedAt:    q.CompletedAt,
			Score:          q.Score,
		})
	}
	return c.JSON(items)
}

// GetQuiz godoc
// @Summary Get a quiz
// @Description Correct answers are included only once the quiz is completed
// @Tags quizzes
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} domain.Quiz
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	quiz, err := h.service.GetQuiz(c.UserContext(), session.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	if quiz.IsCompleted() {
		return c.JSON(quiz)
	}

	hidden := *quiz
	hidden.Questions = make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.CorrectAnswer = ""
		hidden.Questions[i] = q
	}
	return c.JSON(hidden)
}

// GetSession godoc
// @Summary Get the quiz session
// @Tags quizzes
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} dto.QuizSessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id}/session [get]
func (h *QuizHandler) GetSession(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	qs, err := h.service.GetSession(c.UserContext(), session.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(qs))
}

// SelectAnswer godoc
// @Summary Select an answer for the current question
// @Tags quizzes
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param request body dto.SelectAnswerRequest true "Selected option"
// @Success 200 {object} dto.QuizSessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Quiz already completed"
// @Router /quizzes/{id}/session/selection [put]
func (h *QuizHandler) SelectAnswer(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	var req dto.SelectAnswerRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	qs, err := h.service.SelectAnswer(c.UserContext(), session.UserID, c.Params("id"), req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(qs))
}

// Advance godoc
// @Summary Record the selection and move on
// @Description On the last question this grades and stores the quiz
// @Tags quizzes
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} dto.QuizSessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "No answer selected or quiz already completed"
// @Router /quizzes/{id}/session/advance [post]
func (h *QuizHandler) Advance(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	qs, err := h.service.Advance(c.UserContext(), session.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(qs))
}

// Retreat godoc
// @Summary Go back one question
// @Tags quizzes
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} dto.QuizSessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Already at the first question"
// @Router /quizzes/{id}/session/retreat [post]
func (h *QuizHandler) Retreat(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	qs, err := h.service.Retreat(c.UserContext(), session.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(qs))
}

// sessionResponse shows the current question without its answer while the quiz
// is open, and the full graded review once it is completed.
func sessionResponse(qs *domain.QuizSession) dto.QuizSessionResponse {
	quiz := qs.Quiz()
	resp := dto.QuizSessionResponse{
		QuizID:         quiz.ID,
		Title:          quiz.Title,
		Subject:        quiz.Subject,
		Difficulty:     quiz.Difficulty,
		State:          qs.State(),
		CurrentIndex:   qs.CurrentIndex(),
		TotalQuestions: len(quiz.Questions),
		Progress:       qs.Progress(),
		IsLastQuestion: qs.IsLastQuestion(),
		SelectedAnswer: qs.SelectedAnswer(),
	}

	if score, done := qs.Score(); done {
		resp.Score = &score
		resp.Review = make([]dto.SessionQuestion, 0, len(quiz.Questions))
		for _, q := range quiz.Questions {
			resp.Review = append(resp.Review, dto.SessionQuestion{
				ID:            q.ID,
				Question:      q.Question,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
				UserAnswer:    q.UserAnswer,
				IsCorrect:     q.IsCorrect,
			})
		}
		return resp
	}

	if q, ok := qs.CurrentQuestion(); ok {
		resp.Question = &dto.SessionQuestion{ID: q.ID, Question: q.Question, Options: q.Options}
	}
	return resp
}
