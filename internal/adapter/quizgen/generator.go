package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"study-mitra/internal/adapter/llm"
	"study-mitra/internal/domain"
	"study-mitra/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

const promptTemplate = `Generate a quiz about %[1]s with %[2]d multiple-choice questions at %[3]s difficulty level.
Format the response as a JSON object with the following structure:
{
  "title": "Quiz title",
  "subject": "%[1]s",
  "questions": [
    {
      "id": "1",
      "question": "Question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": "The correct option"
    }
  ]
}
The correctAnswer must be exactly one of the options.
Make sure the questions are challenging but fair, and cover important concepts in %[1]s.
Respond with the JSON object only.`

// Generator asks the model for a quiz and accepts only a strictly parsed, schema-valid reply.
type Generator struct {
	model       llms.Model
	temperature float64
	timeout     time.Duration
}

var _ domain.QuizGenerator = (*Generator)(nil)

func NewGenerator(model llms.Model, temperature float64, timeout time.Duration) (*Generator, error) {
	if model == nil {
		return nil, fmt.Errorf("quiz generator needs a model")
	}
	if _, err := quizResponseSchema(); err != nil {
		return nil, err
	}
	return &Generator{model: model, temperature: temperature, timeout: timeout}, nil
}

// BuildPrompt renders the generation instructions for spec.
func BuildPrompt(spec domain.QuizSpec) string {
	return fmt.Sprintf(promptTemplate, spec.Subject, spec.NumberOfQuestions, spec.Difficulty)
}

// Generate makes exactly one completion request. Any failure yields a *domain.DomainError
// with CodeLLMServiceError (transport) or CodeInvalidLLMResponse (content).
func (g *Generator) Generate(ctx context.Context, spec domain.QuizSpec) (*domain.GeneratedQuiz, error) {
	appLogger := logger.Get()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, BuildPrompt(spec)),
	}
	start := time.Now()
	raw, err := llm.Complete(ctx, g.model, messages,
		llms.WithJSONMode(),
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		appLogger.Error("Quiz generation request failed",
			zap.String("subject", spec.Subject),
			zap.String("difficulty", string(spec.Difficulty)),
			zap.Error(err))
		return nil, domain.NewLLMServiceError(err)
	}
	appLogger.Debug("Quiz generation completed",
		zap.String("subject", spec.Subject),
		zap.Duration("duration", time.Since(start)),
		zap.Int("response_bytes", len(raw)))

	quiz, err := ParseQuiz(raw)
	if err != nil {
		appLogger.Warn("Rejected quiz completion",
			zap.String("subject", spec.Subject),
			zap.Error(err))
		return nil, err
	}

	if len(quiz.Questions) != spec.NumberOfQuestions {
		appLogger.Warn("Generated question count differs from request",
			zap.Int("requested", spec.NumberOfQuestions),
			zap.Int("received", len(quiz.Questions)))
	}
	return quiz, nil
}

// ParseQuiz strictly decodes raw and validates its shape. Code fences or surrounding
// prose are not stripped; such a reply is an invalid response.
func ParseQuiz(raw string) (*domain.GeneratedQuiz, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, domain.NewInvalidLLMResponseError("quiz response is not valid JSON", err)
	}

	schema, err := quizResponseSchema()
	if err != nil {
		return nil, domain.NewInternalError("quiz schema unavailable", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, domain.NewInvalidLLMResponseError("quiz response has an unexpected shape", err)
	}

	var quiz domain.GeneratedQuiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return nil, domain.NewInvalidLLMResponseError("quiz response could not be decoded", err)
	}

	seen := make(map[string]struct{}, len(quiz.Questions))
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		// Grading state is never accepted from the model.
		q.UserAnswer, q.IsCorrect = nil, nil
		if _, dup := seen[q.ID]; dup {
			return nil, domain.NewInvalidLLMResponseError(
				fmt.Sprintf("question id %q is not unique", q.ID), nil)
		}
		seen[q.ID] = struct{}{}
		if !q.HasOption(q.CorrectAnswer) {
			return nil, domain.NewInvalidLLMResponseError(
				fmt.Sprintf("question %q has a correct answer that is not among its options", q.ID), nil)
		}
	}
	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	return &quiz, nil
}
