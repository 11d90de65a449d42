package tutor

import (
	"context"
	"fmt"
	"time"

	"study-mitra/internal/adapter/llm"
	"study-mitra/internal/domain"
	"study-mitra/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// SystemPrompt is sent ahead of every transcript.
const SystemPrompt = `You are Study Mitra, an educational assistant designed to help students learn various subjects.
You provide clear, concise explanations and can generate quizzes to test knowledge.
Always be helpful, accurate, and encouraging. If you don't know something, admit it rather than making up information.
Format your responses using Markdown for better readability.`

// Gateway relays a transcript to the tutor model.
type Gateway struct {
	model       llms.Model
	temperature float64
	timeout     time.Duration
}

var _ domain.ChatGateway = (*Gateway)(nil)

func NewGateway(model llms.Model, temperature float64, timeout time.Duration) (*Gateway, error) {
	if model == nil {
		return nil, fmt.Errorf("chat gateway needs a model")
	}
	return &Gateway{model: model, temperature: temperature, timeout: timeout}, nil
}

// BuildMessages returns the system instruction, the prior transcript in order and next.
func BuildMessages(transcript []domain.ChatMessage, next domain.ChatMessage) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(transcript)+2)
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, SystemPrompt))
	for _, m := range transcript {
		messages = append(messages, llms.TextParts(roleType(m.Role), m.Content))
	}
	messages = append(messages, llms.TextParts(roleType(next.Role), next.Content))
	return messages
}

func roleType(role domain.ChatRole) schema.ChatMessageType {
	if role == domain.RoleAssistant {
		return schema.ChatMessageTypeAI
	}
	return schema.ChatMessageTypeHuman
}

// Reply makes one completion request and returns the assistant text.
func (g *Gateway) Reply(ctx context.Context, transcript []domain.ChatMessage, next domain.ChatMessage) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	reply, err := llm.Complete(ctx, g.model, BuildMessages(transcript, next), llms.WithTemperature(g.temperature))
	if err != nil {
		logger.Get().Error("Chat completion failed",
			zap.Int("transcript_length", len(transcript)),
			zap.Error(err))
		return "", domain.NewLLMServiceError(err)
	}
	if reply == "" {
		return "", domain.NewLLMServiceError(llm.ErrEmptyCompletion)
	}
	return reply, nil
}
