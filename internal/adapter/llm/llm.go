// Package llm builds the langchaingo completion model shared by the chat tutor and the quiz generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"study-mitra/internal/config"
	"study-mitra/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned when the model answers without any choice.
var ErrEmptyCompletion = errors.New("llm returned no choices")

// NewModel creates the configured backend. No network call is made here.
func NewModel(cfg config.LLMConfig) (llms.Model, error) {
	appLogger := logger.Get()
	switch cfg.Provider {
	case config.LLMProviderOpenAI:
		appLogger.Info("Initializing OpenAI LLM", zap.String("model", cfg.Model))
		m, err := openai.New(openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return m, nil
	case config.LLMProviderOllama:
		appLogger.Info("Initializing Ollama LLM", zap.String("server_url", cfg.ServerURL), zap.String("model", cfg.Model))
		m, err := ollama.New(
			ollama.WithServerURL(cfg.ServerURL),
			ollama.WithModel(cfg.Model),
			ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return m, nil
	case config.LLMProviderAnthropic:
		appLogger.Info("Initializing Anthropic LLM", zap.String("model", cfg.Model))
		m, err := anthropic.New(anthropic.WithToken(cfg.APIKey), anthropic.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic client: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

// Complete sends messages as one non-streamed request and returns the first choice's text.
func Complete(ctx context.Context, model llms.Model, messages []llms.MessageContent, opts ...llms.CallOption) (string, error) {
	resp, err := model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
