// Package llm holds the text-completion and embedding backends used by the copilot workflow.
package llm

import (
	"context"
	"errors"
	"fmt"

	"maintenance-copilot/internal/common/config"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrLLMTimeout          = errors.New("LLM_TIMEOUT")
	ErrLLMCompletionFailed = errors.New("LLM_COMPLETION_FAILED")
	ErrEmbeddingFailed     = errors.New("EMBEDDING_FAILED")
	ErrUnknownProvider     = errors.New("UNKNOWN_PROVIDER")
)

// CompletionProvider turns a system prompt plus ordered messages into text.
type CompletionProvider interface {
	Name() string
	// SystemPrompt is the provider-specific persona used when composing answers.
	SystemPrompt() string
	Complete(ctx context.Context, systemPrompt string, messages []models.Message) (string, error)
}

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewProvider builds the completion backend selected by cfg.Provider.
func NewProvider(cfg config.LLMConfig, log logger.Logger) (CompletionProvider, error) {
	switch cfg.Provider {
	case config.ProviderGroq:
		return NewGroqProvider(cfg.Groq, log)
	case config.ProviderGemini:
		return NewGeminiProvider(cfg.Gemini, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
