package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"maintenance-copilot/internal/common/config"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

// GroqProvider talks to Groq's OpenAI-compatible chat completions endpoint.
type GroqProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	maxRetries  int
	limiter     *rate.Limiter
	logger      logger.Logger
}

func NewGroqProvider(cfg config.GroqConfig, log logger.Logger) (*GroqProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: config.GetDuration(cfg.Timeout)}

	return &GroqProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  cfg.MaxRetries,
		limiter:     newLimiter(cfg.RequestsPerMinute),
		logger:      log.With(map[string]interface{}{"provider": config.ProviderGroq}),
	}, nil
}

func (p *GroqProvider) Name() string         { return config.ProviderGroq }
func (p *GroqProvider) SystemPrompt() string { return groqSystemPrompt }

func (p *GroqProvider) Complete(ctx context.Context, systemPrompt string, messages []models.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Messages:    toOpenAIMessages(systemPrompt, messages),
	}

	var content string
	err := callWithRetry(ctx, p.Name(), p.limiter, p.maxRetries, func(ctx context.Context) error {
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
				apiErr.HTTPStatusCode != http.StatusTooManyRequests {
				return permanent(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("groq returned no choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		p.logger.Error("groq completion failed", map[string]interface{}{"error": err.Error(), "model": p.model})
		return "", err
	}

	return content, nil
}

func toOpenAIMessages(systemPrompt string, messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
