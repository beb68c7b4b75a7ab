package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"maintenance-copilot/internal/common/config"
	commonhttp "maintenance-copilot/internal/common/http"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

// GeminiProvider calls the generateContent REST endpoint.
type GeminiProvider struct {
	apiKey      string
	baseURL     string
	apiVersion  string
	model       string
	temperature float64
	maxTokens   int
	maxRetries  int
	client      *commonhttp.Client
	limiter     *rate.Limiter
	logger      logger.Logger
}

func NewGeminiProvider(cfg config.GeminiConfig, log logger.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	return &GeminiProvider{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion:  cfg.APIVersion,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  cfg.MaxRetries,
		client:      commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		limiter:     newLimiter(cfg.RequestsPerMinute),
		logger:      log.With(map[string]interface{}{"provider": config.ProviderGemini}),
	}, nil
}

func (p *GeminiProvider) Name() string         { return config.ProviderGemini }
func (p *GeminiProvider) SystemPrompt() string { return geminiSystemPrompt }

func (p *GeminiProvider) Complete(ctx context.Context, systemPrompt string, messages []models.Message) (string, error) {
	apiReq := p.buildAPIRequest(systemPrompt, messages)
	url := fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s", p.baseURL, p.apiVersion, p.model, p.apiKey)

	var content string
	err := callWithRetry(ctx, p.Name(), p.limiter, p.maxRetries, func(ctx context.Context) error {
		resp, err := p.client.PostJSON(ctx, url, apiReq)
		if err != nil {
			return fmt.Errorf("gemini API error: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			apiErr := parseAPIError(resp.StatusCode, body)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return permanent(apiErr)
			}
			return apiErr
		}

		var apiResp geminiResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		text, ok := apiResp.text()
		if !ok {
			return fmt.Errorf("gemini returned no candidates")
		}
		content = text
		return nil
	})
	if err != nil {
		p.logger.Error("gemini completion failed", map[string]interface{}{"error": err.Error(), "model": p.model})
		return "", err
	}

	return content, nil
}

func (p *GeminiProvider) buildAPIRequest(systemPrompt string, messages []models.Message) geminiRequest {
	req := geminiRequest{
		GenerationConfig: geminiGenerationConfig{
			Temperature:     p.temperature,
			MaxOutputTokens: p.maxTokens,
		},
	}

	for _, m := range messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	if systemPrompt != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	return req
}

func parseAPIError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return fmt.Errorf("gemini API error (status %d): %s", statusCode, string(body))
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       errResp.Error.Code,
		Status:     errResp.Error.Status,
		Message:    errResp.Error.Message,
	}
}

// APIError is a structured error body returned by the Gemini API.
type APIError struct {
	StatusCode int
	Code       int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API error (status %d, code %d, %s): %s",
		e.StatusCode, e.Code, e.Status, e.Message)
}

func (e *APIError) IsRateLimitError() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates,omitempty"`
}

func (r geminiResponse) text() (string, bool) {
	if len(r.Candidates) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), true
}
