// internal/workers/maintenance/generate-answer/handler.go
package generateanswer

import (
	"context"
	"fmt"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/llm"
	"maintenance-copilot/internal/models"
)

const (
	TaskType = "generate-answer"
	NodeName = "generate_answer"
)

const (
	msgNeedMachine    = "Saya perlu informasi spesifik tentang mesin yang Anda maksud. Bisa sebutkan product ID, nama, atau lokasi mesin?"
	msgGenerateFailed = "Failed to generate response"
	msgFallbackAnswer = "Unable to generate response. Please try again."
	userMessageFormat = "User Query: %s\n\nAnalysis Context:\n%s\n\nPlease provide a comprehensive response based on this analysis."
)

type Handler struct {
	config *Config
	llm    llm.CompletionProvider
	logger logger.Logger
}

func NewHandler(config *Config, provider llm.CompletionProvider, log logger.Logger) *Handler {
	fields := map[string]interface{}{"taskType": TaskType}
	if provider != nil {
		fields["provider"] = provider.Name()
	}
	return &Handler{
		config: config,
		llm:    provider,
		logger: log.With(fields),
	}
}

func (h *Handler) Name() string { return NodeName }

// Execute composes the final answer. It always terminates the pipeline and never returns an error.
func (h *Handler) Execute(ctx context.Context, state models.WorkflowState) (update models.StateUpdate, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("answer generation panicked", map[string]interface{}{
				"queryType": state.QueryType,
				"panic":     fmt.Sprint(r),
			})
			update, err = failedUpdate(), nil
		}
	}()

	if state.QueryType != models.QueryTypeDocumentation && state.MachineContext == nil && len(state.MachineList) == 0 {
		h.logger.Error("answer requested without machine context or machine list", map[string]interface{}{
			"queryType": state.QueryType,
		})
		return models.Clarify(msgNeedMachine), nil
	}

	messages := h.buildMessages(state)

	text, err := h.llm.Complete(ctx, h.llm.SystemPrompt(), messages)
	if err != nil {
		h.logger.Error("completion failed", map[string]interface{}{"error": err.Error()})
		return failedUpdate(), nil
	}

	h.logger.Info("answer generated", map[string]interface{}{
		"queryType": state.QueryType,
		"chars":     len(text),
	})

	return models.StateUpdate{
		Response:           models.Ptr(text),
		StructuredResponse: parseStructuredResponse(text, state, h.config.MaxListItems),
		ShouldContinue:     models.Ptr(false),
	}, nil
}

func failedUpdate() models.StateUpdate {
	return models.StateUpdate{
		Error:          models.Ptr(msgGenerateFailed),
		Response:       models.Ptr(msgFallbackAnswer),
		ShouldContinue: models.Ptr(false),
	}
}

// buildMessages keeps the tail of the conversation and appends the grounded query.
func (h *Handler) buildMessages(state models.WorkflowState) []models.Message {
	limit := h.config.MachineHistory
	if state.QueryType == models.QueryTypeDocumentation {
		limit = h.config.DocumentationHistory
	}

	history := state.ConversationHistory
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	messages := make([]models.Message, 0, len(history)+1)
	for _, m := range history {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			messages = append(messages, m)
		}
	}

	return append(messages, models.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf(userMessageFormat, state.UserInput, buildAnalysisContext(state)),
	})
}
