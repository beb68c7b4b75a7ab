// internal/workers/maintenance/retrieve-knowledge/handler.go
package retrieveknowledge

import (
	"context"
	"fmt"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/llm"
	"maintenance-copilot/internal/models"
	"maintenance-copilot/internal/repository"
)

const (
	TaskType = "retrieve-knowledge"
	NodeName = "retrieve_knowledge"
)

type Handler struct {
	config   *Config
	embedder llm.Embedder
	index    repository.KnowledgeIndex
	logger   logger.Logger
}

func NewHandler(config *Config, embedder llm.Embedder, index repository.KnowledgeIndex, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		embedder: embedder,
		index:    index,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Name() string { return NodeName }

// Execute embeds the derived query and attaches the matching SOP chunks and repair steps.
func (h *Handler) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	query := buildSearchQuery(state)
	if query == "" {
		h.logger.Debug("no search query needed, skipping knowledge retrieval", nil)
		return models.StateUpdate{}, nil
	}

	opts := models.SearchOptions{
		Limit:     h.config.RepairLimit,
		Threshold: h.config.RepairThreshold,
		Category:  h.config.Category,
	}
	if state.QueryType == models.QueryTypeDocumentation {
		opts.Limit = h.config.DocumentationLimit
		opts.Threshold = h.config.DocumentationThreshold
	}

	h.logger.Info("searching knowledge base", map[string]interface{}{
		"query":     query,
		"limit":     opts.Limit,
		"threshold": opts.Threshold,
	})

	vector, err := h.embedder.Embed(ctx, query)
	if err != nil {
		return h.fail(err), nil
	}

	chunks, err := h.index.Search(ctx, vector, opts)
	if err != nil {
		return h.fail(err), nil
	}

	if len(chunks) == 0 {
		h.logger.Info("no relevant knowledge found", nil)
		return models.StateUpdate{KnowledgeContext: []models.KnowledgeChunk{}}, nil
	}

	update := models.StateUpdate{KnowledgeContext: chunks}
	if steps := extractRepairSteps(chunks, h.config.MaxSteps); len(steps) > 0 {
		update.RepairSteps = steps
	}

	h.logger.Info("knowledge retrieved", map[string]interface{}{
		"chunks": len(chunks),
		"steps":  len(update.RepairSteps),
	})
	return update, nil
}

func (h *Handler) fail(err error) models.StateUpdate {
	h.logger.Error("knowledge retrieval failed", map[string]interface{}{"error": err.Error()})
	return models.SoftError(fmt.Sprintf("Failed to retrieve knowledge: %v", err))
}
