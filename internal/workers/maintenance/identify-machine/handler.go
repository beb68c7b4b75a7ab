// internal/workers/maintenance/identify-machine/handler.go
package identifymachine

import (
	"context"
	"errors"
	"fmt"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/llm"
	"maintenance-copilot/internal/models"
	"maintenance-copilot/internal/repository"
)

const (
	TaskType = "identify-machine"
	NodeName = "identify_machine"
)

var ErrIntentParsingFailed = errors.New("INTENT_PARSING_FAILED")

const (
	msgIdentifyFailed = "Gagal mengidentifikasi mesin."

	msgNeedIdentifier = "Saya bisa membantu menganalisis kondisi mesin. Apakah Anda ingin:\n\n" +
		"• Analisis untuk mesin tertentu? (sebutkan Product ID, nama, atau lokasi mesin)\n" +
		"• Analisis untuk semua mesin?\n" +
		"• Analisis untuk mesin dalam kategori tertentu? (misal: tipe L, M, H)"

	msgNoMatch = "Saya tidak menemukan mesin yang cocok. Bisa sebutkan product ID atau lokasi mesin?"
)

type Handler struct {
	config   *Config
	llm      llm.CompletionProvider
	machines repository.MachineDirectory
	logger   logger.Logger
}

func NewHandler(config *Config, provider llm.CompletionProvider, machines repository.MachineDirectory, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		llm:      provider,
		machines: machines,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Name() string { return NodeName }

// Execute classifies the query and, on the single-machine path, resolves one machine.
// Failures are reported in the returned update; the error result is reserved for programming faults.
func (h *Handler) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	if filters, ok := fastDocumentationCheck(state.UserInput); ok {
		h.logger.Info("documentation query detected by pattern", map[string]interface{}{
			"machineType": filters.MachineType,
		})
		return models.StateUpdate{
			QueryType:            models.Ptr(models.QueryTypeDocumentation),
			DocumentationFilters: filters,
			ShouldContinue:       models.Ptr(true),
		}, nil
	}

	parsed, err := h.parseIntent(ctx, state.UserInput)
	if err != nil {
		h.logger.Error("intent parsing failed", map[string]interface{}{"error": err.Error()})
		return failed(), nil
	}

	h.logger.Info("intent parsed", map[string]interface{}{
		"multiMachine":  parsed.IsMultiMachineQuery,
		"documentation": parsed.IsDocumentationQuery,
		"intent":        parsed.Intent,
		"confidence":    parsed.Confidence,
	})

	if parsed.IsDocumentationQuery {
		intent := parsed.Intent
		if intent == "" {
			intent = "documentation"
		}
		return models.StateUpdate{
			QueryType: models.Ptr(models.QueryTypeDocumentation),
			DocumentationFilters: &models.DocumentationFilters{
				MachineType: normalizeMachineType(parsed.Machine.Type),
				Intent:      intent,
			},
			ShouldContinue: models.Ptr(true),
		}, nil
	}

	if parsed.IsMultiMachineQuery {
		criteriaType := parsed.Intent
		if criteriaType == "" {
			criteriaType = "generic"
		}
		return models.StateUpdate{
			QueryType: models.Ptr(models.QueryTypeMultiMachine),
			AnalysisCriteria: &models.AnalysisCriteria{
				CriteriaType:    criteriaType,
				TimeWindow:      parsed.TimeWindow,
				RiskThreshold:   parsed.riskThresholdString(),
				CompoundIntents: parsed.CompoundIntents,
				MachineFilters: models.MachineFilter{
					ProductID: parsed.Machine.ProductID,
					Name:      parsed.Machine.Name,
					Location:  parsed.Machine.Location,
					Type:      normalizeMachineType(parsed.Machine.Type),
				},
			},
			ShouldContinue: models.Ptr(true),
		}, nil
	}

	return h.resolveSingle(ctx, state, parsed.Machine)
}

func (h *Handler) resolveSingle(ctx context.Context, state models.WorkflowState, fields MachineFields) (models.StateUpdate, error) {
	// a caller-supplied machine id stands in for an identifier missing from the text
	if !fields.hasIdentifier() && state.MachineID != "" {
		fields.ProductID = state.MachineID
	}

	if !fields.hasIdentifier() {
		h.logger.Info("no machine identifier, asking for clarification", nil)
		return models.Clarify(msgNeedIdentifier), nil
	}

	machines, err := h.resolveMachine(ctx, fields)
	if err != nil {
		h.logger.Error("machine resolution failed", map[string]interface{}{"error": err.Error()})
		return failed(), nil
	}

	switch len(machines) {
	case 0:
		return models.Clarify(msgNoMatch), nil
	case 1:
		m := machines[0]
		mc := m.Context()
		return models.StateUpdate{
			QueryType:      models.Ptr(models.QueryTypeSingleMachine),
			MachineID:      models.Ptr(m.ID),
			MachineContext: &mc,
			ShouldContinue: models.Ptr(true),
		}, nil
	default:
		update := models.Clarify(fmt.Sprintf("Saya menemukan %d mesin. Mana yang Anda maksud?", len(machines)))
		update.CandidateMachines = machines
		return update, nil
	}
}

// resolveMachine tries an exact product id lookup before the fuzzy search.
func (h *Handler) resolveMachine(ctx context.Context, fields MachineFields) ([]models.Machine, error) {
	if fields.ProductID != "" {
		m, err := h.machines.GetByIdentifier(ctx, fields.ProductID)
		switch {
		case err != nil:
			h.logger.Warn("exact lookup failed, falling back to search", map[string]interface{}{
				"productId": fields.ProductID,
				"error":     err.Error(),
			})
		case m != nil:
			return []models.Machine{*m}, nil
		}
	}

	return h.machines.Search(ctx, models.MachineFilter{
		ProductID: fields.ProductID,
		Name:      fields.Name,
		Location:  fields.Location,
		Type:      normalizeMachineType(fields.Type),
		Limit:     h.config.SearchLimit,
	})
}

func (h *Handler) parseIntent(ctx context.Context, input string) (*ParsedIntent, error) {
	reply, err := h.llm.Complete(ctx, "", []models.Message{
		{Role: llm.RoleUser, Content: buildIntentPrompt(input)},
	})
	if err != nil {
		return nil, err
	}

	parsed, err := decodeIntent(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentParsingFailed, err)
	}
	return parsed, nil
}

func failed() models.StateUpdate {
	return models.StateUpdate{
		Error:          models.Ptr(msgIdentifyFailed),
		ShouldContinue: models.Ptr(false),
	}
}
