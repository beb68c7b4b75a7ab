package copilotchat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"maintenance-copilot/internal/common/camunda"
	"maintenance-copilot/internal/common/errors"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/common/metrics"
	"maintenance-copilot/internal/common/validation"
	"maintenance-copilot/internal/models"
	"maintenance-copilot/internal/workflow"
)

const TaskType = "maintenance-copilot-chat"

// Executor runs the copilot workflow for one question.
type Executor interface {
	Execute(ctx context.Context, in workflow.Input) (models.WorkflowState, error)
}

// JobRecorder receives per-job outcome telemetry.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, duration time.Duration, status string)
}

type Handler struct {
	config   *Config
	copilot  Executor
	errors   *errors.ErrorHandler
	recorder JobRecorder
	logger   logger.Logger
}

func NewHandler(config *Config, copilot Executor, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		copilot: copilot,
		errors:  errors.NewErrorHandler(log),
		logger:  log,
	}
}

func (h *Handler) WithJobRecorder(r JobRecorder) *Handler {
	h.recorder = r
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, []byte(job.Variables))
	if err != nil {
		code := string(errors.ErrCodeInternal)
		if stdErr, ok := errors.AsStandardError(err); ok {
			code = string(stdErr.Code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.record(ctx, start, "failed")
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"error": err.Error()})
		h.record(ctx, start, "failed")
		return
	}
	h.record(ctx, start, "completed")
}

func (h *Handler) record(ctx context.Context, start time.Time, status string) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordJobProcessed(ctx, status)
	h.recorder.RecordJobDuration(ctx, time.Since(start), status)
}

func (h *Handler) execute(ctx context.Context, variables []byte) (*Output, error) {
	if err := validation.ChatInputSchema.ValidateJSON(variables).Err(); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	var input Input
	if err := json.Unmarshal(variables, &input); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	state, err := h.copilot.Execute(ctx, workflow.Input{
		UserInput:           input.UserInput,
		ConversationHistory: input.ConversationHistory,
		MachineID:           input.MachineID,
	})
	if err != nil {
		// deadline errors map to TIMEOUT_ERROR, anything unclassified to WORKFLOW_EXECUTION_FAILED
		if stdErr, ok := errors.AsStandardError(err); ok {
			return nil, stdErr
		}
		return nil, errors.NewWorkflowExecutionError(err)
	}

	out := toOutput(state, h.config.AlertRiskLevel)
	h.logger.Info("copilot answered", map[string]interface{}{
		"requestId":          out.RequestID,
		"queryType":          out.QueryType,
		"needsClarification": out.NeedsClarification,
		"riskLevel":          out.RiskLevel,
		"alertRequired":      out.AlertRequired,
	})
	return out, nil
}

// toOutput maps a finished workflow state onto the job result.
func toOutput(state models.WorkflowState, alertLevel models.RiskLevel) *Output {
	out := &Output{
		RequestID:          state.RequestID,
		Response:           state.Response,
		QueryType:          state.QueryType,
		NeedsClarification: state.NeedsClarification,
		Alerts:             []string{},
	}
	if out.Response == "" {
		out.Response = noResponse
	}

	if state.StructuredResponse != nil {
		out.StructuredResponse = *state.StructuredResponse
	}
	out.StructuredResponse = withDefaults(out.StructuredResponse)

	switch {
	case state.Analysis != nil:
		a := state.Analysis
		out.RiskLevel = a.RiskLevel
		out.RiskScore = a.RiskScore
		out.Alerts = append(out.Alerts, a.Alerts...)
		if len(a.Recommendations) > 0 {
			out.Recommendation = a.Recommendations[0]
		}
		if a.TimeToFailure != nil {
			out.EstimatedDays = a.TimeToFailure.EstimatedDays
		}
		out.FailureType = state.FailureType
		if mc := state.MachineContext; mc != nil {
			out.Machine = &models.MachineRef{
				MachineID: mc.MachineID,
				ProductID: mc.ProductID,
				Name:      mc.Name,
				Location:  mc.Location,
			}
		}

	case len(state.MachineList) > 0:
		// the list is ranked, the first machine carries the highest risk
		top := state.MachineList[0]
		out.RiskLevel = top.RiskLevel
		out.RiskScore = top.RiskScore
		out.FailureType = top.FailureType
		out.Alerts = append(out.Alerts, top.CriticalAlerts...)
		out.Machine = &models.MachineRef{
			MachineID: top.ID,
			ProductID: top.ProductID,
			Name:      top.Name,
			Location:  top.Location,
		}
	}

	out.AlertRequired = out.Machine != nil && out.RiskLevel != "" && out.RiskLevel.Rank() >= alertLevel.Rank()
	return out
}

func withDefaults(sr models.StructuredResponse) models.StructuredResponse {
	if sr.MachineAnalysis == nil {
		sr.MachineAnalysis = []models.MachineAnalysis{}
	}
	if sr.OverallRisk == "" {
		sr.OverallRisk = models.RiskModerate
	}
	if sr.CriticalAlerts == nil {
		sr.CriticalAlerts = []string{}
	}
	if sr.Recommendations == nil {
		sr.Recommendations = []string{}
	}
	return sr
}
