package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"maintenance-copilot/internal/common/errors"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/common/metrics"
	"maintenance-copilot/internal/models"
)

// Node is one copilot workflow node.
type Node interface {
	Name() string
	Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error)
}

// NodeJobHandler runs a single node against the workflow state carried in the job
// variables and completes the job with the merged state. This lets a BPMN process
// sequence the nodes itself.
type NodeJobHandler struct {
	node    Node
	timeout time.Duration
	errors  *errors.ErrorHandler
	logger  logger.Logger
}

func NewNodeJobHandler(node Node, timeout time.Duration, log logger.Logger) *NodeJobHandler {
	log = log.With(map[string]interface{}{"node": node.Name()})
	return &NodeJobHandler{
		node:    node,
		timeout: timeout,
		errors:  errors.NewErrorHandler(log),
		logger:  log,
	}
}

func (h *NodeJobHandler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	state, err := h.Run(ctx, []byte(job.Variables))
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	if err := CompleteJob(ctx, client, job, state); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

// Run decodes a workflow state, executes the node on it and returns the merged state.
func (h *NodeJobHandler) Run(ctx context.Context, variables []byte) (models.WorkflowState, error) {
	var state models.WorkflowState
	if err := json.Unmarshal(variables, &state); err != nil {
		return models.WorkflowState{}, errors.NewInvalidInputError(fmt.Sprintf("workflow state: %v", err))
	}
	if state.UserInput == "" {
		return models.WorkflowState{}, errors.NewInvalidInputError("user_input is required")
	}

	update, err := h.node.Execute(ctx, state)
	if err != nil {
		return models.WorkflowState{}, errors.NewWorkflowExecutionError(fmt.Errorf("node %s: %w", h.node.Name(), err))
	}
	return state.Apply(update), nil
}

func (h *NodeJobHandler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := "INTERNAL_ERROR"
	if stdErr, ok := errors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(job.Type, code).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}
