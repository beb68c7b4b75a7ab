// Package workflow runs the copilot node pipeline for one request.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/common/metrics"
	"maintenance-copilot/internal/models"
)

const defaultClarification = "Saya perlu informasi lebih lanjut untuk membantu Anda."

var (
	ErrMissingNode      = errors.New("MISSING_NODE")
	ErrUnknownQueryType = errors.New("UNKNOWN_QUERY_TYPE")
)

// Node is one step of the pipeline. A returned error aborts the request; node-local
// failures are reported through the update instead.
type Node interface {
	Name() string
	Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error)
}

// Nodes bundles the pipeline steps.
type Nodes struct {
	IdentifyMachine   Node
	FetchSensor       Node
	FetchPrediction   Node
	AnalyzeMachines   Node
	AnalyzeCondition  Node
	RetrieveKnowledge Node
	GenerateAnswer    Node
}

// Input is one copilot request.
type Input struct {
	UserInput           string
	ConversationHistory []models.Message
	// MachineID optionally pins the request to a machine when the text names none.
	MachineID string
}

type Config struct {
	NodeTimeout time.Duration
}

// Recorder receives one observation per finished execution.
type Recorder interface {
	RecordWorkflow(ctx context.Context, duration time.Duration, queryType, outcome string)
}

// stage is a group of nodes that run concurrently; their updates are applied in order.
type stage []Node

type Orchestrator struct {
	config    Config
	entry     Node
	workflows map[models.QueryType][]stage
	recorder  Recorder
	tracer    trace.Tracer
	newID     func() string
	logger    logger.Logger
}

func New(config Config, nodes Nodes, log logger.Logger) (*Orchestrator, error) {
	named := map[string]Node{
		"IdentifyMachine":   nodes.IdentifyMachine,
		"FetchSensor":       nodes.FetchSensor,
		"FetchPrediction":   nodes.FetchPrediction,
		"AnalyzeMachines":   nodes.AnalyzeMachines,
		"AnalyzeCondition":  nodes.AnalyzeCondition,
		"RetrieveKnowledge": nodes.RetrieveKnowledge,
		"GenerateAnswer":    nodes.GenerateAnswer,
	}
	for field, n := range named {
		if n == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingNode, field)
		}
	}

	return &Orchestrator{
		config: config,
		entry:  nodes.IdentifyMachine,
		workflows: map[models.QueryType][]stage{
			models.QueryTypeSingleMachine: {
				{nodes.FetchSensor, nodes.FetchPrediction},
				{nodes.AnalyzeCondition},
				{nodes.RetrieveKnowledge},
				{nodes.GenerateAnswer},
			},
			models.QueryTypeDocumentation: {
				{nodes.RetrieveKnowledge},
				{nodes.GenerateAnswer},
			},
			models.QueryTypeMultiMachine: {
				{nodes.AnalyzeMachines},
				{nodes.GenerateAnswer},
			},
		},
		tracer: otel.Tracer("maintenance-copilot/workflow"),
		newID:  uuid.NewString,
		logger: log.With(map[string]interface{}{"component": "workflow"}),
	}, nil
}

// WithRecorder attaches an execution recorder.
func (o *Orchestrator) WithRecorder(r Recorder) *Orchestrator {
	o.recorder = r
	return o
}

// Execute runs the entry node, routes on the resolved query type and runs that workflow
// until a node stops the pipeline. Only unexpected failures are returned as errors.
func (o *Orchestrator) Execute(ctx context.Context, in Input) (models.WorkflowState, error) {
	start := time.Now()
	state := models.NewWorkflowState(o.newID(), in.UserInput, in.ConversationHistory)
	state.MachineID = in.MachineID

	log := o.logger.With(map[string]interface{}{"requestId": state.RequestID})
	log.Info("workflow started", map[string]interface{}{"inputLength": len(in.UserInput)})

	ctx, span := o.tracer.Start(ctx, "copilot.execute", trace.WithAttributes(
		attribute.String("request.id", state.RequestID),
	))
	defer span.End()

	state, err := o.run(ctx, state, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.record(ctx, start, state.QueryType, "failed")
		log.Error("workflow failed", map[string]interface{}{"error": err.Error()})
		return models.WorkflowState{}, fmt.Errorf("graph execution failed: %w", err)
	}

	state = finalize(state)
	outcome := outcomeOf(state)
	span.SetAttributes(
		attribute.String("query.type", string(state.QueryType)),
		attribute.String("outcome", outcome),
	)
	o.record(ctx, start, state.QueryType, outcome)

	log.Info("workflow finished", map[string]interface{}{
		"queryType":          state.QueryType,
		"outcome":            outcome,
		"needsClarification": state.NeedsClarification,
		"durationMs":         time.Since(start).Milliseconds(),
	})
	return state, nil
}

func (o *Orchestrator) run(ctx context.Context, state models.WorkflowState, log logger.Logger) (models.WorkflowState, error) {
	state, err := o.runStage(ctx, stage{o.entry}, state, log)
	if err != nil || !state.ShouldContinue {
		return state, err
	}

	stages, ok := o.workflows[state.QueryType]
	if !ok {
		return state, fmt.Errorf("%w: %q", ErrUnknownQueryType, state.QueryType)
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if state, err = o.runStage(ctx, s, state, log); err != nil {
			return state, err
		}
		if !state.ShouldContinue {
			break
		}
	}
	return state, nil
}

func (o *Orchestrator) runStage(ctx context.Context, s stage, state models.WorkflowState, log logger.Logger) (models.WorkflowState, error) {
	if len(s) == 1 {
		update, err := o.runNode(ctx, s[0], state, log)
		if err != nil {
			return state, err
		}
		return state.Apply(update), nil
	}

	updates := make([]models.StateUpdate, len(s))
	g, gctx := errgroup.WithContext(ctx)
	for i, n := range s {
		i, n := i, n
		g.Go(func() error {
			update, err := o.runNode(gctx, n, state, log)
			updates[i] = update
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return state, err
	}

	for _, u := range updates {
		state = state.Apply(u)
	}
	return state, nil
}

func (o *Orchestrator) runNode(ctx context.Context, n Node, state models.WorkflowState, log logger.Logger) (models.StateUpdate, error) {
	name := n.Name()
	if o.config.NodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.NodeTimeout)
		defer cancel()
	}

	ctx, span := o.tracer.Start(ctx, "copilot.node."+name)
	defer span.End()

	start := time.Now()
	update, err := n.Execute(ctx, state.Clone())
	elapsed := time.Since(start)
	metrics.WorkflowNodeDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.StateUpdate{}, fmt.Errorf("node %s: %w", name, err)
	}

	if update.Error != nil {
		metrics.WorkflowNodeSoftErrors.WithLabelValues(name).Inc()
		span.SetAttributes(attribute.String("node.soft_error", *update.Error))
		log.Warn("node reported an error", map[string]interface{}{
			"node":  name,
			"error": *update.Error,
		})
	}

	log.Debug("node finished", map[string]interface{}{
		"node":       name,
		"durationMs": elapsed.Milliseconds(),
	})
	return update, nil
}

// finalize fills the response of a pipeline that stopped before composing an answer.
func finalize(state models.WorkflowState) models.WorkflowState {
	if state.Response != "" {
		return state
	}
	switch {
	case state.NeedsClarification:
		state.Response = state.ClarificationQuestion
		if state.Response == "" {
			state.Response = defaultClarification
		}
	case state.Error != "":
		state.Response = state.Error
	}
	return state
}

func outcomeOf(state models.WorkflowState) string {
	switch {
	case state.NeedsClarification:
		return "clarification"
	case state.Error != "":
		return "degraded"
	default:
		return "answered"
	}
}

func (o *Orchestrator) record(ctx context.Context, start time.Time, qt models.QueryType, outcome string) {
	queryType := string(qt)
	if queryType == "" {
		queryType = "unknown"
	}
	metrics.WorkflowExecutions.WithLabelValues(queryType, outcome).Inc()
	if o.recorder != nil {
		o.recorder.RecordWorkflow(ctx, time.Since(start), queryType, outcome)
	}
}
