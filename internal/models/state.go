// internal/models/state.go
package models

import "slices"

// Message is one prior conversation turn.
type Message struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}

// WorkflowState is the record threaded through the copilot pipeline. Nodes never mutate
// it; they return a StateUpdate which Apply merges into a new value.
type WorkflowState struct {
	RequestID           string    `json:"request_id,omitempty"`
	UserInput           string    `json:"user_input"`
	ConversationHistory []Message `json:"conversation_history,omitempty"`

	QueryType            QueryType             `json:"query_type,omitempty"`
	MachineID            string                `json:"machine_id,omitempty"`
	MachineContext       *MachineContext       `json:"machine_context,omitempty"`
	MachineList          []RankedMachine       `json:"machine_list,omitempty"`
	CandidateMachines    []Machine             `json:"candidate_machines,omitempty"`
	DocumentationFilters *DocumentationFilters `json:"documentation_filters,omitempty"`
	AnalysisCriteria     *AnalysisCriteria     `json:"analysis_criteria,omitempty"`

	SensorData       []SensorReading  `json:"sensor_data,omitempty"`
	PredictionData   *Prediction      `json:"prediction_data,omitempty"`
	Analysis         *AnalysisResult  `json:"analysis,omitempty"`
	FailureType      string           `json:"failure_type,omitempty"`
	AnomalyDetected  bool             `json:"anomaly_detected,omitempty"`
	KnowledgeContext []KnowledgeChunk `json:"knowledge_context,omitempty"`
	RepairSteps      []string         `json:"repair_steps,omitempty"`

	NeedsClarification    bool                `json:"needs_clarification"`
	ClarificationQuestion string              `json:"clarification_question,omitempty"`
	Error                 string              `json:"error,omitempty"`
	ShouldContinue        bool                `json:"should_continue"`
	Response              string              `json:"response,omitempty"`
	StructuredResponse    *StructuredResponse `json:"structured_response,omitempty"`
}

// NewWorkflowState creates the initial state for one request.
func NewWorkflowState(requestID, userInput string, history []Message) WorkflowState {
	return WorkflowState{
		RequestID:           requestID,
		UserInput:           userInput,
		ConversationHistory: slices.Clone(history),
		ShouldContinue:      true,
	}
}

// StateUpdate is the partial result of one node. Nil pointers and nil slices leave the
// corresponding field untouched; a non-nil empty slice clears it.
type StateUpdate struct {
	QueryType             *QueryType
	MachineID             *string
	MachineContext        *MachineContext
	MachineList           []RankedMachine
	CandidateMachines     []Machine
	DocumentationFilters  *DocumentationFilters
	AnalysisCriteria      *AnalysisCriteria
	SensorData            []SensorReading
	PredictionData        *Prediction
	Analysis              *AnalysisResult
	FailureType           *string
	AnomalyDetected       *bool
	KnowledgeContext      []KnowledgeChunk
	RepairSteps           []string
	NeedsClarification    *bool
	ClarificationQuestion *string
	Error                 *string
	ShouldContinue        *bool
	Response              *string
	StructuredResponse    *StructuredResponse
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneAnalysis(a *AnalysisResult) *AnalysisResult {
	out := clonePtr(a)
	if out == nil {
		return nil
	}
	out.Alerts = slices.Clone(a.Alerts)
	out.Anomalies = slices.Clone(a.Anomalies)
	out.Recommendations = slices.Clone(a.Recommendations)
	out.TimeToFailure = clonePtr(a.TimeToFailure)
	return out
}

func cloneStructured(r *StructuredResponse) *StructuredResponse {
	out := clonePtr(r)
	if out == nil {
		return nil
	}
	out.CriticalAlerts = slices.Clone(r.CriticalAlerts)
	out.Recommendations = slices.Clone(r.Recommendations)
	out.MachineAnalysis = slices.Clone(r.MachineAnalysis)
	for i := range out.MachineAnalysis {
		out.MachineAnalysis[i].Recommendations = slices.Clone(r.MachineAnalysis[i].Recommendations)
		out.MachineAnalysis[i].LatestMetrics = clonePtr(r.MachineAnalysis[i].LatestMetrics)
	}
	return out
}

func cloneCriteria(c *AnalysisCriteria) *AnalysisCriteria {
	out := clonePtr(c)
	if out == nil {
		return nil
	}
	out.CompoundIntents = slices.Clone(c.CompoundIntents)
	return out
}

func clonePrediction(p *Prediction) *Prediction {
	out := clonePtr(p)
	if out == nil {
		return nil
	}
	out.Confidence = clonePtr(p.Confidence)
	out.PredictedFailureTime = clonePtr(p.PredictedFailureTime)
	return out
}

func cloneRanked(list []RankedMachine) []RankedMachine {
	out := slices.Clone(list)
	for i := range out {
		out[i].PredictedFailureTime = clonePtr(list[i].PredictedFailureTime)
		out[i].CriticalAlerts = slices.Clone(list[i].CriticalAlerts)
		out[i].LatestReading = clonePtr(list[i].LatestReading)
	}
	return out
}

func cloneChunks(chunks []KnowledgeChunk) []KnowledgeChunk {
	out := slices.Clone(chunks)
	for i := range out {
		out[i].PageNumber = clonePtr(chunks[i].PageNumber)
	}
	return out
}

// Continue is the update of a node that changed nothing.
func Continue() StateUpdate {
	return StateUpdate{ShouldContinue: Ptr(true)}
}

// Clarify terminates the pipeline with a question for the user.
func Clarify(question string) StateUpdate {
	return StateUpdate{
		NeedsClarification:    Ptr(true),
		ClarificationQuestion: Ptr(question),
		ShouldContinue:        Ptr(false),
	}
}

// SoftError records a node-local failure and lets the pipeline proceed.
func SoftError(msg string) StateUpdate {
	return StateUpdate{Error: Ptr(msg), ShouldContinue: Ptr(true)}
}

// Clone returns a copy of s that shares no slices or pointers with it.
func (s WorkflowState) Clone() WorkflowState {
	out := s
	out.ConversationHistory = slices.Clone(s.ConversationHistory)
	out.MachineContext = clonePtr(s.MachineContext)
	out.MachineList = cloneRanked(s.MachineList)
	out.CandidateMachines = slices.Clone(s.CandidateMachines)
	out.DocumentationFilters = clonePtr(s.DocumentationFilters)
	out.AnalysisCriteria = cloneCriteria(s.AnalysisCriteria)
	out.SensorData = slices.Clone(s.SensorData)
	out.PredictionData = clonePrediction(s.PredictionData)
	out.Analysis = cloneAnalysis(s.Analysis)
	out.KnowledgeContext = cloneChunks(s.KnowledgeContext)
	out.RepairSteps = slices.Clone(s.RepairSteps)
	out.StructuredResponse = cloneStructured(s.StructuredResponse)
	return out
}

// Apply returns a new state with u merged over s. s is left unchanged.
func (s WorkflowState) Apply(u StateUpdate) WorkflowState {
	next := s.Clone()

	if u.QueryType != nil {
		next.QueryType = *u.QueryType
	}
	if u.MachineID != nil {
		next.MachineID = *u.MachineID
	}
	if u.MachineContext != nil {
		next.MachineContext = clonePtr(u.MachineContext)
	}
	if u.MachineList != nil {
		next.MachineList = cloneRanked(u.MachineList)
	}
	if u.CandidateMachines != nil {
		next.CandidateMachines = slices.Clone(u.CandidateMachines)
	}
	if u.DocumentationFilters != nil {
		next.DocumentationFilters = clonePtr(u.DocumentationFilters)
	}
	if u.AnalysisCriteria != nil {
		next.AnalysisCriteria = cloneCriteria(u.AnalysisCriteria)
	}
	if u.SensorData != nil {
		next.SensorData = slices.Clone(u.SensorData)
	}
	if u.PredictionData != nil {
		next.PredictionData = clonePrediction(u.PredictionData)
	}
	if u.Analysis != nil {
		next.Analysis = cloneAnalysis(u.Analysis)
	}
	if u.FailureType != nil {
		next.FailureType = *u.FailureType
	}
	if u.AnomalyDetected != nil {
		next.AnomalyDetected = *u.AnomalyDetected
	}
	if u.KnowledgeContext != nil {
		next.KnowledgeContext = cloneChunks(u.KnowledgeContext)
	}
	if u.RepairSteps != nil {
		next.RepairSteps = slices.Clone(u.RepairSteps)
	}
	if u.NeedsClarification != nil {
		next.NeedsClarification = *u.NeedsClarification
	}
	if u.ClarificationQuestion != nil {
		next.ClarificationQuestion = *u.ClarificationQuestion
	}
	if u.Error != nil {
		next.Error = *u.Error
	}
	if u.ShouldContinue != nil {
		next.ShouldContinue = *u.ShouldContinue
	}
	if u.Response != nil {
		next.Response = *u.Response
	}
	if u.StructuredResponse != nil {
		next.StructuredResponse = cloneStructured(u.StructuredResponse)
	}

	return next
}

// LatestReading returns the most recent sensor reading, if any.
func (s WorkflowState) LatestReading() (SensorReading, bool) {
	if len(s.SensorData) == 0 {
		return SensorReading{}, false
	}
	return s.SensorData[len(s.SensorData)-1], true
}
