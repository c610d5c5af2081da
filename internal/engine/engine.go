// Package engine implements the PLAN → EXECUTE → RESPOND control loop: the
// Planned strategy, its execution-step tracking, and the task assembly that
// turns a strategy's result into a final Task.
package engine

import (
	"context"

	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/reqcontext"
	"github.com/agentexec/core/internal/repo"
	"github.com/agentexec/core/internal/tools"
)

// Event is emitted on the EventSink as the engine progresses through a
// task. Exactly one of the typed fields is populated, selected by Kind.
type Event struct {
	Kind      string              `json:"kind"`
	TaskId    ids.TaskId          `json:"taskId"`
	ContextId ids.ContextId       `json:"contextId"`
	Status    *model.TaskStatus   `json:"status,omitempty"`
	Artifact  *model.Artifact     `json:"artifact,omitempty"`
	Step      *model.ExecutionStep `json:"step,omitempty"`
	Text      string              `json:"text,omitempty"`
	Final     bool                `json:"final"`
}

const (
	EventKindStatusUpdate   = "status-update"
	EventKindArtifactUpdate = "artifact-update"
	EventKindStepUpdate     = "step-update"
	EventKindText           = "text"
	EventKindHeartbeat      = "heartbeat"
)

// EventSink receives engine events. Implementations must not block: a slow
// or disconnected subscriber is the sink's problem to drop, never the
// engine's problem to wait on.
type EventSink interface {
	Send(event Event)
}

// NopSink discards every event; used when nobody is streaming this task.
type NopSink struct{}

// Send implements EventSink by discarding event.
func (NopSink) Send(Event) {}

// AgentRuntime carries the provider/model override for a single task, if
// the caller supplied one; empty values fall back to the AI service's
// configured defaults.
type AgentRuntime struct {
	Provider string
	Model    string
}

// CancelFunc reports whether the task currently in progress has been asked
// to cancel. The engine checks it at every suspension point named in the
// concurrency model: before planning, before each tool call, and before
// response synthesis.
type CancelFunc func() bool

// ExecutionContext carries everything the Planned strategy needs to run a
// single task.
type ExecutionContext struct {
	TaskId       ids.TaskId
	ContextId    ids.ContextId
	AgentName    string
	Runtime      AgentRuntime
	RequestCtx   reqcontext.RequestContext
	AIService    ai.Service
	ToolExecutor tools.Executor
	StepRepo     repo.ExecutionStepRepository
	EventSink    EventSink
	Cancel       CancelFunc
}

func (ec ExecutionContext) canceled() bool {
	return ec.Cancel != nil && ec.Cancel()
}

func (ec ExecutionContext) sink() EventSink {
	if ec.EventSink == nil {
		return NopSink{}
	}
	return ec.EventSink
}

// Result is what a Strategy returns once a task finishes: the synthesized
// text, the tool calls it issued (empty for a direct response), and how
// many plan/execute iterations it ran.
type Result struct {
	Text       string
	ToolCalls  []ToolCallOutcome
	Iterations int
	Canceled   bool
}

// ToolCallOutcome is one resolved tool invocation and its result, carried
// from the strategy to task assembly.
type ToolCallOutcome struct {
	CallID ids.AiToolCallId
	Name   tools.Name
	Args   map[string]any
	Result tools.Result
}

// Strategy decides how a task's messages turn into a response. The
// Planned strategy is the only implementation shipped by this module;
// additional strategies (e.g. a raw passthrough for internal/ephemeral call
// sources) can be registered by callers that implement this interface.
type Strategy interface {
	Execute(ctx context.Context, ec ExecutionContext, messages []model.Message) (Result, error)
}
